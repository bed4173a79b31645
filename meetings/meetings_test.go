package meetings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type alertRecorder struct {
	titles   []string
	messages []string
	acks     []func()
}

func (a *alertRecorder) fn(title, message string, ack func()) {
	a.titles = append(a.titles, title)
	a.messages = append(a.messages, message)
	a.acks = append(a.acks, ack)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *alertRecorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL)
	c.delay = time.Millisecond
	alerts := &alertRecorder{}
	c.SetAlertFunc(alerts.fn)
	return c, alerts
}

const pageJSON = `{"data":[{"id":"m1","title":"Standup","duration":200,"status":"ready","created_at":"2026-08-30T10:00:00Z"}],"meta":{"has_more":false}}`

func TestListSucceedsAfterTwoFailures(t *testing.T) {
	var calls atomic.Int32
	c, alerts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(pageJSON))
	})

	res, err := c.List(context.Background(), Query{Page: 1, UserID: "u"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Meetings) != 1 || res.Meetings[0].ID != "m1" {
		t.Errorf("meetings = %+v", res.Meetings)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
	// retries succeeded within budget, so the user saw nothing
	if len(alerts.titles) != 0 {
		t.Errorf("alerts = %v, want none", alerts.titles)
	}
}

func TestListAlertsOnceAfterBudgetExhausted(t *testing.T) {
	c, alerts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := c.List(context.Background(), Query{Page: 1}); err == nil {
		t.Fatal("expected error")
	}
	if len(alerts.titles) != 1 || alerts.titles[0] != "Oops!" {
		t.Fatalf("alerts = %v, want one Oops!", alerts.titles)
	}
	if alerts.messages[0] != "Server error. We are working on it." {
		t.Errorf("message = %q", alerts.messages[0])
	}

	// A second failure while the first alert is still up stays silent.
	c.List(context.Background(), Query{Page: 1})
	if len(alerts.titles) != 1 {
		t.Errorf("alerts = %d, want still 1", len(alerts.titles))
	}

	// After the user acks, alerts re-arm.
	alerts.acks[0]()
	c.List(context.Background(), Query{Page: 1})
	if len(alerts.titles) != 2 {
		t.Errorf("alerts = %d, want 2 after ack", len(alerts.titles))
	}
}

func TestListSupersededByNewerFetch(t *testing.T) {
	var calls atomic.Int32
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	c, alerts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(firstStarted)
			<-release
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(pageJSON))
	})
	defer close(release)

	firstDone := make(chan error, 1)
	go func() {
		_, err := c.List(context.Background(), Query{Page: 1, Search: "old filter"})
		firstDone <- err
	}()
	<-firstStarted

	res, err := c.List(context.Background(), Query{Page: 1, Search: "new filter"})
	if err != nil {
		t.Fatalf("second List: %v", err)
	}
	if len(res.Meetings) != 1 {
		t.Errorf("second fetch meetings = %+v", res.Meetings)
	}

	if err := <-firstDone; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first List = %v, want ErrSuperseded", err)
	}
	if len(alerts.titles) != 0 {
		t.Errorf("superseded fetch alerted: %v", alerts.titles)
	}
}

func TestListQueryParams(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "10" {
			t.Errorf("page/limit = %q/%q", q.Get("page"), q.Get("limit"))
		}
		if q.Get("user_id") != "u7" || q.Get("search") != "standup" || q.Get("status") != "ready" {
			t.Errorf("filters = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[],"meta":{"has_more":false}}`))
	})

	if _, err := c.List(context.Background(), Query{Page: 2, UserID: "u7", Search: "standup", Status: "ready"}); err != nil {
		t.Fatal(err)
	}
}

func TestGetRetriesThenAlerts(t *testing.T) {
	c, alerts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := c.Get(context.Background(), "m1"); err == nil {
		t.Fatal("expected error")
	}
	if len(alerts.titles) != 1 || alerts.messages[0] != "Could not load meeting details." {
		t.Errorf("alerts = %v %v", alerts.titles, alerts.messages)
	}
}

func TestUpdateTitleAndDelete(t *testing.T) {
	var gotMethod, gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	if err := c.UpdateTitle(context.Background(), "m1", "Renamed"); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/meetings/m1" {
		t.Errorf("got %s %s, want PATCH /meetings/m1", gotMethod, gotPath)
	}

	if err := c.Delete(context.Background(), "m2"); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/meetings/m2" {
		t.Errorf("got %s %s, want DELETE /meetings/m2", gotMethod, gotPath)
	}
}
