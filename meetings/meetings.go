// Package meetings is the read path: listing, fetching, renaming, and
// deleting processed meetings. Unlike the write path, reads retry
// automatically before bothering the user.
package meetings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"recap/log"
)

const (
	// maxRetries is the number of extra attempts after the first failure.
	maxRetries = 2
	retryDelay = 3 * time.Second
	pageLimit  = 10
)

// ErrSuperseded is returned when a newer fetch replaced this one before it
// finished. Superseded fetches never alert and never populate results.
var ErrSuperseded = errors.New("meetings: fetch superseded by a newer request")

type Meeting struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Duration  float64   `json:"duration"`
	Status    string    `json:"status"` // "processing" or "ready"
	Transcr   string    `json:"transcript"`
	Summary   string    `json:"summary"`
	AudioURL  string    `json:"audio_url"`
	UserID    string    `json:"user_id"`
}

type listResponse struct {
	Data []Meeting `json:"data"`
	Meta struct {
		HasMore bool `json:"has_more"`
		Total   int  `json:"total"`
		Page    int  `json:"page"`
		Limit   int  `json:"limit"`
	} `json:"meta"`
}

type Query struct {
	Page   int
	Limit  int // 0 means pageLimit
	Search string
	Status string // empty means all
	UserID string
}

type ListResult struct {
	Meetings []Meeting
	HasMore  bool
}

// AlertFunc shows one user-facing alert. ack must be called when the user
// dismisses it; until then further alerts are dropped.
type AlertFunc func(title, message string, ack func())

// Client talks to the meetings API. One Client serves one user session; List
// calls supersede each other so a stale filter never populates results.
type Client struct {
	http  *resty.Client
	delay time.Duration

	mu          sync.Mutex
	alertFn     AlertFunc
	alertActive bool
	cancelPrev  context.CancelFunc
	generation  uint64
}

func NewClient(baseURL string) *Client {
	return &Client{
		http:  resty.New().SetBaseURL(strings.TrimSuffix(baseURL, "/")),
		delay: retryDelay,
	}
}

// SetAlertFunc installs the alert presenter. Without one, alerts are logged.
func (c *Client) SetAlertFunc(fn AlertFunc) {
	c.mu.Lock()
	c.alertFn = fn
	c.mu.Unlock()
}

// List fetches one page of meetings. A List call cancels any List still in
// flight; the superseded call returns ErrSuperseded without alerting. Failures
// retry up to maxRetries extra attempts with a fixed delay, and only the final
// failure raises a single-shot alert.
func (c *Client) List(ctx context.Context, q Query) (ListResult, error) {
	ctx, gen := c.supersede(ctx)

	var out ListResult
	err := c.withRetries(ctx, gen, func(attempt int) error {
		res, err := c.fetchPage(ctx, q)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) && !c.current(gen) {
			return ListResult{}, ErrSuperseded
		}
		c.alert("Oops!", listErrorMessage(err))
		return ListResult{}, err
	}
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, q Query) (ListResult, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = pageLimit
	}
	params := map[string]string{
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(limit),
	}
	if q.UserID != "" {
		params["user_id"] = q.UserID
	}
	if q.Search != "" {
		params["search"] = q.Search
	}
	if q.Status != "" {
		params["status"] = q.Status
	}

	var parsed listResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&parsed).
		Get("/meetings")
	if err != nil {
		return ListResult{}, err
	}
	if resp.IsError() {
		return ListResult{}, fmt.Errorf("http error: status %d", resp.StatusCode())
	}

	hasMore := parsed.Meta.HasMore || len(parsed.Data) == limit
	return ListResult{Meetings: parsed.Data, HasMore: hasMore}, nil
}

// Get fetches one meeting with the same retry budget as List, but without
// supersede semantics: detail fetches do not race each other.
func (c *Client) Get(ctx context.Context, id string) (Meeting, error) {
	var out Meeting
	err := c.withRetries(ctx, 0, func(attempt int) error {
		var m Meeting
		resp, err := c.http.R().SetContext(ctx).SetResult(&m).Get("/meetings/" + id)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("http error: status %d", resp.StatusCode())
		}
		out = m
		return nil
	})
	if err != nil {
		c.alert("Error", "Could not load meeting details.")
		return Meeting{}, err
	}
	return out, nil
}

// UpdateTitle renames a meeting. No retries: it is a user-initiated write.
func (c *Client) UpdateTitle(ctx context.Context, id, title string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"title": title}).
		Patch("/meetings/" + id)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http error: status %d", resp.StatusCode())
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/meetings/" + id)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http error: status %d", resp.StatusCode())
	}
	return nil
}

// supersede cancels any in-flight List and registers this one as current.
func (c *Client) supersede(ctx context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelPrev != nil {
		c.cancelPrev()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancelPrev = cancel
	c.generation++
	return ctx, c.generation
}

func (c *Client) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == 0 || gen == c.generation
}

func (c *Client) withRetries(ctx context.Context, gen uint64, fn func(attempt int) error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			log.Warnf("retrying fetch (%d/%d)", attempt, maxRetries)
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = fn(attempt); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

// alert raises at most one user-facing alert at a time. The ack callback
// re-arms the guard when the user dismisses the dialog.
func (c *Client) alert(title, message string) {
	c.mu.Lock()
	if c.alertActive || c.alertFn == nil {
		if c.alertFn == nil {
			log.Warnf("alert suppressed (no presenter): %s: %s", title, message)
		}
		c.mu.Unlock()
		return
	}
	c.alertActive = true
	fn := c.alertFn
	c.mu.Unlock()

	fn(title, message, func() {
		c.mu.Lock()
		c.alertActive = false
		c.mu.Unlock()
	})
}

func listErrorMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return "Network error. Please check your connection."
	case strings.Contains(msg, "500"):
		return "Server error. We are working on it."
	default:
		return "Could not load your meetings. Please check your internet connection."
	}
}
