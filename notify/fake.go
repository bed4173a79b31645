package notify

import (
	"strconv"
	"sync"
)

type Scheduled struct {
	Ticket  string
	Content Content
	Trigger Trigger
}

// FakeScheduler records scheduling calls for tests.
type FakeScheduler struct {
	mu        sync.Mutex
	next      int
	Posted    []Scheduled
	Dismissed []string

	FailSchedule error
	FailDismiss  error
}

func (f *FakeScheduler) Schedule(content Content, trigger Trigger) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSchedule != nil {
		return "", f.FailSchedule
	}
	f.next++
	ticket := "fake-" + strconv.Itoa(f.next)
	f.Posted = append(f.Posted, Scheduled{Ticket: ticket, Content: content, Trigger: trigger})
	return ticket, nil
}

func (f *FakeScheduler) Dismiss(ticket string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDismiss != nil {
		return f.FailDismiss
	}
	f.Dismissed = append(f.Dismissed, ticket)
	return nil
}
