//go:build !linux

package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"recap/log"
)

// No native notification transport is wired on this platform yet; the
// scheduler degrades to diagnostics-log entries so recording is never
// blocked by notification plumbing.
func newPlatformScheduler() (Scheduler, error) {
	return &logScheduler{pending: make(map[string]*time.Timer)}, nil
}

type logScheduler struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
}

func (s *logScheduler) Schedule(content Content, trigger Trigger) (string, error) {
	ticket := uuid.NewString()
	if trigger.After <= 0 {
		log.Info("notification: " + content.Title)
		return ticket, nil
	}
	s.mu.Lock()
	s.pending[ticket] = time.AfterFunc(trigger.After, func() {
		log.Info("notification: " + content.Title)
		s.mu.Lock()
		delete(s.pending, ticket)
		s.mu.Unlock()
	})
	s.mu.Unlock()
	return ticket, nil
}

func (s *logScheduler) Dismiss(ticket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[ticket]; ok {
		t.Stop()
		delete(s.pending, ticket)
	}
	return nil
}
