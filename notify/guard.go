package notify

import (
	"sync"

	"recap/log"
)

// RecordingNotice owns the sticky "Recording in Progress" notification for
// one recording session. At most one ticket is outstanding; Hide is
// idempotent. Scheduling failures are logged and never surfaced — the
// recording must proceed even if the OS refuses to show a notification.
type RecordingNotice struct {
	sched Scheduler

	mu     sync.Mutex
	ticket string
}

func NewRecordingNotice(sched Scheduler) *RecordingNotice {
	return &RecordingNotice{sched: sched}
}

func (n *RecordingNotice) Show() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sched == nil || n.ticket != "" {
		return
	}
	ticket, err := n.sched.Schedule(Content{
		Title:  "Recording in Progress",
		Body:   "Tap to return to the app.",
		Sticky: true,
		Silent: true,
	}, Trigger{})
	if err != nil {
		log.Warnf("recording notice failed: %v", err)
		return
	}
	n.ticket = ticket
}

func (n *RecordingNotice) Hide() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ticket == "" {
		return
	}
	if err := n.sched.Dismiss(n.ticket); err != nil {
		log.Warnf("recording notice dismiss failed: %v", err)
	}
	n.ticket = ""
}

// Active reports whether a sticky notice is currently outstanding.
func (n *RecordingNotice) Active() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ticket != ""
}
