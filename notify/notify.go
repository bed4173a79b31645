// Package notify schedules local desktop notifications: the sticky
// "recording in progress" notice and the delayed fallback used when no real
// push delivery is available.
package notify

import (
	"sync"
	"time"
)

type Content struct {
	Title  string
	Body   string
	Sticky bool // non-dismissable, no timeout
	Silent bool
	Data   map[string]string // opaque payload, e.g. {"meeting_id": ...}
}

// Trigger controls delivery time. The zero value means immediately.
type Trigger struct {
	After time.Duration
}

// Scheduler posts and dismisses notifications. Schedule returns a ticket that
// Dismiss accepts; dismissing an unknown ticket is a no-op.
type Scheduler interface {
	Schedule(content Content, trigger Trigger) (string, error)
	Dismiss(ticket string) error
}

var (
	initOnce  sync.Once
	scheduler Scheduler
	initErr   error
)

// Init sets up the platform notification subsystem exactly once and returns
// the process-wide scheduler. Safe to call repeatedly.
func Init() (Scheduler, error) {
	initOnce.Do(func() {
		scheduler, initErr = newPlatformScheduler()
	})
	return scheduler, initErr
}
