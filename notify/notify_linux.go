//go:build linux

package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

const (
	notifyService = "org.freedesktop.Notifications"
	notifyPath    = "/org/freedesktop/Notifications"
)

func newPlatformScheduler() (Scheduler, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbus session: %w", err)
	}
	return &dbusScheduler{conn: conn, pending: make(map[string]*pendingNotification)}, nil
}

type pendingNotification struct {
	timer  *time.Timer
	dbusID uint32
	posted bool
}

type dbusScheduler struct {
	conn *dbus.Conn

	mu      sync.Mutex
	pending map[string]*pendingNotification
}

func (s *dbusScheduler) Schedule(content Content, trigger Trigger) (string, error) {
	ticket := uuid.NewString()

	if trigger.After <= 0 {
		id, err := s.post(content)
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.pending[ticket] = &pendingNotification{dbusID: id, posted: true}
		s.mu.Unlock()
		return ticket, nil
	}

	p := &pendingNotification{}
	p.timer = time.AfterFunc(trigger.After, func() {
		id, err := s.post(content)
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, live := s.pending[ticket]; !live {
			return // dismissed before firing
		}
		if err != nil {
			delete(s.pending, ticket)
			return
		}
		p.dbusID = id
		p.posted = true
	})
	s.mu.Lock()
	s.pending[ticket] = p
	s.mu.Unlock()
	return ticket, nil
}

func (s *dbusScheduler) Dismiss(ticket string) error {
	s.mu.Lock()
	p, ok := s.pending[ticket]
	delete(s.pending, ticket)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	if !p.posted {
		return nil
	}
	obj := s.conn.Object(notifyService, notifyPath)
	call := obj.Call(notifyService+".CloseNotification", 0, p.dbusID)
	if call.Err != nil {
		return fmt.Errorf("close notification: %w", call.Err)
	}
	return nil
}

func (s *dbusScheduler) post(content Content) (uint32, error) {
	hints := map[string]dbus.Variant{}
	if content.Sticky {
		hints["urgency"] = dbus.MakeVariant(byte(2)) // critical: no timeout, not dismissed by action
		hints["resident"] = dbus.MakeVariant(true)
	}
	if content.Silent {
		hints["suppress-sound"] = dbus.MakeVariant(true)
	}
	for k, v := range content.Data {
		hints["x-recap-"+k] = dbus.MakeVariant(v)
	}

	expire := int32(-1)
	if content.Sticky {
		expire = 0 // never expire
	}

	obj := s.conn.Object(notifyService, notifyPath)
	call := obj.Call(notifyService+".Notify", 0,
		"recap", uint32(0), "", content.Title, content.Body,
		[]string{}, hints, expire)
	if call.Err != nil {
		return 0, fmt.Errorf("notify: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify reply: %w", err)
	}
	return id, nil
}
