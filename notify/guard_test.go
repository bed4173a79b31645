package notify

import (
	"errors"
	"testing"
)

func TestRecordingNoticeShowHide(t *testing.T) {
	fake := &FakeScheduler{}
	n := NewRecordingNotice(fake)

	n.Show()
	if !n.Active() {
		t.Fatal("expected active notice after Show")
	}
	if len(fake.Posted) != 1 {
		t.Fatalf("Posted = %d, want 1", len(fake.Posted))
	}
	c := fake.Posted[0].Content
	if !c.Sticky || !c.Silent {
		t.Errorf("sticky/silent = %v/%v, want true/true", c.Sticky, c.Silent)
	}

	n.Hide()
	if n.Active() {
		t.Error("expected inactive notice after Hide")
	}
	if len(fake.Dismissed) != 1 || fake.Dismissed[0] != fake.Posted[0].Ticket {
		t.Errorf("Dismissed = %v, want [%s]", fake.Dismissed, fake.Posted[0].Ticket)
	}
}

func TestRecordingNoticeSingleTicket(t *testing.T) {
	fake := &FakeScheduler{}
	n := NewRecordingNotice(fake)

	n.Show()
	n.Show()
	n.Show()
	if len(fake.Posted) != 1 {
		t.Errorf("Posted = %d, want 1", len(fake.Posted))
	}
}

func TestRecordingNoticeHideIdempotent(t *testing.T) {
	fake := &FakeScheduler{}
	n := NewRecordingNotice(fake)

	n.Hide() // nothing outstanding
	if len(fake.Dismissed) != 0 {
		t.Errorf("Dismissed = %d, want 0", len(fake.Dismissed))
	}

	n.Show()
	n.Hide()
	n.Hide()
	if len(fake.Dismissed) != 1 {
		t.Errorf("Dismissed = %d, want 1", len(fake.Dismissed))
	}
}

func TestRecordingNoticeScheduleFailure(t *testing.T) {
	fake := &FakeScheduler{FailSchedule: errors.New("denied")}
	n := NewRecordingNotice(fake)

	n.Show() // must not panic or leave a ticket behind
	if n.Active() {
		t.Error("notice should not be active after failed Schedule")
	}
	n.Hide()
	if len(fake.Dismissed) != 0 {
		t.Errorf("Dismissed = %d, want 0", len(fake.Dismissed))
	}
}
