package meetings

import (
	"fmt"
	"math"
	"time"
)

// Section is one header-plus-rows group in the meetings list.
type Section struct {
	Title    string
	Meetings []Meeting
}

// Group splits meetings into a TODAY section and an EARLIER section, in input
// order. Meetings without a creation time are dropped. Empty sections are
// omitted entirely.
func Group(items []Meeting, now time.Time) []Section {
	var today, earlier []Meeting
	y, m, d := now.Date()
	for _, item := range items {
		if item.CreatedAt.IsZero() {
			continue
		}
		cy, cm, cd := item.CreatedAt.Local().Date()
		if cy == y && cm == m && cd == d {
			today = append(today, item)
		} else {
			earlier = append(earlier, item)
		}
	}

	var sections []Section
	if len(today) > 0 {
		sections = append(sections, Section{Title: "TODAY", Meetings: today})
	}
	if len(earlier) > 0 {
		sections = append(sections, Section{Title: "EARLIER", Meetings: earlier})
	}
	return sections
}

// Merge appends a newly fetched page, dropping rows whose id was already
// present. Order is preserved: existing rows first, then new ones.
func Merge(existing, fetched []Meeting) []Meeting {
	seen := make(map[string]bool, len(existing))
	out := make([]Meeting, 0, len(existing)+len(fetched))
	for _, m := range existing {
		if !seen[m.ID] {
			seen[m.ID] = true
			out = append(out, m)
		}
	}
	for _, m := range fetched {
		if !seen[m.ID] {
			seen[m.ID] = true
			out = append(out, m)
		}
	}
	return out
}

// FormatDuration renders a stored duration for list rows, e.g. "3m 20s".
// Zero or negative durations render as a placeholder.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "--"
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

// FormatClock renders an elapsed recording time, e.g. "2:05".
func FormatClock(seconds float64) string {
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
