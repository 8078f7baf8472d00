package planner

import (
	"sort"
	"time"
)

// Fixed scheduling policy. These are deliberately constants rather than
// configuration: every scheduling run across the product shares the same
// working-hours envelope and spacing rules.
const (
	// WorkDayStartHour and WorkDayEndHour bound the daily working window.
	WorkDayStartHour = 9
	WorkDayEndHour   = 21

	// MinSlotDuration is the floor below which a free segment is discarded.
	MinSlotDuration = 30 * time.Minute

	// SlotBuffer is the mandatory gap after each placed assignment.
	SlotBuffer = 30 * time.Minute

	// DefaultHorizonDays is the forward window for slot generation.
	DefaultHorizonDays = 21

	// MinItemHours, MaxItemHours and DefaultItemHours bound a work item's
	// estimated duration.
	MinItemHours     = 0.5
	MaxItemHours     = 6.0
	DefaultItemHours = 2.0
)

// SlotGenerator builds free time slots over a rolling horizon. The clock is
// injected so scheduling runs stay deterministic under test.
type SlotGenerator struct {
	now func() time.Time
}

// NewSlotGenerator constructs a generator. A nil clock falls back to
// time.Now.
func NewSlotGenerator(now func() time.Time) *SlotGenerator {
	if now == nil {
		now = time.Now
	}
	return &SlotGenerator{now: now}
}

// Generate returns the free segments inside the working-hours envelope over
// the horizon, after subtracting the supplied busy intervals. Segments are
// emitted in day order; they are not globally sorted here, the scheduler
// sorts its own queue. Every returned slot lies within a single day's
// window, starts no earlier than "now", and is at least MinSlotDuration
// long.
func (g *SlotGenerator) Generate(busy []Interval, horizonDays int) []Interval {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	now := g.now()
	loc := now.Location()

	intervals := make([]Interval, 0, len(busy))
	for _, b := range busy {
		if b.IsValid() && b.End.After(now) {
			intervals = append(intervals, b)
		}
	}
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})

	var free []Interval
	year, month, day := now.Date()
	for offset := 0; offset < horizonDays; offset++ {
		dayStart := time.Date(year, month, day+offset, WorkDayStartHour, 0, 0, 0, loc)
		dayEnd := time.Date(year, month, day+offset, WorkDayEndHour, 0, 0, 0, loc)
		if !dayEnd.After(now) {
			continue
		}
		if dayStart.Before(now) {
			dayStart = now
		}

		segments := []Interval{{Start: dayStart, End: dayEnd}}
		for _, b := range intervals {
			if !sameDate(b.Start.In(loc), dayStart) {
				continue
			}
			segments = Subtract(segments, b)
			if len(segments) == 0 {
				break
			}
		}
		for _, seg := range segments {
			if seg.Duration() >= MinSlotDuration {
				free = append(free, seg)
			}
		}
	}
	return free
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
