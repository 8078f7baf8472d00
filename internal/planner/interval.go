package planner

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// IsValid reports whether the interval has positive duration.
func (iv Interval) IsValid() bool {
	return iv.Start.Before(iv.End)
}

// Overlaps reports whether two half-open intervals intersect.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Subtract removes the busy interval from every segment, splitting segments
// that the busy interval cuts through and dropping segments it swallows.
// Pieces with non-positive duration are discarded. The result is not merged
// or de-duplicated; callers get a correct representation, not a minimal one.
func Subtract(segments []Interval, busy Interval) []Interval {
	result := make([]Interval, 0, len(segments)+1)
	for _, seg := range segments {
		if !busy.End.After(seg.Start) || !busy.Start.Before(seg.End) {
			result = append(result, seg)
			continue
		}
		if busy.Start.After(seg.Start) {
			result = append(result, Interval{Start: seg.Start, End: busy.Start})
		}
		if busy.End.Before(seg.End) {
			result = append(result, Interval{Start: busy.End, End: seg.End})
		}
	}
	kept := result[:0]
	for _, seg := range result {
		if seg.IsValid() {
			kept = append(kept, seg)
		}
	}
	return kept
}
