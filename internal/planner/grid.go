package planner

import "time"

// RoundUpToGrid snaps a timestamp up onto the half-hour grid.
//
// A timestamp in the first quarter of an hour with no sub-minute remainder
// passes through unchanged. Otherwise minutes in [0, 45) map to :30 of the
// same hour and minutes in [45, 60) to :00 of the next hour. For minutes in
// [30, 45) that moves the timestamp slightly backwards; callers that must
// not land before a lower bound re-snap with nextGridBoundary. Idempotent:
// applying it twice gives the same result.
func RoundUpToGrid(t time.Time) time.Time {
	minute := t.Minute()
	if minute < 15 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}
	year, month, day := t.Date()
	if minute < 45 {
		return time.Date(year, month, day, t.Hour(), 30, 0, 0, t.Location())
	}
	return time.Date(year, month, day, t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
}

// nextGridBoundary returns the first :00 or :30 mark at or after t. Used as
// the fallback when grid rounding would otherwise land before a slot start.
func nextGridBoundary(t time.Time) time.Time {
	year, month, day := t.Date()
	if t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}
	if t.Minute() < 30 || (t.Minute() == 30 && t.Second() == 0 && t.Nanosecond() == 0) {
		return time.Date(year, month, day, t.Hour(), 30, 0, 0, t.Location())
	}
	return time.Date(year, month, day, t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
}
