package planner

import (
	"sort"
	"time"
)

// Request is one work item to place. EstimatedHours is nil when the caller
// could not resolve a usable number; the default applies. PreferredStart is
// an already-resolved timestamp hint or nil; natural-language hint parsing
// is the caller's problem.
type Request struct {
	Title          string
	EstimatedHours *float64
	PreferredStart *time.Time
	Focus          string
}

// Assignment is a successfully placed work item. Index is the ordinal of
// the request it satisfies within the Schedule call's input, so callers can
// map placements back even when requests are indistinguishable by value.
type Assignment struct {
	Index int
	Title string
	Slot  Interval
	Focus string
}

// ItemDuration resolves a request's estimated hours into a duration,
// substituting the default when absent and clamping to the allowed range.
func ItemDuration(hours *float64) time.Duration {
	value := DefaultItemHours
	if hours != nil {
		value = *hours
	}
	if value < MinItemHours {
		value = MinItemHours
	}
	if value > MaxItemHours {
		value = MaxItemHours
	}
	return time.Duration(value * float64(time.Hour))
}

// Schedule places requests into free slots with a single greedy pass.
// Requests are processed strictly in input order; the unscheduled remainder
// preserves that order. Given identical inputs and the same now, the output
// is identical across runs.
func Schedule(now time.Time, requests []Request, freeSlots []Interval, deadline *time.Time) ([]Assignment, []Request) {
	if len(freeSlots) == 0 {
		unscheduled := make([]Request, len(requests))
		copy(unscheduled, requests)
		return nil, unscheduled
	}

	queue := make([]Interval, len(freeSlots))
	copy(queue, freeSlots)
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].Start.Before(queue[j].Start)
	})

	var scheduled []Assignment
	var unscheduled []Request
	total := len(requests)

	for idx, req := range requests {
		duration := ItemDuration(req.EstimatedHours)
		target := targetTime(now, idx, total, req.PreferredStart, deadline)

		dayCounts := make(map[string]int, len(scheduled))
		for _, a := range scheduled {
			dayCounts[dayKey(a.Slot.Start)]++
		}

		placed := false
		for _, slotIdx := range rankCandidates(queue, target, dayCounts) {
			slot := queue[slotIdx]
			if slot.Duration() < duration+SlotBuffer {
				continue
			}
			tentative, ok := placeInSlot(slot, duration)
			if !ok {
				continue
			}
			if overlapsBuffered(tentative, scheduled) {
				// The queue only shrinks within the consumed slot, so a
				// placement can still collide with assignments made into
				// other slots. Checked here before committing.
				continue
			}

			assigned, remainder, ok := consumeSlot(slot, duration)
			if !ok {
				continue
			}
			scheduled = append(scheduled, Assignment{Index: idx, Title: req.Title, Slot: assigned, Focus: req.Focus})
			if remainder != nil {
				queue[slotIdx] = *remainder
			} else {
				queue = append(queue[:slotIdx], queue[slotIdx+1:]...)
			}
			placed = true
			break
		}
		if !placed {
			unscheduled = append(unscheduled, req)
		}
	}
	return scheduled, unscheduled
}

// targetTime picks the ideal start for a request: the preferred hint when
// present, otherwise a proportional spread toward the deadline, otherwise
// one item per day from now.
func targetTime(now time.Time, idx, total int, preferred, deadline *time.Time) time.Time {
	if preferred != nil {
		return *preferred
	}
	if deadline != nil {
		window := deadline.Sub(now)
		if window < 24*time.Hour {
			window = 24 * time.Hour
		}
		frac := float64(idx) / float64(max(total-1, 1))
		return now.Add(time.Duration(float64(window) * frac))
	}
	return now.AddDate(0, 0, idx)
}

// rankCandidates orders slot-queue indices by: slots starting at or after
// the target first, then days carrying fewer assignments, then proximity to
// the target. Ties fall back to queue order, which is ascending by start.
func rankCandidates(queue []Interval, target time.Time, dayCounts map[string]int) []int {
	indices := make([]int, len(queue))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(x, y int) bool {
		a, b := queue[indices[x]], queue[indices[y]]
		aPast, bPast := a.Start.Before(target), b.Start.Before(target)
		if aPast != bPast {
			return !aPast
		}
		aLoad, bLoad := dayCounts[dayKey(a.Start)], dayCounts[dayKey(b.Start)]
		if aLoad != bLoad {
			return aLoad < bLoad
		}
		return absDuration(a.Start.Sub(target)) < absDuration(b.Start.Sub(target))
	})
	return indices
}

// placeInSlot computes the assigned interval for the slot without touching
// the queue. Rejections mean the slot cannot hold the item.
func placeInSlot(slot Interval, duration time.Duration) (Interval, bool) {
	if slot.Duration() < duration+SlotBuffer {
		return Interval{}, false
	}
	start := RoundUpToGrid(slot.Start)
	if start.Before(slot.Start) {
		start = nextGridBoundary(slot.Start)
	}
	if !start.Before(slot.End) {
		return Interval{}, false
	}

	end := start.Add(duration)
	if rounded := RoundUpToGrid(end); rounded.After(slot.End) {
		end = slot.End.Truncate(time.Minute)
	} else {
		end = rounded
	}
	if !end.After(start) {
		end = start.Add(duration)
		if end.After(slot.End) {
			return Interval{}, false
		}
	}
	return Interval{Start: start, End: end}, true
}

// consumeSlot performs the real placement and returns the shrunk remainder
// of the slot, or nil when the slot is fully used up.
func consumeSlot(slot Interval, duration time.Duration) (Interval, *Interval, bool) {
	assigned, ok := placeInSlot(slot, duration)
	if !ok {
		return Interval{}, nil, false
	}
	bufferEnd := assigned.End.Add(SlotBuffer)
	switch {
	case bufferEnd.Before(slot.End):
		return assigned, &Interval{Start: bufferEnd, End: slot.End}, true
	case assigned.End.Before(slot.End):
		return assigned, &Interval{Start: assigned.End, End: slot.End}, true
	default:
		return assigned, nil, true
	}
}

// overlapsBuffered reports whether the candidate interval, extended by the
// buffer on its trailing edge, intersects any already-placed assignment
// extended the same way.
func overlapsBuffered(candidate Interval, scheduled []Assignment) bool {
	candidateEnd := candidate.End.Add(SlotBuffer)
	for _, a := range scheduled {
		if candidate.Start.Before(a.Slot.End.Add(SlotBuffer)) && candidateEnd.After(a.Slot.Start) {
			return true
		}
	}
	return false
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
