package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hoursPtr(v float64) *float64 { return &v }

func TestItemDuration(t *testing.T) {
	assert.Equal(t, 2*time.Hour, ItemDuration(nil))
	assert.Equal(t, 90*time.Minute, ItemDuration(hoursPtr(1.5)))
	assert.Equal(t, 30*time.Minute, ItemDuration(hoursPtr(0.1)))
	assert.Equal(t, 6*time.Hour, ItemDuration(hoursPtr(12)))
}

func TestScheduleSingleItemIntoOpenDay(t *testing.T) {
	now := at(t, 8, 0)
	slots := []Interval{{Start: at(t, 9, 0), End: at(t, 21, 0)}}
	requests := []Request{{Title: "Draft outline", EstimatedHours: hoursPtr(2)}}

	scheduled, unscheduled := Schedule(now, requests, slots, nil)

	require.Len(t, scheduled, 1)
	assert.Empty(t, unscheduled)
	assert.Equal(t, at(t, 9, 0), scheduled[0].Slot.Start)
	assert.Equal(t, at(t, 11, 0), scheduled[0].Slot.End)
}

func TestScheduleThreeItemsShareOneDayWithBuffers(t *testing.T) {
	now := at(t, 8, 0)
	slots := []Interval{{Start: at(t, 9, 0), End: at(t, 21, 0)}}
	requests := []Request{
		{Title: "Research", EstimatedHours: hoursPtr(2)},
		{Title: "Draft", EstimatedHours: hoursPtr(2)},
		{Title: "Edit", EstimatedHours: hoursPtr(2)},
	}

	scheduled, unscheduled := Schedule(now, requests, slots, nil)

	require.Len(t, scheduled, 3)
	assert.Empty(t, unscheduled)
	assert.Equal(t, Interval{Start: at(t, 9, 0), End: at(t, 11, 0)}, scheduled[0].Slot)
	assert.Equal(t, Interval{Start: at(t, 11, 30), End: at(t, 13, 30)}, scheduled[1].Slot)
	assert.Equal(t, Interval{Start: at(t, 14, 0), End: at(t, 16, 0)}, scheduled[2].Slot)
}

func TestScheduleRejectsItemLargerThanSlot(t *testing.T) {
	now := at(t, 8, 0)
	slots := []Interval{{Start: at(t, 9, 0), End: at(t, 14, 0)}}
	requests := []Request{{Title: "Marathon session", EstimatedHours: hoursPtr(6)}}

	scheduled, unscheduled := Schedule(now, requests, slots, nil)

	assert.Empty(t, scheduled)
	require.Len(t, unscheduled, 1)
	assert.Equal(t, requests[0], unscheduled[0])
}

func TestScheduleSkipsUndersizedSlotAndUsesNext(t *testing.T) {
	now := at(t, 8, 0)
	slots := []Interval{
		{Start: at(t, 9, 0), End: at(t, 10, 0)},
		{Start: at(t, 12, 0), End: at(t, 21, 0)},
	}
	requests := []Request{{Title: "Write report", EstimatedHours: hoursPtr(2)}}

	scheduled, unscheduled := Schedule(now, requests, slots, nil)

	require.Len(t, scheduled, 1)
	assert.Empty(t, unscheduled)
	assert.Equal(t, at(t, 12, 0), scheduled[0].Slot.Start)
}

func TestScheduleEmptySlotsReturnsEverythingUnscheduled(t *testing.T) {
	now := at(t, 8, 0)
	requests := []Request{
		{Title: "First"},
		{Title: "Second"},
		{Title: "Third"},
	}

	scheduled, unscheduled := Schedule(now, requests, nil, nil)

	assert.Empty(t, scheduled)
	require.Len(t, unscheduled, 3)
	for i, req := range requests {
		assert.Equal(t, req, unscheduled[i])
	}
}

func TestScheduleUnscheduledPreservesInputOrder(t *testing.T) {
	now := at(t, 8, 0)
	slots := []Interval{{Start: at(t, 9, 0), End: at(t, 15, 0)}}
	requests := []Request{
		{Title: "A", EstimatedHours: hoursPtr(2)},
		{Title: "B", EstimatedHours: hoursPtr(5)},
		{Title: "C", EstimatedHours: hoursPtr(1)},
		{Title: "D", EstimatedHours: hoursPtr(5)},
	}

	scheduled, unscheduled := Schedule(now, requests, slots, nil)

	require.Len(t, scheduled, 2)
	require.Len(t, unscheduled, 2)
	assert.Equal(t, "B", unscheduled[0].Title)
	assert.Equal(t, "D", unscheduled[1].Title)
	assert.Equal(t, 0, scheduled[0].Index)
	assert.Equal(t, 2, scheduled[1].Index)
}

func TestScheduleIndexDistinguishesIdenticalRequests(t *testing.T) {
	now := at(t, 8, 0)
	// Room for exactly one default item plus its buffer.
	slots := []Interval{{Start: at(t, 9, 0), End: at(t, 11, 30)}}
	requests := []Request{
		{Title: "Read chapter"},
		{Title: "Read chapter"},
	}

	scheduled, unscheduled := Schedule(now, requests, slots, nil)

	require.Len(t, scheduled, 1)
	require.Len(t, unscheduled, 1)
	assert.Equal(t, 0, scheduled[0].Index)
}

func TestScheduleSpreadsItemsAcrossDays(t *testing.T) {
	now := at(t, 8, 0)
	var slots []Interval
	for day := 0; day < 3; day++ {
		slots = append(slots, Interval{
			Start: at(t, 9, 0).AddDate(0, 0, day),
			End:   at(t, 21, 0).AddDate(0, 0, day),
		})
	}
	requests := []Request{
		{Title: "One", EstimatedHours: hoursPtr(2)},
		{Title: "Two", EstimatedHours: hoursPtr(2)},
		{Title: "Three", EstimatedHours: hoursPtr(2)},
	}

	scheduled, unscheduled := Schedule(now, requests, slots, nil)

	require.Len(t, scheduled, 3)
	assert.Empty(t, unscheduled)
	days := map[int]bool{}
	for _, a := range scheduled {
		days[a.Slot.Start.Day()] = true
	}
	assert.Len(t, days, 3, "load balancing should use a fresh day per item")
}

func TestScheduleDeadlineSpreadsTowardDueDate(t *testing.T) {
	now := at(t, 8, 0)
	deadline := at(t, 23, 59).AddDate(0, 0, 3)
	var slots []Interval
	for day := 0; day < 6; day++ {
		slots = append(slots, Interval{
			Start: at(t, 9, 0).AddDate(0, 0, day),
			End:   at(t, 21, 0).AddDate(0, 0, day),
		})
	}
	requests := []Request{
		{Title: "Kickoff", EstimatedHours: hoursPtr(2)},
		{Title: "Middle", EstimatedHours: hoursPtr(2)},
		{Title: "Wrap up", EstimatedHours: hoursPtr(2)},
	}

	scheduled, unscheduled := Schedule(now, requests, slots, &deadline)

	require.Len(t, scheduled, 3)
	assert.Empty(t, unscheduled)
	assert.True(t, scheduled[0].Slot.Start.Before(scheduled[1].Slot.Start))
	assert.True(t, scheduled[1].Slot.Start.Before(scheduled[2].Slot.Start))
}

func TestSchedulePreferredStartPullsItemToItsDay(t *testing.T) {
	now := at(t, 8, 0)
	preferred := at(t, 14, 0).AddDate(0, 0, 1)
	slots := []Interval{
		{Start: at(t, 9, 0), End: at(t, 21, 0)},
		{Start: at(t, 9, 0).AddDate(0, 0, 1), End: at(t, 21, 0).AddDate(0, 0, 1)},
	}
	requests := []Request{{Title: "Review lecture", EstimatedHours: hoursPtr(1), PreferredStart: &preferred}}

	scheduled, _ := Schedule(now, requests, slots, nil)

	require.Len(t, scheduled, 1)
	assert.Equal(t, preferred.Day(), scheduled[0].Slot.Start.Day())
}

func TestScheduleBufferedAssignmentsNeverOverlap(t *testing.T) {
	now := at(t, 10, 12)
	slots := []Interval{
		{Start: at(t, 10, 12), End: at(t, 16, 40)},
		{Start: at(t, 17, 5), End: at(t, 21, 0)},
		{Start: at(t, 9, 0).AddDate(0, 0, 1), End: at(t, 13, 0).AddDate(0, 0, 1)},
	}
	requests := []Request{
		{Title: "A", EstimatedHours: hoursPtr(1.5)},
		{Title: "B", EstimatedHours: hoursPtr(2)},
		{Title: "C", EstimatedHours: hoursPtr(0.75)},
		{Title: "D", EstimatedHours: hoursPtr(3)},
	}

	scheduled, _ := Schedule(now, requests, slots, nil)

	require.NotEmpty(t, scheduled)
	for i := 0; i < len(scheduled); i++ {
		for j := i + 1; j < len(scheduled); j++ {
			a := Interval{Start: scheduled[i].Slot.Start, End: scheduled[i].Slot.End.Add(SlotBuffer)}
			b := Interval{Start: scheduled[j].Slot.Start, End: scheduled[j].Slot.End.Add(SlotBuffer)}
			assert.False(t, a.Overlaps(b), "assignments %d and %d overlap: %v vs %v", i, j, a, b)
		}
	}
}

func TestScheduleIsDeterministic(t *testing.T) {
	now := at(t, 9, 40)
	deadline := at(t, 23, 59).AddDate(0, 0, 5)
	slots := []Interval{
		{Start: at(t, 9, 40), End: at(t, 14, 0)},
		{Start: at(t, 15, 0), End: at(t, 21, 0)},
		{Start: at(t, 9, 0).AddDate(0, 0, 1), End: at(t, 21, 0).AddDate(0, 0, 1)},
		{Start: at(t, 9, 0).AddDate(0, 0, 2), End: at(t, 12, 0).AddDate(0, 0, 2)},
	}
	requests := []Request{
		{Title: "A", EstimatedHours: hoursPtr(2)},
		{Title: "B"},
		{Title: "C", EstimatedHours: hoursPtr(4.5)},
		{Title: "D", EstimatedHours: hoursPtr(1)},
		{Title: "E", EstimatedHours: hoursPtr(2)},
	}

	firstScheduled, firstUnscheduled := Schedule(now, requests, slots, &deadline)
	secondScheduled, secondUnscheduled := Schedule(now, requests, slots, &deadline)

	require.Equal(t, firstScheduled, secondScheduled)
	require.Equal(t, firstUnscheduled, secondUnscheduled)
}

func TestScheduleAssignmentCarriesTitleAndFocus(t *testing.T) {
	now := at(t, 8, 0)
	slots := []Interval{{Start: at(t, 9, 0), End: at(t, 21, 0)}}
	requests := []Request{{Title: "Essay: Research sources", EstimatedHours: hoursPtr(1), Focus: "Library"}}

	scheduled, _ := Schedule(now, requests, slots, nil)

	require.Len(t, scheduled, 1)
	assert.Equal(t, "Essay: Research sources", scheduled[0].Title)
	assert.Equal(t, "Library", scheduled[0].Focus)
}
