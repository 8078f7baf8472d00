package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerateSplitsWorkingDayAroundBusyInterval(t *testing.T) {
	now := at(t, 8, 0)
	gen := NewSlotGenerator(fixedClock(now))
	busy := []Interval{{Start: at(t, 10, 0), End: at(t, 11, 0)}}

	slots := gen.Generate(busy, 1)

	require.Len(t, slots, 2)
	assert.Equal(t, Interval{Start: at(t, 9, 0), End: at(t, 10, 0)}, slots[0])
	assert.Equal(t, Interval{Start: at(t, 11, 0), End: at(t, 21, 0)}, slots[1])
}

func TestGenerateClipsTodayToNow(t *testing.T) {
	now := at(t, 13, 15)
	gen := NewSlotGenerator(fixedClock(now))

	slots := gen.Generate(nil, 1)

	require.Len(t, slots, 1)
	assert.Equal(t, now, slots[0].Start)
	assert.Equal(t, at(t, 21, 0), slots[0].End)
}

func TestGenerateSkipsElapsedDays(t *testing.T) {
	now := at(t, 22, 0)
	gen := NewSlotGenerator(fixedClock(now))

	slots := gen.Generate(nil, 3)

	require.Len(t, slots, 2)
	assert.Equal(t, at(t, 9, 0).AddDate(0, 0, 1), slots[0].Start)
	for _, slot := range slots {
		assert.True(t, slot.Start.After(now))
	}
}

func TestGenerateDiscardsShortFragments(t *testing.T) {
	now := at(t, 8, 0)
	gen := NewSlotGenerator(fixedClock(now))
	busy := []Interval{{Start: at(t, 9, 0), End: at(t, 20, 45)}}

	slots := gen.Generate(busy, 1)

	// 20:45-21:00 is under the half-hour floor.
	assert.Empty(t, slots)
}

func TestGenerateIgnoresFinishedAndMalformedBusyIntervals(t *testing.T) {
	now := at(t, 12, 0)
	gen := NewSlotGenerator(fixedClock(now))
	busy := []Interval{
		{Start: at(t, 9, 0), End: at(t, 10, 0)},  // already over
		{Start: at(t, 15, 0), End: at(t, 14, 0)}, // inverted
	}

	slots := gen.Generate(busy, 1)

	require.Len(t, slots, 1)
	assert.Equal(t, Interval{Start: now, End: at(t, 21, 0)}, slots[0])
}

func TestGenerateBusyIntervalOnlyBlocksItsStartDate(t *testing.T) {
	now := at(t, 8, 0)
	gen := NewSlotGenerator(fixedClock(now))
	overnight := Interval{Start: at(t, 20, 0), End: at(t, 20, 0).Add(14 * time.Hour)}

	slots := gen.Generate([]Interval{overnight}, 2)

	require.Len(t, slots, 2)
	assert.Equal(t, Interval{Start: at(t, 9, 0), End: at(t, 20, 0)}, slots[0])
	// The next day's window is untouched even though the interval spills into it.
	assert.Equal(t, at(t, 9, 0).AddDate(0, 0, 1), slots[1].Start)
	assert.Equal(t, at(t, 21, 0).AddDate(0, 0, 1), slots[1].End)
}

func TestGenerateNeverInventsTime(t *testing.T) {
	now := at(t, 10, 12)
	gen := NewSlotGenerator(fixedClock(now))
	busy := []Interval{
		{Start: at(t, 11, 0), End: at(t, 12, 30)},
		{Start: at(t, 14, 0).AddDate(0, 0, 1), End: at(t, 18, 0).AddDate(0, 0, 1)},
	}

	slots := gen.Generate(busy, 3)

	require.NotEmpty(t, slots)
	for _, slot := range slots {
		assert.True(t, slot.IsValid())
		assert.GreaterOrEqual(t, slot.Duration(), MinSlotDuration)
		assert.False(t, slot.Start.Before(now), "slot %v starts in the past", slot)
		assert.GreaterOrEqual(t, slot.Start.Hour(), WorkDayStartHour)
		assert.LessOrEqual(t, slot.End.Hour(), WorkDayEndHour)
		for _, b := range busy {
			assert.False(t, slot.Overlaps(b), "slot %v intersects busy %v", slot, b)
		}
	}
}

func TestGenerateDefaultsHorizon(t *testing.T) {
	now := at(t, 8, 0)
	gen := NewSlotGenerator(fixedClock(now))

	slots := gen.Generate(nil, 0)

	assert.Len(t, slots, DefaultHorizonDays)
}
