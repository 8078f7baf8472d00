package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2026, time.March, 2, hour, minute, 0, 0, time.UTC)
}

func TestSubtractSplitsInteriorBusyInterval(t *testing.T) {
	segments := []Interval{{Start: at(t, 9, 0), End: at(t, 21, 0)}}
	busy := Interval{Start: at(t, 10, 0), End: at(t, 11, 0)}

	result := Subtract(segments, busy)

	require.Len(t, result, 2)
	assert.Equal(t, Interval{Start: at(t, 9, 0), End: at(t, 10, 0)}, result[0])
	assert.Equal(t, Interval{Start: at(t, 11, 0), End: at(t, 21, 0)}, result[1])
}

func TestSubtractKeepsDisjointSegments(t *testing.T) {
	segments := []Interval{
		{Start: at(t, 9, 0), End: at(t, 10, 0)},
		{Start: at(t, 14, 0), End: at(t, 16, 0)},
	}
	busy := Interval{Start: at(t, 11, 0), End: at(t, 12, 0)}

	result := Subtract(segments, busy)
	assert.Equal(t, segments, result)
}

func TestSubtractDropsSwallowedSegment(t *testing.T) {
	segments := []Interval{{Start: at(t, 10, 0), End: at(t, 11, 0)}}
	busy := Interval{Start: at(t, 9, 0), End: at(t, 12, 0)}

	assert.Empty(t, Subtract(segments, busy))
}

func TestSubtractTrimsHeadOverlap(t *testing.T) {
	segments := []Interval{{Start: at(t, 9, 0), End: at(t, 12, 0)}}
	busy := Interval{Start: at(t, 8, 0), End: at(t, 10, 0)}

	result := Subtract(segments, busy)
	require.Len(t, result, 1)
	assert.Equal(t, Interval{Start: at(t, 10, 0), End: at(t, 12, 0)}, result[0])
}

func TestSubtractTrimsTailOverlap(t *testing.T) {
	segments := []Interval{{Start: at(t, 9, 0), End: at(t, 12, 0)}}
	busy := Interval{Start: at(t, 11, 0), End: at(t, 13, 0)}

	result := Subtract(segments, busy)
	require.Len(t, result, 1)
	assert.Equal(t, Interval{Start: at(t, 9, 0), End: at(t, 11, 0)}, result[0])
}

func TestSubtractTouchingBoundaryIsNotOverlap(t *testing.T) {
	segments := []Interval{{Start: at(t, 9, 0), End: at(t, 10, 0)}}
	busy := Interval{Start: at(t, 10, 0), End: at(t, 11, 0)}

	assert.Equal(t, segments, Subtract(segments, busy))
}

func TestSubtractOutputNeverIntersectsBusy(t *testing.T) {
	segments := []Interval{
		{Start: at(t, 9, 0), End: at(t, 12, 0)},
		{Start: at(t, 13, 0), End: at(t, 18, 0)},
		{Start: at(t, 19, 0), End: at(t, 21, 0)},
	}
	busyIntervals := []Interval{
		{Start: at(t, 8, 30), End: at(t, 9, 30)},
		{Start: at(t, 11, 0), End: at(t, 14, 0)},
		{Start: at(t, 17, 45), End: at(t, 19, 15)},
	}

	result := segments
	for _, busy := range busyIntervals {
		result = Subtract(result, busy)
	}

	var original, kept time.Duration
	for _, seg := range segments {
		original += seg.Duration()
	}
	for _, piece := range result {
		require.True(t, piece.IsValid())
		for _, busy := range busyIntervals {
			assert.False(t, piece.Overlaps(busy), "piece %v intersects busy %v", piece, busy)
		}
		inside := false
		for _, seg := range segments {
			if !piece.Start.Before(seg.Start) && !piece.End.After(seg.End) {
				inside = true
			}
		}
		assert.True(t, inside, "piece %v not contained in any input segment", piece)
		kept += piece.Duration()
	}
	assert.Less(t, kept, original)
}
