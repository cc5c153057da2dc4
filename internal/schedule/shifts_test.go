package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftEnd(t *testing.T) {
	day := func(h, m int) time.Time {
		return time.Date(2026, time.March, 2, h, m, 0, 0, time.UTC)
	}

	assert.Equal(t, day(20, 0), ShiftEnd(day(8, 0)))
	assert.Equal(t, day(20, 0), ShiftEnd(day(19, 59)))
	assert.Equal(t, day(8, 0).AddDate(0, 0, 1), ShiftEnd(day(20, 0)))
	assert.Equal(t, day(8, 0).AddDate(0, 0, 1), ShiftEnd(day(23, 30)))
	assert.Equal(t, day(8, 0), ShiftEnd(day(0, 30)))
	assert.Equal(t, day(8, 0), ShiftEnd(day(7, 59)))
}

func TestSplitAtShiftBoundariesEveningCut(t *testing.T) {
	start := time.Date(2026, time.March, 2, 19, 30, 0, 0, time.UTC)
	entry := Entry{
		Line: "L1", Kind: KindProduction, JobID: "J1", Quantity: 120,
		Start: start, End: start.Add(time.Hour), DurationMinutes: 60,
	}

	out := SplitAtShiftBoundaries([]Entry{entry})

	require.Len(t, out, 2)
	first, second := out[0], out[1]

	boundary := time.Date(2026, time.March, 2, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, 30, first.DurationMinutes)
	assert.Equal(t, 60.0, first.Quantity)
	assert.Equal(t, boundary, first.End)
	assert.Equal(t, "[part 1]", first.Note)

	assert.Equal(t, boundary, second.Start)
	assert.Equal(t, 30, second.DurationMinutes)
	assert.Equal(t, 60.0, second.Quantity)
	assert.Equal(t, "[part 2]", second.Note)
	assert.Equal(t, entry.Quantity, first.Quantity+second.Quantity)
}

func TestSplitAtShiftBoundariesNightRunCrossesMorning(t *testing.T) {
	start := time.Date(2026, time.March, 2, 23, 0, 0, 0, time.UTC)
	entry := Entry{
		Line: "L1", Kind: KindProduction, JobID: "J1", Quantity: 600,
		Start: start, End: start.Add(10 * time.Hour), DurationMinutes: 600,
	}

	out := SplitAtShiftBoundaries([]Entry{entry})

	require.Len(t, out, 2)
	boundary := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 540, out[0].DurationMinutes)
	assert.Equal(t, 540.0, out[0].Quantity)
	assert.Equal(t, boundary, out[0].End)
	assert.Equal(t, boundary, out[1].Start)
	assert.Equal(t, 60, out[1].DurationMinutes)
	assert.Equal(t, 60.0, out[1].Quantity)
}

func TestSplitAtShiftBoundariesLeavesAlignedEntriesAlone(t *testing.T) {
	day := func(h int) time.Time {
		return time.Date(2026, time.March, 2, h, 0, 0, 0, time.UTC)
	}
	entries := []Entry{
		{Line: "L1", Kind: KindProduction, JobID: "a", Quantity: 100, Start: day(9), End: day(12), DurationMinutes: 180},
		{Line: "L1", Kind: KindProduction, JobID: "b", Quantity: 50, Start: day(19), End: day(20), DurationMinutes: 60},
		{Line: "L1", Kind: KindProduction, JobID: "c", Quantity: 50, Start: day(20), End: day(21), DurationMinutes: 60},
	}

	out := SplitAtShiftBoundaries(entries)
	assert.Equal(t, entries, out)
}

func TestSplitAtShiftBoundariesKeepsChangeoverShape(t *testing.T) {
	start := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	entry := Entry{
		Line: "L1", Kind: KindTransition, Transition: TransitionCIP2, JobID: "CIP-J2",
		Start: start, End: start.Add(2 * time.Hour), DurationMinutes: 120,
	}

	out := SplitAtShiftBoundaries([]Entry{entry})

	require.Len(t, out, 2)
	for _, e := range out {
		assert.Equal(t, KindTransition, e.Kind)
		assert.Equal(t, TransitionCIP2, e.Transition)
		assert.Equal(t, 60, e.DurationMinutes)
		assert.Zero(t, e.Quantity)
	}
}
