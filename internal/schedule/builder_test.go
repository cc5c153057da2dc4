package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waterJob(id string, idx int, flavor, volume string, qty float64) Job {
	return Job{
		ID:            id,
		Line:          "L1",
		Name:          "water " + flavor + " " + volume,
		Product:       ProductKey{Type: "water", Flavor: flavor, Volume: volume},
		Quantity:      qty,
		Speed:         6000,
		OriginalIndex: idx,
	}
}

func TestBuilderBuildLinksLines(t *testing.T) {
	rs := NewRuleSet()
	rs.Links["L2"] = "L1"
	b := NewBuilder(rs, OptimizerOptions{}, nil)

	j3 := waterJob("J3", 2, "still", "1.5 l", 3000)
	j3.Line = "L2"
	jobs := []Job{
		waterJob("J1", 0, "still", "0.5 l", 6000),
		waterJob("J2", 1, "sparkling", "0.5 l", 6000),
		j3,
	}

	result := b.Build(jobs, BuildOptions{Anchor: testAnchor})

	require.Len(t, result.Entries, 4)
	assert.Equal(t, []EntryKind{
		KindProduction, KindTransition, KindProduction, KindProduction,
	}, entryKinds(result.Entries))
	assert.Equal(t, TransitionDefault, result.Entries[1].Transition)
	assert.Equal(t, DefaultTransitionMinutes, result.Entries[1].DurationMinutes)

	l1 := result.PerLine["L1"]
	l2 := result.PerLine["L2"]
	require.Len(t, l1, 3)
	require.Len(t, l2, 1)
	assert.Equal(t, l1[2].End, l2[0].Start)
	assert.Equal(t, mark(160), l2[0].Start)
	assert.Equal(t, mark(190), l2[0].End)

	assert.Empty(t, result.Skipped)
	assert.Equal(t, 2, result.Stats["L1"].Jobs)
	assert.Equal(t, 1, result.Stats["L1"].Transitions)
	assert.Equal(t, 160, result.Stats["L1"].TotalMinutes)
	assert.Equal(t, 30, result.Stats["L2"].TotalMinutes)
}

func TestBuilderSkipsInvalidJobs(t *testing.T) {
	b := NewBuilder(NewRuleSet(), OptimizerOptions{}, nil)

	jobs := []Job{
		waterJob("ok", 0, "still", "0.5 l", 6000),
		{ID: "noline", Quantity: 100},
		{ID: "zero", Line: "L1", Quantity: 0},
	}

	result := b.Build(jobs, BuildOptions{Anchor: testAnchor})

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "noline", result.Skipped[0].JobID)
	assert.Contains(t, result.Skipped[0].Reason, "missing line")
	assert.Equal(t, "zero", result.Skipped[1].JobID)
	assert.Contains(t, result.Skipped[1].Reason, "non-positive quantity")

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "ok", result.Entries[0].JobID)
}

func TestBuilderOptimizeReordersInsideLine(t *testing.T) {
	b := NewBuilder(optimizerRules(), OptimizerOptions{}, nil)

	jobs := []Job{
		syrupJob("X", 0, "x", intPtr(1)),
		syrupJob("Y", 1, "y", intPtr(1)),
		syrupJob("Z", 2, "z", intPtr(2)),
	}

	result := b.Build(jobs, BuildOptions{Anchor: testAnchor, Optimize: true})

	var prodIDs []string
	for _, e := range result.Entries {
		if e.Kind == KindProduction {
			prodIDs = append(prodIDs, e.JobID)
		}
	}
	assert.Equal(t, []string{"Y", "X", "Z"}, prodIDs)

	stats := result.Stats["L1"]
	assert.True(t, stats.OptimizerApplied)
	assert.Equal(t, 190, stats.OptimizerSavedMin)
	assert.Equal(t, 2, stats.Transitions)
	assert.Equal(t, 20, stats.TransitionMinutes)
}

func TestBuilderDeterministicForFixedAnchor(t *testing.T) {
	b := NewBuilder(optimizerRules(), OptimizerOptions{}, nil)
	jobs := []Job{
		syrupJob("X", 0, "x", intPtr(1)),
		syrupJob("Y", 1, "y", intPtr(1)),
		syrupJob("Z", 2, "z", intPtr(2)),
	}
	opts := BuildOptions{Anchor: testAnchor, Optimize: true}

	first := b.Build(jobs, opts)
	second := b.Build(jobs, opts)
	assert.Equal(t, first, second)
}

func TestBuilderSplitsShiftCrossingRuns(t *testing.T) {
	b := NewBuilder(NewRuleSet(), OptimizerOptions{}, nil)

	// 96000 at 6000/h runs 16 hours from 08:00 and crosses the 20:00 shift
	// boundary at the three-quarter point.
	jobs := []Job{waterJob("J1", 0, "still", "0.5 l", 96000)}

	result := b.Build(jobs, BuildOptions{Anchor: testAnchor})

	require.Len(t, result.Entries, 2)
	first, second := result.Entries[0], result.Entries[1]

	boundary := time.Date(2026, time.March, 2, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, 720, first.DurationMinutes)
	assert.Equal(t, 72000.0, first.Quantity)
	assert.Equal(t, boundary, first.End)
	assert.Contains(t, first.Note, "[part 1]")

	assert.Equal(t, boundary, second.Start)
	assert.Equal(t, 240, second.DurationMinutes)
	assert.Equal(t, 24000.0, second.Quantity)
	assert.Contains(t, second.Note, "[part 2]")
}

func TestBuilderDefaultsAnchorToDayShift(t *testing.T) {
	b := NewBuilder(NewRuleSet(), OptimizerOptions{}, nil)

	result := b.Build([]Job{waterJob("J1", 0, "still", "0.5 l", 600)}, BuildOptions{})

	require.Len(t, result.Entries, 1)
	assert.Equal(t, DayShiftStartHour, result.Entries[0].Start.Hour())
	assert.Zero(t, result.Entries[0].Start.Minute())
}
