package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func linkEntry(line string, start, end time.Time) Entry {
	return Entry{
		Line: line, Kind: KindProduction,
		Start: start, End: end,
		DurationMinutes: int(end.Sub(start) / time.Minute),
	}
}

func TestApplyLineLinksAlignsTargetToSourceEnd(t *testing.T) {
	perLine := map[string][]Entry{
		"L1": {linkEntry("L1", mark(0), mark(240))},
		"L2": {linkEntry("L2", mark(0), mark(120)), linkEntry("L2", mark(120), mark(180))},
	}

	ApplyLineLinks(perLine, map[string]string{"L2": "L1"})

	assert.Equal(t, mark(240), perLine["L2"][0].Start)
	assert.Equal(t, mark(360), perLine["L2"][0].End)
	assert.Equal(t, mark(360), perLine["L2"][1].Start)
	assert.Equal(t, mark(420), perLine["L2"][1].End)
	// the source line never moves
	assert.Equal(t, mark(0), perLine["L1"][0].Start)
}

func TestApplyLineLinksSettlesChains(t *testing.T) {
	perLine := map[string][]Entry{
		"L1": {linkEntry("L1", mark(0), mark(240))},
		"L2": {linkEntry("L2", mark(0), mark(60))},
		"L3": {linkEntry("L3", mark(0), mark(30))},
	}

	ApplyLineLinks(perLine, map[string]string{"L3": "L2", "L2": "L1"})

	assert.Equal(t, mark(240), perLine["L2"][0].Start)
	assert.Equal(t, mark(300), perLine["L2"][0].End)
	assert.Equal(t, mark(300), perLine["L3"][0].Start)
	assert.Equal(t, mark(330), perLine["L3"][0].End)
}

func TestApplyLineLinksShiftsBackward(t *testing.T) {
	perLine := map[string][]Entry{
		"L1": {linkEntry("L1", mark(0), mark(60))},
		"L2": {linkEntry("L2", mark(120), mark(180))},
	}

	ApplyLineLinks(perLine, map[string]string{"L2": "L1"})

	assert.Equal(t, mark(60), perLine["L2"][0].Start)
	assert.Equal(t, mark(120), perLine["L2"][0].End)
}

func TestApplyLineLinksIgnoresMissingLines(t *testing.T) {
	perLine := map[string][]Entry{
		"L2": {linkEntry("L2", mark(0), mark(60))},
	}

	ApplyLineLinks(perLine, map[string]string{"L2": "L9", "L8": "L2"})

	assert.Equal(t, mark(0), perLine["L2"][0].Start)
	assert.Equal(t, mark(60), perLine["L2"][0].End)
}
