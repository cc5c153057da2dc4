package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func transitionRules() *RuleSet {
	rs := NewRuleSet()
	rs.CIP["L1"] = map[string]CIPRule{
		"nectar mango": {
			BaseLevel: TransitionCIP2,
			Exceptions: map[TransitionType]map[string]struct{}{
				TransitionCIP1: {"nectar peach": {}},
				TransitionCIP3: {"milk cocoa": {}},
			},
		},
		"juice apple": {BaseLevel: TransitionCIP1},
	}
	rs.Eviction["L1"] = map[string]EvictionRule{
		"juice apple": {
			Allowed: map[string]struct{}{"nectar mango": {}, "juice grape": {}},
			Denied:  map[string]struct{}{"juice grape": {}},
		},
	}
	rs.Norms["L1"] = map[TransitionType]int{
		TransitionCIP1:         45,
		TransitionCIP2:         180,
		TransitionEviction:     25,
		TransitionFormatChange: 90,
	}
	return rs
}

func prodJob(ptype, flavor, volume string) *Job {
	return &Job{
		ID:      "j",
		Line:    "L1",
		Name:    ptype + " " + flavor,
		Product: ProductKey{Type: ptype, Flavor: flavor, Volume: volume},
	}
}

func TestResolveEdgesOfTheLine(t *testing.T) {
	r := NewResolver(transitionRules())

	kind, minutes := r.Resolve("L1", nil, prodJob("juice", "apple", "0.5 l"))
	assert.Equal(t, TransitionNone, kind)
	assert.Zero(t, minutes)

	kind, minutes = r.Resolve("L1", prodJob("juice", "apple", "0.5 l"), nil)
	assert.Equal(t, TransitionNone, kind)
	assert.Zero(t, minutes)
}

func TestResolveCascade(t *testing.T) {
	r := NewResolver(transitionRules())

	tests := []struct {
		name    string
		prev    *Job
		next    *Job
		kind    TransitionType
		minutes int
	}{
		{
			name:    "format change outranks eviction",
			prev:    prodJob("juice", "apple", "0.5 L"),
			next:    prodJob("nectar", "mango", "1.0 L"),
			kind:    TransitionFormatChange,
			minutes: 90,
		},
		{
			name:    "eviction between allowed products",
			prev:    prodJob("juice", "apple", "0.5 l"),
			next:    prodJob("nectar", "mango", "0.5 l"),
			kind:    TransitionEviction,
			minutes: 25,
		},
		{
			name:    "denied eviction falls through to cip",
			prev:    prodJob("juice", "apple", "0.5 l"),
			next:    prodJob("juice", "grape", "0.5 l"),
			kind:    TransitionCIP1,
			minutes: 45,
		},
		{
			name:    "base level when successor not in exceptions",
			prev:    prodJob("nectar", "mango", "0.5 l"),
			next:    prodJob("juice", "apple", "0.5 l"),
			kind:    TransitionCIP2,
			minutes: 180,
		},
		{
			name:    "exception redirects to a lighter level",
			prev:    prodJob("nectar", "mango", "0.5 l"),
			next:    prodJob("nectar", "peach", "0.5 l"),
			kind:    TransitionCIP1,
			minutes: 45,
		},
		{
			name:    "exception level absent from norms uses the fallback",
			prev:    prodJob("nectar", "mango", "0.5 l"),
			next:    prodJob("milk", "cocoa", "0.5 l"),
			kind:    TransitionCIP3,
			minutes: DefaultCIP3Minutes,
		},
		{
			name:    "unknown predecessor degrades to default",
			prev:    prodJob("cola", "classic", "0.5 l"),
			next:    prodJob("juice", "apple", "0.5 l"),
			kind:    TransitionDefault,
			minutes: DefaultTransitionMinutes,
		},
		{
			name:    "volume labels compare normalized",
			prev:    prodJob("nectar", "mango", "0.5 L"),
			next:    prodJob("juice", "apple", " 0.5 l "),
			kind:    TransitionCIP2,
			minutes: 180,
		},
		{
			name:    "missing volume never forces a format change",
			prev:    prodJob("nectar", "mango", ""),
			next:    prodJob("juice", "apple", "1.0 l"),
			kind:    TransitionCIP2,
			minutes: 180,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, minutes := r.Resolve("L1", tc.prev, tc.next)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.minutes, minutes)
		})
	}
}

func TestResolveUnknownLineUsesDefaults(t *testing.T) {
	r := NewResolver(transitionRules())

	kind, minutes := r.Resolve("L9", prodJob("nectar", "mango", "0.5 l"), prodJob("juice", "apple", "0.5 l"))
	assert.Equal(t, TransitionDefault, kind)
	assert.Equal(t, DefaultTransitionMinutes, minutes)
}

func TestResolveRuleWithoutNormsRowUsesLevelFallback(t *testing.T) {
	rs := transitionRules()
	rs.CIP["L2"] = map[string]CIPRule{"nectar mango": {BaseLevel: TransitionCIP2}}
	r := NewResolver(rs)

	kind, minutes := r.Resolve("L2", prodJob("nectar", "mango", "0.5 l"), prodJob("juice", "apple", "0.5 l"))
	assert.Equal(t, TransitionCIP2, kind)
	assert.Equal(t, DefaultCIP2Minutes, minutes)
}

func TestResolveNilRuleSet(t *testing.T) {
	r := NewResolver(nil)

	kind, minutes := r.Resolve("L1", prodJob("juice", "apple", "0.5 l"), prodJob("nectar", "mango", "0.5 l"))
	assert.Equal(t, TransitionDefault, kind)
	assert.Equal(t, DefaultTransitionMinutes, minutes)
}
