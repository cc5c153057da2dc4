package schedule

import (
	"fmt"
	"strings"
	"time"
)

// TransitionType classifies the changeover required between two consecutive
// jobs on a line. CIP levels are ordered by strictness: CIP3 > CIP2 > CIP1.
type TransitionType string

const (
	TransitionNone         TransitionType = "NONE"
	TransitionFormatChange TransitionType = "FORMAT_CHANGE"
	TransitionEviction     TransitionType = "EVICTION"
	TransitionCIP1         TransitionType = "CIP1"
	TransitionCIP2         TransitionType = "CIP2"
	TransitionCIP3         TransitionType = "CIP3"
	TransitionDefault      TransitionType = "DEFAULT"
)

// CIPRank returns the strictness rank of a CIP level. Non-CIP transitions
// (eviction, format change, default) rank zero and never suppress an
// automatic cleaning.
func (t TransitionType) CIPRank() int {
	switch t {
	case TransitionCIP1:
		return 1
	case TransitionCIP2:
		return 2
	case TransitionCIP3:
		return 3
	default:
		return 0
	}
}

// IsCIP reports whether the transition is one of the three CIP levels.
func (t TransitionType) IsCIP() bool {
	return t.CIPRank() > 0
}

// Valid reports whether the value is one of the recognized transition types.
func (t TransitionType) Valid() bool {
	switch t {
	case TransitionNone, TransitionFormatChange, TransitionEviction,
		TransitionCIP1, TransitionCIP2, TransitionCIP3, TransitionDefault:
		return true
	}
	return false
}

// ProductKey identifies what a job produces. Rule matching uses the
// normalized (type, flavor) pair; Volume is the container label whose
// inequality between neighbours forces a format change.
type ProductKey struct {
	Type   string
	Flavor string
	Brand  string
	Volume string
}

// RuleKey returns the normalized key used to match CIP and eviction rule
// rows. Empty when neither type nor flavor is known, which degrades rule
// lookups to the default transition.
func (k ProductKey) RuleKey() string {
	return NormalizeKey(k.Type + " " + k.Flavor)
}

// VolumeLabel returns the normalized container label.
func (k ProductKey) VolumeLabel() string {
	return strings.ToLower(strings.TrimSpace(k.Volume))
}

// NormalizeKey lowercases a product label and collapses interior whitespace
// so that rule rows and plan rows compare equal regardless of formatting.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

const (
	// missingPriority is assigned to jobs without an explicit priority so
	// they sort after every prioritized job.
	missingPriority = 999

	// defaultSpeed is the fallback line speed in units per hour.
	defaultSpeed = 1000.0
)

// Job is one production order on a line. Quantity is the remaining amount
// after the already-produced fact has been subtracted by the caller.
type Job struct {
	ID            string
	Line          string
	Name          string
	Product       ProductKey
	Quantity      float64
	Speed         float64
	Priority      *int
	OriginalIndex int

	// UnitLitres is the numeric container volume used for mass-mode
	// threshold accounting. Zero when unknown.
	UnitLitres float64
}

// EffectivePriority returns the job priority, substituting the lowest
// urgency constant when none was assigned.
func (j Job) EffectivePriority() int {
	if j.Priority == nil {
		return missingPriority
	}
	return *j.Priority
}

// EffectiveSpeed returns the line speed with the documented fallback.
func (j Job) EffectiveSpeed() float64 {
	if j.Speed <= 0 {
		return defaultSpeed
	}
	return j.Speed
}

// DurationMinutes converts a quantity of units into run minutes at the job's
// speed, rounded to the nearest minute.
func (j Job) DurationMinutes(qty float64) int {
	if qty <= 0 {
		return 0
	}
	return int((60.0*qty)/j.EffectiveSpeed() + 0.5)
}

// EntryKind distinguishes production runs from changeover records.
type EntryKind string

const (
	KindProduction EntryKind = "PRODUCTION"
	KindTransition EntryKind = "TRANSITION"
	KindAutoClean  EntryKind = "AUTO_CLEAN"
)

// Entry is one row of a built line schedule. Entries on a line are
// time-ordered, non-overlapping and contiguous.
type Entry struct {
	Line            string
	Kind            EntryKind
	Transition      TransitionType
	JobID           string
	Name            string
	VolumeLabel     string
	Quantity        float64
	PartIndex       int
	PartCount       int
	Start           time.Time
	End             time.Time
	DurationMinutes int
	Note            string
}

// IsChangeover reports whether the entry occupies the line without
// producing anything.
func (e Entry) IsChangeover() bool {
	return e.Kind == KindTransition || e.Kind == KindAutoClean
}

// SkippedJob reports one plan record the builder refused to schedule.
type SkippedJob struct {
	JobID  string
	Line   string
	Reason string
}

func (s SkippedJob) String() string {
	return fmt.Sprintf("%s (%s): %s", s.JobID, s.Line, s.Reason)
}

// LineStats summarizes the built timeline of a single line.
type LineStats struct {
	Jobs              int
	Parts             int
	Transitions       int
	AutoCleans        int
	TransitionMinutes int
	TotalMinutes      int
	OptimizerApplied  bool
	OptimizerSavedMin int
}

// Result is the outcome of one build call. Entries concatenates the per-line
// timelines; PerLine retains them individually for linking and rendering.
type Result struct {
	Entries []Entry
	PerLine map[string][]Entry
	Skipped []SkippedJob
	Stats   map[string]LineStats
}
