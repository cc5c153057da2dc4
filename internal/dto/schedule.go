package dto

// BuildScheduleRequest asks the engine for a proposal over one plan date.
// Anchor overrides the day-shift start instant (RFC3339) when set.
type BuildScheduleRequest struct {
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	Anchor           string `json:"anchor" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Optimize         bool   `json:"optimize"`
	LockedPriorities []int  `json:"lockedPriorities" validate:"omitempty,dive,min=0"`
	Async            bool   `json:"async"`
}

// EntryResponse is one scheduled row: a production part, a changeover or
// an inserted cleaning.
type EntryResponse struct {
	Line        string  `json:"line"`
	Kind        string  `json:"kind"`
	Transition  string  `json:"transition,omitempty"`
	JobID       string  `json:"jobId,omitempty"`
	Name        string  `json:"name"`
	VolumeLabel string  `json:"volumeLabel,omitempty"`
	Quantity    float64 `json:"quantity"`
	PartIndex   int     `json:"partIndex,omitempty"`
	PartCount   int     `json:"partCount,omitempty"`
	StartsAt    string  `json:"startsAt"`
	EndsAt      string  `json:"endsAt"`
	DurationMin int     `json:"durationMin"`
	Note        string  `json:"note,omitempty"`
}

// LineStatsResponse summarizes one line of a proposal.
type LineStatsResponse struct {
	Jobs              int  `json:"jobs"`
	Parts             int  `json:"parts"`
	Transitions       int  `json:"transitions"`
	AutoCleans        int  `json:"autoCleans"`
	TransitionMinutes int  `json:"transitionMinutes"`
	TotalMinutes      int  `json:"totalMinutes"`
	OptimizerApplied  bool `json:"optimizerApplied"`
	OptimizerSavedMin int  `json:"optimizerSavedMin"`
}

// SkippedJobResponse names a job the builder refused with its reason.
type SkippedJobResponse struct {
	JobID  string `json:"jobId"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ProposalResponse is a generated, not yet applied schedule. Status is
// READY for sync builds; async builds move QUEUED -> BUILDING -> READY
// or FAILED and carry no entries until ready.
type ProposalResponse struct {
	ProposalID string                       `json:"proposalId"`
	Date       string                       `json:"date"`
	Status     string                       `json:"status"`
	ExpiresAt  string                       `json:"expiresAt"`
	Entries    []EntryResponse              `json:"entries,omitempty"`
	Stats      map[string]LineStatsResponse `json:"stats,omitempty"`
	Skipped    []SkippedJobResponse         `json:"skipped,omitempty"`
	Error      *string                      `json:"error,omitempty"`
}

// BuildEnqueuedResponse acknowledges an async build.
type BuildEnqueuedResponse struct {
	ProposalID string `json:"proposalId"`
	Status     string `json:"status"`
}

// ApplyScheduleRequest persists a proposal as the applied schedule of its date.
type ApplyScheduleRequest struct {
	ProposalID string `json:"proposalId" validate:"required,uuid4"`
}

// ScheduleResponse is a persisted schedule with its rows.
type ScheduleResponse struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Status        string          `json:"status"`
	OptimizerUsed bool            `json:"optimizerUsed"`
	SavedMinutes  int             `json:"savedMinutes"`
	AppliedAt     string          `json:"appliedAt,omitempty"`
	Entries       []EntryResponse `json:"entries"`
}
