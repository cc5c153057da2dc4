package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleStatus represents lifecycle phases for persisted schedules.
type ScheduleStatus string

const (
	ScheduleStatusDraft   ScheduleStatus = "DRAFT"
	ScheduleStatusApplied ScheduleStatus = "APPLIED"
)

// Schedule is a persisted build result for one plan date. At most one
// schedule per date is APPLIED at a time.
type Schedule struct {
	ID            string         `db:"id" json:"id"`
	PlanDate      time.Time      `db:"plan_date" json:"plan_date"`
	Status        ScheduleStatus `db:"status" json:"status"`
	Anchor        time.Time      `db:"anchor" json:"anchor"`
	OptimizerUsed bool           `db:"optimizer_used" json:"optimizer_used"`
	SavedMinutes  int            `db:"saved_minutes" json:"saved_minutes"`
	Stats         types.JSONText `db:"stats" json:"stats"`
	BuiltBy       *string        `db:"built_by" json:"built_by,omitempty"`
	AppliedAt     *time.Time     `db:"applied_at" json:"applied_at,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleEntry is one persisted row of a schedule: a production part, a
// changeover or an inserted cleaning.
type ScheduleEntry struct {
	ID          string    `db:"id" json:"id"`
	ScheduleID  string    `db:"schedule_id" json:"schedule_id"`
	Position    int       `db:"position" json:"position"`
	Line        string    `db:"line" json:"line"`
	Kind        string    `db:"kind" json:"kind"`
	Transition  string    `db:"transition" json:"transition"`
	JobCode     string    `db:"job_code" json:"job_code"`
	Name        string    `db:"name" json:"name"`
	VolumeLabel string    `db:"volume_label" json:"volume_label"`
	Quantity    float64   `db:"quantity" json:"quantity"`
	PartIndex   int       `db:"part_index" json:"part_index"`
	PartCount   int       `db:"part_count" json:"part_count"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time `db:"ends_at" json:"ends_at"`
	DurationMin int       `db:"duration_minutes" json:"duration_minutes"`
	Note        string    `db:"note" json:"note"`
}
