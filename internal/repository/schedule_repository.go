package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/velesoft/lineplan-api/internal/models"
)

// ScheduleRepository persists build results and their entry rows.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a schedule header.
func (r *ScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	if schedule == nil {
		return fmt.Errorf("schedule payload is nil")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusDraft
	}
	if len(schedule.Stats) == 0 {
		schedule.Stats = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	target := r.exec(exec)
	const query = `
INSERT INTO schedules (id, plan_date, status, anchor, optimizer_used, saved_minutes, stats, built_by, applied_at, created_at, updated_at)
VALUES (:id, :plan_date, :status, :anchor, :optimizer_used, :saved_minutes, :stats, :built_by, :applied_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, schedule); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// InsertEntries writes entry rows in positional order.
func (r *ScheduleRepository) InsertEntries(ctx context.Context, exec sqlx.ExtContext, scheduleID string, entries []models.ScheduleEntry) error {
	target := r.exec(exec)
	const query = `
INSERT INTO schedule_entries (id, schedule_id, position, line, kind, transition, job_code, name, volume_label, quantity, part_index, part_count, starts_at, ends_at, duration_minutes, note)
VALUES (:id, :schedule_id, :position, :line, :kind, :transition, :job_code, :name, :volume_label, :quantity, :part_index, :part_count, :starts_at, :ends_at, :duration_minutes, :note)`
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].ScheduleID = scheduleID
		entries[i].Position = i
		if _, err := sqlx.NamedExecContext(ctx, target, query, entries[i]); err != nil {
			return fmt.Errorf("insert schedule entry: %w", err)
		}
	}
	return nil
}

// FindByID loads a schedule header by its identifier.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, plan_date, status, anchor, optimizer_used, saved_minutes, stats, built_by, applied_at, created_at, updated_at FROM schedules WHERE id = $1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindAppliedByDate returns the applied schedule of a plan date.
func (r *ScheduleRepository) FindAppliedByDate(ctx context.Context, date time.Time) (*models.Schedule, error) {
	const query = `SELECT id, plan_date, status, anchor, optimizer_used, saved_minutes, stats, built_by, applied_at, created_at, updated_at
FROM schedules WHERE plan_date = $1 AND status = $2 ORDER BY updated_at DESC LIMIT 1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, date, models.ScheduleStatusApplied); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListEntries returns the entry rows of a schedule in positional order.
func (r *ScheduleRepository) ListEntries(ctx context.Context, scheduleID string) ([]models.ScheduleEntry, error) {
	const query = `SELECT id, schedule_id, position, line, kind, transition, job_code, name, volume_label, quantity, part_index, part_count, starts_at, ends_at, duration_minutes, note
FROM schedule_entries WHERE schedule_id = $1 ORDER BY position ASC`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// DemoteApplied flips any applied schedule of the date back to draft.
// Demoting nothing is not an error.
func (r *ScheduleRepository) DemoteApplied(ctx context.Context, exec sqlx.ExtContext, date time.Time) error {
	target := r.exec(exec)
	const query = `UPDATE schedules SET status = $1, applied_at = NULL, updated_at = $2 WHERE plan_date = $3 AND status = $4`
	if _, err := target.ExecContext(ctx, query, models.ScheduleStatusDraft, time.Now().UTC(), date, models.ScheduleStatusApplied); err != nil {
		return fmt.Errorf("demote applied schedule: %w", err)
	}
	return nil
}

// MarkApplied promotes a schedule to applied.
func (r *ScheduleRepository) MarkApplied(ctx context.Context, exec sqlx.ExtContext, id string, appliedAt time.Time) error {
	target := r.exec(exec)
	const query = `UPDATE schedules SET status = $1, applied_at = $2, updated_at = $3 WHERE id = $4`
	result, err := target.ExecContext(ctx, query, models.ScheduleStatusApplied, appliedAt, appliedAt, id)
	if err != nil {
		return fmt.Errorf("mark schedule applied: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule applied rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
