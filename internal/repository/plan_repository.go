package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/velesoft/lineplan-api/internal/models"
)

const planJobColumns = `id, job_code, planned_date, line, product_name, product_type, product_flavor, brand, volume_label, quantity, fact_quantity, speed, priority, status, position, created_at, updated_at`

// PlanRepository persists daily plan jobs.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository constructs the repository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// List returns plan jobs of a date with total count, in submission order.
func (r *PlanRepository) List(ctx context.Context, filter models.PlanFilter) ([]models.PlanJob, int, error) {
	baseQuery := `FROM plan_jobs WHERE planned_date = $1`
	args := []interface{}{filter.Date}
	if filter.Line != "" {
		baseQuery += fmt.Sprintf(" AND line = $%d", len(args)+1)
		args = append(args, filter.Line)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY position ASC LIMIT %d OFFSET %d", planJobColumns, baseQuery, pageSize, offset)
	var jobs []models.PlanJob
	if err := r.db.SelectContext(ctx, &jobs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list plan jobs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count plan jobs: %w", err)
	}

	return jobs, total, nil
}

// ListAll returns every plan job of a date in submission order.
func (r *PlanRepository) ListAll(ctx context.Context, date time.Time) ([]models.PlanJob, error) {
	query := fmt.Sprintf("SELECT %s FROM plan_jobs WHERE planned_date = $1 ORDER BY position ASC", planJobColumns)
	var jobs []models.PlanJob
	if err := r.db.SelectContext(ctx, &jobs, query, date); err != nil {
		return nil, fmt.Errorf("list plan jobs: %w", err)
	}
	return jobs, nil
}

// ReplaceForDate swaps the whole plan of one date inside a transaction.
func (r *PlanRepository) ReplaceForDate(ctx context.Context, date time.Time, jobs []models.PlanJob) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace plan tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM plan_jobs WHERE planned_date = $1`, date); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear plan jobs: %w", err)
	}
	const query = `INSERT INTO plan_jobs (id, job_code, planned_date, line, product_name, product_type, product_flavor, brand, volume_label, quantity, fact_quantity, speed, priority, status, position, created_at, updated_at)
VALUES (:id, :job_code, :planned_date, :line, :product_name, :product_type, :product_flavor, :brand, :volume_label, :quantity, :fact_quantity, :speed, :priority, :status, :position, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range jobs {
		if jobs[i].ID == "" {
			jobs[i].ID = uuid.NewString()
		}
		jobs[i].PlannedDate = date
		jobs[i].Position = i
		if jobs[i].CreatedAt.IsZero() {
			jobs[i].CreatedAt = now
		}
		jobs[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, jobs[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert plan job: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace plan tx: %w", err)
	}
	return nil
}
