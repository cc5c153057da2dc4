package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velesoft/lineplan-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.Schedule{
		PlanDate:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Anchor:        time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		OptimizerUsed: true,
		SavedMinutes:  190,
	}
	require.NoError(t, repo.Create(context.Background(), nil, payload))
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NotEmpty(t, payload.ID)
	assert.Equal(t, models.ScheduleStatusDraft, payload.Status)
	assert.JSONEq(t, `{}`, string(payload.Stats))
}

func TestScheduleRepositoryInsertEntriesAssignsPositions(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entries := []models.ScheduleEntry{
		{Line: "Line 1", Kind: "PRODUCTION", JobCode: "J-100", Name: "Apple juice 0.5", Quantity: 5000},
		{Line: "Line 1", Kind: "TRANSITION", Transition: "CIP1", Name: "CIP1", DurationMin: 45},
	}
	require.NoError(t, repo.InsertEntries(context.Background(), nil, "sch-1", entries))
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 0, entries[0].Position)
	assert.Equal(t, 1, entries[1].Position)
	assert.Equal(t, "sch-1", entries[0].ScheduleID)
	assert.NotEmpty(t, entries[1].ID)
}

func TestScheduleRepositoryFindAppliedByDate(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	applied := date.Add(10 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "plan_date", "status", "anchor", "optimizer_used", "saved_minutes", "stats", "built_by", "applied_at", "created_at", "updated_at"}).
		AddRow("sch-1", date, string(models.ScheduleStatusApplied), date.Add(8*time.Hour), false, 0, types.JSONText(`{}`), nil, applied, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, plan_date, status, anchor, optimizer_used, saved_minutes, stats, built_by, applied_at, created_at, updated_at")).
		WithArgs(date, string(models.ScheduleStatusApplied)).
		WillReturnRows(rows)

	schedule, err := repo.FindAppliedByDate(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, "sch-1", schedule.ID)
	require.NotNil(t, schedule.AppliedAt)
	assert.Equal(t, applied, schedule.AppliedAt.UTC())
}

func TestScheduleRepositoryMarkApplied(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	ts := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET status = $1, applied_at = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(string(models.ScheduleStatusApplied), ts, ts, "sch-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.MarkApplied(context.Background(), nil, "sch-1", ts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryMarkAppliedNotFound(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET status = $1, applied_at = $2, updated_at = $3 WHERE id = $4")).
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.MarkApplied(context.Background(), nil, "missing", time.Now().UTC())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDemoteApplied(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET status = $1, applied_at = NULL, updated_at = $2 WHERE plan_date = $3 AND status = $4")).
		WithArgs(string(models.ScheduleStatusDraft), sqlmock.AnyArg(), date, string(models.ScheduleStatusApplied)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DemoteApplied(context.Background(), nil, date))
	assert.NoError(t, mock.ExpectationsWereMet())
}
