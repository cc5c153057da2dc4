package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/velesoft/lineplan-api/internal/dto"
	"github.com/velesoft/lineplan-api/internal/models"
	"github.com/velesoft/lineplan-api/internal/schedule"
	appErrors "github.com/velesoft/lineplan-api/pkg/errors"
	"github.com/velesoft/lineplan-api/pkg/jobs"
)

type planSnapshotStub struct {
	jobs    []schedule.Job
	skipped []SkippedPlanJob
	err     error
}

func (s planSnapshotStub) Snapshot(ctx context.Context, date time.Time) ([]schedule.Job, []SkippedPlanJob, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.jobs, s.skipped, nil
}

type rulesSnapshotStub struct {
	rules *schedule.RuleSet
	err   error
}

func (s rulesSnapshotStub) Snapshot(ctx context.Context) (*schedule.RuleSet, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.rules == nil {
		return schedule.NewRuleSet(), nil
	}
	return s.rules, nil
}

type scheduleStoreStub struct {
	created *models.Schedule
	rows    []models.ScheduleEntry
	demoted []time.Time
	applied []string

	findApplied *models.Schedule
	findErr     error
	listRows    []models.ScheduleEntry
}

func (s *scheduleStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, record *models.Schedule) error {
	if record.ID == "" {
		record.ID = "sched-1"
	}
	record.Status = models.ScheduleStatusDraft
	s.created = record
	return nil
}

func (s *scheduleStoreStub) InsertEntries(ctx context.Context, exec sqlx.ExtContext, scheduleID string, entries []models.ScheduleEntry) error {
	s.rows = entries
	return nil
}

func (s *scheduleStoreStub) FindAppliedByDate(ctx context.Context, date time.Time) (*models.Schedule, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.findApplied == nil {
		return nil, sql.ErrNoRows
	}
	return s.findApplied, nil
}

func (s *scheduleStoreStub) ListEntries(ctx context.Context, scheduleID string) ([]models.ScheduleEntry, error) {
	return s.listRows, nil
}

func (s *scheduleStoreStub) DemoteApplied(ctx context.Context, exec sqlx.ExtContext, date time.Time) error {
	s.demoted = append(s.demoted, date)
	return nil
}

func (s *scheduleStoreStub) MarkApplied(ctx context.Context, exec sqlx.ExtContext, id string, appliedAt time.Time) error {
	s.applied = append(s.applied, id)
	return nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type scheduleFixtureConfig struct {
	plans planSnapshotStub
	store *scheduleStoreStub
	queue buildDispatcher
	tx    txProvider
}

func newScheduleServiceFixture(cfg scheduleFixtureConfig) (*ScheduleService, *scheduleStoreStub) {
	if cfg.plans.jobs == nil && cfg.plans.err == nil {
		cfg.plans = defaultPlanSnapshot()
	}
	store := cfg.store
	if store == nil {
		store = &scheduleStoreStub{}
	}
	rules := schedule.NewRuleSet()
	rules.Norms["Line 1"] = map[schedule.TransitionType]int{schedule.TransitionFormatChange: 60}

	service := NewScheduleService(
		cfg.plans,
		rulesSnapshotStub{rules: rules},
		store,
		nil,
		nil,
		cfg.queue,
		cfg.tx,
		validator.New(),
		zap.NewNop(),
		ScheduleServiceConfig{ProposalTTL: time.Hour},
	)
	return service, store
}

func defaultPlanSnapshot() planSnapshotStub {
	return planSnapshotStub{
		jobs: []schedule.Job{
			{ID: "J-1", Line: "Line 1", Name: "Apple Juice 1l", Product: schedule.ProductKey{Type: "juice", Flavor: "apple", Volume: "1 l"}, Quantity: 500, Speed: 500, OriginalIndex: 0},
			{ID: "J-2", Line: "Line 1", Name: "Apple Juice 0.5l", Product: schedule.ProductKey{Type: "juice", Flavor: "apple", Volume: "0,5 l"}, Quantity: 250, Speed: 500, OriginalIndex: 1},
		},
		skipped: []SkippedPlanJob{{JobCode: "J-9", Name: "Cherry Nectar", Reason: "postponed"}},
	}
}

func TestScheduleServiceGenerateProposal(t *testing.T) {
	service, _ := newScheduleServiceFixture(scheduleFixtureConfig{})

	resp, err := service.GenerateProposal(context.Background(), dto.BuildScheduleRequest{Date: "2024-03-11"}, "planner-1")
	require.NoError(t, err)
	assert.Equal(t, proposalStatusReady, resp.Status)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Equal(t, "2024-03-11", resp.Date)

	require.Len(t, resp.Entries, 3)
	assert.Equal(t, "PRODUCTION", resp.Entries[0].Kind)
	assert.Equal(t, "J-1", resp.Entries[0].JobID)
	assert.Equal(t, "2024-03-11T08:00:00Z", resp.Entries[0].StartsAt)
	assert.Equal(t, "TRANSITION", resp.Entries[1].Kind)
	assert.Equal(t, "FORMAT_CHANGE", resp.Entries[1].Transition)
	assert.Equal(t, 60, resp.Entries[1].DurationMin)
	assert.Equal(t, "J-2", resp.Entries[2].JobID)

	stats, ok := resp.Stats["Line 1"]
	require.True(t, ok)
	assert.Equal(t, 2, stats.Jobs)
	assert.Equal(t, 1, stats.Transitions)
	assert.Equal(t, 60, stats.TransitionMinutes)
	assert.Equal(t, 150, stats.TotalMinutes)

	require.NotEmpty(t, resp.Skipped)
	assert.Equal(t, "J-9", resp.Skipped[0].JobID)
	assert.Equal(t, "postponed", resp.Skipped[0].Reason)
}

func TestScheduleServiceGenerateProposalRejectsBadDate(t *testing.T) {
	service, _ := newScheduleServiceFixture(scheduleFixtureConfig{})
	_, err := service.GenerateProposal(context.Background(), dto.BuildScheduleRequest{Date: "11.03.2024"}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceGenerateProposalPropagatesPlanError(t *testing.T) {
	service, _ := newScheduleServiceFixture(scheduleFixtureConfig{
		plans: planSnapshotStub{err: errors.New("db down")},
	})
	_, err := service.GenerateProposal(context.Background(), dto.BuildScheduleRequest{Date: "2024-03-11"}, "")
	require.Error(t, err)
}

func TestScheduleServiceGetProposalNotFound(t *testing.T) {
	service, _ := newScheduleServiceFixture(scheduleFixtureConfig{})
	_, err := service.GetProposal(context.Background(), "7b6c0a9e-59b4-4f41-9f21-111111111111")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceApplyProposal(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	service, store := newScheduleServiceFixture(scheduleFixtureConfig{tx: tx})

	resp, err := service.GenerateProposal(context.Background(), dto.BuildScheduleRequest{Date: "2024-03-11", Optimize: false}, "planner-1")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	applied, err := service.ApplyProposal(context.Background(), dto.ApplyScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, string(models.ScheduleStatusApplied), applied.Status)
	assert.Equal(t, "2024-03-11", applied.Date)
	assert.Len(t, applied.Entries, 3)

	require.NotNil(t, store.created)
	require.NotNil(t, store.created.BuiltBy)
	assert.Equal(t, "planner-1", *store.created.BuiltBy)
	assert.Len(t, store.rows, 3)
	require.Len(t, store.demoted, 1)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), store.demoted[0])
	assert.Equal(t, []string{store.created.ID}, store.applied)

	// Applying consumes the proposal.
	_, err = service.ApplyProposal(context.Background(), dto.ApplyScheduleRequest{ProposalID: resp.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceApplyProposalNotReady(t *testing.T) {
	queue := &queueStub{}
	service, _ := newScheduleServiceFixture(scheduleFixtureConfig{queue: queue})

	enq, err := service.EnqueueBuild(context.Background(), dto.BuildScheduleRequest{Date: "2024-03-11", Async: true}, "")
	require.NoError(t, err)

	_, err = service.ApplyProposal(context.Background(), dto.ApplyScheduleRequest{ProposalID: enq.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceEnqueueBuildAndProcess(t *testing.T) {
	queue := &queueStub{}
	service, _ := newScheduleServiceFixture(scheduleFixtureConfig{queue: queue})

	enq, err := service.EnqueueBuild(context.Background(), dto.BuildScheduleRequest{Date: "2024-03-11", Async: true}, "planner-1")
	require.NoError(t, err)
	assert.Equal(t, proposalStatusQueued, enq.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, enq.ProposalID, queue.jobs[0].ID)
	assert.Equal(t, buildJobType, queue.jobs[0].Type)

	pending, err := service.GetProposal(context.Background(), enq.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, proposalStatusQueued, pending.Status)
	assert.Empty(t, pending.Entries)

	require.NoError(t, service.ProcessBuild(context.Background(), queue.jobs[0]))

	ready, err := service.GetProposal(context.Background(), enq.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, proposalStatusReady, ready.Status)
	assert.Len(t, ready.Entries, 3)
}

func TestScheduleServiceEnqueueBuildQueueFailure(t *testing.T) {
	queue := &queueStub{err: errors.New("queue stopped")}
	service, _ := newScheduleServiceFixture(scheduleFixtureConfig{queue: queue})

	enq, err := service.EnqueueBuild(context.Background(), dto.BuildScheduleRequest{Date: "2024-03-11", Async: true}, "")
	require.Error(t, err)
	assert.Nil(t, enq)
}

func TestScheduleServiceGetApplied(t *testing.T) {
	appliedAt := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	store := &scheduleStoreStub{
		findApplied: &models.Schedule{
			ID:        "sched-7",
			PlanDate:  time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			Status:    models.ScheduleStatusApplied,
			AppliedAt: &appliedAt,
		},
		listRows: []models.ScheduleEntry{
			{Line: "Line 1", Kind: "PRODUCTION", JobCode: "J-1", StartsAt: appliedAt, EndsAt: appliedAt.Add(time.Hour), DurationMin: 60},
		},
	}
	service, _ := newScheduleServiceFixture(scheduleFixtureConfig{store: store})

	resp, cacheHit, err := service.GetApplied(context.Background(), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, "sched-7", resp.ID)
	assert.Equal(t, "2024-03-11", resp.Date)
	assert.Equal(t, string(models.ScheduleStatusApplied), resp.Status)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "J-1", resp.Entries[0].JobID)
}

func TestScheduleServiceGetAppliedNotFound(t *testing.T) {
	service, _ := newScheduleServiceFixture(scheduleFixtureConfig{store: &scheduleStoreStub{}})
	_, _, err := service.GetApplied(context.Background(), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
