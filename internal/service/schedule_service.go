package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/velesoft/lineplan-api/internal/dto"
	"github.com/velesoft/lineplan-api/internal/models"
	"github.com/velesoft/lineplan-api/internal/schedule"
	appErrors "github.com/velesoft/lineplan-api/pkg/errors"
	"github.com/velesoft/lineplan-api/pkg/jobs"
)

type scheduleStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error
	InsertEntries(ctx context.Context, exec sqlx.ExtContext, scheduleID string, entries []models.ScheduleEntry) error
	FindAppliedByDate(ctx context.Context, date time.Time) (*models.Schedule, error)
	ListEntries(ctx context.Context, scheduleID string) ([]models.ScheduleEntry, error)
	DemoteApplied(ctx context.Context, exec sqlx.ExtContext, date time.Time) error
	MarkApplied(ctx context.Context, exec sqlx.ExtContext, id string, appliedAt time.Time) error
}

type planSnapshotter interface {
	Snapshot(ctx context.Context, date time.Time) ([]schedule.Job, []SkippedPlanJob, error)
}

type rulesSnapshotter interface {
	Snapshot(ctx context.Context) (*schedule.RuleSet, error)
}

type buildDispatcher interface {
	Enqueue(job jobs.Job) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

const (
	proposalStatusQueued   = "QUEUED"
	proposalStatusBuilding = "BUILDING"
	proposalStatusReady    = "READY"
	proposalStatusFailed   = "FAILED"

	buildJobType = "schedule_build"

	buildModeSync  = "sync"
	buildModeAsync = "async"

	cacheKeyAppliedPrefix = "schedule:applied:"
)

// ScheduleService drives the build pipeline: plan snapshot + rule snapshot
// through the builder into a proposal, then a transactional apply. Unapplied
// proposals live in an in-memory TTL store keyed by uuid.
type ScheduleService struct {
	plans     planSnapshotter
	rules     rulesSnapshotter
	schedules scheduleStore
	cache     *CacheService
	metrics   *MetricsService
	queue     buildDispatcher
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	store     *proposalStore
	cfg       ScheduleServiceConfig
}

// ScheduleServiceConfig governs proposal retention and optimizer limits.
type ScheduleServiceConfig struct {
	ProposalTTL        time.Duration
	AppliedCacheTTL    time.Duration
	OptimizerEnabled   bool
	OptimizerWorkers   int
	OptimizerTimeLimit time.Duration
	LockedPriorities   []int
}

// NewScheduleService wires the build pipeline dependencies.
func NewScheduleService(
	plans planSnapshotter,
	rules rulesSnapshotter,
	schedules scheduleStore,
	cache *CacheService,
	metrics *MetricsService,
	queue buildDispatcher,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleServiceConfig,
) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.AppliedCacheTTL <= 0 {
		cfg.AppliedCacheTTL = 10 * time.Minute
	}
	if cfg.LockedPriorities == nil {
		cfg.LockedPriorities = []int{0, 1}
	}
	return &ScheduleService{
		plans:     plans,
		rules:     rules,
		schedules: schedules,
		cache:     cache,
		metrics:   metrics,
		queue:     queue,
		tx:        tx,
		validator: validate,
		logger:    logger,
		store:     newProposalStore(cfg.ProposalTTL),
		cfg:       cfg,
	}
}

// GenerateProposal builds a schedule synchronously and stores the proposal.
func (s *ScheduleService) GenerateProposal(ctx context.Context, req dto.BuildScheduleRequest, actorID string) (*dto.ProposalResponse, error) {
	proposal, err := s.newProposal(req, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.runBuild(ctx, proposal, buildModeSync); err != nil {
		return nil, err
	}
	proposal.Status = proposalStatusReady
	s.store.Save(*proposal)
	resp := s.proposalResponse(*proposal)
	return &resp, nil
}

// EnqueueBuild registers a pending proposal and hands the build to the queue.
func (s *ScheduleService) EnqueueBuild(ctx context.Context, req dto.BuildScheduleRequest, actorID string) (*dto.BuildEnqueuedResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "build queue unavailable")
	}
	proposal, err := s.newProposal(req, actorID)
	if err != nil {
		return nil, err
	}
	proposal.Status = proposalStatusQueued
	s.store.Save(*proposal)

	if err := s.queue.Enqueue(jobs.Job{ID: proposal.ProposalID, Type: buildJobType}); err != nil {
		s.store.Delete(proposal.ProposalID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue schedule build")
	}
	return &dto.BuildEnqueuedResponse{ProposalID: proposal.ProposalID, Status: proposalStatusQueued}, nil
}

// ProcessBuild is the queue handler for async builds.
func (s *ScheduleService) ProcessBuild(ctx context.Context, job jobs.Job) error {
	proposal, ok := s.store.Get(job.ID)
	if !ok {
		s.logger.Warn("build job for unknown or expired proposal", zap.String("proposal_id", job.ID))
		return nil
	}
	proposal.Status = proposalStatusBuilding
	s.store.Save(proposal)

	if err := s.runBuild(ctx, &proposal, buildModeAsync); err != nil {
		proposal.Status = proposalStatusFailed
		proposal.Error = err.Error()
		s.store.Save(proposal)
		return err
	}
	proposal.Status = proposalStatusReady
	proposal.Error = ""
	s.store.Save(proposal)
	return nil
}

// GetProposal returns a stored proposal by id.
func (s *ScheduleService) GetProposal(ctx context.Context, id string) (*dto.ProposalResponse, error) {
	proposal, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	resp := s.proposalResponse(proposal)
	return &resp, nil
}

// ApplyProposal persists a ready proposal as the applied schedule of its
// date, demoting any previously applied one in the same transaction.
func (s *ScheduleService) ApplyProposal(ctx context.Context, req dto.ApplyScheduleRequest) (*dto.ScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid apply payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if proposal.Status != proposalStatusReady || proposal.Result == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "proposal is not ready to apply")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	stats, err := json.Marshal(proposal.Result.Stats)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule stats")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.schedules.DemoteApplied(ctx, tx, proposal.Date); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to demote applied schedule")
		return nil, err
	}

	builtBy := proposal.BuiltBy
	record := &models.Schedule{
		PlanDate:      proposal.Date,
		Anchor:        proposal.Anchor,
		OptimizerUsed: proposal.Optimize,
		SavedMinutes:  totalSavedMinutes(proposal.Result),
		Stats:         types.JSONText(stats),
	}
	if builtBy != "" {
		record.BuiltBy = &builtBy
	}
	if err = s.schedules.Create(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
		return nil, err
	}
	if err = s.schedules.InsertEntries(ctx, tx, record.ID, entryModels(proposal.Result.Entries)); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule entries")
		return nil, err
	}
	appliedAt := time.Now().UTC()
	if err = s.schedules.MarkApplied(ctx, tx, record.ID, appliedAt); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark schedule applied")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, "schedule:*")
	}
	s.store.Delete(req.ProposalID)
	s.logger.Info("schedule applied",
		zap.String("schedule_id", record.ID),
		zap.String("date", proposal.Date.Format(planDateLayout)),
		zap.Int("entries", len(proposal.Result.Entries)))

	record.Status = models.ScheduleStatusApplied
	record.AppliedAt = &appliedAt
	resp := scheduleResponse(record, entryModels(proposal.Result.Entries))
	return &resp, nil
}

// GetApplied returns the applied schedule of a date, cache-first. The bool
// reports whether the response came from cache.
func (s *ScheduleService) GetApplied(ctx context.Context, date time.Time) (*dto.ScheduleResponse, bool, error) {
	key := cacheKeyAppliedPrefix + date.Format(planDateLayout)
	if s.cache != nil {
		var cached dto.ScheduleResponse
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	record, err := s.schedules.FindAppliedByDate(ctx, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "no applied schedule for this date")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load applied schedule")
	}
	entries, err := s.schedules.ListEntries(ctx, record.ID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entries")
	}

	resp := scheduleResponse(record, entries)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.cfg.AppliedCacheTTL); err != nil {
			s.logger.Warn("cache applied schedule", zap.Error(err))
		}
	}
	return &resp, false, nil
}

func (s *ScheduleService) newProposal(req dto.BuildScheduleRequest, actorID string) (*buildProposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid build payload")
	}
	date, err := time.Parse(planDateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}
	anchor := time.Date(date.Year(), date.Month(), date.Day(), schedule.DayShiftStartHour, 0, 0, 0, time.UTC)
	if req.Anchor != "" {
		anchor, err = time.Parse(time.RFC3339, req.Anchor)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "anchor must be RFC3339")
		}
	}
	locked := s.cfg.LockedPriorities
	if req.LockedPriorities != nil {
		locked = req.LockedPriorities
	}
	return &buildProposal{
		ProposalID:  uuid.NewString(),
		Date:        date,
		Anchor:      anchor,
		Optimize:    req.Optimize && s.cfg.OptimizerEnabled,
		Locked:      locked,
		RequestedAt: time.Now().UTC(),
		BuiltBy:     actorID,
	}, nil
}

func (s *ScheduleService) runBuild(ctx context.Context, proposal *buildProposal, mode string) error {
	started := time.Now()
	planJobs, planSkipped, err := s.plans.Snapshot(ctx, proposal.Date)
	if err != nil {
		s.metrics.RecordScheduleBuild(mode, "error", time.Since(started))
		return err
	}
	rules, err := s.rules.Snapshot(ctx)
	if err != nil {
		s.metrics.RecordScheduleBuild(mode, "error", time.Since(started))
		return err
	}

	builder := schedule.NewBuilder(rules, schedule.OptimizerOptions{
		Workers:   s.cfg.OptimizerWorkers,
		TimeLimit: s.cfg.OptimizerTimeLimit,
	}, s.logger)
	result := builder.Build(planJobs, schedule.BuildOptions{
		Anchor:           proposal.Anchor,
		Optimize:         proposal.Optimize,
		LockedPriorities: proposal.Locked,
	})

	proposal.Result = result
	proposal.PlanSkipped = planSkipped
	s.metrics.RecordScheduleBuild(mode, "ok", time.Since(started))
	s.recordBuildStats(result, proposal.Optimize)
	s.logger.Info("schedule built",
		zap.String("mode", mode),
		zap.String("proposal_id", proposal.ProposalID),
		zap.String("date", proposal.Date.Format(planDateLayout)),
		zap.Int("jobs", len(planJobs)),
		zap.Int("entries", len(result.Entries)),
		zap.Duration("took", time.Since(started)))
	return nil
}

func (s *ScheduleService) recordBuildStats(result *schedule.Result, optimized bool) {
	autoCleans := 0
	for _, stats := range result.Stats {
		autoCleans += stats.AutoCleans
		if optimized {
			outcome := "baseline"
			if stats.OptimizerApplied {
				outcome = "improved"
			}
			s.metrics.RecordOptimizerRun(outcome, stats.OptimizerSavedMin)
		}
	}
	s.metrics.RecordAutoCleans(autoCleans)
}

func (s *ScheduleService) proposalResponse(proposal buildProposal) dto.ProposalResponse {
	resp := dto.ProposalResponse{
		ProposalID: proposal.ProposalID,
		Date:       proposal.Date.Format(planDateLayout),
		Status:     proposal.Status,
		ExpiresAt:  proposal.RequestedAt.Add(s.cfg.ProposalTTL).Format(time.RFC3339),
	}
	if proposal.Error != "" {
		msg := proposal.Error
		resp.Error = &msg
	}
	if proposal.Result == nil {
		return resp
	}

	resp.Entries = make([]dto.EntryResponse, 0, len(proposal.Result.Entries))
	for _, entry := range proposal.Result.Entries {
		resp.Entries = append(resp.Entries, entryResponseFromEngine(entry))
	}
	resp.Stats = make(map[string]dto.LineStatsResponse, len(proposal.Result.Stats))
	for line, stats := range proposal.Result.Stats {
		resp.Stats[line] = dto.LineStatsResponse{
			Jobs:              stats.Jobs,
			Parts:             stats.Parts,
			Transitions:       stats.Transitions,
			AutoCleans:        stats.AutoCleans,
			TransitionMinutes: stats.TransitionMinutes,
			TotalMinutes:      stats.TotalMinutes,
			OptimizerApplied:  stats.OptimizerApplied,
			OptimizerSavedMin: stats.OptimizerSavedMin,
		}
	}
	for _, skip := range proposal.PlanSkipped {
		resp.Skipped = append(resp.Skipped, dto.SkippedJobResponse{JobID: skip.JobCode, Name: skip.Name, Reason: skip.Reason})
	}
	for _, skip := range proposal.Result.Skipped {
		resp.Skipped = append(resp.Skipped, dto.SkippedJobResponse{JobID: skip.JobID, Reason: skip.Reason})
	}
	return resp
}

func entryResponseFromEngine(entry schedule.Entry) dto.EntryResponse {
	return dto.EntryResponse{
		Line:        entry.Line,
		Kind:        string(entry.Kind),
		Transition:  transitionLabel(entry.Transition),
		JobID:       entry.JobID,
		Name:        entry.Name,
		VolumeLabel: entry.VolumeLabel,
		Quantity:    entry.Quantity,
		PartIndex:   entry.PartIndex,
		PartCount:   entry.PartCount,
		StartsAt:    entry.Start.Format(time.RFC3339),
		EndsAt:      entry.End.Format(time.RFC3339),
		DurationMin: entry.DurationMinutes,
		Note:        entry.Note,
	}
}

func entryResponseFromModel(entry models.ScheduleEntry) dto.EntryResponse {
	return dto.EntryResponse{
		Line:        entry.Line,
		Kind:        entry.Kind,
		Transition:  entry.Transition,
		JobID:       entry.JobCode,
		Name:        entry.Name,
		VolumeLabel: entry.VolumeLabel,
		Quantity:    entry.Quantity,
		PartIndex:   entry.PartIndex,
		PartCount:   entry.PartCount,
		StartsAt:    entry.StartsAt.Format(time.RFC3339),
		EndsAt:      entry.EndsAt.Format(time.RFC3339),
		DurationMin: entry.DurationMin,
		Note:        entry.Note,
	}
}

func entryModels(entries []schedule.Entry) []models.ScheduleEntry {
	rows := make([]models.ScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, models.ScheduleEntry{
			Line:        entry.Line,
			Kind:        string(entry.Kind),
			Transition:  transitionLabel(entry.Transition),
			JobCode:     entry.JobID,
			Name:        entry.Name,
			VolumeLabel: entry.VolumeLabel,
			Quantity:    entry.Quantity,
			PartIndex:   entry.PartIndex,
			PartCount:   entry.PartCount,
			StartsAt:    entry.Start,
			EndsAt:      entry.End,
			DurationMin: entry.DurationMinutes,
			Note:        entry.Note,
		})
	}
	return rows
}

func scheduleResponse(record *models.Schedule, entries []models.ScheduleEntry) dto.ScheduleResponse {
	resp := dto.ScheduleResponse{
		ID:            record.ID,
		Date:          record.PlanDate.Format(planDateLayout),
		Status:        string(record.Status),
		OptimizerUsed: record.OptimizerUsed,
		SavedMinutes:  record.SavedMinutes,
		Entries:       make([]dto.EntryResponse, 0, len(entries)),
	}
	if record.AppliedAt != nil {
		resp.AppliedAt = record.AppliedAt.Format(time.RFC3339)
	}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, entryResponseFromModel(entry))
	}
	return resp
}

func transitionLabel(t schedule.TransitionType) string {
	if t == schedule.TransitionNone {
		return ""
	}
	return string(t)
}

func totalSavedMinutes(result *schedule.Result) int {
	total := 0
	for _, stats := range result.Stats {
		total += stats.OptimizerSavedMin
	}
	return total
}

// --- Proposal store ---

type buildProposal struct {
	ProposalID  string
	Date        time.Time
	Anchor      time.Time
	Optimize    bool
	Locked      []int
	Status      string
	Result      *schedule.Result
	PlanSkipped []SkippedPlanJob
	Error       string
	RequestedAt time.Time
	BuiltBy     string
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]buildProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]buildProposal),
	}
}

func (s *proposalStore) Save(proposal buildProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (buildProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return buildProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return buildProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
