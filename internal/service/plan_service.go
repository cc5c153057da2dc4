package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/velesoft/lineplan-api/internal/dto"
	"github.com/velesoft/lineplan-api/internal/models"
	"github.com/velesoft/lineplan-api/internal/schedule"
	appErrors "github.com/velesoft/lineplan-api/pkg/errors"
)

const planDateLayout = "2006-01-02"

type planRepository interface {
	List(ctx context.Context, filter models.PlanFilter) ([]models.PlanJob, int, error)
	ListAll(ctx context.Context, date time.Time) ([]models.PlanJob, error)
	ReplaceForDate(ctx context.Context, date time.Time, jobs []models.PlanJob) error
}

var (
	lineDigits   = regexp.MustCompile(`\d+`)
	volumeAmount = regexp.MustCompile(`\d+[,.]?\d*`)
)

// SkippedPlanJob names a plan record excluded from a build snapshot.
type SkippedPlanJob struct {
	JobCode string `json:"jobCode"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
}

// PlanService stores daily plans and prepares the job snapshots the
// builder runs on.
type PlanService struct {
	repo      planRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPlanService constructs a PlanService.
func NewPlanService(repo planRepository, validate *validator.Validate, logger *zap.Logger) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanService{repo: repo, validator: validate, logger: logger}
}

// GetPlan lists the stored plan of a date.
func (s *PlanService) GetPlan(ctx context.Context, filter models.PlanFilter) (*dto.PlanResponse, *models.Pagination, error) {
	jobs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list plan jobs")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 100
	}

	resp := &dto.PlanResponse{Date: filter.Date.Format(planDateLayout), Jobs: make([]dto.PlanJobResponse, 0, len(jobs)), Total: total}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, planJobResponse(job))
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return resp, pagination, nil
}

// ReplacePlan swaps the whole plan of one date.
func (s *PlanService) ReplacePlan(ctx context.Context, req dto.ReplacePlanRequest) (*dto.PlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan payload")
	}
	date, err := time.Parse(planDateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}

	rows := make([]models.PlanJob, 0, len(req.Jobs))
	for _, job := range req.Jobs {
		rows = append(rows, models.PlanJob{
			JobCode:      job.JobCode,
			Line:         job.Line,
			ProductName:  job.ProductName,
			ProductType:  job.ProductType,
			Flavor:       job.Flavor,
			Brand:        job.Brand,
			VolumeLabel:  job.Volume,
			Quantity:     job.Quantity,
			FactQuantity: job.FactQuantity,
			Speed:        job.Speed,
			Priority:     job.Priority,
			Status:       job.Status,
		})
	}
	if err := s.repo.ReplaceForDate(ctx, date, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace plan")
	}
	s.logger.Info("plan replaced", zap.String("date", req.Date), zap.Int("jobs", len(rows)))

	resp := &dto.PlanResponse{Date: req.Date, Jobs: make([]dto.PlanJobResponse, 0, len(rows)), Total: len(rows)}
	for _, row := range rows {
		resp.Jobs = append(resp.Jobs, planJobResponse(row))
	}
	return resp, nil
}

// Snapshot prepares the engine jobs of one date. Line labels are
// normalized and postponed or finished records are dropped; the already
// produced amount is subtracted from each remaining quantity.
func (s *PlanService) Snapshot(ctx context.Context, date time.Time) ([]schedule.Job, []SkippedPlanJob, error) {
	records, err := s.repo.ListAll(ctx, date)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan")
	}

	jobs := make([]schedule.Job, 0, len(records))
	var skipped []SkippedPlanJob
	for _, record := range records {
		line := NormalizeLine(record.Line)
		status := strings.ToLower(strings.TrimSpace(record.Status))
		switch {
		case line == "" || record.Quantity <= 0:
			skipped = append(skipped, SkippedPlanJob{JobCode: record.JobCode, Name: record.ProductName, Reason: "invalid record"})
			continue
		case status == "postponed":
			skipped = append(skipped, SkippedPlanJob{JobCode: record.JobCode, Name: record.ProductName, Reason: "postponed"})
			continue
		case record.FactQuantity >= record.Quantity:
			skipped = append(skipped, SkippedPlanJob{JobCode: record.JobCode, Name: record.ProductName, Reason: "already completed"})
			continue
		}
		jobs = append(jobs, schedule.Job{
			ID:   record.JobCode,
			Line: line,
			Name: record.ProductName,
			Product: schedule.ProductKey{
				Type:   record.ProductType,
				Flavor: record.Flavor,
				Brand:  record.Brand,
				Volume: record.VolumeLabel,
			},
			Quantity:      record.Quantity - record.FactQuantity,
			Speed:         record.Speed,
			Priority:      record.Priority,
			OriginalIndex: record.Position,
			UnitLitres:    ParseLitres(record.VolumeLabel),
		})
	}
	if len(skipped) > 0 {
		s.logger.Info("plan snapshot skipped records", zap.String("date", date.Format(planDateLayout)), zap.Int("skipped", len(skipped)))
	}
	return jobs, skipped, nil
}

func planJobResponse(job models.PlanJob) dto.PlanJobResponse {
	return dto.PlanJobResponse{
		ID:           job.ID,
		JobCode:      job.JobCode,
		Line:         job.Line,
		ProductName:  job.ProductName,
		ProductType:  job.ProductType,
		Flavor:       job.Flavor,
		Brand:        job.Brand,
		Volume:       job.VolumeLabel,
		Quantity:     job.Quantity,
		FactQuantity: job.FactQuantity,
		Speed:        job.Speed,
		Priority:     job.Priority,
		Status:       job.Status,
	}
}

// NormalizeLine collapses the many spellings of a line label onto the
// canonical "Line N" form. Labels without a number pass through trimmed.
func NormalizeLine(raw string) string {
	raw = strings.TrimSpace(raw)
	if digits := lineDigits.FindString(raw); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			return fmt.Sprintf("Line %d", n)
		}
	}
	return raw
}

// ParseLitres extracts the container volume from a label such as "0,5 l".
// Returns zero when no number is present.
func ParseLitres(label string) float64 {
	amount := volumeAmount.FindString(label)
	if amount == "" {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(amount, ",", "."), 64)
	if err != nil {
		return 0
	}
	return value
}
