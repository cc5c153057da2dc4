package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/velesoft/lineplan-api/internal/dto"
	appErrors "github.com/velesoft/lineplan-api/pkg/errors"
	"github.com/velesoft/lineplan-api/pkg/export"
	"github.com/velesoft/lineplan-api/pkg/storage"
)

type scheduleSource interface {
	GetProposal(ctx context.Context, id string) (*dto.ProposalResponse, error)
	GetApplied(ctx context.Context, date time.Time) (*dto.ScheduleResponse, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders schedules into downloadable CSV or PDF files and
// signs their download URLs.
type ExportService struct {
	schedules scheduleSource
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(schedules scheduleSource, files fileStorage, signer *storage.SignedURLSigner, validate *validator.Validate, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		schedules: schedules,
		storage:   files,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Export renders the selected schedule and returns a signed download URL.
// The source is either a ready proposal or the applied schedule of a date.
func (s *ExportService) Export(ctx context.Context, req dto.ExportRequest) (*dto.ExportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if (req.ProposalID == nil) == (req.Date == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of proposalId or date is required")
	}

	var (
		entries  []dto.EntryResponse
		date     string
		sourceID string
	)
	if req.ProposalID != nil {
		proposal, err := s.schedules.GetProposal(ctx, *req.ProposalID)
		if err != nil {
			return nil, err
		}
		if proposal.Status != proposalStatusReady {
			return nil, appErrors.Clone(appErrors.ErrConflict, "proposal is not ready to export")
		}
		entries = proposal.Entries
		date = proposal.Date
		sourceID = proposal.ProposalID
	} else {
		day, err := time.Parse(planDateLayout, *req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
		}
		applied, _, err := s.schedules.GetApplied(ctx, day)
		if err != nil {
			return nil, err
		}
		entries = applied.Entries
		date = applied.Date
		sourceID = applied.ID
	}

	dataset := scheduleDataset(entries)
	title := fmt.Sprintf("Line Schedule %s", date)

	var payload []byte
	var err error
	switch req.Format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", req.Format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := s.buildFilename(date, req.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export file")
	}

	token, expiresAt, err := s.signer.Generate(sourceID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Info("schedule exported",
		zap.String("format", req.Format),
		zap.String("date", date),
		zap.String("file", relPath))

	return &dto.ExportResponse{
		URL:       fmt.Sprintf("%s/schedule/export/%s", prefix, token),
		Format:    req.Format,
		Filename:  relPath,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (sourceID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(date, format string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("schedule_%s_%s.%s", sanitizeFilename(date), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

var exportHeaders = []string{"Line", "Kind", "Transition", "Job", "Name", "Volume", "Quantity", "Part", "Starts", "Ends", "Minutes", "Note"}

func scheduleDataset(entries []dto.EntryResponse) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		part := ""
		if entry.PartCount > 1 {
			part = fmt.Sprintf("%d/%d", entry.PartIndex, entry.PartCount)
		}
		quantity := ""
		if entry.Quantity > 0 {
			quantity = strconv.FormatFloat(entry.Quantity, 'f', -1, 64)
		}
		rows = append(rows, map[string]string{
			"Line":       entry.Line,
			"Kind":       entry.Kind,
			"Transition": entry.Transition,
			"Job":        entry.JobID,
			"Name":       entry.Name,
			"Volume":     entry.VolumeLabel,
			"Quantity":   quantity,
			"Part":       part,
			"Starts":     entry.StartsAt,
			"Ends":       entry.EndsAt,
			"Minutes":    strconv.Itoa(entry.DurationMin),
			"Note":       entry.Note,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}
