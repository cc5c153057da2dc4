package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/velesoft/lineplan-api/internal/dto"
	"github.com/velesoft/lineplan-api/internal/middleware"
	"github.com/velesoft/lineplan-api/internal/service"
	appErrors "github.com/velesoft/lineplan-api/pkg/errors"
	"github.com/velesoft/lineplan-api/pkg/response"
)

type scheduleBuilder interface {
	GenerateProposal(ctx context.Context, req dto.BuildScheduleRequest, actorID string) (*dto.ProposalResponse, error)
	EnqueueBuild(ctx context.Context, req dto.BuildScheduleRequest, actorID string) (*dto.BuildEnqueuedResponse, error)
	GetProposal(ctx context.Context, id string) (*dto.ProposalResponse, error)
	ApplyProposal(ctx context.Context, req dto.ApplyScheduleRequest) (*dto.ScheduleResponse, error)
	GetApplied(ctx context.Context, date time.Time) (*dto.ScheduleResponse, bool, error)
}

// ScheduleHandler exposes proposal and applied-schedule endpoints.
type ScheduleHandler struct {
	service scheduleBuilder
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// BuildProposal godoc
// @Summary Build a schedule proposal
// @Description Builds the timeline for a plan date. With async=true the build
// @Description runs on the worker queue and the proposal starts as QUEUED.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.BuildScheduleRequest true "Build payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule/proposals [post]
func (h *ScheduleHandler) BuildProposal(c *gin.Context) {
	var req dto.BuildScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid build payload"))
		return
	}

	actorID := actorFromContext(c)

	if req.Async {
		enqueued, err := h.service.EnqueueBuild(c.Request.Context(), req, actorID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusAccepted, enqueued, nil)
		return
	}

	proposal, err := h.service.GenerateProposal(c.Request.Context(), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// GetProposal godoc
// @Summary Get a proposal by id
// @Tags Schedule
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/proposals/{id} [get]
func (h *ScheduleHandler) GetProposal(c *gin.Context) {
	proposal, err := h.service.GetProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Apply godoc
// @Summary Apply a ready proposal
// @Description Persists the proposal as the applied schedule of its date,
// @Description demoting any previously applied schedule.
// @Tags Schedule
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/proposals/{id}/apply [post]
func (h *ScheduleHandler) Apply(c *gin.Context) {
	applied, err := h.service.ApplyProposal(c.Request.Context(), dto.ApplyScheduleRequest{ProposalID: c.Param("id")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applied, nil)
}

// GetApplied godoc
// @Summary Get the applied schedule of a date
// @Tags Schedule
// @Produce json
// @Param date query string true "Plan date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) GetApplied(c *gin.Context) {
	date, err := time.Parse(queryDateLayout, c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter must use YYYY-MM-DD"))
		return
	}

	start := time.Now()
	applied, cacheHit, err := h.service.GetApplied(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMetaValue(c, "processing_time_ms", time.Since(start).Milliseconds())
	response.JSON(c, http.StatusOK, applied, nil, middleware.ExtractMeta(c))
}
