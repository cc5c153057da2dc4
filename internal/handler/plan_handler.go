package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/velesoft/lineplan-api/internal/dto"
	"github.com/velesoft/lineplan-api/internal/models"
	"github.com/velesoft/lineplan-api/internal/service"
	appErrors "github.com/velesoft/lineplan-api/pkg/errors"
	"github.com/velesoft/lineplan-api/pkg/response"
)

const queryDateLayout = "2006-01-02"

// PlanHandler exposes daily plan endpoints.
type PlanHandler struct {
	service *service.PlanService
}

// NewPlanHandler constructs the handler.
func NewPlanHandler(svc *service.PlanService) *PlanHandler {
	return &PlanHandler{service: svc}
}

// Get godoc
// @Summary Get the plan of a date
// @Tags Plan
// @Produce json
// @Param date query string true "Plan date (YYYY-MM-DD)"
// @Param line query string false "Filter by line"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /plan [get]
func (h *PlanHandler) Get(c *gin.Context) {
	date, err := time.Parse(queryDateLayout, c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter must use YYYY-MM-DD"))
		return
	}

	filter := models.PlanFilter{Date: date, Line: c.Query("line")}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = size
	}

	plan, pagination, err := h.service.GetPlan(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, pagination)
}

// Replace godoc
// @Summary Replace the plan of a date
// @Description Swaps every order row of the date with the submitted ones.
// @Tags Plan
// @Accept json
// @Produce json
// @Param payload body dto.ReplacePlanRequest true "Plan payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /plan [put]
func (h *PlanHandler) Replace(c *gin.Context) {
	var req dto.ReplacePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan payload"))
		return
	}

	plan, err := h.service.ReplacePlan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}
