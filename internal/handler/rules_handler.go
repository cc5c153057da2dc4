package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velesoft/lineplan-api/internal/dto"
	"github.com/velesoft/lineplan-api/internal/service"
	appErrors "github.com/velesoft/lineplan-api/pkg/errors"
	"github.com/velesoft/lineplan-api/pkg/response"
)

// RulesHandler exposes the rule table endpoints.
type RulesHandler struct {
	service *service.RulesService
}

// NewRulesHandler constructs the handler.
func NewRulesHandler(svc *service.RulesService) *RulesHandler {
	return &RulesHandler{service: svc}
}

// ListCIP godoc
// @Summary List cleaning rule sets
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules/cip [get]
func (h *RulesHandler) ListCIP(c *gin.Context) {
	sets, err := h.service.ListCIPRuleSets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sets, nil)
}

// ReplaceCIP godoc
// @Summary Replace a named cleaning rule set
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceCIPRuleSetRequest true "Rule set payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /rules/cip [put]
func (h *RulesHandler) ReplaceCIP(c *gin.Context) {
	var req dto.ReplaceCIPRuleSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule set payload"))
		return
	}
	if err := h.service.ReplaceCIPRuleSet(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListEviction godoc
// @Summary List eviction rule sets
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules/eviction [get]
func (h *RulesHandler) ListEviction(c *gin.Context) {
	sets, err := h.service.ListEvictionRuleSets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sets, nil)
}

// ReplaceEviction godoc
// @Summary Replace a named eviction rule set
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceEvictionRuleSetRequest true "Rule set payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /rules/eviction [put]
func (h *RulesHandler) ReplaceEviction(c *gin.Context) {
	var req dto.ReplaceEvictionRuleSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule set payload"))
		return
	}
	if err := h.service.ReplaceEvictionRuleSet(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListNorms godoc
// @Summary List changeover norm sets
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules/norms [get]
func (h *RulesHandler) ListNorms(c *gin.Context) {
	sets, err := h.service.ListNormsRuleSets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sets, nil)
}

// ReplaceNorms godoc
// @Summary Replace a named changeover norm set
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceNormsRuleSetRequest true "Norm set payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /rules/norms [put]
func (h *RulesHandler) ReplaceNorms(c *gin.Context) {
	var req dto.ReplaceNormsRuleSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid norm set payload"))
		return
	}
	if err := h.service.ReplaceNormsRuleSet(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAutoClean godoc
// @Summary List per-line auto-clean policies
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules/auto-clean [get]
func (h *RulesHandler) ListAutoClean(c *gin.Context) {
	policies, err := h.service.ListAutoCleanPolicies(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, policies, nil)
}

// ReplaceAutoClean godoc
// @Summary Replace all per-line auto-clean policies
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceAutoCleanPoliciesRequest true "Policies payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /rules/auto-clean [put]
func (h *RulesHandler) ReplaceAutoClean(c *gin.Context) {
	var req dto.ReplaceAutoCleanPoliciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid policies payload"))
		return
	}
	if err := h.service.ReplaceAutoCleanPolicies(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListDensities godoc
// @Summary List product densities
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules/densities [get]
func (h *RulesHandler) ListDensities(c *gin.Context) {
	densities, err := h.service.ListDensities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, densities, nil)
}

// ReplaceDensities godoc
// @Summary Replace the density table
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceDensitiesRequest true "Densities payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /rules/densities [put]
func (h *RulesHandler) ReplaceDensities(c *gin.Context) {
	var req dto.ReplaceDensitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid densities payload"))
		return
	}
	if err := h.service.ReplaceDensities(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListLineLinks godoc
// @Summary List line links
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rules/line-links [get]
func (h *RulesHandler) ListLineLinks(c *gin.Context) {
	links, err := h.service.ListLineLinks(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// ReplaceLineLinks godoc
// @Summary Replace all line links
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceLineLinksRequest true "Links payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /rules/line-links [put]
func (h *RulesHandler) ReplaceLineLinks(c *gin.Context) {
	var req dto.ReplaceLineLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid links payload"))
		return
	}
	if err := h.service.ReplaceLineLinks(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
