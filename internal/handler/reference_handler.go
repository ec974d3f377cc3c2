package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/warehq/varpay-api/internal/models"
	"github.com/warehq/varpay-api/internal/service"
	appErrors "github.com/warehq/varpay-api/pkg/errors"
	"github.com/warehq/varpay-api/pkg/response"
)

// ReferenceHandler exposes the reference-data admin endpoints for activity
// pay tiers and KPI definitions.
type ReferenceHandler struct {
	refs *service.ReferenceService
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(refs *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{refs: refs}
}

// ListTiers godoc
// @Summary List activity pay tiers
// @Tags Reference
// @Produce json
// @Param activity query string false "Filter by activity name"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tiers [get]
func (h *ReferenceHandler) ListTiers(c *gin.Context) {
	filter := models.TierFilter{
		ActivityName: c.Query("activity"),
		Active:       queryBool(c, "active"),
		Page:         queryInt(c, "page"),
		PageSize:     queryInt(c, "pageSize"),
	}
	tiers, pagination, err := h.refs.ListTiers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tiers, pagination)
}

// CreateTier godoc
// @Summary Create activity pay tier
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body service.UpsertTierRequest true "Tier payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tiers [post]
func (h *ReferenceHandler) CreateTier(c *gin.Context) {
	var req service.UpsertTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tier payload"))
		return
	}
	tier, err := h.refs.CreateTier(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, tier, nil)
}

// UpdateTier godoc
// @Summary Update activity pay tier
// @Tags Reference
// @Accept json
// @Produce json
// @Param id path string true "Tier ID"
// @Param payload body service.UpsertTierRequest true "Tier payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tiers/{id} [put]
func (h *ReferenceHandler) UpdateTier(c *gin.Context) {
	var req service.UpsertTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tier payload"))
		return
	}
	tier, err := h.refs.UpdateTier(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tier, nil)
}

// ListKPIs godoc
// @Summary List KPI definitions
// @Tags Reference
// @Produce json
// @Param role query string false "Filter by role"
// @Param shift query string false "Filter by shift"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /kpis [get]
func (h *ReferenceHandler) ListKPIs(c *gin.Context) {
	filter := models.KPIFilter{
		Role:     c.Query("role"),
		Shift:    c.Query("shift"),
		Active:   queryBool(c, "active"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}
	defs, pagination, err := h.refs.ListKPIs(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, defs, pagination)
}

// CreateKPI godoc
// @Summary Create KPI definition
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body service.UpsertKPIRequest true "KPI payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /kpis [post]
func (h *ReferenceHandler) CreateKPI(c *gin.Context) {
	var req service.UpsertKPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid kpi payload"))
		return
	}
	def, err := h.refs.CreateKPI(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, def, nil)
}

// UpdateKPI godoc
// @Summary Update KPI definition
// @Tags Reference
// @Accept json
// @Produce json
// @Param id path string true "KPI ID"
// @Param payload body service.UpsertKPIRequest true "KPI payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /kpis/{id} [put]
func (h *ReferenceHandler) UpdateKPI(c *gin.Context) {
	var req service.UpsertKPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid kpi payload"))
		return
	}
	def, err := h.refs.UpdateKPI(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, def, nil)
}

func queryBool(c *gin.Context, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}
