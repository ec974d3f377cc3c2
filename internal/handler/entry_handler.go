package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/warehq/varpay-api/internal/models"
	"github.com/warehq/varpay-api/internal/service"
	appErrors "github.com/warehq/varpay-api/pkg/errors"
	"github.com/warehq/varpay-api/pkg/response"
)

// EntryHandler exposes the entry lifecycle endpoints.
type EntryHandler struct {
	entries *service.EntryService
	metrics *service.MetricsService
}

// NewEntryHandler constructs handler.
func NewEntryHandler(entries *service.EntryService, metrics *service.MetricsService) *EntryHandler {
	return &EntryHandler{entries: entries, metrics: metrics}
}

// Create godoc
// @Summary Submit a productivity entry
// @Description Calculates and persists a pending entry; KPI-bearing entries are subject to the daily cap
// @Tags Entries
// @Accept json
// @Produce json
// @Param payload body service.CreateEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /entries [post]
func (h *EntryHandler) Create(c *gin.Context) {
	var req service.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entry payload"))
		return
	}

	entry, err := h.entries.Create(c.Request.Context(), req)
	if err != nil {
		h.countAction("create", "error")
		response.Error(c, err)
		return
	}

	h.countAction("create", "success")
	response.JSON(c, http.StatusCreated, entry, nil)
}

// Validate godoc
// @Summary Apply an admin decision to an entry
// @Description Approve, reject or edit a pending entry; edit recomputes the payout and resets approval
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body service.ValidateEntryRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /entries/{id}/validate [post]
func (h *EntryHandler) Validate(c *gin.Context) {
	var req service.ValidateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validation payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		req.AdminID = claims.UserID
	}

	entry, err := h.entries.Validate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.countAction(string(req.Action), "error")
		response.Error(c, err)
		return
	}

	h.countAction(string(req.Action), "success")
	response.JSON(c, http.StatusOK, entry, nil)
}

// List godoc
// @Summary List entries
// @Tags Entries
// @Produce json
// @Param workerId query string false "Filter by worker"
// @Param status query string false "Filter by status"
// @Param dateFrom query string false "Start date (YYYY-MM-DD)"
// @Param dateTo query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /entries [get]
func (h *EntryHandler) List(c *gin.Context) {
	filter := models.EntryFilter{
		WorkerID: c.Query("workerId"),
		Status:   c.Query("status"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}
	if from, err := time.Parse("2006-01-02", c.Query("dateFrom")); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("dateTo")); err == nil {
		filter.DateTo = &to
	}

	entries, pagination, err := h.entries.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Get godoc
// @Summary Get a single entry
// @Tags Entries
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /entries/{id} [get]
func (h *EntryHandler) Get(c *gin.Context) {
	entry, err := h.entries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Revisions godoc
// @Summary List revisions for an entry
// @Description Forensic audit trail of every admin action on the entry
// @Tags Entries
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /entries/{id}/revisions [get]
func (h *EntryHandler) Revisions(c *gin.Context) {
	records, err := h.entries.Revisions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

func (h *EntryHandler) countAction(action, outcome string) {
	if h.metrics != nil {
		h.metrics.CountEntryAction(action, outcome)
	}
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}
