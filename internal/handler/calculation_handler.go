package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warehq/varpay-api/internal/models"
	"github.com/warehq/varpay-api/internal/service"
	appErrors "github.com/warehq/varpay-api/pkg/errors"
	"github.com/warehq/varpay-api/pkg/response"
)

// CalculationHandler exposes the stateless payout preview endpoint.
type CalculationHandler struct {
	calc    *service.CalculationService
	metrics *service.MetricsService
}

// NewCalculationHandler constructs handler.
func NewCalculationHandler(calc *service.CalculationService, metrics *service.MetricsService) *CalculationHandler {
	return &CalculationHandler{calc: calc, metrics: metrics}
}

// Calculate godoc
// @Summary Calculate payout breakdown
// @Description Runs the full calculation pipeline without persisting anything
// @Tags Calculation
// @Accept json
// @Produce json
// @Param payload body models.CalculationInput true "Calculation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /calculate [post]
func (h *CalculationHandler) Calculate(c *gin.Context) {
	var input models.CalculationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid calculation payload"))
		return
	}

	result, err := h.calc.Calculate(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.CountCalculation(strategyLabel(input))
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func strategyLabel(input models.CalculationInput) string {
	switch {
	case models.CanonicalRole(input.Role) == models.RoleForkliftOperator:
		return "task_count"
	case len(input.Activities) > 0:
		return "multi_activity"
	default:
		return "single_activity"
	}
}
