package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warehq/varpay-api/internal/models"
	"github.com/warehq/varpay-api/internal/service"
	"github.com/warehq/varpay-api/pkg/config"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
}

type fakeTierSource struct {
	tiers map[string][]models.ActivityTier
}

func (f *fakeTierSource) TiersForActivity(ctx context.Context, activityName string) ([]models.ActivityTier, error) {
	return f.tiers[models.NormalizeKey(activityName)], nil
}

type fakeKPISource struct{}

func (f *fakeKPISource) ActiveForRole(ctx context.Context, role string) ([]models.KPIDefinition, error) {
	return nil, nil
}

func newCalcHandler() *CalculationHandler {
	tiers := &fakeTierSource{tiers: map[string][]models.ActivityTier{
		"paletizacao": {
			{ActivityName: "Paletização", TierLabel: "Basic", MinProductivityRate: 0, UnitValue: 0.10, UnitOfMeasure: "boxes/h", Active: true},
		},
	}}
	calc := service.NewCalculationService(tiers, &fakeKPISource{}, config.CompensationConfig{}, nil, nil)
	return NewCalculationHandler(calc, nil)
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	return rec
}

func TestCalculationHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCalcHandler()

	rec := postJSON(t, handler.Calculate, "/calculate", models.CalculationInput{
		Role:  "warehouse_helper",
		Shift: "Morning",
		Activity: &models.ActivityInput{
			Name:             "Paletização",
			QuantityProduced: 100,
			HoursWorked:      8,
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.InDelta(t, 5.0, envelope.Data["activities_subtotal"].(float64), 1e-9)
	assert.InDelta(t, 5.0, envelope.Data["total_payout"].(float64), 1e-9)
}

func TestCalculationHandlerUnknownActivity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCalcHandler()

	rec := postJSON(t, handler.Calculate, "/calculate", models.CalculationInput{
		Role:  "warehouse_helper",
		Shift: "Morning",
		Activity: &models.ActivityInput{
			Name:             "Inexistente",
			QuantityProduced: 10,
			HoursWorked:      2,
		},
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "NOT_FOUND", envelope.Error["code"])
}

func TestCalculationHandlerMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCalcHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/calculate", bytes.NewReader([]byte("{not json")))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.Calculate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
