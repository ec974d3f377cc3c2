package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warehq/varpay-api/internal/models"
	appErrors "github.com/warehq/varpay-api/pkg/errors"
)

type mockTierAdminRepo struct {
	tiers map[string]*models.ActivityTier
	seq   int
}

func (m *mockTierAdminRepo) List(ctx context.Context, filter models.TierFilter) ([]models.ActivityTier, int, error) {
	var out []models.ActivityTier
	for _, tier := range m.tiers {
		out = append(out, *tier)
	}
	return out, len(out), nil
}

func (m *mockTierAdminRepo) FindByID(ctx context.Context, id string) (*models.ActivityTier, error) {
	if tier, ok := m.tiers[id]; ok {
		copied := *tier
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTierAdminRepo) Create(ctx context.Context, tier *models.ActivityTier) error {
	if m.tiers == nil {
		m.tiers = make(map[string]*models.ActivityTier)
	}
	m.seq++
	tier.ID = "tier-1"
	m.tiers[tier.ID] = tier
	return nil
}

func (m *mockTierAdminRepo) Update(ctx context.Context, tier *models.ActivityTier) error {
	m.tiers[tier.ID] = tier
	return nil
}

type mockKPIAdminRepo struct {
	defs map[string]*models.KPIDefinition
}

func (m *mockKPIAdminRepo) List(ctx context.Context, filter models.KPIFilter) ([]models.KPIDefinition, int, error) {
	var out []models.KPIDefinition
	for _, def := range m.defs {
		out = append(out, *def)
	}
	return out, len(out), nil
}

func (m *mockKPIAdminRepo) FindByID(ctx context.Context, id string) (*models.KPIDefinition, error) {
	if def, ok := m.defs[id]; ok {
		copied := *def
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockKPIAdminRepo) Create(ctx context.Context, def *models.KPIDefinition) error {
	if m.defs == nil {
		m.defs = make(map[string]*models.KPIDefinition)
	}
	def.ID = "kpi-1"
	m.defs[def.ID] = def
	return nil
}

func (m *mockKPIAdminRepo) Update(ctx context.Context, def *models.KPIDefinition) error {
	m.defs[def.ID] = def
	return nil
}

type mockInvalidator struct {
	keys []string
}

func (m *mockInvalidator) Invalidate(ctx context.Context, keys ...string) {
	m.keys = append(m.keys, keys...)
}

func newReferenceFixture() (*ReferenceService, *mockTierAdminRepo, *mockKPIAdminRepo, *mockInvalidator) {
	tiers := &mockTierAdminRepo{}
	kpis := &mockKPIAdminRepo{}
	cache := &mockInvalidator{}
	return NewReferenceService(tiers, kpis, cache, nil, nil), tiers, kpis, cache
}

func TestCreateTierNormalizedCacheInvalidation(t *testing.T) {
	svc, _, _, cache := newReferenceFixture()

	tier, err := svc.CreateTier(context.Background(), UpsertTierRequest{
		ActivityName:        "Paletização",
		TierLabel:           "Basic",
		MinProductivityRate: 0,
		UnitValue:           0.10,
		UnitOfMeasure:       "boxes/h",
	})
	require.NoError(t, err)
	assert.True(t, tier.Active)
	assert.Contains(t, cache.keys, "tiers:paletizacao")
}

func TestCreateTierValidation(t *testing.T) {
	svc, _, _, _ := newReferenceFixture()

	_, err := svc.CreateTier(context.Background(), UpsertTierRequest{TierLabel: "Basic"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestUpdateTierInvalidatesOldAndNewActivity(t *testing.T) {
	svc, _, _, cache := newReferenceFixture()

	tier, err := svc.CreateTier(context.Background(), UpsertTierRequest{
		ActivityName:        "Picking",
		TierLabel:           "Basic",
		UnitValue:           0.10,
		UnitOfMeasure:       "items/h",
	})
	require.NoError(t, err)
	cache.keys = nil

	_, err = svc.UpdateTier(context.Background(), tier.ID, UpsertTierRequest{
		ActivityName:        "Separação",
		TierLabel:           "Basic",
		UnitValue:           0.12,
		UnitOfMeasure:       "items/h",
	})
	require.NoError(t, err)
	assert.Contains(t, cache.keys, "tiers:picking")
	assert.Contains(t, cache.keys, "tiers:separacao")
}

func TestUpdateTierNotFound(t *testing.T) {
	svc, _, _, _ := newReferenceFixture()

	_, err := svc.UpdateTier(context.Background(), "missing", UpsertTierRequest{
		ActivityName:  "Picking",
		TierLabel:     "Basic",
		UnitValue:     0.10,
		UnitOfMeasure: "items/h",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Status)
}

func TestCreateKPICanonicalizesShift(t *testing.T) {
	svc, _, _, cache := newReferenceFixture()

	def, err := svc.CreateKPI(context.Background(), UpsertKPIRequest{
		Name:        "Zero Faltas",
		Role:        "Ajudante de Armazém",
		Shift:       "manhã",
		WeightValue: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftMorning, def.Shift)
	assert.Contains(t, cache.keys, "kpis:ajudante de armazem")
}

func TestUpdateKPIPreservesActiveWhenOmitted(t *testing.T) {
	svc, _, kpis, _ := newReferenceFixture()

	def, err := svc.CreateKPI(context.Background(), UpsertKPIRequest{
		Name:        "Zero Faltas",
		Role:        "warehouse_helper",
		Shift:       "General",
		WeightValue: 25,
	})
	require.NoError(t, err)

	inactive := false
	_, err = svc.UpdateKPI(context.Background(), def.ID, UpsertKPIRequest{
		Name:        "Zero Faltas",
		Role:        "warehouse_helper",
		Shift:       "General",
		WeightValue: 30,
		Active:      &inactive,
	})
	require.NoError(t, err)
	assert.False(t, kpis.defs[def.ID].Active)

	_, err = svc.UpdateKPI(context.Background(), def.ID, UpsertKPIRequest{
		Name:        "Zero Faltas",
		Role:        "warehouse_helper",
		Shift:       "General",
		WeightValue: 35,
	})
	require.NoError(t, err)
	assert.False(t, kpis.defs[def.ID].Active)
}
