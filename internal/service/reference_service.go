package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warehq/varpay-api/internal/models"
	appErrors "github.com/warehq/varpay-api/pkg/errors"
)

type tierAdminRepo interface {
	List(ctx context.Context, filter models.TierFilter) ([]models.ActivityTier, int, error)
	FindByID(ctx context.Context, id string) (*models.ActivityTier, error)
	Create(ctx context.Context, tier *models.ActivityTier) error
	Update(ctx context.Context, tier *models.ActivityTier) error
}

type kpiAdminRepo interface {
	List(ctx context.Context, filter models.KPIFilter) ([]models.KPIDefinition, int, error)
	FindByID(ctx context.Context, id string) (*models.KPIDefinition, error)
	Create(ctx context.Context, def *models.KPIDefinition) error
	Update(ctx context.Context, def *models.KPIDefinition) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// UpsertTierRequest creates or replaces an activity pay tier. Numeric fields
// accept locale-formatted strings.
type UpsertTierRequest struct {
	ActivityName        string           `json:"activity_name" validate:"required"`
	TierLabel           string           `json:"tier_label" validate:"required"`
	MinProductivityRate models.FlexFloat `json:"min_productivity_rate" validate:"gte=0"`
	UnitValue           models.FlexFloat `json:"unit_value" validate:"gte=0"`
	UnitOfMeasure       string           `json:"unit_of_measure" validate:"required"`
	Active              *bool            `json:"active,omitempty"`
}

// UpsertKPIRequest creates or replaces a KPI definition.
type UpsertKPIRequest struct {
	Name        string           `json:"name" validate:"required"`
	Role        string           `json:"role" validate:"required"`
	Shift       string           `json:"shift" validate:"required"`
	WeightValue models.FlexFloat `json:"weight_value" validate:"gte=0"`
	Active      *bool            `json:"active,omitempty"`
}

// ReferenceService manages the admin-maintained reference data: activity pay
// tiers and KPI definitions. Writes invalidate the read-through cache.
type ReferenceService struct {
	tiers     tierAdminRepo
	kpis      kpiAdminRepo
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReferenceService constructs a ReferenceService.
func NewReferenceService(tiers tierAdminRepo, kpis kpiAdminRepo, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ReferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{tiers: tiers, kpis: kpis, cache: cache, validator: validate, logger: logger}
}

// ListTiers returns tiers matching the filter.
func (s *ReferenceService) ListTiers(ctx context.Context, filter models.TierFilter) ([]models.ActivityTier, *models.Pagination, error) {
	tiers, total, err := s.tiers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tiers")
	}
	return tiers, paginationFor(filter.Page, filter.PageSize, total), nil
}

// CreateTier inserts a new tier.
func (s *ReferenceService) CreateTier(ctx context.Context, req UpsertTierRequest) (*models.ActivityTier, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tier payload")
	}
	tier := &models.ActivityTier{
		ActivityName:        req.ActivityName,
		TierLabel:           req.TierLabel,
		MinProductivityRate: req.MinProductivityRate,
		UnitValue:           req.UnitValue,
		UnitOfMeasure:       req.UnitOfMeasure,
		Active:              req.Active == nil || *req.Active,
	}
	if err := s.tiers.Create(ctx, tier); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tier")
	}
	s.invalidateTier(ctx, tier.ActivityName)
	return tier, nil
}

// UpdateTier replaces a tier's fields.
func (s *ReferenceService) UpdateTier(ctx context.Context, id string, req UpsertTierRequest) (*models.ActivityTier, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tier payload")
	}
	existing, err := s.tiers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tier not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tier")
	}
	previousName := existing.ActivityName
	existing.ActivityName = req.ActivityName
	existing.TierLabel = req.TierLabel
	existing.MinProductivityRate = req.MinProductivityRate
	existing.UnitValue = req.UnitValue
	existing.UnitOfMeasure = req.UnitOfMeasure
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if err := s.tiers.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tier")
	}
	s.invalidateTier(ctx, previousName, existing.ActivityName)
	return existing, nil
}

// ListKPIs returns definitions matching the filter.
func (s *ReferenceService) ListKPIs(ctx context.Context, filter models.KPIFilter) ([]models.KPIDefinition, *models.Pagination, error) {
	defs, total, err := s.kpis.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list kpi definitions")
	}
	return defs, paginationFor(filter.Page, filter.PageSize, total), nil
}

// CreateKPI inserts a new definition.
func (s *ReferenceService) CreateKPI(ctx context.Context, req UpsertKPIRequest) (*models.KPIDefinition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid kpi payload")
	}
	def := &models.KPIDefinition{
		Name:        req.Name,
		Role:        req.Role,
		Shift:       models.CanonicalShift(req.Shift),
		WeightValue: req.WeightValue,
		Active:      req.Active == nil || *req.Active,
	}
	if err := s.kpis.Create(ctx, def); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create kpi definition")
	}
	s.invalidateKPI(ctx, def.Role)
	return def, nil
}

// UpdateKPI replaces a definition's fields.
func (s *ReferenceService) UpdateKPI(ctx context.Context, id string, req UpsertKPIRequest) (*models.KPIDefinition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid kpi payload")
	}
	existing, err := s.kpis.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kpi definition not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load kpi definition")
	}
	previousRole := existing.Role
	existing.Name = req.Name
	existing.Role = req.Role
	existing.Shift = models.CanonicalShift(req.Shift)
	existing.WeightValue = req.WeightValue
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if err := s.kpis.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update kpi definition")
	}
	s.invalidateKPI(ctx, previousRole, existing.Role)
	return existing, nil
}

func (s *ReferenceService) invalidateTier(ctx context.Context, names ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, fmt.Sprintf("tiers:%s", models.NormalizeKey(name)))
	}
	s.cache.Invalidate(ctx, keys...)
}

func (s *ReferenceService) invalidateKPI(ctx context.Context, roles ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(roles))
	for _, role := range roles {
		keys = append(keys, fmt.Sprintf("kpis:%s", models.NormalizeKey(role)))
	}
	s.cache.Invalidate(ctx, keys...)
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
