package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warehq/varpay-api/internal/models"
	"github.com/warehq/varpay-api/pkg/config"
	appErrors "github.com/warehq/varpay-api/pkg/errors"
)

type tierReader interface {
	TiersForActivity(ctx context.Context, activityName string) ([]models.ActivityTier, error)
}

type kpiReader interface {
	ActiveForRole(ctx context.Context, role string) ([]models.KPIDefinition, error)
}

// CalculationService computes the payout breakdown for a submission: the
// role-keyed activity strategy, the KPI bonus and the final aggregation.
// Stateless between calls; all reference data comes through the readers.
type CalculationService struct {
	tiers     tierReader
	kpis      kpiReader
	cfg       config.CompensationConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	round     func(float64) float64
}

// NewCalculationService constructs a CalculationService.
func NewCalculationService(tiers tierReader, kpis kpiReader, cfg config.CompensationConfig, validate *validator.Validate, logger *zap.Logger) *CalculationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TaskUnitPrice <= 0 {
		cfg.TaskUnitPrice = 0.093
	}
	if cfg.KPIMonthlyBudget <= 0 {
		cfg.KPIMonthlyBudget = 150.00
	}
	if cfg.MaxKPIsPerDay <= 0 {
		cfg.MaxKPIsPerDay = 2
	}
	return &CalculationService{
		tiers:     tiers,
		kpis:      kpis,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		round:     func(v float64) float64 { return math.Round(v*100) / 100 },
	}
}

// Calculate runs the full pipeline: strategy selection, tier resolution, KPI
// bonus and aggregation.
func (s *CalculationService) Calculate(ctx context.Context, input models.CalculationInput) (*models.CalculationResult, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calculation payload")
	}

	role := models.CanonicalRole(input.Role)
	shift := models.CanonicalShift(input.Shift)

	result := &models.CalculationResult{}
	var err error
	switch {
	case role == models.RoleForkliftOperator:
		if len(input.Activities) > 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "operator role cannot combine multiple activities with task-count billing")
		}
		if input.ValidTaskCount == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "valid task count required for operator role")
		}
		s.applyTaskStrategy(result, *input.ValidTaskCount)
	case role == models.RoleWarehouseHelper && len(input.Activities) > 0:
		err = s.applyMultiActivityStrategy(ctx, result, input.Activities)
	default:
		if input.Activity == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "activity data required")
		}
		err = s.applySingleActivityStrategy(ctx, result, *input.Activity)
	}
	if err != nil {
		return nil, err
	}

	bonus, resolved, err := s.kpiBonus(ctx, input.Role, role, shift, input.AchievedKPIs)
	if err != nil {
		return nil, err
	}
	result.KPIBonus = bonus
	result.AchievedKPINames = resolved

	adjustment := 0.0
	if input.ManualAdjustment != nil {
		adjustment = *input.ManualAdjustment
	}
	result.TotalPayout = result.ActivitiesSubtotal + result.KPIBonus + adjustment

	return result, nil
}

// resolveTier picks the highest-threshold tier not exceeding the achieved
// rate. The lowest tier is the floor when the rate undercuts every
// threshold; low productivity is never a hard failure.
func resolveTier(tiers []models.ActivityTier, achievedRate float64) models.ActivityTier {
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinProductivityRate > tiers[j].MinProductivityRate
	})
	for _, tier := range tiers {
		if tier.MinProductivityRate.Float64() <= achievedRate {
			return tier
		}
	}
	return tiers[len(tiers)-1]
}

func (s *CalculationService) lookupTier(ctx context.Context, activityName string, achievedRate float64) (models.ActivityTier, error) {
	tiers, err := s.tiers.TiersForActivity(ctx, activityName)
	if err != nil {
		return models.ActivityTier{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pay tiers")
	}
	if len(tiers) == 0 {
		return models.ActivityTier{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no pay tiers configured for activity %q", activityName))
	}
	return resolveTier(tiers, achievedRate), nil
}

// computeActivity derives rate, tier, gross and net for one activity. Only
// half of the gross activity value counts toward payout; the halving is a
// fixed business rule, not a deduction.
func (s *CalculationService) computeActivity(ctx context.Context, act models.ActivityInput) (gross, net, rate float64, tier models.ActivityTier, err error) {
	if act.HoursWorked <= 0 {
		return 0, 0, 0, tier, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("hours worked must be positive for activity %q", act.Name))
	}
	rate = act.QuantityProduced / act.HoursWorked
	tier, err = s.lookupTier(ctx, act.Name, rate)
	if err != nil {
		return 0, 0, 0, tier, err
	}
	gross = act.QuantityProduced * tier.UnitValue.Float64()
	net = gross / 2
	return gross, net, rate, tier, nil
}

func (s *CalculationService) applySingleActivityStrategy(ctx context.Context, result *models.CalculationResult, act models.ActivityInput) error {
	gross, net, rate, tier, err := s.computeActivity(ctx, act)
	if err != nil {
		return err
	}
	displayRate := s.round(rate)
	result.ActivitiesSubtotal = net
	result.GrossActivityValue = &gross
	result.AchievedRate = &displayRate
	result.TierReached = &tier.TierLabel
	result.UnitOfMeasure = &tier.UnitOfMeasure
	return nil
}

func (s *CalculationService) applyMultiActivityStrategy(ctx context.Context, result *models.CalculationResult, activities []models.ActivityInput) error {
	var grossTotal float64
	for _, act := range activities {
		gross, net, rate, tier, err := s.computeActivity(ctx, act)
		if err != nil {
			return err
		}
		grossTotal += gross
		result.ActivitiesSubtotal += net
		result.DetailLines = append(result.DetailLines, models.ActivityDetailLine{
			Name:         act.Name,
			Quantity:     act.QuantityProduced,
			Hours:        act.HoursWorked,
			Value:        net,
			AchievedRate: s.round(rate),
			TierLabel:    tier.TierLabel,
		})
		// Top-level rate and tier reflect the last activity processed.
		displayRate := s.round(rate)
		result.AchievedRate = &displayRate
		result.TierReached = &tier.TierLabel
		result.UnitOfMeasure = &tier.UnitOfMeasure
	}
	result.GrossActivityValue = &grossTotal
	return nil
}

func (s *CalculationService) applyTaskStrategy(result *models.CalculationResult, taskCount int) {
	gross := float64(taskCount) * s.cfg.TaskUnitPrice
	result.ValidTaskCount = &taskCount
	result.ValidTaskGrossValue = &gross
	result.ActivitiesSubtotal = gross / 2
}

// kpiBonus resolves claimed KPI names against the active definitions for the
// role and shift. Unresolvable names are dropped silently. For operators the
// per-KPI value is the monthly budget spread over working days.
func (s *CalculationService) kpiBonus(ctx context.Context, rawRole string, role models.WorkerRole, shift models.Shift, claimed []string) (float64, models.StringList, error) {
	resolved := models.StringList{}
	if len(claimed) == 0 {
		return 0, resolved, nil
	}

	defs, err := s.kpis.ActiveForRole(ctx, rawRole)
	if err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load kpi definitions")
	}

	dynamicValue := 0.0
	if role == models.RoleForkliftOperator {
		now := s.now().UTC()
		dynamicValue = s.DynamicKPIValue(now.Year(), now.Month())
	}

	total := 0.0
	for _, name := range claimed {
		def, ok := matchKPI(defs, name, shift)
		if !ok {
			continue
		}
		if role == models.RoleForkliftOperator {
			total += dynamicValue
		} else {
			total += def.WeightValue.Float64()
		}
		resolved = append(resolved, def.Name)
	}
	return total, resolved, nil
}

// DynamicKPIValue spreads the monthly KPI budget evenly over the Mon-Sat
// working days of the month times the per-day KPI cap, rounded to 2 decimals.
func (s *CalculationService) DynamicKPIValue(year int, month time.Month) float64 {
	days := WorkingDaysInMonth(year, month)
	if days == 0 {
		return 0
	}
	return s.round(s.cfg.KPIMonthlyBudget / (float64(days) * float64(s.cfg.MaxKPIsPerDay)))
}

func matchKPI(defs []models.KPIDefinition, name string, shift models.Shift) (models.KPIDefinition, bool) {
	for _, def := range defs {
		if !def.Active {
			continue
		}
		if !models.KeysEqual(def.Name, name) {
			continue
		}
		if models.ShiftMatches(models.CanonicalShift(string(def.Shift)), shift) {
			return def, true
		}
	}
	return models.KPIDefinition{}, false
}
