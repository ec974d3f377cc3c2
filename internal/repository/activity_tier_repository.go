package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/warehq/varpay-api/internal/models"
)

// ActivityTierRepository handles activity pay-tier persistence. Rows carry a
// normalized activity_key column maintained on write so lookups are case- and
// diacritic-insensitive.
type ActivityTierRepository struct {
	db *sqlx.DB
}

// NewActivityTierRepository creates a new tier repository.
func NewActivityTierRepository(db *sqlx.DB) *ActivityTierRepository {
	return &ActivityTierRepository{db: db}
}

const tierColumns = `id, activity_name, tier_label, min_productivity_rate, unit_value, unit_of_measure, active, created_at, updated_at`

// TiersForActivity returns the active tiers for an activity ordered by
// descending threshold, matching on the normalized key.
func (r *ActivityTierRepository) TiersForActivity(ctx context.Context, activityName string) ([]models.ActivityTier, error) {
	query := fmt.Sprintf(`SELECT %s FROM activity_tiers
        WHERE activity_key = $1 AND active = true
        ORDER BY min_productivity_rate DESC`, tierColumns)
	var tiers []models.ActivityTier
	if err := r.db.SelectContext(ctx, &tiers, query, models.NormalizeKey(activityName)); err != nil {
		return nil, fmt.Errorf("select tiers: %w", err)
	}
	return tiers, nil
}

// List returns tiers matching the filter plus the total count.
func (r *ActivityTierRepository) List(ctx context.Context, filter models.TierFilter) ([]models.ActivityTier, int, error) {
	query := fmt.Sprintf(`SELECT %s FROM activity_tiers WHERE 1=1`, tierColumns)
	countQuery := `SELECT COUNT(*) FROM activity_tiers WHERE 1=1`
	var args []interface{}
	if filter.ActivityName != "" {
		clause := fmt.Sprintf(" AND activity_key = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, models.NormalizeKey(filter.ActivityName))
	}
	if filter.Active != nil {
		clause := fmt.Sprintf(" AND active = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, *filter.Active)
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query += fmt.Sprintf(" ORDER BY activity_name ASC, min_productivity_rate DESC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var tiers []models.ActivityTier
	if err := r.db.SelectContext(ctx, &tiers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tiers: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tiers: %w", err)
	}
	return tiers, total, nil
}

// FindByID returns a single tier.
func (r *ActivityTierRepository) FindByID(ctx context.Context, id string) (*models.ActivityTier, error) {
	query := fmt.Sprintf(`SELECT %s FROM activity_tiers WHERE id = $1 LIMIT 1`, tierColumns)
	var tier models.ActivityTier
	if err := r.db.GetContext(ctx, &tier, query, id); err != nil {
		return nil, err
	}
	return &tier, nil
}

// Create inserts a tier, stamping the normalized activity key.
func (r *ActivityTierRepository) Create(ctx context.Context, tier *models.ActivityTier) error {
	if tier.ID == "" {
		tier.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tier.CreatedAt = now
	tier.UpdatedAt = now
	const query = `INSERT INTO activity_tiers (id, activity_name, activity_key, tier_label, min_productivity_rate, unit_value, unit_of_measure, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query,
		tier.ID, tier.ActivityName, models.NormalizeKey(tier.ActivityName), tier.TierLabel,
		tier.MinProductivityRate, tier.UnitValue, tier.UnitOfMeasure, tier.Active,
		tier.CreatedAt, tier.UpdatedAt); err != nil {
		return fmt.Errorf("insert tier: %w", err)
	}
	return nil
}

// Update replaces the mutable tier fields.
func (r *ActivityTierRepository) Update(ctx context.Context, tier *models.ActivityTier) error {
	tier.UpdatedAt = time.Now().UTC()
	const query = `UPDATE activity_tiers SET activity_name = $2, activity_key = $3, tier_label = $4,
        min_productivity_rate = $5, unit_value = $6, unit_of_measure = $7, active = $8, updated_at = $9
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		tier.ID, tier.ActivityName, models.NormalizeKey(tier.ActivityName), tier.TierLabel,
		tier.MinProductivityRate, tier.UnitValue, tier.UnitOfMeasure, tier.Active, tier.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update tier: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update tier %s: no rows affected", tier.ID)
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}
