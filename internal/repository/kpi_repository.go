package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/warehq/varpay-api/internal/models"
)

// KPIRepository handles KPI definition persistence. role_key and name_key are
// normalized on write for clean lookups.
type KPIRepository struct {
	db *sqlx.DB
}

// NewKPIRepository creates a new KPI repository.
func NewKPIRepository(db *sqlx.DB) *KPIRepository {
	return &KPIRepository{db: db}
}

const kpiColumns = `id, name, role, shift, weight_value, active, created_at, updated_at`

// ActiveForRole returns every active KPI definition configured for a role,
// any shift. Shift filtering happens in the calculator so "General"
// definitions stay visible.
func (r *KPIRepository) ActiveForRole(ctx context.Context, role string) ([]models.KPIDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM kpi_definitions
        WHERE role_key = $1 AND active = true
        ORDER BY name ASC`, kpiColumns)
	var defs []models.KPIDefinition
	if err := r.db.SelectContext(ctx, &defs, query, models.NormalizeKey(role)); err != nil {
		return nil, fmt.Errorf("select kpi definitions: %w", err)
	}
	return defs, nil
}

// List returns definitions matching the filter plus the total count.
func (r *KPIRepository) List(ctx context.Context, filter models.KPIFilter) ([]models.KPIDefinition, int, error) {
	query := fmt.Sprintf(`SELECT %s FROM kpi_definitions WHERE 1=1`, kpiColumns)
	countQuery := `SELECT COUNT(*) FROM kpi_definitions WHERE 1=1`
	var args []interface{}
	if filter.Role != "" {
		clause := fmt.Sprintf(" AND role_key = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, models.NormalizeKey(filter.Role))
	}
	if filter.Shift != "" {
		clause := fmt.Sprintf(" AND shift = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, string(models.CanonicalShift(filter.Shift)))
	}
	if filter.Active != nil {
		clause := fmt.Sprintf(" AND active = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, *filter.Active)
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query += fmt.Sprintf(" ORDER BY role ASC, name ASC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var defs []models.KPIDefinition
	if err := r.db.SelectContext(ctx, &defs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list kpi definitions: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count kpi definitions: %w", err)
	}
	return defs, total, nil
}

// FindByID returns a single definition.
func (r *KPIRepository) FindByID(ctx context.Context, id string) (*models.KPIDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM kpi_definitions WHERE id = $1 LIMIT 1`, kpiColumns)
	var def models.KPIDefinition
	if err := r.db.GetContext(ctx, &def, query, id); err != nil {
		return nil, err
	}
	return &def, nil
}

// Create inserts a definition, stamping the normalized keys.
func (r *KPIRepository) Create(ctx context.Context, def *models.KPIDefinition) error {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	def.CreatedAt = now
	def.UpdatedAt = now
	const query = `INSERT INTO kpi_definitions (id, name, name_key, role, role_key, shift, weight_value, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query,
		def.ID, def.Name, models.NormalizeKey(def.Name), def.Role, models.NormalizeKey(def.Role),
		def.Shift, def.WeightValue, def.Active, def.CreatedAt, def.UpdatedAt); err != nil {
		return fmt.Errorf("insert kpi definition: %w", err)
	}
	return nil
}

// Update replaces the mutable definition fields.
func (r *KPIRepository) Update(ctx context.Context, def *models.KPIDefinition) error {
	def.UpdatedAt = time.Now().UTC()
	const query = `UPDATE kpi_definitions SET name = $2, name_key = $3, role = $4, role_key = $5,
        shift = $6, weight_value = $7, active = $8, updated_at = $9
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		def.ID, def.Name, models.NormalizeKey(def.Name), def.Role, models.NormalizeKey(def.Role),
		def.Shift, def.WeightValue, def.Active, def.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update kpi definition: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update kpi definition %s: no rows affected", def.ID)
	}
	return nil
}
