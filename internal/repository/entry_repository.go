package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/warehq/varpay-api/internal/models"
)

// ErrDailyCapReached signals that the worker already has a KPI-bearing entry
// for the date. Carries no HTTP semantics; the service layer maps it.
var ErrDailyCapReached = errors.New("daily kpi entry cap reached")

// EntryRepository handles compensation entry persistence.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new entry repository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

const entryColumns = `id, worker_id, worker_name, worker_document_id, entry_date, role, shift,
        activity_name, quantity_produced, hours_worked, activities, valid_task_count, manual_adjustment, achieved_kpis,
        activities_subtotal, kpi_bonus, total_payout, achieved_rate, tier_reached, unit_of_measure, detail_lines,
        valid_task_gross_value, gross_activity_value, achieved_kpi_names,
        status, approved_by, approved_at, validation_note, edited_by, edited_at, edit_note, pre_edit_backup,
        created_at, updated_at`

const entryInsert = `INSERT INTO entries (` + entryColumns + `)
        VALUES (:id, :worker_id, :worker_name, :worker_document_id, :entry_date, :role, :shift,
        :activity_name, :quantity_produced, :hours_worked, :activities, :valid_task_count, :manual_adjustment, :achieved_kpis,
        :activities_subtotal, :kpi_bonus, :total_payout, :achieved_rate, :tier_reached, :unit_of_measure, :detail_lines,
        :valid_task_gross_value, :gross_activity_value, :achieved_kpi_names,
        :status, :approved_by, :approved_at, :validation_note, :edited_by, :edited_at, :edit_note, :pre_edit_backup,
        :created_at, :updated_at)`

// Create inserts an entry without any daily-cap check.
func (r *EntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	stampNew(entry)
	if _, err := r.db.NamedExecContext(ctx, entryInsert, entry); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// CreateWithKPICap inserts a KPI-bearing entry while enforcing the daily cap
// inside one transaction. A per-(worker, date) advisory lock serializes
// concurrent submissions so check-then-insert cannot race. Returns the count
// of existing KPI-bearing entries alongside ErrDailyCapReached when the cap
// is hit.
func (r *EntryRepository) CreateWithKPICap(ctx context.Context, entry *models.Entry, dailyLimit int) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin entry tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	lockKey := fmt.Sprintf("%s:%s", entry.WorkerID, entry.EntryDate.Format("2006-01-02"))
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return 0, fmt.Errorf("acquire entry lock: %w", err)
	}

	var count int
	const countQuery = `SELECT COUNT(*) FROM entries
        WHERE worker_id = $1 AND entry_date = $2 AND status <> 'rejected'
        AND jsonb_array_length(achieved_kpis) > 0`
	if err := tx.GetContext(ctx, &count, countQuery, entry.WorkerID, entry.EntryDate); err != nil {
		return 0, fmt.Errorf("count kpi entries: %w", err)
	}
	if count >= dailyLimit {
		return count, ErrDailyCapReached
	}

	stampNew(entry)
	if _, err := tx.NamedExecContext(ctx, entryInsert, entry); err != nil {
		return count, fmt.Errorf("insert entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("commit entry: %w", err)
	}
	return count, nil
}

// FindByID returns a single entry.
func (r *EntryRepository) FindByID(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 LIMIT 1`
	var entry models.Entry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Update replaces every mutable entry field. Used by the lifecycle for
// status transitions and edit-with-recompute.
func (r *EntryRepository) Update(ctx context.Context, entry *models.Entry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE entries SET
        worker_name = :worker_name, worker_document_id = :worker_document_id, entry_date = :entry_date,
        role = :role, shift = :shift,
        activity_name = :activity_name, quantity_produced = :quantity_produced, hours_worked = :hours_worked,
        activities = :activities, valid_task_count = :valid_task_count, manual_adjustment = :manual_adjustment,
        achieved_kpis = :achieved_kpis,
        activities_subtotal = :activities_subtotal, kpi_bonus = :kpi_bonus, total_payout = :total_payout,
        achieved_rate = :achieved_rate, tier_reached = :tier_reached, unit_of_measure = :unit_of_measure,
        detail_lines = :detail_lines, valid_task_gross_value = :valid_task_gross_value,
        gross_activity_value = :gross_activity_value, achieved_kpi_names = :achieved_kpi_names,
        status = :status, approved_by = :approved_by, approved_at = :approved_at, validation_note = :validation_note,
        edited_by = :edited_by, edited_at = :edited_at, edit_note = :edit_note, pre_edit_backup = :pre_edit_backup,
        updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update entry %s: no rows affected", entry.ID)
	}
	return nil
}

// List returns entries matching the filter plus the total count.
func (r *EntryRepository) List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, int, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM entries WHERE 1=1`
	var args []interface{}
	if filter.WorkerID != "" {
		clause := fmt.Sprintf(" AND worker_id = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, filter.WorkerID)
	}
	if filter.Status != "" {
		clause := fmt.Sprintf(" AND status = $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, filter.Status)
	}
	if filter.DateFrom != nil {
		clause := fmt.Sprintf(" AND entry_date >= $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		clause := fmt.Sprintf(" AND entry_date <= $%d", len(args)+1)
		query += clause
		countQuery += clause
		args = append(args, *filter.DateTo)
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query += fmt.Sprintf(" ORDER BY entry_date DESC, created_at DESC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var entries []models.Entry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list entries: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}
	return entries, total, nil
}

func stampNew(entry *models.Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
}
