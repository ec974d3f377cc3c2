package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/warehq/varpay-api/internal/models"
)

// AuditRepository appends revision and approval-history records. Both tables
// are append-only; nothing in the lifecycle reads them back for computation.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateRevision appends a revision record.
func (r *AuditRepository) CreateRevision(ctx context.Context, record *models.RevisionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO entry_revisions (id, entry_id, admin_id, admin_name, action, before_snapshot, after_snapshot, note, created_at)
        VALUES (:id, :entry_id, :admin_id, :admin_name, :action, :before_snapshot, :after_snapshot, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

// CreateApprovalHistory appends an approval history record.
func (r *AuditRepository) CreateApprovalHistory(ctx context.Context, record *models.ApprovalHistoryRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	const query = `INSERT INTO approval_history (id, entry_id, worker_id, worker_name, worker_document_id, entry_date, approved_at, approver_name, was_edited, editor_name, final_snapshot, note, total_payout)
        VALUES (:id, :entry_id, :worker_id, :worker_name, :worker_document_id, :entry_date, :approved_at, :approver_name, :was_edited, :editor_name, :final_snapshot, :note, :total_payout)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert approval history: %w", err)
	}
	return nil
}

// RevisionsByEntry lists the audit trail for one entry, newest first.
func (r *AuditRepository) RevisionsByEntry(ctx context.Context, entryID string) ([]models.RevisionRecord, error) {
	const query = `SELECT id, entry_id, admin_id, admin_name, action, before_snapshot, after_snapshot, note, created_at
        FROM entry_revisions WHERE entry_id = $1 ORDER BY created_at DESC`
	var records []models.RevisionRecord
	if err := r.db.SelectContext(ctx, &records, query, entryID); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return records, nil
}
