package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RevisionRecord is the forensic audit trail written on every admin action,
// regardless of outcome. Append-only, never read back for recomputation.
type RevisionRecord struct {
	ID        string         `db:"id" json:"id"`
	EntryID   string         `db:"entry_id" json:"entry_id"`
	AdminID   string         `db:"admin_id" json:"admin_id"`
	AdminName string         `db:"admin_name" json:"admin_name"`
	Action    string         `db:"action" json:"action"`
	Before    types.JSONText `db:"before_snapshot" json:"before_snapshot"`
	After     types.JSONText `db:"after_snapshot" json:"after_snapshot"`
	Note      string         `db:"note" json:"note"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// ApprovalHistoryRecord is the snapshot written when an entry transitions to
// approved. Append-only, one per approval event.
type ApprovalHistoryRecord struct {
	ID               string         `db:"id" json:"id"`
	EntryID          string         `db:"entry_id" json:"entry_id"`
	WorkerID         string         `db:"worker_id" json:"worker_id"`
	WorkerName       string         `db:"worker_name" json:"worker_name"`
	WorkerDocumentID string         `db:"worker_document_id" json:"worker_document_id"`
	EntryDate        time.Time      `db:"entry_date" json:"entry_date"`
	ApprovedAt       time.Time      `db:"approved_at" json:"approved_at"`
	ApproverName     string         `db:"approver_name" json:"approver_name"`
	WasEdited        bool           `db:"was_edited" json:"was_edited"`
	EditorName       *string        `db:"editor_name" json:"editor_name,omitempty"`
	FinalSnapshot    types.JSONText `db:"final_snapshot" json:"final_snapshot"`
	Note             string         `db:"note" json:"note"`
	TotalPayout      float64        `db:"total_payout" json:"total_payout"`
}
