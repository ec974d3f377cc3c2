package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/warehq/varpay-api/internal/models"
	"github.com/warehq/varpay-api/internal/repository"
	"github.com/warehq/varpay-api/pkg/config"
	appErrors "github.com/warehq/varpay-api/pkg/errors"
)

type entryRepo interface {
	Create(ctx context.Context, entry *models.Entry) error
	CreateWithKPICap(ctx context.Context, entry *models.Entry, dailyLimit int) (int, error)
	FindByID(ctx context.Context, id string) (*models.Entry, error)
	Update(ctx context.Context, entry *models.Entry) error
	List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, int, error)
}

type workerReader interface {
	FindByID(ctx context.Context, id string) (*models.Worker, error)
	FindByDocument(ctx context.Context, documentID string, birthDate time.Time) (*models.Worker, error)
}

type adminReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditWriter interface {
	CreateRevision(ctx context.Context, record *models.RevisionRecord) error
	CreateApprovalHistory(ctx context.Context, record *models.ApprovalHistoryRecord) error
	RevisionsByEntry(ctx context.Context, entryID string) ([]models.RevisionRecord, error)
}

type calculator interface {
	Calculate(ctx context.Context, input models.CalculationInput) (*models.CalculationResult, error)
}

// CreateEntryRequest is the submission payload. The calculation input fields
// are inlined alongside worker identity and date. Workers are resolved either
// by internal ID or by document ID plus birth date.
type CreateEntryRequest struct {
	EntryDate        string `json:"entry_date" validate:"required,datetime=2006-01-02"`
	WorkerID         string `json:"worker_id" validate:"required_without=WorkerDocumentID"`
	WorkerDocumentID string `json:"worker_document_id" validate:"required_without=WorkerID"`
	BirthDate        string `json:"birth_date" validate:"required_with=WorkerDocumentID,omitempty,datetime=2006-01-02"`
	models.CalculationInput
}

// ValidateEntryRequest is an admin decision payload.
type ValidateEntryRequest struct {
	Action      models.ValidationAction  `json:"action" validate:"required,oneof=approve reject edit"`
	Note        string                   `json:"note"`
	AdminID     string                   `json:"admin_id" validate:"required"`
	EditedInput *models.CalculationInput `json:"edited_input,omitempty"`
}

// DailyLimitDetails is the structured payload returned on cap breaches.
type DailyLimitDetails struct {
	CurrentCount int `json:"current_count"`
	DailyLimit   int `json:"daily_limit"`
}

// EntryService governs the entry lifecycle: creation with the daily KPI cap,
// and the pending -> approved/rejected/edited transitions with their audit
// trail.
type EntryService struct {
	entries   entryRepo
	workers   workerReader
	admins    adminReader
	audits    auditWriter
	calc      calculator
	cfg       config.CompensationConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEntryService constructs an EntryService.
func NewEntryService(entries entryRepo, workers workerReader, admins adminReader, audits auditWriter, calc calculator, cfg config.CompensationConfig, validate *validator.Validate, logger *zap.Logger) *EntryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DailyKPIEntryLimit <= 0 {
		cfg.DailyKPIEntryLimit = 1
	}
	return &EntryService{
		entries:   entries,
		workers:   workers,
		admins:    admins,
		audits:    audits,
		calc:      calc,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create runs the calculation pipeline for a submission and persists the
// result as a pending entry. KPI-bearing submissions are subject to the
// daily cap.
func (s *EntryService) Create(ctx context.Context, req CreateEntryRequest) (*models.Entry, error) {
	if req.WorkerID == "" && req.WorkerDocumentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "worker identification required")
	}

	worker, err := s.resolveWorker(ctx, req)
	if err != nil {
		return nil, err
	}
	if !worker.Active {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "worker is inactive")
	}

	// Role and shift default from the worker directory before validation so
	// submissions may omit them.
	input := req.CalculationInput
	if input.Role == "" {
		input.Role = worker.Role
	}
	if input.Shift == "" {
		input.Shift = worker.Shift
	}
	req.CalculationInput = input
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}

	result, err := s.calc.Calculate(ctx, input)
	if err != nil {
		return nil, err
	}

	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid entry date")
	}

	entry := &models.Entry{
		WorkerID:         worker.ID,
		WorkerName:       worker.FullName,
		WorkerDocumentID: worker.DocumentID,
		EntryDate:        entryDate,
		Status:           models.StatusPending,
	}
	if err := entry.ApplyInput(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode entry input")
	}
	entry.ApplyResult(result)

	if input.HasKPIs() {
		count, err := s.entries.CreateWithKPICap(ctx, entry, s.cfg.DailyKPIEntryLimit)
		if err != nil {
			if errors.Is(err, repository.ErrDailyCapReached) {
				return nil, appErrors.WithDetails(appErrors.ErrDailyLimitExceeded, DailyLimitDetails{
					CurrentCount: count,
					DailyLimit:   s.cfg.DailyKPIEntryLimit,
				})
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist entry")
		}
	} else if err := s.entries.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist entry")
	}

	s.logger.Info("entry created",
		zap.String("entry_id", entry.ID),
		zap.String("worker_id", entry.WorkerID),
		zap.Float64("total_payout", entry.TotalPayout),
	)
	return entry, nil
}

func (s *EntryService) resolveWorker(ctx context.Context, req CreateEntryRequest) (*models.Worker, error) {
	var (
		worker *models.Worker
		err    error
	)
	if req.WorkerID != "" {
		worker, err = s.workers.FindByID(ctx, req.WorkerID)
	} else {
		var birthDate time.Time
		birthDate, err = time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid birth date")
		}
		worker, err = s.workers.FindByDocument(ctx, req.WorkerDocumentID, birthDate)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "worker not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load worker")
	}
	return worker, nil
}

// Validate applies an admin decision to an entry. Approve and reject are
// terminal; edit recomputes the payout and returns the entry to pending for
// re-approval. Every action appends a revision record best-effort.
func (s *EntryService) Validate(ctx context.Context, entryID string, req ValidateEntryRequest) (*models.Entry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validation payload")
	}

	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry")
	}

	// Rejected entries are fully terminal. Approved entries admit only an
	// edit, which returns them to pending for re-approval.
	if entry.Status == models.StatusRejected {
		return nil, appErrors.Clone(appErrors.ErrConflict, "entry already rejected")
	}
	if entry.Status == models.StatusApproved && req.Action != models.ActionEdit {
		return nil, appErrors.Clone(appErrors.ErrConflict, "entry already approved")
	}

	admin, err := s.admins.FindByID(ctx, req.AdminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}

	before, err := json.Marshal(entry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot entry")
	}

	now := s.now().UTC()
	switch req.Action {
	case models.ActionApprove:
		entry.Status = models.StatusApproved
		entry.ApprovedBy = &admin.FullName
		entry.ApprovedAt = &now
		if req.Note != "" {
			note := req.Note
			entry.ValidationNote = &note
		}
	case models.ActionReject:
		entry.Status = models.StatusRejected
		note := req.Note
		entry.ValidationNote = &note
	case models.ActionEdit:
		if req.EditedInput == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "edited input required for edit action")
		}
		result, err := s.calc.Calculate(ctx, *req.EditedInput)
		if err != nil {
			return nil, err
		}
		entry.PreEditBackup = types.JSONText(before)
		if err := entry.ApplyInput(*req.EditedInput); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode edited input")
		}
		entry.ApplyResult(result)
		entry.Status = models.StatusPending
		entry.EditedBy = &admin.FullName
		entry.EditedAt = &now
		if req.Note != "" {
			note := req.Note
			entry.EditNote = &note
		}
		entry.ApprovedBy = nil
		entry.ApprovedAt = nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown action %q", req.Action))
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update entry")
	}

	after, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn("failed to snapshot updated entry", zap.Error(err))
		after = []byte("{}")
	}

	if req.Action == models.ActionApprove {
		s.writeApprovalHistory(ctx, entry, admin, req.Note, now, after)
	}
	s.writeRevision(ctx, entry.ID, admin, string(req.Action), before, after, req.Note)

	s.logger.Info("entry validated",
		zap.String("entry_id", entry.ID),
		zap.String("action", string(req.Action)),
		zap.String("admin_id", admin.ID),
		zap.String("status", string(entry.Status)),
	)
	return entry, nil
}

// Get returns a single entry.
func (s *EntryService) Get(ctx context.Context, id string) (*models.Entry, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry")
	}
	return entry, nil
}

// List returns entries matching the filter.
func (s *EntryService) List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, *models.Pagination, error) {
	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entries")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Revisions returns the audit trail for an entry.
func (s *EntryService) Revisions(ctx context.Context, entryID string) ([]models.RevisionRecord, error) {
	if _, err := s.Get(ctx, entryID); err != nil {
		return nil, err
	}
	records, err := s.audits.RevisionsByEntry(ctx, entryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list revisions")
	}
	return records, nil
}

// writeApprovalHistory appends the approval snapshot. Audit-only, so a
// failure is logged and swallowed.
func (s *EntryService) writeApprovalHistory(ctx context.Context, entry *models.Entry, admin *models.User, note string, approvedAt time.Time, snapshot []byte) {
	record := &models.ApprovalHistoryRecord{
		EntryID:          entry.ID,
		WorkerID:         entry.WorkerID,
		WorkerName:       entry.WorkerName,
		WorkerDocumentID: entry.WorkerDocumentID,
		EntryDate:        entry.EntryDate,
		ApprovedAt:       approvedAt,
		ApproverName:     admin.FullName,
		WasEdited:        entry.EditedBy != nil,
		EditorName:       entry.EditedBy,
		FinalSnapshot:    types.JSONText(snapshot),
		Note:             note,
		TotalPayout:      entry.TotalPayout,
	}
	if err := s.audits.CreateApprovalHistory(ctx, record); err != nil {
		s.logger.Warn("failed to write approval history", zap.String("entry_id", entry.ID), zap.Error(err))
	}
}

// writeRevision appends the forensic revision record. Best-effort.
func (s *EntryService) writeRevision(ctx context.Context, entryID string, admin *models.User, action string, before, after []byte, note string) {
	record := &models.RevisionRecord{
		EntryID:   entryID,
		AdminID:   admin.ID,
		AdminName: admin.FullName,
		Action:    action,
		Before:    types.JSONText(before),
		After:     types.JSONText(after),
		Note:      note,
	}
	if err := s.audits.CreateRevision(ctx, record); err != nil {
		s.logger.Warn("failed to write revision record", zap.String("entry_id", entryID), zap.Error(err))
	}
}
