package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warehq/varpay-api/internal/models"
	"github.com/warehq/varpay-api/internal/repository"
	"github.com/warehq/varpay-api/pkg/config"
	appErrors "github.com/warehq/varpay-api/pkg/errors"
)

type mockEntryRepo struct {
	entries    map[string]*models.Entry
	nextID     int
	capReached bool
	capCount   int
	updated    []string
}

func (m *mockEntryRepo) store(entry *models.Entry) {
	if m.entries == nil {
		m.entries = make(map[string]*models.Entry)
	}
	m.nextID++
	entry.ID = fmt.Sprintf("entry-%d", m.nextID)
	copied := *entry
	m.entries[entry.ID] = &copied
}

func (m *mockEntryRepo) Create(ctx context.Context, entry *models.Entry) error {
	m.store(entry)
	return nil
}

func (m *mockEntryRepo) CreateWithKPICap(ctx context.Context, entry *models.Entry, dailyLimit int) (int, error) {
	if m.capReached {
		return m.capCount, repository.ErrDailyCapReached
	}
	m.store(entry)
	return m.capCount, nil
}

func (m *mockEntryRepo) FindByID(ctx context.Context, id string) (*models.Entry, error) {
	if entry, ok := m.entries[id]; ok {
		copied := *entry
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEntryRepo) Update(ctx context.Context, entry *models.Entry) error {
	copied := *entry
	m.entries[entry.ID] = &copied
	m.updated = append(m.updated, entry.ID)
	return nil
}

func (m *mockEntryRepo) List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, int, error) {
	var out []models.Entry
	for _, entry := range m.entries {
		out = append(out, *entry)
	}
	return out, len(out), nil
}

type mockWorkerDir struct {
	workers map[string]*models.Worker
}

func (m *mockWorkerDir) FindByID(ctx context.Context, id string) (*models.Worker, error) {
	if w, ok := m.workers[id]; ok {
		return w, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWorkerDir) FindByDocument(ctx context.Context, documentID string, birthDate time.Time) (*models.Worker, error) {
	for _, w := range m.workers {
		if w.DocumentID == documentID && w.BirthDate != nil && w.BirthDate.Equal(birthDate) {
			return w, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockAdminDir struct {
	admins map[string]*models.User
}

func (m *mockAdminDir) FindByID(ctx context.Context, id string) (*models.User, error) {
	if a, ok := m.admins[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuditRepo struct {
	revisions []models.RevisionRecord
	approvals []models.ApprovalHistoryRecord
	failWrite bool
}

func (m *mockAuditRepo) CreateRevision(ctx context.Context, record *models.RevisionRecord) error {
	if m.failWrite {
		return errors.New("audit store down")
	}
	m.revisions = append(m.revisions, *record)
	return nil
}

func (m *mockAuditRepo) CreateApprovalHistory(ctx context.Context, record *models.ApprovalHistoryRecord) error {
	if m.failWrite {
		return errors.New("audit store down")
	}
	m.approvals = append(m.approvals, *record)
	return nil
}

func (m *mockAuditRepo) RevisionsByEntry(ctx context.Context, entryID string) ([]models.RevisionRecord, error) {
	var out []models.RevisionRecord
	for _, r := range m.revisions {
		if r.EntryID == entryID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockCalculator struct {
	result *models.CalculationResult
	err    error
	calls  int
}

func (m *mockCalculator) Calculate(ctx context.Context, input models.CalculationInput) (*models.CalculationResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	copied := *m.result
	return &copied, nil
}

type entryFixture struct {
	svc     *EntryService
	entries *mockEntryRepo
	audits  *mockAuditRepo
	calc    *mockCalculator
}

func newEntryFixture() *entryFixture {
	birthDate := time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)
	workers := &mockWorkerDir{workers: map[string]*models.Worker{
		"w-1": {ID: "w-1", FullName: "Maria Souza", DocumentID: "12345", Role: "warehouse_helper", Shift: "Morning", BirthDate: &birthDate, Active: true},
		"w-2": {ID: "w-2", FullName: "José Lima", DocumentID: "99999", Role: "forklift_operator", Shift: "Night", Active: false},
	}}
	admins := &mockAdminDir{admins: map[string]*models.User{
		"a-1": {ID: "a-1", FullName: "Ana Admin", Role: models.RoleAdmin, Active: true},
	}}
	entries := &mockEntryRepo{capCount: 1}
	audits := &mockAuditRepo{}
	gross := 20.0
	calc := &mockCalculator{result: &models.CalculationResult{
		ActivitiesSubtotal: 10,
		KPIBonus:           5,
		TotalPayout:        15,
		GrossActivityValue: &gross,
		AchievedKPINames:   models.StringList{"Zero Faltas"},
	}}

	svc := NewEntryService(entries, workers, admins, audits, calc, config.CompensationConfig{DailyKPIEntryLimit: 1}, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC) }
	return &entryFixture{svc: svc, entries: entries, audits: audits, calc: calc}
}

func validCreateRequest() CreateEntryRequest {
	return CreateEntryRequest{
		EntryDate: "2025-06-10",
		WorkerID:  "w-1",
		CalculationInput: models.CalculationInput{
			Activity:     &models.ActivityInput{Name: "Paletização", QuantityProduced: 100, HoursWorked: 8},
			AchievedKPIs: []string{"Zero Faltas"},
		},
	}
}

func TestCreateEntryPersistsPendingWithResult(t *testing.T) {
	f := newEntryFixture()

	entry, err := f.svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, entry.Status)
	assert.Equal(t, "Maria Souza", entry.WorkerName)
	assert.InDelta(t, 15.0, entry.TotalPayout, 1e-9)
	assert.Equal(t, "warehouse_helper", entry.Role)
	assert.Equal(t, "Morning", entry.Shift)
	assert.NotEmpty(t, entry.ID)
}

func TestCreateEntryDailyCapReturnsStructuredDetails(t *testing.T) {
	f := newEntryFixture()
	f.entries.capReached = true
	f.entries.capCount = 1

	_, err := f.svc.Create(context.Background(), validCreateRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DAILY_LIMIT_EXCEEDED", appErr.Code)
	assert.Equal(t, 400, appErr.Status)

	details, ok := appErr.Details.(DailyLimitDetails)
	require.True(t, ok)
	assert.Equal(t, 1, details.CurrentCount)
	assert.Equal(t, 1, details.DailyLimit)
}

func TestCreateEntryWithoutKPIsBypassesCap(t *testing.T) {
	f := newEntryFixture()
	f.entries.capReached = true

	req := validCreateRequest()
	req.AchievedKPIs = nil

	entry, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
}

func TestCreateEntryUnknownWorkerUnauthorized(t *testing.T) {
	f := newEntryFixture()

	req := validCreateRequest()
	req.WorkerID = "w-missing"

	_, err := f.svc.Create(context.Background(), req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 401, appErr.Status)
}

func TestCreateEntryInactiveWorkerUnauthorized(t *testing.T) {
	f := newEntryFixture()

	req := validCreateRequest()
	req.WorkerID = "w-2"

	_, err := f.svc.Create(context.Background(), req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 401, appErr.Status)
}

func TestCreateEntryResolvesWorkerByDocument(t *testing.T) {
	f := newEntryFixture()

	req := validCreateRequest()
	req.WorkerID = ""
	req.WorkerDocumentID = "12345"
	req.BirthDate = "1990-03-15"

	entry, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "w-1", entry.WorkerID)
}

func createPendingEntry(t *testing.T, f *entryFixture) *models.Entry {
	t.Helper()
	entry, err := f.svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	return entry
}

func TestValidateApproveStampsAndRecords(t *testing.T) {
	f := newEntryFixture()
	entry := createPendingEntry(t, f)

	updated, err := f.svc.Validate(context.Background(), entry.ID, ValidateEntryRequest{
		Action:  models.ActionApprove,
		AdminID: "a-1",
		Note:    "looks right",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, updated.Status)
	require.NotNil(t, updated.ApprovedBy)
	assert.Equal(t, "Ana Admin", *updated.ApprovedBy)
	require.NotNil(t, updated.ApprovedAt)

	require.Len(t, f.audits.approvals, 1)
	assert.Equal(t, entry.ID, f.audits.approvals[0].EntryID)
	assert.False(t, f.audits.approvals[0].WasEdited)

	require.Len(t, f.audits.revisions, 1)
	assert.Equal(t, "approve", f.audits.revisions[0].Action)
}

func TestValidateRejectIsTerminal(t *testing.T) {
	f := newEntryFixture()
	entry := createPendingEntry(t, f)

	updated, err := f.svc.Validate(context.Background(), entry.ID, ValidateEntryRequest{
		Action:  models.ActionReject,
		AdminID: "a-1",
		Note:    "duplicate submission",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, updated.Status)
	require.NotNil(t, updated.ValidationNote)
	assert.Equal(t, "duplicate submission", *updated.ValidationNote)

	for _, action := range []models.ValidationAction{models.ActionApprove, models.ActionReject, models.ActionEdit} {
		_, err := f.svc.Validate(context.Background(), entry.ID, ValidateEntryRequest{
			Action:  action,
			AdminID: "a-1",
		})
		require.Error(t, err, "action %s", action)
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 409, appErr.Status)
	}
}

func TestValidateApprovedAdmitsOnlyEdit(t *testing.T) {
	f := newEntryFixture()
	entry := createPendingEntry(t, f)

	_, err := f.svc.Validate(context.Background(), entry.ID, ValidateEntryRequest{Action: models.ActionApprove, AdminID: "a-1"})
	require.NoError(t, err)

	_, err = f.svc.Validate(context.Background(), entry.ID, ValidateEntryRequest{Action: models.ActionApprove, AdminID: "a-1"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.Status)

	edited := validCreateRequest().CalculationInput
	edited.Role = "warehouse_helper"
	edited.Shift = "Morning"
	edited.Activity.QuantityProduced = 80
	updated, err := f.svc.Validate(context.Background(), entry.ID, ValidateEntryRequest{
		Action:      models.ActionEdit,
		AdminID:     "a-1",
		EditedInput: &edited,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Nil(t, updated.ApprovedBy)
	assert.Nil(t, updated.ApprovedAt)
}

func TestValidateEditRecomputesAndKeepsBackup(t *testing.T) {
	f := newEntryFixture()
	entry := createPendingEntry(t, f)
	callsBefore := f.calc.calls

	edited := validCreateRequest().CalculationInput
	edited.Role = "warehouse_helper"
	edited.Shift = "Morning"
	edited.Activity.QuantityProduced = 80

	updated, err := f.svc.Validate(context.Background(), entry.ID, ValidateEntryRequest{
		Action:      models.ActionEdit,
		AdminID:     "a-1",
		Note:        "corrected quantity",
		EditedInput: &edited,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Equal(t, callsBefore+1, f.calc.calls)
	require.NotNil(t, updated.EditedBy)
	assert.Equal(t, "Ana Admin", *updated.EditedBy)
	require.NotNil(t, updated.EditNote)
	assert.Equal(t, "corrected quantity", *updated.EditNote)

	require.NotEmpty(t, updated.PreEditBackup)
	var backup models.Entry
	require.NoError(t, json.Unmarshal(updated.PreEditBackup, &backup))
	assert.Equal(t, entry.ID, backup.ID)
	require.NotNil(t, backup.QuantityProduced)
	assert.InDelta(t, 100.0, *backup.QuantityProduced, 1e-9)
}

func TestValidateEditRequiresInput(t *testing.T) {
	f := newEntryFixture()
	entry := createPendingEntry(t, f)

	_, err := f.svc.Validate(context.Background(), entry.ID, ValidateEntryRequest{
		Action:  models.ActionEdit,
		AdminID: "a-1",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestValidateMissingEntryNotFound(t *testing.T) {
	f := newEntryFixture()

	_, err := f.svc.Validate(context.Background(), "missing", ValidateEntryRequest{Action: models.ActionApprove, AdminID: "a-1"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Status)
}

func TestValidateAuditFailureDoesNotBlockDecision(t *testing.T) {
	f := newEntryFixture()
	entry := createPendingEntry(t, f)
	f.audits.failWrite = true

	updated, err := f.svc.Validate(context.Background(), entry.ID, ValidateEntryRequest{Action: models.ActionApprove, AdminID: "a-1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
}

func TestRevisionsRequiresExistingEntry(t *testing.T) {
	f := newEntryFixture()

	_, err := f.svc.Revisions(context.Background(), "missing")
	require.Error(t, err)

	entry := createPendingEntry(t, f)
	_, err = f.svc.Validate(context.Background(), entry.ID, ValidateEntryRequest{Action: models.ActionApprove, AdminID: "a-1"})
	require.NoError(t, err)

	records, err := f.svc.Revisions(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "approve", records[0].Action)
}
