package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/warehq/varpay-api/internal/models"
)

func sampleEntry() *models.Entry {
	return &models.Entry{
		WorkerID:           "w-1",
		WorkerName:         "Maria Souza",
		WorkerDocumentID:   "12345",
		EntryDate:          time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
		Role:               "warehouse_helper",
		Shift:              "Morning",
		AchievedKPIs:       models.StringList{"Zero Faltas"},
		ActivitiesSubtotal: 10,
		KPIBonus:           25,
		TotalPayout:        35,
		AchievedKPINames:   models.StringList{"Zero Faltas"},
		Status:             models.StatusPending,
	}
}

func TestCreateWithKPICapInsertsUnderLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEntryRepository(db)
	entry := sampleEntry()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("w-1:2025-06-10").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM entries")).
		WithArgs(entry.WorkerID, entry.EntryDate).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	count, err := repo.CreateWithKPICap(context.Background(), entry, 1)
	require.NoError(t, err)
	require.Equal(t, 0, count)
	require.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithKPICapRejectsAtLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEntryRepository(db)
	entry := sampleEntry()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM entries")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	count, err := repo.CreateWithKPICap(context.Background(), entry, 1)
	require.ErrorIs(t, err, ErrDailyCapReached)
	require.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryCreatePlainInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEntryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := sampleEntry()
	entry.AchievedKPIs = nil
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryListBuildsFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEntryRepository(db)
	from := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("(?s)SELECT id, worker_id, worker_name.+AND worker_id = \\$1 AND status = \\$2 AND entry_date >= \\$3").
		WithArgs("w-1", "pending", from).
		WillReturnRows(sqlmock.NewRows([]string{"id", "worker_id", "status"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM entries")).
		WithArgs("w-1", "pending", from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.EntryFilter{
		WorkerID: "w-1",
		Status:   "pending",
		DateFrom: &from,
	})
	require.NoError(t, err)
	require.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
