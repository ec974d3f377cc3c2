package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/warehq/varpay-api/internal/models"
)

// WorkerRepository reads the worker directory.
type WorkerRepository struct {
	db *sqlx.DB
}

// NewWorkerRepository creates a new worker repository.
func NewWorkerRepository(db *sqlx.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

const workerColumns = `id, full_name, document_id, role, shift, birth_date, active, created_at, updated_at`

// FindByID returns the worker with the given ID.
func (r *WorkerRepository) FindByID(ctx context.Context, id string) (*models.Worker, error) {
	query := fmt.Sprintf(`SELECT %s FROM workers WHERE id = $1 LIMIT 1`, workerColumns)
	var worker models.Worker
	if err := r.db.GetContext(ctx, &worker, query, id); err != nil {
		return nil, err
	}
	return &worker, nil
}

// FindByDocument returns the worker matching document ID and birth date.
func (r *WorkerRepository) FindByDocument(ctx context.Context, documentID string, birthDate time.Time) (*models.Worker, error) {
	query := fmt.Sprintf(`SELECT %s FROM workers WHERE document_id = $1 AND birth_date = $2 LIMIT 1`, workerColumns)
	var worker models.Worker
	if err := r.db.GetContext(ctx, &worker, query, documentID, birthDate); err != nil {
		return nil, err
	}
	return &worker, nil
}
