package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

var _ models.Repository[*models.Status] = (*StatusRepository)(nil)

// StatusRepository implements models.Repository[*models.Status]
type StatusRepository struct {
	db DBTX
}

// NewStatusRepository creates a new StatusRepository with the given database handle
func NewStatusRepository(db DBTX) *StatusRepository {
	return &StatusRepository{db: db}
}

// Create inserts a new status and sets the generated ID
func (r *StatusRepository) Create(ctx context.Context, status *models.Status) error {
	if err := status.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id, err := insertReturningID(ctx, r.db,
		"INSERT INTO statuses (name, description) VALUES (?, ?) RETURNING id",
		status.Name, status.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert status: %w", err)
	}

	status.ID = id
	return nil
}

// Get retrieves a status by ID
func (r *StatusRepository) Get(ctx context.Context, id int64) (*models.Status, error) {
	return r.getBy(ctx, "id", id)
}

// GetByName retrieves a status by its unique name
func (r *StatusRepository) GetByName(ctx context.Context, name string) (*models.Status, error) {
	return r.getBy(ctx, "name", name)
}

func (r *StatusRepository) getBy(ctx context.Context, column string, value any) (*models.Status, error) {
	var status models.Status
	query := "SELECT id, name, description FROM statuses WHERE " + column + " = ?"
	if err := get(ctx, r.db, shared.ErrStatusNotFound, &status, query, value); err != nil {
		if errors.Is(err, shared.ErrStatusNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return &status, nil
}

// List retrieves all statuses ordered by ID
func (r *StatusRepository) List(ctx context.Context) ([]*models.Status, error) {
	var statuses []*models.Status
	if err := r.db.SelectContext(ctx, &statuses, "SELECT id, name, description FROM statuses ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	return statuses, nil
}
