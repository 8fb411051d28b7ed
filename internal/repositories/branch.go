package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

var _ models.Repository[*models.Branch] = (*BranchRepository)(nil)

const branchColumns = "id, name, address, telephone, description, open_date, image_url"

// BranchRepository implements models.Repository[*models.Branch]
type BranchRepository struct {
	db DBTX
}

// NewBranchRepository creates a new BranchRepository with the given database handle
func NewBranchRepository(db DBTX) *BranchRepository {
	return &BranchRepository{db: db}
}

// Create inserts a new branch and sets the generated ID
func (r *BranchRepository) Create(ctx context.Context, branch *models.Branch) error {
	if err := branch.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var openDate any
	if branch.OpenDate != nil {
		openDate = branch.OpenDate.UTC()
	}

	query := `
		INSERT INTO library_branches (name, address, telephone, description, open_date, image_url)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	id, err := insertReturningID(ctx, r.db, query,
		branch.Name,
		branch.Address,
		branch.Telephone,
		branch.Description,
		openDate,
		branch.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert branch: %w", err)
	}

	branch.ID = id
	return nil
}

// Get retrieves a branch by ID
func (r *BranchRepository) Get(ctx context.Context, id int64) (*models.Branch, error) {
	var branch models.Branch
	query := "SELECT " + branchColumns + " FROM library_branches WHERE id = ?"
	if err := get(ctx, r.db, shared.ErrBranchNotFound, &branch, query, id); err != nil {
		if errors.Is(err, shared.ErrBranchNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get branch: %w", err)
	}
	return &branch, nil
}

// List retrieves all branches ordered by ID
func (r *BranchRepository) List(ctx context.Context) ([]*models.Branch, error) {
	var branches []*models.Branch
	query := "SELECT " + branchColumns + " FROM library_branches ORDER BY id ASC"
	if err := r.db.SelectContext(ctx, &branches, query); err != nil {
		return nil, fmt.Errorf("failed to query branches: %w", err)
	}
	return branches, nil
}
