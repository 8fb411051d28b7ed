package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

var _ models.Repository[*models.Checkout] = (*CheckoutRepository)(nil)

const checkoutColumns = "id, library_asset_id, library_card_id, since, until"

// CheckoutRepository implements models.Repository[*models.Checkout]
type CheckoutRepository struct {
	db DBTX
}

// NewCheckoutRepository creates a new CheckoutRepository with the given database handle
func NewCheckoutRepository(db DBTX) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

// Create inserts a new checkout and sets the generated ID.
//
// A zero Since defaults to now.
func (r *CheckoutRepository) Create(ctx context.Context, checkout *models.Checkout) error {
	if checkout.Since.IsZero() {
		checkout.Since = time.Now().UTC()
	}
	if checkout.Until.IsZero() {
		checkout.Until = checkout.Since
	}

	if err := checkout.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO checkouts (library_asset_id, library_card_id, since, until)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`

	id, err := insertReturningID(ctx, r.db, query, checkout.AssetID, checkout.CardID, checkout.Since, checkout.Until)
	if err != nil {
		return fmt.Errorf("failed to insert checkout: %w", err)
	}

	checkout.ID = id
	return nil
}

// Get retrieves a checkout by ID
func (r *CheckoutRepository) Get(ctx context.Context, id int64) (*models.Checkout, error) {
	var checkout models.Checkout
	query := "SELECT " + checkoutColumns + " FROM checkouts WHERE id = ?"
	if err := get(ctx, r.db, shared.ErrCheckoutNotFound, &checkout, query, id); err != nil {
		if errors.Is(err, shared.ErrCheckoutNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get checkout: %w", err)
	}
	return &checkout, nil
}

// List retrieves all checkouts ordered by ID
func (r *CheckoutRepository) List(ctx context.Context) ([]*models.Checkout, error) {
	var checkouts []*models.Checkout
	query := "SELECT " + checkoutColumns + " FROM checkouts ORDER BY id ASC"
	if err := r.db.SelectContext(ctx, &checkouts, query); err != nil {
		return nil, fmt.Errorf("failed to query checkouts: %w", err)
	}
	return checkouts, nil
}

// ListByCard retrieves the checkouts on a card ordered by ID
func (r *CheckoutRepository) ListByCard(ctx context.Context, cardID int64) ([]models.Checkout, error) {
	checkouts := []models.Checkout{}
	query := r.db.Rebind("SELECT " + checkoutColumns + " FROM checkouts WHERE library_card_id = ? ORDER BY id ASC")
	if err := r.db.SelectContext(ctx, &checkouts, query, cardID); err != nil {
		return nil, fmt.Errorf("failed to query checkouts for card %d: %w", cardID, err)
	}
	return checkouts, nil
}
