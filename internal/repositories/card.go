package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

var _ models.Repository[*models.Card] = (*CardRepository)(nil)

// CardRepository implements models.Repository[*models.Card].
//
// Cards are always returned with their checkouts loaded.
type CardRepository struct {
	db        DBTX
	checkouts *CheckoutRepository
}

// NewCardRepository creates a new CardRepository with the given database handle
func NewCardRepository(db DBTX) *CardRepository {
	return &CardRepository{db: db, checkouts: NewCheckoutRepository(db)}
}

// Create inserts a new card and sets the generated ID; a zero Created is set to now
func (r *CardRepository) Create(ctx context.Context, card *models.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if card.Created.IsZero() {
		card.Created = time.Now().UTC()
	}

	id, err := insertReturningID(ctx, r.db,
		"INSERT INTO library_cards (fees, created) VALUES (?, ?) RETURNING id",
		card.Fees, card.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card: %w", err)
	}

	card.ID = id
	return nil
}

// Get retrieves a card by ID with its checkouts
func (r *CardRepository) Get(ctx context.Context, id int64) (*models.Card, error) {
	var card models.Card
	if err := get(ctx, r.db, shared.ErrCardNotFound, &card, "SELECT id, fees, created FROM library_cards WHERE id = ?", id); err != nil {
		if errors.Is(err, shared.ErrCardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return r.withCheckouts(ctx, &card)
}

// List retrieves all cards ordered by ID with their checkouts
func (r *CardRepository) List(ctx context.Context) ([]*models.Card, error) {
	var cards []*models.Card
	if err := r.db.SelectContext(ctx, &cards, "SELECT id, fees, created FROM library_cards ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}

	for _, card := range cards {
		if _, err := r.withCheckouts(ctx, card); err != nil {
			return nil, err
		}
	}

	return cards, nil
}

// FindByAssetID returns the lowest-numbered card with a checkout referencing assetID.
//
// Returns [shared.ErrCardNotFound] when no card holds the asset.
func (r *CardRepository) FindByAssetID(ctx context.Context, assetID int64) (*models.Card, error) {
	query := `
		SELECT c.id, c.fees, c.created
		FROM library_cards c
		WHERE EXISTS (
			SELECT 1 FROM checkouts co
			WHERE co.library_card_id = c.id AND co.library_asset_id = ?
		)
		ORDER BY c.id ASC
		LIMIT 1
	`

	var card models.Card
	if err := get(ctx, r.db, shared.ErrCardNotFound, &card, query, assetID); err != nil {
		if errors.Is(err, shared.ErrCardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find card by asset: %w", err)
	}

	return r.withCheckouts(ctx, &card)
}

func (r *CardRepository) withCheckouts(ctx context.Context, card *models.Card) (*models.Card, error) {
	checkouts, err := r.checkouts.ListByCard(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	card.Checkouts = checkouts
	return card, nil
}
