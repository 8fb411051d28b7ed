// package services implements the catalog operations on top of the repositories
package services

import (
	"context"

	"github.com/desertthunder/lbx/internal/models"
)

// Catalog defines the operations on library assets shared by the CLI, the HTTP server, the TUI and the export tasks.
//
// Lookups by id report a missing asset as an absent result (nil, "" or false) rather than an error.
type Catalog interface {
	// Add persists a new asset and assigns its identifier.
	Add(ctx context.Context, asset *models.Asset) error

	// Get retrieves an asset with its status and location.
	Get(ctx context.Context, id int64) (*models.Asset, error)

	// GetAll retrieves every asset ordered by identifier.
	GetAll(ctx context.Context) ([]*models.Asset, error)

	// GetType reports "Book" for books and "Video" for everything else, including unknown ids.
	GetType(ctx context.Context, id int64) (string, error)

	// Kind reads the persisted variant tag and fails with shared.ErrAssetNotFound for unknown ids.
	Kind(ctx context.Context, id int64) (models.Kind, error)

	GetAuthorOrDirector(ctx context.Context, id int64) (string, error)
	GetDeweyIndex(ctx context.Context, id int64) (string, error)
	GetIsbn(ctx context.Context, id int64) (string, error)
	GetCurrentLocation(ctx context.Context, id int64) (*models.Branch, error)
	GetTitle(ctx context.Context, id int64) (string, bool, error)
	GetLibraryCardByAssetID(ctx context.Context, id int64) (*models.Card, error)

	// Describe gathers every derived fact about an asset in one call.
	Describe(ctx context.Context, id int64) (*Description, error)

	Branches(ctx context.Context) ([]*models.Branch, error)
	AssetsAtBranch(ctx context.Context, branchID int64) ([]*models.Asset, error)
}

// Description is an asset together with the facts derived from it
type Description struct {
	Asset            *models.Asset  `json:"asset"`
	Type             string         `json:"type"`
	AuthorOrDirector string         `json:"author_or_director"`
	ISBN             string         `json:"isbn"`
	DeweyIndex       string         `json:"dewey_index"`
	Location         *models.Branch `json:"location"`
	Card             *models.Card   `json:"card"`
}
