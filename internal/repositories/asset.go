package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

var _ models.Repository[*models.Asset] = (*AssetRepository)(nil)

// AssetRepository implements models.Repository[*models.Asset] over the library_assets table.
//
// Reads join the status and location relations so returned assets are fully populated.
type AssetRepository struct {
	db DBTX
}

// NewAssetRepository creates a new AssetRepository with the given database handle
func NewAssetRepository(db DBTX) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetSelect = `
	SELECT a.id, a.kind, a.title, a.year, a.cost, a.image_url, a.number_of_copies,
		a.author, a.isbn, a.dewey_index, a.director,
		a.status_id, s.name AS status_name, s.description AS status_description,
		a.location_id, b.name AS branch_name, b.address AS branch_address, b.telephone AS branch_telephone,
		b.description AS branch_description, b.open_date AS branch_open_date, b.image_url AS branch_image_url
	FROM library_assets a
	LEFT JOIN statuses s ON s.id = a.status_id
	LEFT JOIN library_branches b ON b.id = a.location_id
`

// assetRow is the flattened result of [assetSelect].
type assetRow struct {
	ID             int64   `db:"id"`
	Kind           string  `db:"kind"`
	Title          string  `db:"title"`
	Year           int     `db:"year"`
	Cost           float64 `db:"cost"`
	ImageURL       string  `db:"image_url"`
	NumberOfCopies int     `db:"number_of_copies"`

	Author     sql.NullString `db:"author"`
	ISBN       sql.NullString `db:"isbn"`
	DeweyIndex sql.NullString `db:"dewey_index"`
	Director   sql.NullString `db:"director"`

	StatusID          sql.NullInt64  `db:"status_id"`
	StatusName        sql.NullString `db:"status_name"`
	StatusDescription sql.NullString `db:"status_description"`

	LocationID        sql.NullInt64  `db:"location_id"`
	BranchName        sql.NullString `db:"branch_name"`
	BranchAddress     sql.NullString `db:"branch_address"`
	BranchTelephone   sql.NullString `db:"branch_telephone"`
	BranchDescription sql.NullString `db:"branch_description"`
	BranchOpenDate    sql.NullTime   `db:"branch_open_date"`
	BranchImageURL    sql.NullString `db:"branch_image_url"`
}

func (r assetRow) toAsset() (*models.Asset, error) {
	asset := &models.Asset{
		ID:             r.ID,
		Title:          r.Title,
		Year:           r.Year,
		Cost:           r.Cost,
		ImageURL:       r.ImageURL,
		NumberOfCopies: r.NumberOfCopies,
	}

	switch models.Kind(r.Kind) {
	case models.KindBook:
		asset.Variant = models.Book{Author: r.Author.String, ISBN: r.ISBN.String, DeweyIndex: r.DeweyIndex.String}
	case models.KindVideo:
		asset.Variant = models.Video{Director: r.Director.String}
	default:
		return nil, fmt.Errorf("asset %d: %w: %q", r.ID, shared.ErrUnknownVariant, r.Kind)
	}

	if r.StatusID.Valid {
		asset.Status = &models.Status{ID: r.StatusID.Int64, Name: r.StatusName.String, Description: r.StatusDescription.String}
	}

	if r.LocationID.Valid {
		asset.Location = r.branch()
	}

	return asset, nil
}

func (r assetRow) branch() *models.Branch {
	b := &models.Branch{
		ID:          r.LocationID.Int64,
		Name:        r.BranchName.String,
		Address:     r.BranchAddress.String,
		Telephone:   r.BranchTelephone.String,
		Description: r.BranchDescription.String,
		ImageURL:    r.BranchImageURL.String,
	}
	if r.BranchOpenDate.Valid {
		t := r.BranchOpenDate.Time
		b.OpenDate = &t
	}
	return b
}

// Create inserts a new asset, writing the variant tag and its fields, and sets the generated ID.
//
// Only the variant is checked here. Empty titles and dangling relations are rejected by the store.
func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if err := asset.Validate(); err != nil {
		return err
	}

	var author, isbn, dewey, director any
	switch v := asset.Variant.(type) {
	case models.Book:
		author, isbn, dewey = v.Author, v.ISBN, v.DeweyIndex
	case models.Video:
		director = v.Director
	}

	var statusID, locationID int64
	if asset.Status != nil {
		statusID = asset.Status.ID
	}
	if asset.Location != nil {
		locationID = asset.Location.ID
	}

	query := `
		INSERT INTO library_assets (kind, title, year, cost, image_url, number_of_copies, status_id, location_id, author, isbn, dewey_index, director)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	id, err := insertReturningID(ctx, r.db, query,
		string(asset.Kind()),
		asset.Title,
		asset.Year,
		asset.Cost,
		asset.ImageURL,
		asset.NumberOfCopies,
		nullableID(statusID),
		nullableID(locationID),
		author,
		isbn,
		dewey,
		director,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}

	asset.ID = id
	return nil
}

// Get retrieves an asset by ID with its status and location
func (r *AssetRepository) Get(ctx context.Context, id int64) (*models.Asset, error) {
	var row assetRow
	if err := get(ctx, r.db, shared.ErrAssetNotFound, &row, assetSelect+" WHERE a.id = ?", id); err != nil {
		if errors.Is(err, shared.ErrAssetNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get asset %d: %w", id, err)
	}
	return row.toAsset()
}

// List retrieves every asset ordered by ID
func (r *AssetRepository) List(ctx context.Context) ([]*models.Asset, error) {
	return r.list(ctx, assetSelect+" ORDER BY a.id ASC")
}

// ListByBranch retrieves the assets shelved at branchID ordered by ID.
//
// A zero branchID selects assets with no location.
func (r *AssetRepository) ListByBranch(ctx context.Context, branchID int64) ([]*models.Asset, error) {
	if branchID == 0 {
		return r.list(ctx, assetSelect+" WHERE a.location_id IS NULL ORDER BY a.id ASC")
	}
	return r.list(ctx, assetSelect+" WHERE a.location_id = ? ORDER BY a.id ASC", branchID)
}

// ListByKind retrieves every asset of kind ordered by ID
func (r *AssetRepository) ListByKind(ctx context.Context, kind models.Kind) ([]*models.Asset, error) {
	return r.list(ctx, assetSelect+" WHERE a.kind = ? ORDER BY a.id ASC", string(kind))
}

func (r *AssetRepository) list(ctx context.Context, query string, args ...any) ([]*models.Asset, error) {
	var rows []assetRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}

	assets := make([]*models.Asset, 0, len(rows))
	for _, row := range rows {
		asset, err := row.toAsset()
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	return assets, nil
}

// ExistsOfKind reports whether an asset with id and the given kind exists
func (r *AssetRepository) ExistsOfKind(ctx context.Context, id int64, kind models.Kind) (bool, error) {
	var exists bool
	query := r.db.Rebind("SELECT EXISTS(SELECT 1 FROM library_assets WHERE id = ? AND kind = ?)")
	if err := r.db.QueryRowxContext(ctx, query, id, string(kind)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check asset kind: %w", err)
	}
	return exists, nil
}

// KindOf reads the persisted variant tag of an asset
func (r *AssetRepository) KindOf(ctx context.Context, id int64) (models.Kind, error) {
	var kind string
	if err := get(ctx, r.db, shared.ErrAssetNotFound, &kind, "SELECT kind FROM library_assets WHERE id = ?", id); err != nil {
		if errors.Is(err, shared.ErrAssetNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to get asset kind: %w", err)
	}
	return models.Kind(kind), nil
}

// Title reads the title of an asset
func (r *AssetRepository) Title(ctx context.Context, id int64) (string, error) {
	var title string
	if err := get(ctx, r.db, shared.ErrAssetNotFound, &title, "SELECT title FROM library_assets WHERE id = ?", id); err != nil {
		if errors.Is(err, shared.ErrAssetNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to get asset title: %w", err)
	}
	return title, nil
}

// Location resolves the branch an asset is shelved at without touching its status.
//
// Returns [shared.ErrAssetNotFound] when the asset does not exist and a nil branch when it has no location.
func (r *AssetRepository) Location(ctx context.Context, id int64) (*models.Branch, error) {
	query := `
		SELECT a.location_id, b.name AS branch_name, b.address AS branch_address, b.telephone AS branch_telephone,
			b.description AS branch_description, b.open_date AS branch_open_date, b.image_url AS branch_image_url
		FROM library_assets a
		LEFT JOIN library_branches b ON b.id = a.location_id
		WHERE a.id = ?
	`

	var row assetRow
	if err := get(ctx, r.db, shared.ErrAssetNotFound, &row, query, id); err != nil {
		if errors.Is(err, shared.ErrAssetNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get asset location: %w", err)
	}

	if !row.LocationID.Valid {
		return nil, nil
	}
	return row.branch(), nil
}
