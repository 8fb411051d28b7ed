package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/repositories"
	"github.com/desertthunder/lbx/internal/shared"
)

const tracerName = "lbx/services"

// IsbnUnavailable is reported by [AssetService.GetIsbn] for assets that are not books.
const IsbnUnavailable = "N/A"

var _ Catalog = (*AssetService)(nil)

// AssetService mediates all access to asset records.
//
// A service built with [NewAssetService] runs each call on the pool and commits writes immediately.
// [AssetService.WithTx] hands out a copy bound to a single transaction.
type AssetService struct {
	db        *sqlx.DB
	assets    *repositories.AssetRepository
	statuses  *repositories.StatusRepository
	branches  *repositories.BranchRepository
	cards     *repositories.CardRepository
	checkouts *repositories.CheckoutRepository
	logger    *log.Logger
	tracer    trace.Tracer
}

// NewAssetService creates an AssetService over db. A nil logger discards output.
func NewAssetService(db *sqlx.DB, logger *log.Logger) *AssetService {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &AssetService{db: db, logger: logger, tracer: otel.Tracer(tracerName)}
	s.bind(db)
	return s
}

func (s *AssetService) bind(conn repositories.DBTX) {
	s.assets = repositories.NewAssetRepository(conn)
	s.statuses = repositories.NewStatusRepository(conn)
	s.branches = repositories.NewBranchRepository(conn)
	s.cards = repositories.NewCardRepository(conn)
	s.checkouts = repositories.NewCheckoutRepository(conn)
}

// WithTx runs fn with a service bound to one transaction, committing when fn returns nil.
//
// Calls on a service that is already bound to a transaction run fn in that transaction.
func (s *AssetService) WithTx(ctx context.Context, fn func(*AssetService) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	scoped := &AssetService{logger: s.logger, tracer: s.tracer}
	scoped.bind(tx)

	if err := fn(scoped); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *AssetService) start(ctx context.Context, op string, id int64) (context.Context, trace.Span) {
	s.logger.Debug(op, "id", id)
	return s.tracer.Start(ctx, "AssetService."+op, trace.WithAttributes(attribute.Int64("asset.id", id)))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Add persists a new book or video and sets its identifier.
//
// Nothing but the presence of a variant is checked; the store's constraints decide the rest.
func (s *AssetService) Add(ctx context.Context, asset *models.Asset) (err error) {
	ctx, span := s.start(ctx, "Add", 0)
	defer func() { end(span, err) }()

	if asset == nil || asset.Variant == nil {
		return shared.ErrUnknownVariant
	}

	if err = s.assets.Create(ctx, asset); err != nil {
		return err
	}

	span.SetAttributes(attribute.Int64("asset.id", asset.ID), attribute.String("asset.kind", string(asset.Kind())))
	s.logger.Info("asset added", "id", asset.ID, "kind", asset.Kind(), "title", asset.Title)
	return nil
}

// Get retrieves an asset with its status and location, or nil when no asset has id.
func (s *AssetService) Get(ctx context.Context, id int64) (asset *models.Asset, err error) {
	ctx, span := s.start(ctx, "Get", id)
	defer func() { end(span, err) }()

	asset, err = s.assets.Get(ctx, id)
	if errors.Is(err, shared.ErrAssetNotFound) {
		return nil, nil
	}
	return asset, err
}

// GetAll retrieves every asset with its status and location, ordered by id.
func (s *AssetService) GetAll(ctx context.Context) (assets []*models.Asset, err error) {
	ctx, span := s.start(ctx, "GetAll", 0)
	defer func() { end(span, err) }()

	return s.assets.List(ctx)
}

// GetType reports "Book" when a book has id and "Video" otherwise.
//
// An id that matches no asset at all is also reported as "Video"; use [AssetService.Kind]
// to tell the two apart.
func (s *AssetService) GetType(ctx context.Context, id int64) (typ string, err error) {
	ctx, span := s.start(ctx, "GetType", id)
	defer func() { end(span, err) }()

	isBook, err := s.assets.ExistsOfKind(ctx, id, models.KindBook)
	if err != nil {
		return "", err
	}

	if isBook {
		return models.KindBook.Label(), nil
	}
	return models.KindVideo.Label(), nil
}

// Kind reads the persisted variant tag of an asset.
//
// Returns [shared.ErrAssetNotFound] when no asset has id.
func (s *AssetService) Kind(ctx context.Context, id int64) (kind models.Kind, err error) {
	ctx, span := s.start(ctx, "Kind", id)
	defer func() { end(span, err) }()

	return s.assets.KindOf(ctx, id)
}

// GetAuthorOrDirector returns the author of a book, otherwise the director of a video.
//
// Unknown ids take the video path and yield "".
func (s *AssetService) GetAuthorOrDirector(ctx context.Context, id int64) (name string, err error) {
	ctx, span := s.start(ctx, "GetAuthorOrDirector", id)
	defer func() { end(span, err) }()

	typ, err := s.GetType(ctx, id)
	if err != nil {
		return "", err
	}

	if typ == models.KindBook.Label() {
		return s.author(ctx, id)
	}
	return s.director(ctx, id)
}

func (s *AssetService) author(ctx context.Context, id int64) (string, error) {
	asset, err := s.Get(ctx, id)
	if err != nil || asset == nil {
		return "", err
	}

	book, ok := asset.Book()
	if !ok {
		return "", fmt.Errorf("%w: asset %d is a %s, not a book", shared.ErrVariantMismatch, id, asset.Kind())
	}
	return book.Author, nil
}

func (s *AssetService) director(ctx context.Context, id int64) (string, error) {
	asset, err := s.Get(ctx, id)
	if err != nil || asset == nil {
		return "", err
	}

	video, ok := asset.Video()
	if !ok {
		return "", fmt.Errorf("%w: asset %d is a %s, not a video", shared.ErrVariantMismatch, id, asset.Kind())
	}
	return video.Director, nil
}

// GetDeweyIndex returns the Dewey index of a book, or "" for videos and unknown ids.
func (s *AssetService) GetDeweyIndex(ctx context.Context, id int64) (index string, err error) {
	ctx, span := s.start(ctx, "GetDeweyIndex", id)
	defer func() { end(span, err) }()

	asset, err := s.Get(ctx, id)
	if err != nil || asset == nil {
		return "", err
	}

	if book, ok := asset.Book(); ok {
		return book.DeweyIndex, nil
	}
	return "", nil
}

// GetIsbn returns the ISBN of a book, or [IsbnUnavailable] when [AssetService.GetType] does not report a book.
func (s *AssetService) GetIsbn(ctx context.Context, id int64) (isbn string, err error) {
	ctx, span := s.start(ctx, "GetIsbn", id)
	defer func() { end(span, err) }()

	typ, err := s.GetType(ctx, id)
	if err != nil {
		return "", err
	}
	if typ != models.KindBook.Label() {
		return IsbnUnavailable, nil
	}

	asset, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if asset == nil {
		return IsbnUnavailable, nil
	}

	book, ok := asset.Book()
	if !ok {
		return "", fmt.Errorf("%w: asset %d is a %s, not a book", shared.ErrVariantMismatch, id, asset.Kind())
	}
	return book.ISBN, nil
}

// GetCurrentLocation returns the branch an asset is shelved at.
//
// Returns nil when the asset does not exist or has no location.
func (s *AssetService) GetCurrentLocation(ctx context.Context, id int64) (branch *models.Branch, err error) {
	ctx, span := s.start(ctx, "GetCurrentLocation", id)
	defer func() { end(span, err) }()

	branch, err = s.assets.Location(ctx, id)
	if errors.Is(err, shared.ErrAssetNotFound) {
		return nil, nil
	}
	return branch, err
}

// GetTitle returns the title of an asset; ok is false when no asset has id.
func (s *AssetService) GetTitle(ctx context.Context, id int64) (title string, ok bool, err error) {
	ctx, span := s.start(ctx, "GetTitle", id)
	defer func() { end(span, err) }()

	title, err = s.assets.Title(ctx, id)
	switch {
	case errors.Is(err, shared.ErrAssetNotFound):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return title, true, nil
}

// GetLibraryCardByAssetID returns the card whose checkouts reference the asset, with its checkouts loaded.
//
// When several cards reference the asset the lowest-numbered one wins. Returns nil when none do.
func (s *AssetService) GetLibraryCardByAssetID(ctx context.Context, id int64) (card *models.Card, err error) {
	ctx, span := s.start(ctx, "GetLibraryCardByAssetID", id)
	defer func() { end(span, err) }()

	card, err = s.cards.FindByAssetID(ctx, id)
	if errors.Is(err, shared.ErrCardNotFound) {
		return nil, nil
	}
	return card, err
}

// Describe gathers the asset and its derived facts, or returns nil when no asset has id.
func (s *AssetService) Describe(ctx context.Context, id int64) (desc *Description, err error) {
	ctx, span := s.start(ctx, "Describe", id)
	defer func() { end(span, err) }()

	asset, err := s.Get(ctx, id)
	if err != nil || asset == nil {
		return nil, err
	}

	desc = &Description{Asset: asset}
	if desc.Type, err = s.GetType(ctx, id); err != nil {
		return nil, err
	}
	if desc.AuthorOrDirector, err = s.GetAuthorOrDirector(ctx, id); err != nil {
		return nil, err
	}
	if desc.ISBN, err = s.GetIsbn(ctx, id); err != nil {
		return nil, err
	}
	if desc.DeweyIndex, err = s.GetDeweyIndex(ctx, id); err != nil {
		return nil, err
	}
	if desc.Location, err = s.GetCurrentLocation(ctx, id); err != nil {
		return nil, err
	}
	if desc.Card, err = s.GetLibraryCardByAssetID(ctx, id); err != nil {
		return nil, err
	}

	return desc, nil
}

// Branches lists every branch ordered by id.
func (s *AssetService) Branches(ctx context.Context) (branches []*models.Branch, err error) {
	ctx, span := s.start(ctx, "Branches", 0)
	defer func() { end(span, err) }()

	return s.branches.List(ctx)
}

// Branch retrieves a branch, or nil when no branch has id.
func (s *AssetService) Branch(ctx context.Context, id int64) (branch *models.Branch, err error) {
	ctx, span := s.start(ctx, "Branch", id)
	defer func() { end(span, err) }()

	branch, err = s.branches.Get(ctx, id)
	if errors.Is(err, shared.ErrBranchNotFound) {
		return nil, nil
	}
	return branch, err
}

// Status retrieves a status by name, or nil when none matches.
func (s *AssetService) Status(ctx context.Context, name string) (status *models.Status, err error) {
	ctx, span := s.start(ctx, "Status", 0)
	defer func() { end(span, err) }()

	status, err = s.statuses.GetByName(ctx, name)
	if errors.Is(err, shared.ErrStatusNotFound) {
		return nil, nil
	}
	return status, err
}

// AssetsAtBranch lists the assets shelved at a branch; a zero branchID lists assets with no location.
func (s *AssetService) AssetsAtBranch(ctx context.Context, branchID int64) (assets []*models.Asset, err error) {
	ctx, span := s.start(ctx, "AssetsAtBranch", 0)
	defer func() { end(span, err) }()

	span.SetAttributes(attribute.Int64("branch.id", branchID))
	return s.assets.ListByBranch(ctx, branchID)
}
