package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// setupCatalog creates a status and a branch to hang assets off
func setupCatalog(t *testing.T, db DBTX) (*models.Status, *models.Branch) {
	t.Helper()
	ctx := context.Background()

	status := &models.Status{Name: "Available", Description: "On the shelf"}
	if err := NewStatusRepository(db).Create(ctx, status); err != nil {
		t.Fatalf("failed to create status: %v", err)
	}

	opened := time.Date(1998, time.June, 1, 0, 0, 0, 0, time.UTC)
	branch := &models.Branch{Name: "Main", Address: "1 Library Way", OpenDate: &opened}
	if err := NewBranchRepository(db).Create(ctx, branch); err != nil {
		t.Fatalf("failed to create branch: %v", err)
	}

	return status, branch
}

func TestAssetRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAssetRepository(db)
		book := models.NewBook("Dune", "Herbert", "123", "813")

		if err := repo.Create(ctx, book); err != nil {
			t.Fatalf("failed to create asset: %v", err)
		}

		if book.ID != 1 {
			t.Errorf("expected first asset to get id 1, got %d", book.ID)
		}

		video := models.NewVideo("Arrival", "Villeneuve")
		if err := repo.Create(ctx, video); err != nil {
			t.Fatalf("failed to create asset: %v", err)
		}

		if video.ID != 2 {
			t.Errorf("expected second asset to get id 2, got %d", video.ID)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		status, branch := setupCatalog(t, db)
		repo := NewAssetRepository(db)

		book := models.NewBook("Dune", "Herbert", "123", "813")
		book.Year = 1965
		book.Cost = 9.99
		book.Status = status
		book.Location = branch

		if err := repo.Create(ctx, book); err != nil {
			t.Fatalf("failed to create asset: %v", err)
		}

		retrieved, err := repo.Get(ctx, book.ID)
		if err != nil {
			t.Fatalf("failed to get asset: %v", err)
		}

		b, ok := retrieved.Book()
		if !ok {
			t.Fatalf("expected a book, got %q", retrieved.Kind())
		}

		if retrieved.Title != "Dune" || b.Author != "Herbert" || b.ISBN != "123" || b.DeweyIndex != "813" {
			t.Errorf("unexpected asset: %+v %+v", retrieved, b)
		}

		if retrieved.Year != 1965 || retrieved.Cost != 9.99 {
			t.Errorf("unexpected year/cost: %d %v", retrieved.Year, retrieved.Cost)
		}

		if retrieved.Status == nil || retrieved.Status.Name != "Available" {
			t.Errorf("expected status Available, got %+v", retrieved.Status)
		}

		if retrieved.Location == nil || retrieved.Location.Name != "Main" {
			t.Fatalf("expected location Main, got %+v", retrieved.Location)
		}

		if retrieved.Location.OpenDate == nil || retrieved.Location.OpenDate.Year() != 1998 {
			t.Errorf("expected branch open date in 1998, got %v", retrieved.Location.OpenDate)
		}
	})

	t.Run("Get Without Relations", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAssetRepository(db)
		video := models.NewVideo("Arrival", "Villeneuve")
		if err := repo.Create(ctx, video); err != nil {
			t.Fatalf("failed to create asset: %v", err)
		}

		retrieved, err := repo.Get(ctx, video.ID)
		if err != nil {
			t.Fatalf("failed to get asset: %v", err)
		}

		if retrieved.Status != nil || retrieved.Location != nil {
			t.Errorf("expected no relations, got %+v %+v", retrieved.Status, retrieved.Location)
		}

		v, ok := retrieved.Video()
		if !ok || v.Director != "Villeneuve" {
			t.Errorf("expected director Villeneuve, got %+v", v)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, branch := setupCatalog(t, db)
		repo := NewAssetRepository(db)

		assets := []*models.Asset{
			models.NewBook("Dune", "Herbert", "123", "813"),
			models.NewVideo("Arrival", "Villeneuve"),
			models.NewBook("Emma", "Austen", "456", "823"),
		}
		assets[0].Location = branch

		for _, asset := range assets {
			if err := repo.Create(ctx, asset); err != nil {
				t.Fatalf("failed to create asset: %v", err)
			}
		}

		retrieved, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list assets: %v", err)
		}

		if len(retrieved) != 3 {
			t.Fatalf("expected 3 assets, got %d", len(retrieved))
		}

		for i := range retrieved {
			if retrieved[i].ID != assets[i].ID {
				t.Errorf("expected assets ordered by id, got %d at %d", retrieved[i].ID, i)
			}
		}

		books, err := repo.ListByKind(ctx, models.KindBook)
		if err != nil {
			t.Fatalf("failed to list books: %v", err)
		}
		if len(books) != 2 {
			t.Errorf("expected 2 books, got %d", len(books))
		}

		shelved, err := repo.ListByBranch(ctx, branch.ID)
		if err != nil {
			t.Fatalf("failed to list by branch: %v", err)
		}
		if len(shelved) != 1 || shelved[0].Title != "Dune" {
			t.Errorf("expected only Dune at branch, got %d assets", len(shelved))
		}

		unshelved, err := repo.ListByBranch(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list unshelved: %v", err)
		}
		if len(unshelved) != 2 {
			t.Errorf("expected 2 unshelved assets, got %d", len(unshelved))
		}
	})

	t.Run("Kinds", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAssetRepository(db)
		book := models.NewBook("Dune", "Herbert", "123", "813")
		video := models.NewVideo("Arrival", "Villeneuve")
		for _, asset := range []*models.Asset{book, video} {
			if err := repo.Create(ctx, asset); err != nil {
				t.Fatalf("failed to create asset: %v", err)
			}
		}

		tc := []struct {
			id   int64
			kind models.Kind
			want bool
		}{
			{id: book.ID, kind: models.KindBook, want: true},
			{id: book.ID, kind: models.KindVideo, want: false},
			{id: video.ID, kind: models.KindVideo, want: true},
			{id: 99, kind: models.KindBook, want: false},
		}
		for _, tt := range tc {
			got, err := repo.ExistsOfKind(ctx, tt.id, tt.kind)
			if err != nil {
				t.Fatalf("ExistsOfKind() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExistsOfKind(%d, %s) = %v, want %v", tt.id, tt.kind, got, tt.want)
			}
		}

		kind, err := repo.KindOf(ctx, video.ID)
		if err != nil || kind != models.KindVideo {
			t.Errorf("KindOf() = %q, %v; want video", kind, err)
		}
	})

	t.Run("Title And Location", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, branch := setupCatalog(t, db)
		repo := NewAssetRepository(db)

		shelved := models.NewBook("Dune", "Herbert", "123", "813")
		shelved.Location = branch
		loose := models.NewVideo("Arrival", "Villeneuve")
		for _, asset := range []*models.Asset{shelved, loose} {
			if err := repo.Create(ctx, asset); err != nil {
				t.Fatalf("failed to create asset: %v", err)
			}
		}

		title, err := repo.Title(ctx, shelved.ID)
		if err != nil || title != "Dune" {
			t.Errorf("Title() = %q, %v", title, err)
		}

		location, err := repo.Location(ctx, shelved.ID)
		if err != nil {
			t.Fatalf("Location() error = %v", err)
		}
		if location == nil || location.ID != branch.ID || location.Address != "1 Library Way" {
			t.Errorf("unexpected location %+v", location)
		}

		location, err = repo.Location(ctx, loose.ID)
		if err != nil || location != nil {
			t.Errorf("expected no location for loose asset, got %+v, %v", location, err)
		}
	})
}

func TestCardRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCardRepository(db)
		card := &models.Card{Fees: 1.5}

		if err := repo.Create(ctx, card); err != nil {
			t.Fatalf("failed to create card: %v", err)
		}

		if card.Created.IsZero() {
			t.Error("created should default to now")
		}

		retrieved, err := repo.Get(ctx, card.ID)
		if err != nil {
			t.Fatalf("failed to get card: %v", err)
		}

		if retrieved.Fees != 1.5 {
			t.Errorf("expected fees 1.5, got %v", retrieved.Fees)
		}

		if retrieved.Checkouts == nil || len(retrieved.Checkouts) != 0 {
			t.Errorf("expected empty checkouts, got %v", retrieved.Checkouts)
		}
	})

	t.Run("FindByAssetID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		assets := NewAssetRepository(db)
		cards := NewCardRepository(db)
		checkouts := NewCheckoutRepository(db)

		held := models.NewBook("Dune", "Herbert", "123", "813")
		free := models.NewVideo("Arrival", "Villeneuve")
		for _, asset := range []*models.Asset{held, free} {
			if err := assets.Create(ctx, asset); err != nil {
				t.Fatalf("failed to create asset: %v", err)
			}
		}

		empty := &models.Card{}
		holder := &models.Card{}
		for _, card := range []*models.Card{empty, holder} {
			if err := cards.Create(ctx, card); err != nil {
				t.Fatalf("failed to create card: %v", err)
			}
		}

		since := time.Now().UTC().Add(-time.Hour)
		checkout := &models.Checkout{AssetID: held.ID, CardID: holder.ID, Since: since, Until: since.Add(14 * 24 * time.Hour)}
		if err := checkouts.Create(ctx, checkout); err != nil {
			t.Fatalf("failed to create checkout: %v", err)
		}

		card, err := cards.FindByAssetID(ctx, held.ID)
		if err != nil {
			t.Fatalf("FindByAssetID() error = %v", err)
		}

		if card.ID != holder.ID {
			t.Errorf("expected card %d, got %d", holder.ID, card.ID)
		}

		if len(card.Checkouts) != 1 || card.Checkouts[0].AssetID != held.ID {
			t.Errorf("expected the checkout to be loaded, got %+v", card.Checkouts)
		}

		if _, err := cards.FindByAssetID(ctx, free.ID); err != shared.ErrCardNotFound {
			t.Errorf("expected ErrCardNotFound, got %v", err)
		}

		all, err := cards.List(ctx)
		if err != nil {
			t.Fatalf("failed to list cards: %v", err)
		}
		if len(all) != 2 || len(all[1].Checkouts) != 1 {
			t.Errorf("expected two cards with the second holding one checkout, got %+v", all)
		}
	})
}

func TestStatusAndBranchRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	status, branch := setupCatalog(t, db)

	statuses := NewStatusRepository(db)
	byName, err := statuses.GetByName(ctx, "Available")
	if err != nil || byName.ID != status.ID {
		t.Errorf("GetByName() = %+v, %v", byName, err)
	}

	list, err := statuses.List(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("List() = %d statuses, %v", len(list), err)
	}

	branches := NewBranchRepository(db)
	got, err := branches.Get(ctx, branch.ID)
	if err != nil || got.Name != "Main" {
		t.Errorf("Get() = %+v, %v", got, err)
	}

	all, err := branches.List(ctx)
	if err != nil || len(all) != 1 {
		t.Errorf("List() = %d branches, %v", len(all), err)
	}
}

func TestTransaction(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	if err := NewAssetRepository(tx).Create(ctx, models.NewBook("Dune", "Herbert", "123", "813")); err != nil {
		t.Fatalf("failed to create asset in transaction: %v", err)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("failed to rollback: %v", err)
	}

	assets, err := NewAssetRepository(db).List(ctx)
	if err != nil {
		t.Fatalf("failed to list assets: %v", err)
	}
	if len(assets) != 0 {
		t.Errorf("rolled back insert should not be visible, got %d assets", len(assets))
	}
}
