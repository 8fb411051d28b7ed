package services

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

// SeedSummary counts the records written by [SeedCatalog].
type SeedSummary struct {
	Statuses  int `json:"statuses"`
	Branches  int `json:"branches"`
	Assets    int `json:"assets"`
	Cards     int `json:"cards"`
	Checkouts int `json:"checkouts"`
}

type seedAsset struct {
	asset  *models.Asset
	status string
	branch int
}

// SeedCatalog loads a demo catalog in one transaction.
//
// Fails with [shared.ErrCatalogNotEmpty] when any asset already exists.
func SeedCatalog(ctx context.Context, s *AssetService, now time.Time) (*SeedSummary, error) {
	summary := &SeedSummary{}

	err := s.WithTx(ctx, func(tx *AssetService) error {
		existing, err := tx.assets.List(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return shared.ErrCatalogNotEmpty
		}

		statuses := map[string]*models.Status{}
		for _, st := range []*models.Status{
			{Name: "Available", Description: "On the shelf"},
			{Name: "Checked Out", Description: "On loan to a patron"},
			{Name: "Lost", Description: "Reported missing"},
		} {
			if err := tx.statuses.Create(ctx, st); err != nil {
				return err
			}
			statuses[st.Name] = st
			summary.Statuses++
		}

		mainOpened := time.Date(1998, time.June, 1, 0, 0, 0, 0, time.UTC)
		eastOpened := time.Date(2012, time.March, 15, 0, 0, 0, 0, time.UTC)
		branches := []*models.Branch{
			{Name: "Main Library", Address: "100 Library Way", Telephone: "555-0100", Description: "Central branch", OpenDate: &mainOpened},
			{Name: "Eastside", Address: "42 East Ave", Telephone: "555-0142", Description: "Neighbourhood branch", OpenDate: &eastOpened},
		}
		for _, b := range branches {
			if err := tx.branches.Create(ctx, b); err != nil {
				return err
			}
			summary.Branches++
		}

		catalog := []seedAsset{
			{asset: withDetails(models.NewBook("Dune", "Frank Herbert", "9780441172719", "813.54"), 1965, 9.99), status: "Checked Out", branch: 0},
			{asset: withDetails(models.NewVideo("Arrival", "Denis Villeneuve"), 2016, 19.99), status: "Available", branch: 0},
			{asset: withDetails(models.NewBook("Emma", "Jane Austen", "9780141439587", "823.7"), 1815, 7.5), status: "Available", branch: 1},
			{asset: withDetails(models.NewVideo("Stalker", "Andrei Tarkovsky"), 1979, 24.0), status: "Available", branch: 1},
			{asset: withDetails(models.NewBook("The Left Hand of Darkness", "Ursula K. Le Guin", "9780441478125", "813.54"), 1969, 8.99), status: "Lost", branch: -1},
		}

		var checkedOut *models.Asset
		for _, item := range catalog {
			item.asset.Status = statuses[item.status]
			if item.branch >= 0 {
				item.asset.Location = branches[item.branch]
			}
			if err := tx.Add(ctx, item.asset); err != nil {
				return fmt.Errorf("failed to seed %q: %w", item.asset.Title, err)
			}
			if item.status == "Checked Out" {
				checkedOut = item.asset
			}
			summary.Assets++
		}

		card := &models.Card{Created: now.UTC()}
		if err := tx.cards.Create(ctx, card); err != nil {
			return err
		}
		summary.Cards++

		checkout := &models.Checkout{
			AssetID: checkedOut.ID,
			CardID:  card.ID,
			Since:   now.UTC(),
			Until:   now.UTC().Add(21 * 24 * time.Hour),
		}
		if err := tx.checkouts.Create(ctx, checkout); err != nil {
			return err
		}
		summary.Checkouts++

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("catalog seeded", "assets", summary.Assets, "branches", summary.Branches)
	return summary, nil
}

func withDetails(a *models.Asset, year int, cost float64) *models.Asset {
	a.Year = year
	a.Cost = cost
	return a
}
