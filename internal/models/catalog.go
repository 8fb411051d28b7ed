package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/lbx/internal/shared"
)

// Status describes the availability of an asset ("Available", "Checked Out", ...).
type Status struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
}

func (s *Status) Key() int64 { return s.ID }

func (s *Status) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: status name is required", shared.ErrInvalidInput)
	}
	return nil
}

// Branch is a physical library location.
type Branch struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Address     string     `db:"address" json:"address,omitempty"`
	Telephone   string     `db:"telephone" json:"telephone,omitempty"`
	Description string     `db:"description" json:"description,omitempty"`
	OpenDate    *time.Time `db:"open_date" json:"open_date,omitempty"`
	ImageURL    string     `db:"image_url" json:"image_url,omitempty"`
}

func (b *Branch) Key() int64 { return b.ID }

func (b *Branch) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: branch name is required", shared.ErrInvalidInput)
	}
	return nil
}

// Card is a patron's borrowing card and its loans.
type Card struct {
	ID        int64      `db:"id" json:"id"`
	Fees      float64    `db:"fees" json:"fees"`
	Created   time.Time  `db:"created" json:"created"`
	Checkouts []Checkout `db:"-" json:"checkouts"`
}

func (c *Card) Key() int64 { return c.ID }

func (c *Card) Validate() error {
	if c.Fees < 0 {
		return fmt.Errorf("%w: card fees cannot be negative", shared.ErrInvalidInput)
	}
	return nil
}

// Holds reports whether any checkout on the card references assetID.
func (c *Card) Holds(assetID int64) bool {
	for _, co := range c.Checkouts {
		if co.AssetID == assetID {
			return true
		}
	}
	return false
}

// Checkout links a [Card] to an [Asset] for a loan period.
type Checkout struct {
	ID      int64     `db:"id" json:"id"`
	AssetID int64     `db:"library_asset_id" json:"asset_id"`
	CardID  int64     `db:"library_card_id" json:"card_id"`
	Since   time.Time `db:"since" json:"since"`
	Until   time.Time `db:"until" json:"until"`
}

func (c *Checkout) Key() int64 { return c.ID }

func (c *Checkout) Validate() error {
	switch {
	case c.AssetID <= 0:
		return fmt.Errorf("%w: checkout requires an asset", shared.ErrInvalidInput)
	case c.CardID <= 0:
		return fmt.Errorf("%w: checkout requires a card", shared.ErrInvalidInput)
	case !c.Until.IsZero() && c.Until.Before(c.Since):
		return fmt.Errorf("%w: checkout ends before it starts", shared.ErrInvalidInput)
	}
	return nil
}

// Active reports whether the loan covers t.
func (c Checkout) Active(t time.Time) bool {
	return !t.Before(c.Since) && t.Before(c.Until)
}

// Shelf groups the assets held at one branch. A nil Branch collects assets with no location.
type Shelf struct {
	Branch *Branch  `json:"branch"`
	Assets []*Asset `json:"assets"`
}

// Name returns the branch name, or "Unshelved" for assets with no location.
func (s Shelf) Name() string {
	if s.Branch == nil {
		return "Unshelved"
	}
	return s.Branch.Name
}

// BranchID returns the branch id, or zero for unshelved assets.
func (s Shelf) BranchID() int64 {
	if s.Branch == nil {
		return 0
	}
	return s.Branch.ID
}
