package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/lbx/internal/formatter"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
	"github.com/urfave/cli/v3"
)

// parseID reads the positional asset id.
func parseID(cmd *cli.Command) (int64, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: asset id is required", shared.ErrMissingArgument)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: asset id %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// AddBook adds a book from flags.
func (r *Runner) AddBook(ctx context.Context, cmd *cli.Command) error {
	asset := models.NewBook(cmd.String("title"), cmd.String("author"), cmd.String("isbn"), cmd.String("dewey"))
	return r.addAsset(ctx, cmd, asset)
}

// AddVideo adds a video from flags.
func (r *Runner) AddVideo(ctx context.Context, cmd *cli.Command) error {
	asset := models.NewVideo(cmd.String("title"), cmd.String("director"))
	return r.addAsset(ctx, cmd, asset)
}

func (r *Runner) addAsset(ctx context.Context, cmd *cli.Command, asset *models.Asset) error {
	svc, err := r.open()
	if err != nil {
		return err
	}

	asset.Year = cmd.Int("year")
	asset.Cost = cmd.Float("cost")
	asset.NumberOfCopies = cmd.Int("copies")
	asset.ImageURL = cmd.String("image-url")

	if name := cmd.String("status"); name != "" {
		status, err := svc.Status(ctx, name)
		if err != nil {
			return err
		}
		if status == nil {
			return fmt.Errorf("%w: %q", shared.ErrStatusNotFound, name)
		}
		asset.Status = status
	}

	if id := cmd.Int64("branch"); id != 0 {
		branch, err := svc.Branch(ctx, id)
		if err != nil {
			return err
		}
		if branch == nil {
			return fmt.Errorf("%w: %d", shared.ErrBranchNotFound, id)
		}
		asset.Location = branch
	}

	if err := svc.Add(ctx, asset); err != nil {
		return fmt.Errorf("failed to add asset: %w", err)
	}

	r.logger.Info("asset added", "id", asset.ID, "kind", asset.Kind())
	return r.write(cmd, asset, func() error {
		return r.writePlain("✓ Added %s\n", formatter.AssetLine(asset))
	})
}

// ListAssets lists every asset, optionally filtered by kind.
func (r *Runner) ListAssets(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.open()
	if err != nil {
		return err
	}

	var kind models.Kind
	if raw := cmd.String("kind"); raw != "" {
		if kind, err = models.ParseKind(raw); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
		}
	}

	assets, err := svc.GetAll(ctx)
	if err != nil {
		return err
	}

	if kind != "" {
		filtered := make([]*models.Asset, 0, len(assets))
		for _, a := range assets {
			if a.Kind() == kind {
				filtered = append(filtered, a)
			}
		}
		assets = filtered
	}

	return r.write(cmd, assets, func() error {
		if len(assets) == 0 {
			return r.writePlain("No assets found\n")
		}
		for _, a := range assets {
			if err := r.writePlain("%s\n", formatter.AssetLine(a)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAsset shows one asset.
func (r *Runner) GetAsset(ctx context.Context, cmd *cli.Command) error {
	return r.withID(ctx, cmd, func(svc *services.AssetService, id int64) error {
		asset, err := svc.Get(ctx, id)
		if err != nil {
			return err
		}
		if asset == nil {
			return fmt.Errorf("%w: %d", shared.ErrAssetNotFound, id)
		}

		return r.write(cmd, asset, func() error {
			r.writePlain("%s\n", formatter.AssetLine(asset))
			r.writePlain("Year: %d\nCopies: %d\nCost: %.2f\n", asset.Year, asset.NumberOfCopies, asset.Cost)
			return r.writePlain("Location: %s\n", models.Shelf{Branch: asset.Location}.Name())
		})
	})
}

// AssetType prints "Book" or "Video".
func (r *Runner) AssetType(ctx context.Context, cmd *cli.Command) error {
	return r.withID(ctx, cmd, func(svc *services.AssetService, id int64) error {
		typ, err := svc.GetType(ctx, id)
		if err != nil {
			return err
		}
		return r.writeValue(cmd, "type", typ)
	})
}

// AssetKind prints the stored kind.
func (r *Runner) AssetKind(ctx context.Context, cmd *cli.Command) error {
	return r.withID(ctx, cmd, func(svc *services.AssetService, id int64) error {
		kind, err := svc.Kind(ctx, id)
		if err != nil {
			return err
		}
		return r.writeValue(cmd, "kind", string(kind))
	})
}

// AssetAuthorOrDirector prints the author or director.
func (r *Runner) AssetAuthorOrDirector(ctx context.Context, cmd *cli.Command) error {
	return r.withID(ctx, cmd, func(svc *services.AssetService, id int64) error {
		name, err := svc.GetAuthorOrDirector(ctx, id)
		if err != nil {
			return err
		}
		return r.writeValue(cmd, "author_or_director", name)
	})
}

// AssetIsbn prints the ISBN.
func (r *Runner) AssetIsbn(ctx context.Context, cmd *cli.Command) error {
	return r.withID(ctx, cmd, func(svc *services.AssetService, id int64) error {
		isbn, err := svc.GetIsbn(ctx, id)
		if err != nil {
			return err
		}
		return r.writeValue(cmd, "isbn", isbn)
	})
}

// AssetDewey prints the Dewey index.
func (r *Runner) AssetDewey(ctx context.Context, cmd *cli.Command) error {
	return r.withID(ctx, cmd, func(svc *services.AssetService, id int64) error {
		index, err := svc.GetDeweyIndex(ctx, id)
		if err != nil {
			return err
		}
		return r.writeValue(cmd, "dewey_index", index)
	})
}

// AssetLocation prints the branch an asset is shelved at.
func (r *Runner) AssetLocation(ctx context.Context, cmd *cli.Command) error {
	return r.withID(ctx, cmd, func(svc *services.AssetService, id int64) error {
		branch, err := svc.GetCurrentLocation(ctx, id)
		if err != nil {
			return err
		}

		return r.write(cmd, branch, func() error {
			if branch == nil {
				return r.writePlain("No location\n")
			}
			return r.writePlain("%s (#%d) %s\n", branch.Name, branch.ID, branch.Address)
		})
	})
}

// AssetTitle prints the title.
func (r *Runner) AssetTitle(ctx context.Context, cmd *cli.Command) error {
	return r.withID(ctx, cmd, func(svc *services.AssetService, id int64) error {
		title, ok, err := svc.GetTitle(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %d", shared.ErrAssetNotFound, id)
		}
		return r.writeValue(cmd, "title", title)
	})
}

// AssetCard prints the library card holding an asset.
func (r *Runner) AssetCard(ctx context.Context, cmd *cli.Command) error {
	return r.withID(ctx, cmd, func(svc *services.AssetService, id int64) error {
		card, err := svc.GetLibraryCardByAssetID(ctx, id)
		if err != nil {
			return err
		}

		return r.write(cmd, card, func() error {
			if card == nil {
				return r.writePlain("No library card holds asset %d\n", id)
			}
			return r.writePlain("Card #%d (fees %.2f, %d checkouts)\n", card.ID, card.Fees, len(card.Checkouts))
		})
	})
}

// DescribeAsset prints every derived fact about an asset.
func (r *Runner) DescribeAsset(ctx context.Context, cmd *cli.Command) error {
	return r.withID(ctx, cmd, func(svc *services.AssetService, id int64) error {
		desc, err := svc.Describe(ctx, id)
		if err != nil {
			return err
		}
		if desc == nil {
			return fmt.Errorf("%w: %d", shared.ErrAssetNotFound, id)
		}

		return r.write(cmd, desc, func() error {
			r.writePlainHeader(desc.Asset.Title)

			var b strings.Builder
			fmt.Fprintf(&b, "Type: %s\n", desc.Type)
			fmt.Fprintf(&b, "Author/Director: %s\n", desc.AuthorOrDirector)
			fmt.Fprintf(&b, "ISBN: %s\n", desc.ISBN)
			if desc.DeweyIndex != "" {
				fmt.Fprintf(&b, "Dewey Index: %s\n", desc.DeweyIndex)
			}
			fmt.Fprintf(&b, "Location: %s\n", models.Shelf{Branch: desc.Location}.Name())
			if desc.Card != nil {
				fmt.Fprintf(&b, "Library Card: #%d\n", desc.Card.ID)
			}
			return r.writePlain("%s", b.String())
		})
	})
}

func (r *Runner) withID(ctx context.Context, cmd *cli.Command, fn func(*services.AssetService, int64) error) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}

	svc, err := r.open()
	if err != nil {
		return err
	}
	return fn(svc, id)
}

// writeValue prints a single value, or {"name": value} with --json.
func (r *Runner) writeValue(cmd *cli.Command, name, value string) error {
	return r.write(cmd, map[string]string{name: value}, func() error {
		return r.writePlain("%s\n", value)
	})
}
