package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/lbx/internal/formatter"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
	th "github.com/desertthunder/lbx/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyCatalog fails shelf reads for one branch.
type flakyCatalog struct {
	services.Catalog
	failBranch int64
}

func (f *flakyCatalog) AssetsAtBranch(ctx context.Context, branchID int64) ([]*models.Asset, error) {
	if branchID == f.failBranch {
		return nil, errors.New("disk on fire")
	}
	return f.Catalog.AssetsAtBranch(ctx, branchID)
}

func seededCatalog(t *testing.T) *services.AssetService {
	t.Helper()
	svc := services.NewAssetService(th.NewTestDB(t), nil)
	_, err := services.SeedCatalog(context.Background(), svc, time.Now())
	require.NoError(t, err)
	return svc
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-ch:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "fetch_branches", FetchBranches.String())
	assert.Equal(t, "export_shelf", ExportShelf.String())
	assert.Equal(t, "count_assets", CountAssets.String())
	assert.Equal(t, "", Phase(99).String())
}

func TestSendProgress(t *testing.T) {
	e := NewExportEngine(nil, nil)

	t.Run("NilChannel", func(t *testing.T) {
		e.sendProgress(nil, fetchingBranchesUpdate())
	})

	t.Run("FullChannelDoesNotBlock", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 1)
		e.sendProgress(ch, fetchingBranchesUpdate())
		e.sendProgress(ch, fetchingAssetsUpdate())
		assert.Len(t, drain(ch), 1)
	})
}

func TestBulkExport(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name           string
		opts           BulkExportOpts
		catalog        func(*services.AssetService) services.Catalog
		validateResult func(t *testing.T, dir string, result *BulkExportResult)
	}{
		{
			name: "JSONAllBranches",
			opts: BulkExportOpts{Format: formatter.FormatJSON},
			validateResult: func(t *testing.T, dir string, result *BulkExportResult) {
				assert.Equal(t, 2, result.TotalShelves)
				assert.Equal(t, 2, result.SuccessfulExports)
				assert.Zero(t, result.FailedExports)
				require.Len(t, result.Results, 2)
				assert.Equal(t, "Main Library", result.Results[0].Name)
				assert.Equal(t, 2, result.Results[0].AssetCount)
				th.AssertFileExists(t, filepath.Join(dir, "1-main-library.json"))
				th.AssertFileExists(t, filepath.Join(dir, "2-eastside.json"))
			},
		},
		{
			name: "CSVWithUnshelved",
			opts: BulkExportOpts{Format: formatter.FormatCSV, Unshelved: true, NumWorkers: 50},
			validateResult: func(t *testing.T, dir string, result *BulkExportResult) {
				assert.Equal(t, 3, result.TotalShelves)
				require.Len(t, result.Results, 3)
				assert.Equal(t, int64(0), result.Results[0].BranchID)
				assert.Equal(t, "Unshelved", result.Results[0].Name)
				assert.Equal(t, 1, result.Results[0].AssetCount)
				th.AssertFileExists(t, filepath.Join(dir, "unshelved_assets.csv"))
				th.AssertFileExists(t, filepath.Join(dir, "2-eastside_metadata.json"))
			},
		},
		{
			name: "MarkdownSelectedBranch",
			opts: BulkExportOpts{Format: formatter.FormatMarkdown, BranchIDs: []int64{2}},
			validateResult: func(t *testing.T, dir string, result *BulkExportResult) {
				require.Len(t, result.Results, 1)
				assert.Equal(t, "Eastside", result.Results[0].Name)
				readme := th.MustReadFile(t, filepath.Join(dir, "2-eastside", "README.md"))
				assert.Contains(t, readme, "Stalker")
				assert.NotContains(t, readme, "Dune")
			},
		},
		{
			name: "Text",
			opts: BulkExportOpts{Format: formatter.FormatText},
			validateResult: func(t *testing.T, dir string, result *BulkExportResult) {
				content := th.MustReadFile(t, filepath.Join(dir, "1-main-library_assets.txt"))
				assert.Contains(t, content, "[Book] Dune - Frank Herbert (Checked Out)")
			},
		},
		{
			name: "PartialFailure",
			opts: BulkExportOpts{Format: formatter.FormatJSON},
			catalog: func(svc *services.AssetService) services.Catalog {
				return &flakyCatalog{Catalog: svc, failBranch: 1}
			},
			validateResult: func(t *testing.T, dir string, result *BulkExportResult) {
				assert.Equal(t, 1, result.SuccessfulExports)
				assert.Equal(t, 1, result.FailedExports)
				assert.False(t, result.Results[0].Success)
				assert.ErrorContains(t, result.Results[0].Error, "disk on fire")
				assert.True(t, result.Results[1].Success)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := seededCatalog(t)
			var catalog services.Catalog = svc
			if tt.catalog != nil {
				catalog = tt.catalog(svc)
			}

			dir := filepath.Join(t.TempDir(), "export")
			tt.opts.OutputDir = dir
			tt.opts.RateLimit = 1000

			progress := make(chan ProgressUpdate, 64)
			result, err := NewExportEngine(catalog, nil).BulkExport(ctx, progress, tt.opts)
			require.NoError(t, err)

			assert.Equal(t, filepath.Join(dir, "export_manifest.json"), result.ManifestPath)
			th.AssertFileExists(t, result.ManifestPath)
			assert.NotEmpty(t, drain(progress))

			tt.validateResult(t, dir, result)
		})
	}
}

func TestBulkExportManifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "export")
	result, err := NewExportEngine(seededCatalog(t), nil).BulkExport(context.Background(), nil, BulkExportOpts{
		Format:    formatter.FormatCSV,
		OutputDir: dir,
		RateLimit: 1000,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(result.ManifestPath)
	require.NoError(t, err)

	var m formatter.Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, formatter.FormatCSV, m.Format)
	assert.Equal(t, 2, m.TotalShelves)
	assert.Equal(t, 2, m.Successful)
	require.Len(t, m.Shelves, 2)
	assert.Len(t, m.Shelves[0].Files, 2)
}

func TestBulkExportErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("NilCatalog", func(t *testing.T) {
		_, err := NewExportEngine(nil, nil).BulkExport(ctx, nil, BulkExportOpts{})
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("UnknownBranch", func(t *testing.T) {
		_, err := NewExportEngine(seededCatalog(t), nil).BulkExport(ctx, nil, BulkExportOpts{
			OutputDir: t.TempDir(),
			BranchIDs: []int64{99},
		})
		assert.ErrorIs(t, err, shared.ErrBranchNotFound)
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		result, err := NewExportEngine(seededCatalog(t), nil).BulkExport(ctx, nil, BulkExportOpts{
			Format:    formatter.Format("xml"),
			OutputDir: t.TempDir(),
			RateLimit: 1000,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.FailedExports)
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		dir := filepath.Join(t.TempDir(), "export")
		_, err := NewExportEngine(seededCatalog(t), nil).BulkExport(cctx, nil, BulkExportOpts{OutputDir: dir})
		assert.ErrorIs(t, err, context.Canceled)
		assert.NoFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})
}

func TestInventory(t *testing.T) {
	ctx := context.Background()

	t.Run("Seeded", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 16)
		result, err := NewExportEngine(seededCatalog(t), nil).Inventory(ctx, progress)
		require.NoError(t, err)

		assert.Equal(t, 5, result.Total)
		assert.Equal(t, 3, result.ByKind[models.KindBook])
		assert.Equal(t, 2, result.ByKind[models.KindVideo])
		assert.Equal(t, 3, result.ByStatus["Available"])
		assert.Equal(t, 1, result.ByStatus["Lost"])
		assert.Equal(t, 2, result.ByBranch["Main Library"])
		assert.Equal(t, 1, result.ByBranch["Unshelved"])
		assert.Equal(t, []int64{1}, result.CheckedOut)

		updates := drain(progress)
		require.Len(t, updates, 6)
		assert.Equal(t, FetchAssets, updates[0].Phase)
		assert.Equal(t, CountAssets, updates[5].Phase)
	})

	t.Run("Empty", func(t *testing.T) {
		svc := services.NewAssetService(th.NewTestDB(t), nil)
		result, err := NewExportEngine(svc, nil).Inventory(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, result.Total)
		assert.Empty(t, result.CheckedOut)
	})

	t.Run("NilCatalog", func(t *testing.T) {
		_, err := NewExportEngine(nil, nil).Inventory(ctx, nil)
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})
}
