// package tasks runs long-lived catalog jobs (shelf exports, inventory reports) with progress reporting.
package tasks

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
)

// ShelfExportResult is the outcome of exporting a single shelf.
type ShelfExportResult struct {
	BranchID   int64    // Zero for unshelved assets
	Name       string   // Branch name, or "Unshelved"
	AssetCount int      // Assets on the shelf
	Success    bool     // Whether every file was written
	Files      []string // Files written for this shelf
	Error      error    // Failure cause when Success is false
}

// BulkExportResult summarizes a [ExportEngine.BulkExport] run.
type BulkExportResult struct {
	TotalShelves      int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []ShelfExportResult // Ordered by branch id, unshelved first
}

// InventoryResult tallies the catalog by kind, status and branch.
type InventoryResult struct {
	Total      int                 `json:"total"`
	ByKind     map[models.Kind]int `json:"by_kind"`
	ByStatus   map[string]int      `json:"by_status"`
	ByBranch   map[string]int      `json:"by_branch"`
	CheckedOut []int64             `json:"checked_out"`
}

// ExportEngine runs catalog jobs against a [services.Catalog].
type ExportEngine struct {
	catalog services.Catalog
	logger  *log.Logger
}

// NewExportEngine creates an engine over catalog. A nil logger discards output.
func NewExportEngine(catalog services.Catalog, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ExportEngine{catalog: catalog, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Inventory walks every asset once and tallies it by kind, status and branch.
//
// An asset counts as checked out when a library card holds it.
func (e *ExportEngine) Inventory(ctx context.Context, progress chan<- ProgressUpdate) (*InventoryResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchingAssetsUpdate())

	assets, err := e.catalog.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	result := &InventoryResult{
		Total:      len(assets),
		ByKind:     map[models.Kind]int{},
		ByStatus:   map[string]int{},
		ByBranch:   map[string]int{},
		CheckedOut: []int64{},
	}

	for i, asset := range assets {
		e.sendProgress(progress, inventoryUpdate(i+1, len(assets), asset))

		result.ByKind[asset.Kind()]++

		status := "Unknown"
		if asset.Status != nil {
			status = asset.Status.Name
		}
		result.ByStatus[status]++

		result.ByBranch[models.Shelf{Branch: asset.Location}.Name()]++

		card, err := e.catalog.GetLibraryCardByAssetID(ctx, asset.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up card for asset %d: %w", asset.ID, err)
		}
		if card != nil {
			result.CheckedOut = append(result.CheckedOut, asset.ID)
		}
	}

	sort.Slice(result.CheckedOut, func(i, j int) bool { return result.CheckedOut[i] < result.CheckedOut[j] })

	e.logger.Debug("inventory complete", "assets", result.Total, "checked_out", len(result.CheckedOut))
	return result, nil
}
