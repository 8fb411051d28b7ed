package tasks

import (
	"fmt"

	"github.com/desertthunder/lbx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchBranches Phase = iota
	FetchShelf
	ExportShelf
	FetchAssets
	CountAssets
)

func (p Phase) String() string {
	switch p {
	case FetchBranches:
		return "fetch_branches"
	case FetchShelf:
		return "fetch_shelf"
	case ExportShelf:
		return "export_shelf"
	case FetchAssets:
		return "fetch_assets"
	case CountAssets:
		return "count_assets"
	default:
		return ""
	}
}

func fetchingBranchesUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchBranches,
		Step:    1,
		Total:   1,
		Message: "Fetching branches...",
	}
}

func fetchShelfUpdate(step, total int, shelf *models.Shelf) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchShelf,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetched %s (%d assets)", step, total, shelf.Name(), len(shelf.Assets)),
		Data:    shelf,
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportShelf,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportShelf,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func fetchingAssetsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAssets,
		Step:    1,
		Total:   1,
		Message: "Fetching assets...",
	}
}

func inventoryUpdate(step, total int, asset *models.Asset) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CountAssets,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, asset.Title),
		Data:    asset,
	}
}
