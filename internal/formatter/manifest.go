package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/lbx/internal/shared"
)

// Manifest summarizes a catalog export.
type Manifest struct {
	GeneratedAt     time.Time       `json:"generated_at"`
	Format          Format          `json:"format"`
	OutputDirectory string          `json:"output_directory"`
	TotalShelves    int             `json:"total_shelves"`
	Successful      int             `json:"successful"`
	Failed          int             `json:"failed"`
	Shelves         []ManifestEntry `json:"shelves"`
}

// ManifestEntry records the outcome of exporting one shelf.
type ManifestEntry struct {
	BranchID   int64    `json:"branch_id"`
	Name       string   `json:"name"`
	AssetCount int      `json:"asset_count"`
	Success    bool     `json:"success"`
	Files      []string `json:"files,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *Manifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}
