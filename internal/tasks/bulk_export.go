package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/lbx/internal/formatter"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk shelf exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format: json, csv, markdown, txt
	OutputDir  string           // Base output directory (default: catalog_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Shelf reads per second (default: 5)
	BranchIDs  []int64          // Branches to export (default: all)
	Unshelved  bool             // Also export assets with no location
	WithImages bool             // Download branch images for markdown exports
}

type shelfJob struct {
	shelf *models.Shelf
}

// BulkExport writes one export per shelf concurrently, then a manifest summarizing the run.
//
// Shelf reads go through a rate limiter and a fixed pool of workers renders the files.
// A shelf that fails to load or write is recorded in the result without stopping the others.
func (e *ExportEngine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("catalog_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	e.sendProgress(prog, fetchingBranchesUpdate())

	branches, err := e.selectBranches(ctx, opts.BranchIDs)
	if err != nil {
		return nil, err
	}
	if opts.Unshelved {
		branches = append([]*models.Branch{nil}, branches...)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(branches)
	result := &BulkExportResult{
		TotalShelves:    total,
		OutputDirectory: opts.OutputDir,
		Results:         make([]ShelfExportResult, 0, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan shelfJob, total)
	results := make(chan ShelfExportResult, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)

		for i, branch := range branches {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			shelf, err := e.loadShelf(ctx, branch)
			if err != nil {
				results <- ShelfExportResult{
					BranchID: shelf.BranchID(),
					Name:     shelf.Name(),
					Error:    fmt.Errorf("failed to fetch shelf: %w", err),
				}
				continue
			}

			e.sendProgress(prog, fetchShelfUpdate(i+1, total, shelf))
			jobs <- shelfJob{shelf: shelf}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, total, res.Name, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, total, res.Name, res.Error))
			e.logger.Warn("shelf export failed", "shelf", res.Name, "error", res.Error)
		}
	}

	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].BranchID < result.Results[j].BranchID })

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(buildManifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("export complete", "shelves", total, "failed", result.FailedExports, "dir", opts.OutputDir)
	return result, nil
}

// selectBranches returns every branch, or only those named by ids in the given order.
func (e *ExportEngine) selectBranches(ctx context.Context, ids []int64) ([]*models.Branch, error) {
	all, err := e.catalog.Branches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	if len(ids) == 0 {
		return all, nil
	}

	byID := make(map[int64]*models.Branch, len(all))
	for _, b := range all {
		byID[b.ID] = b
	}

	selected := make([]*models.Branch, 0, len(ids))
	for _, id := range ids {
		b, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", shared.ErrBranchNotFound, id)
		}
		selected = append(selected, b)
	}
	return selected, nil
}

// loadShelf reads the assets at branch; a nil branch loads the unshelved assets.
//
// The returned shelf is never nil so failures can still be named.
func (e *ExportEngine) loadShelf(ctx context.Context, branch *models.Branch) (*models.Shelf, error) {
	shelf := &models.Shelf{Branch: branch}

	assets, err := e.catalog.AssetsAtBranch(ctx, shelf.BranchID())
	if err != nil {
		return shelf, err
	}
	shelf.Assets = assets
	return shelf, nil
}

// exportWorker is a worker goroutine that exports shelves from the jobs channel.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan shelfJob,
	results chan<- ShelfExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- e.exportShelf(job.shelf, opts)
	}
}

// exportShelf writes a single shelf in the requested format.
func (e *ExportEngine) exportShelf(shelf *models.Shelf, opts BulkExportOpts) ShelfExportResult {
	result := ShelfExportResult{
		BranchID:   shelf.BranchID(),
		Name:       shelf.Name(),
		AssetCount: len(shelf.Assets),
		Files:      []string{},
	}

	base := filepath.Join(opts.OutputDir, shelfBase(shelf))

	switch opts.Format {
	case formatter.FormatCSV:
		csvRes, err := formatter.WriteCSVExport(shelf, base)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.AssetsFile, csvRes.MetadataFile}

	case formatter.FormatMarkdown:
		var imageURL string
		if opts.WithImages && shelf.Branch != nil {
			imageURL = shelf.Branch.ImageURL
		}

		mdRes, err := formatter.WriteMarkdownExport(shelf, base, imageURL)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files

	case formatter.FormatText:
		path, err := formatter.WriteTextExport(shelf, base+"_assets.txt")
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}

	case formatter.FormatJSON:
		path, err := formatter.WriteJSONExport(shelf, base+".json")
		if err != nil {
			result.Error = err
			return result
		}
		result.Files = []string{path}

	default:
		result.Error = errors.New("unsupported format " + string(opts.Format))
		return result
	}

	result.Success = true
	return result
}

// shelfBase names a shelf's files: "{id}-{slug}" for branches, "unshelved" otherwise.
func shelfBase(shelf *models.Shelf) string {
	if shelf.Branch == nil {
		return formatter.Slug(shelf.Name())
	}
	return fmt.Sprintf("%d-%s", shelf.Branch.ID, formatter.Slug(shelf.Name()))
}

func buildManifest(result *BulkExportResult, format formatter.Format) *formatter.Manifest {
	m := &formatter.Manifest{
		GeneratedAt:     time.Now().UTC(),
		Format:          format,
		OutputDirectory: result.OutputDirectory,
		TotalShelves:    result.TotalShelves,
		Successful:      result.SuccessfulExports,
		Failed:          result.FailedExports,
		Shelves:         make([]formatter.ManifestEntry, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		entry := formatter.ManifestEntry{
			BranchID:   res.BranchID,
			Name:       res.Name,
			AssetCount: res.AssetCount,
			Success:    res.Success,
			Files:      res.Files,
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		m.Shelves = append(m.Shelves, entry)
	}
	return m
}
