package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/lbx/internal/formatter"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes one file per branch shelf and a manifest.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if _, err := r.open(); err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		BranchIDs:  cmd.Int64Slice("branch"),
		Unshelved:  cmd.Bool("unshelved"),
		WithImages: cmd.Bool("images"),
	}

	r.logger.Info("starting export", "format", format, "workers", opts.NumWorkers)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchBranches:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchShelf, tasks.ExportShelf:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.BulkExport(ctx, progressCh, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Shelves: %d/%d exported\n", result.SuccessfulExports, result.TotalShelves)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d shelves:\n", result.FailedExports)
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  - %s: %v\n", res.Name, res.Error)
			}
		}
	}

	return nil
}

// Report prints catalog totals by kind, status and branch.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.open(); err != nil {
		return err
	}

	result, err := r.engine.Inventory(ctx, nil)
	if err != nil {
		return err
	}

	return r.write(cmd, result, func() error {
		r.writePlainHeader(fmt.Sprintf("Catalog: %d assets", result.Total))

		r.writePlain("\nBy kind:\n")
		for _, kind := range []models.Kind{models.KindBook, models.KindVideo} {
			r.writePlain("  %-14s %d\n", kind.Label(), result.ByKind[kind])
		}
		r.writePlain("\nBy status:\n")
		writeCounts(r, result.ByStatus)
		r.writePlain("\nBy branch:\n")
		writeCounts(r, result.ByBranch)

		return r.writePlain("\nChecked out: %d\n", len(result.CheckedOut))
	})
}

func writeCounts(r *Runner, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		r.writePlain("  %-14s %d\n", k, counts[k])
	}
}
