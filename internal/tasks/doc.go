// Package tasks runs catalog jobs that span many records, with real-time progress reporting.
//
// # Operations
//
// [ExportEngine] exposes two jobs over a [services.Catalog]:
//
//  1. [ExportEngine.BulkExport] : Write one export per branch shelf
//     - Reads shelves through a rate limiter
//     - Renders them with a pool of workers (json, csv, markdown or txt)
//     - Records per-shelf failures and writes export_manifest.json
//
//  2. [ExportEngine.Inventory] : Tally the catalog
//     - Counts assets by kind, status and branch
//     - Lists the assets currently held on a library card
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default so a slow reader never blocks a job.
package tasks
