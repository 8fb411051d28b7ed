// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing the catalog:
//  1. [AssetListView] : Browse and filter every asset
//  2. [DetailView] : Show the facts derived for one asset (type, creator, ISBN, location, card)
//  3. [ConfirmView] : Confirm a shelf export
//  4. [ExportView] : Monitor real-time progress updates
//  5. [ResultView] : Display per-shelf export results
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the ExportEngine, providing non-blocking status reporting during exports.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, e, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
