package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lbx/internal/formatter"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AssetListView ViewState = iota
	DetailView
	ConfirmView
	ExportView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	catalog      services.Catalog
	engine       *tasks.ExportEngine
	exportOpts   tasks.BulkExportOpts
	width        int
	height       int
	assetList    list.Model
	detail       *services.Description
	progressChan chan tasks.ProgressUpdate
	doneChan     chan exportComplete
	progress     tasks.ProgressUpdate
	result       *tasks.BulkExportResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// exportOpts configures the export started from the asset list.
func NewModel(ctx context.Context, catalog services.Catalog, engine *tasks.ExportEngine, exportOpts tasks.BulkExportOpts) *Model {
	return &Model{
		ctx:        ctx,
		view:       AssetListView,
		catalog:    catalog,
		engine:     engine,
		exportOpts: exportOpts,
		assetList:  list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init initializes the TUI by fetching every asset.
func (m *Model) Init() tea.Cmd {
	return m.fetchAssets()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.assetList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case AssetListView:
			return m.handleAssetListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case ExportView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	if m.view == AssetListView {
		m.assetList, cmd = m.assetList.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgAssetsFetched:
		data := msg.data.(assetsFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.assets))
		for i, a := range data.assets {
			items[i] = assetItem{asset: a}
		}
		m.assetList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.assetList.Title = fmt.Sprintf("Library Assets (%d)", len(items))
		m.assetList.SetSize(m.width-4, m.height-8)
		return m, nil

	case MsgAssetDescribed:
		data := msg.data.(assetDescribed)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.detail = data.desc
		m.view = DetailView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgExportComplete:
		data := msg.data.(exportComplete)
		m.result = data.result
		m.err = data.err
		m.view = ResultView
		m.progressChan = nil
		m.doneChan = nil
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case AssetListView:
		return m.renderAssetList()
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleAssetListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.assetList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.assetList, cmd = m.assetList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.assetList.SelectedItem().(assetItem); ok {
			return m, m.describe(item.asset.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.export):
		if m.engine != nil {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.assetList, cmd = m.assetList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = AssetListView
		m.detail = nil
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = AssetListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = ExportView
		return m, m.startExport()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = AssetListView
		m.result = nil
		m.err = nil
		return m, m.fetchAssets()
	}
	return m, nil
}

func (m *Model) fetchAssets() tea.Cmd {
	return func() tea.Msg {
		assets, err := m.catalog.GetAll(m.ctx)
		return assetsFetchedMsg(assets, err)
	}
}

func (m *Model) describe(id int64) tea.Cmd {
	return func() tea.Msg {
		desc, err := m.catalog.Describe(m.ctx, id)
		if err == nil && desc == nil {
			err = fmt.Errorf("asset %d no longer exists", id)
		}
		return assetDescribedMsg(desc, err)
	}
}

func (m *Model) startExport() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan exportComplete, 1)
	m.progressChan, m.doneChan = progress, done

	go func() {
		result, err := m.engine.BulkExport(m.ctx, progress, m.exportOpts)
		done <- exportComplete{result, err}
		close(progress)
	}()

	return m.waitForProgress()
}

// waitForProgress relays progress until the export goroutine closes the channel, then reports the outcome.
func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progress == nil {
			return exportCompleteMsg(m.result, m.err)
		}

		update, ok := <-progress
		if !ok {
			out := <-done
			return exportCompleteMsg(out.result, out.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderAssetList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.export, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.assetList.View(), helpView)
}

func (m *Model) renderDetail() string {
	d := m.detail
	if d == nil {
		return ""
	}

	title := styles.title.Render(fmt.Sprintf("#%d %s", d.Asset.ID, d.Asset.Title))

	creatorLabel := "Author"
	if d.Asset.Kind() == models.KindVideo {
		creatorLabel = "Director"
	}

	location := "Unshelved"
	if d.Location != nil {
		location = d.Location.Name
	}

	card := "None"
	if d.Card != nil {
		card = fmt.Sprintf("#%d (fees %.2f)", d.Card.ID, d.Card.Fees)
	}

	status := "Unknown"
	if d.Asset.Status != nil {
		status = d.Asset.Status.Name
	}

	rows := [][2]string{
		{"Type", d.Type},
		{creatorLabel, d.AuthorOrDirector},
		{"ISBN", d.ISBN},
		{"Dewey Index", d.DeweyIndex},
		{"Year", fmt.Sprint(d.Asset.Year)},
		{"Copies", fmt.Sprint(d.Asset.NumberOfCopies)},
		{"Status", status},
		{"Location", location},
		{"Library Card", card},
	}

	var b strings.Builder
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		b.WriteString(styles.label.Render(row[0]))
		b.WriteString(row[1])
		b.WriteString("\n")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, b.String(), helpView)
}

func (m *Model) renderConfirm() string {
	format := m.exportOpts.Format
	if format == "" {
		format = formatter.FormatJSON
	}

	title := styles.title.Render("Export every shelf?")
	info := fmt.Sprintf("\nFormat: %s\nOutput: %s\n", format, orDefault(m.exportOpts.OutputDir, "catalog_export_{timestamp}"))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting Shelves")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchBranches:
		phase = "Fetching branches..."
	case tasks.FetchShelf:
		phase = fmt.Sprintf("Reading shelves (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ExportShelf:
		phase = fmt.Sprintf("Writing shelves (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v\n\nPress r to return, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to return, q to quit")
	}

	title := styles.ok.Render("✓ Export Complete!")
	info := fmt.Sprintf(
		"\nDirectory: %s\nShelves: %d/%d exported\nManifest: %s",
		m.result.OutputDirectory,
		m.result.SuccessfulExports,
		m.result.TotalShelves,
		m.result.ManifestPath,
	)

	var failed string
	if m.result.FailedExports > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to export %d shelves:", m.result.FailedExports)))
		for _, res := range m.result.Results {
			if res.Error != nil {
				failed += fmt.Sprintf("\n  • %s: %v", res.Name, res.Error)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
