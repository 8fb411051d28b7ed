package ui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lbx/internal/formatter"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/tasks"
	th "github.com/desertthunder/lbx/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededModel(t *testing.T) *Model {
	t.Helper()
	ctx := context.Background()
	svc := services.NewAssetService(th.NewTestDB(t), nil)
	_, err := services.SeedCatalog(ctx, svc, time.Now())
	require.NoError(t, err)

	opts := tasks.BulkExportOpts{Format: formatter.FormatText, OutputDir: filepath.Join(t.TempDir(), "out"), RateLimit: 1000}
	m := NewModel(ctx, svc, tasks.NewExportEngine(svc, nil), opts)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// run executes cmd and feeds the resulting message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	_, next := m.Update(cmd())
	return next
}

func press(m *Model, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func TestAssetItem(t *testing.T) {
	a := models.NewBook("Dune", "Frank Herbert", "", "")
	a.ID = 1
	a.Status = &models.Status{Name: "Available"}

	item := assetItem{asset: a}
	assert.Equal(t, "#1 Dune", item.Title())
	assert.Equal(t, "Book • Frank Herbert • Available • Unshelved", item.Description())
	assert.Contains(t, item.FilterValue(), "Herbert")
}

func TestModel(t *testing.T) {
	t.Run("LoadsAssets", func(t *testing.T) {
		m := newSeededModel(t)
		run(t, m, m.Init())

		assert.Equal(t, AssetListView, m.view)
		assert.Len(t, m.assetList.Items(), 5)
		assert.Contains(t, m.View(), "Library Assets (5)")
	})

	t.Run("ShowsDetails", func(t *testing.T) {
		m := newSeededModel(t)
		run(t, m, m.Init())

		run(t, m, press(m, "enter"))
		require.Equal(t, DetailView, m.view)
		require.NotNil(t, m.detail)

		view := m.View()
		assert.Contains(t, view, "Dune")
		assert.Contains(t, view, "Frank Herbert")
		assert.Contains(t, view, "813.54")
		assert.Contains(t, view, "Main Library")

		press(m, "esc")
		assert.Equal(t, AssetListView, m.view)
		assert.Nil(t, m.detail)
	})

	t.Run("ExportFlow", func(t *testing.T) {
		m := newSeededModel(t)
		run(t, m, m.Init())

		press(m, "e")
		require.Equal(t, ConfirmView, m.view)
		assert.Contains(t, m.View(), "Format: txt")

		press(m, "n")
		assert.Equal(t, AssetListView, m.view)

		press(m, "e")
		cmd := press(m, "y")
		assert.Equal(t, ExportView, m.view)

		for i := 0; cmd != nil && m.view == ExportView && i < 100; i++ {
			cmd = run(t, m, cmd)
		}

		require.Equal(t, ResultView, m.view)
		require.NoError(t, m.err)
		require.NotNil(t, m.result)
		assert.Equal(t, 2, m.result.SuccessfulExports)
		assert.Contains(t, m.View(), "Export Complete")

		run(t, m, press(m, "r"))
		assert.Equal(t, AssetListView, m.view)
		assert.Nil(t, m.result)
	})

	t.Run("FetchError", func(t *testing.T) {
		m := newSeededModel(t)
		m.Update(assetsFetchedMsg(nil, errors.New("boom")))
		assert.Contains(t, m.View(), "Error: boom")
	})

	t.Run("Quit", func(t *testing.T) {
		m := newSeededModel(t)
		cmd := press(m, "q")
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}
