package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgAssetsFetched MsgKind = iota
	MsgAssetDescribed
	MsgProgressUpdate
	MsgExportComplete
)

type assetsFetched struct {
	assets []*models.Asset
	err    error
}

type assetDescribed struct {
	desc *services.Description
	err  error
}

type exportComplete struct {
	result *tasks.BulkExportResult
	err    error
}

// assetsFetchedMsg is the constructor for [MsgAssetsFetched]
func assetsFetchedMsg(assets []*models.Asset, err error) Msg {
	return Msg{kind: MsgAssetsFetched, data: assetsFetched{assets, err}}
}

// assetDescribedMsg is the constructor for [MsgAssetDescribed]
func assetDescribedMsg(desc *services.Description, err error) Msg {
	return Msg{kind: MsgAssetDescribed, data: assetDescribed{desc, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// exportCompleteMsg is the constructor for [MsgExportComplete]
func exportCompleteMsg(result *tasks.BulkExportResult, err error) Msg {
	return Msg{kind: MsgExportComplete, data: exportComplete{result, err}}
}
