package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/lbx/internal/formatter"
	"github.com/desertthunder/lbx/internal/models"
)

var _ list.Item = assetItem{}

// assetItem wraps [models.Asset] to implement [list.Item].
type assetItem struct {
	asset *models.Asset
}

func (i assetItem) FilterValue() string { return i.asset.Title + " " + formatter.Creator(i.asset) }
func (i assetItem) Title() string       { return fmt.Sprintf("#%d %s", i.asset.ID, i.asset.Title) }
func (i assetItem) Description() string {
	parts := []string{i.asset.Kind().Label()}
	if c := formatter.Creator(i.asset); c != "" {
		parts = append(parts, c)
	}
	if i.asset.Status != nil {
		parts = append(parts, i.asset.Status.Name)
	}
	parts = append(parts, models.Shelf{Branch: i.asset.Location}.Name())
	return strings.Join(parts, " • ")
}
