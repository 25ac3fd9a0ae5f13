package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/shared"
)

var _ list.Item = videoItem{}

// videoItem wraps [models.CatalogEntry] to implement [list.Item].
type videoItem struct {
	entry models.CatalogEntry
}

func (i videoItem) FilterValue() string { return i.entry.Title + " " + i.entry.ChannelName }
func (i videoItem) Title() string       { return i.entry.Title }
func (i videoItem) Description() string {
	parts := []string{shared.FormatDuration(i.entry.Seconds()), fmt.Sprintf("%d views", i.entry.Views)}
	if i.entry.ChannelName != "" {
		parts = append([]string{i.entry.ChannelName}, parts...)
	}
	return strings.Join(parts, " • ")
}

func videoItems(entries []models.CatalogEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = videoItem{entry: e}
	}
	return items
}
