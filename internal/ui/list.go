package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/Ninnjah/music-downloader/internal/formatter"
	"github.com/Ninnjah/music-downloader/internal/models"
)

var _ list.Item = candidateItem{}

// candidateItem wraps [models.CatalogTrack] to implement [list.Item] for the
// reverse-download candidate pick.
type candidateItem struct {
	track models.CatalogTrack
}

func (i candidateItem) FilterValue() string { return i.track.Name }
func (i candidateItem) Title() string {
	return fmt.Sprintf("%s - %s", i.track.Artist, i.track.Name)
}
func (i candidateItem) Description() string {
	desc := formatter.Duration(i.track.DurationMS / 1000)
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", i.track.Album, desc)
	}
	return desc
}
