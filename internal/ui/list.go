package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/shared"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artist }

func (i trackItem) Title() string {
	if i.track.IsPlaceholder() {
		return i.track.Title + " (not on Spotify)"
	}
	return i.track.Title
}

func (i trackItem) Description() string {
	parts := []string{i.track.Artist}
	if i.track.Album != "" {
		parts = append(parts, i.track.Album)
	}
	if i.track.DurationMS > 0 {
		parts = append(parts, shared.FormatDuration(i.track.DurationMS))
	}
	return strings.Join(parts, " • ")
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}
