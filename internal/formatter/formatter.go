// package formatter renders drafts as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/shared"
)

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "csv", "markdown"}

// DraftDocument is the JSON form of a draft.
type DraftDocument struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	Prompt           string         `json:"prompt,omitempty"`
	SourcePlaylistID string         `json:"source_playlist_id,omitempty"`
	Tracks           []models.Track `json:"tracks"`
	Saveable         int            `json:"saveable"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NewDraftDocument builds the JSON form of d.
func NewDraftDocument(d *models.Draft) DraftDocument {
	tracks := d.Tracks()
	if tracks == nil {
		tracks = []models.Track{}
	}
	return DraftDocument{
		ID:               d.ID(),
		Name:             d.Name(),
		Description:      d.Description(),
		Prompt:           d.Prompt(),
		SourcePlaylistID: d.SourcePlaylistID(),
		Tracks:           tracks,
		Saveable:         len(d.SaveableURIs()),
		CreatedAt:        d.CreatedAt(),
		UpdatedAt:        d.UpdatedAt(),
	}
}

// Render converts d to the named format.
func Render(d *models.Draft, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "text", "txt":
		return ExportToText(d)
	case "json":
		return shared.MarshalJSON(NewDraftDocument(d), true)
	case "csv":
		return ExportToCSV(d)
	case "markdown", "md":
		return ExportToMarkdown(d)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// ExportToCSV converts a draft to CSV with columns: ID, Title, Artist, Album, Duration, URI
func ExportToCSV(d *models.Draft) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range d.Tracks() {
		uri := ""
		if !track.IsPlaceholder() {
			uri = track.SpotifyURI()
		}
		record := []string{
			track.ID,
			track.Title,
			track.Artist,
			track.Album,
			strconv.Itoa(track.DurationMS),
			uri,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a draft to Markdown. Placeholder tracks are marked.
func ExportToMarkdown(d *models.Draft) ([]byte, error) {
	var buf bytes.Buffer
	tracks := d.Tracks()

	fmt.Fprintf(&buf, "# %s\n\n", d.Name())

	if d.Description() != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", d.Description())
	}
	if d.Prompt() != "" {
		fmt.Fprintf(&buf, "**Prompt**: %s\n\n", d.Prompt())
	}

	fmt.Fprintf(&buf, "**Tracks**: %d (%d on Spotify)\n\n", len(tracks), len(d.SaveableURIs()))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		suffix := fmt.Sprintf(" [%s]", shared.FormatDuration(track.DurationMS))
		if track.IsPlaceholder() {
			suffix = " _not found_"
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s%s\n", i+1, track.Artist, track.Title, albumPart, suffix)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a draft to plain text.
func ExportToText(d *models.Draft) ([]byte, error) {
	var buf bytes.Buffer
	tracks := d.Tracks()

	fmt.Fprintf(&buf, "Playlist: %s\n", d.Name())
	if d.Description() != "" {
		fmt.Fprintf(&buf, "Description: %s\n", d.Description())
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(tracks))

	for i, track := range tracks {
		marker := ""
		if track.IsPlaceholder() {
			marker = " (not on Spotify)"
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s\n", i+1, track.Artist, track.Title, marker)
	}

	return buf.Bytes(), nil
}

// Extension returns the file extension for format.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "json":
		return ".json"
	case "csv":
		return ".csv"
	case "markdown", "md":
		return ".md"
	default:
		return ".txt"
	}
}

// WriteExport renders d and writes it to path. An empty path defaults to the draft ID with the
// format's extension; a directory gets that file name inside it.
func WriteExport(d *models.Draft, format, path string) (string, error) {
	data, err := Render(d, format)
	if err != nil {
		return "", err
	}

	name := d.ID() + Extension(format)
	if path == "" {
		path = name
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, name)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}
