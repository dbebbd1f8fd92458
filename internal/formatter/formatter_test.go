package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/shared"
	th "github.com/desertthunder/riff/internal/testing"
)

func testDraft() *models.Draft {
	d := models.NewDraft("Night Drive", "late night trip hop")
	d.SetID("draft-1")
	d.SetDescription("moody, rain")
	d.SetTracks([]models.Track{
		{ID: "t1", Title: "Teardrop", Artist: "Massive Attack", Album: "Mezzanine", DurationMS: 330000},
		{ID: "t2", Title: "Glory Box", Artist: "Portishead", DurationMS: 306000, URI: "spotify:track:t2"},
		{ID: "temp-1-0", Title: "Ghost, Song", Artist: "Nobody"},
	})
	return d
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testDraft())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected 4 lines, got %d: %q", len(lines), data)
		}
		if lines[0] != "ID,Title,Artist,Album,Duration,URI" {
			t.Errorf("unexpected headers: %s", lines[0])
		}
		if lines[1] != "t1,Teardrop,Massive Attack,Mezzanine,330000,spotify:track:t1" {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if lines[3] != `temp-1-0,"Ghost, Song",Nobody,,0,` {
			t.Errorf("placeholder row should be quoted and have no URI: %s", lines[3])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testDraft())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Night Drive",
			"**Description**: moody, rain",
			"**Prompt**: late night trip hop",
			"**Tracks**: 3 (2 on Spotify)",
			"1. Massive Attack - Teardrop (Mezzanine) [5:30]",
			"2. Portishead - Glory Box [5:06]",
			"3. Nobody - Ghost, Song _not found_",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testDraft())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Playlist: Night Drive\nDescription: moody, rain\nTracks: 3\n\n") {
			t.Errorf("unexpected header, got:\n%s", output)
		}
		if !strings.Contains(output, "3. Nobody - Ghost, Song (not on Spotify)") {
			t.Errorf("placeholder not marked, got:\n%s", output)
		}
	})

	t.Run("Empty draft", func(t *testing.T) {
		d := models.NewDraft("Empty", "")
		data, err := Render(d, "json")
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		var doc DraftDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc.Tracks == nil || len(doc.Tracks) != 0 {
			t.Errorf("expected empty track array, got %v", doc.Tracks)
		}
		if !strings.Contains(string(data), `"tracks": []`) {
			t.Errorf("tracks should render as [], got:\n%s", data)
		}
	})
}

func TestRender(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", "Playlist: Night Drive"},
		{"TEXT", "Playlist: Night Drive"},
		{"md", "# Night Drive"},
		{"csv", "ID,Title,Artist"},
		{"json", `"saveable": 2`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, err := Render(testDraft(), tt.format)
			if err != nil {
				t.Fatalf("Render(%q) failed: %v", tt.format, err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("Render(%q) missing %q, got:\n%s", tt.format, tt.want, data)
			}
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		_, err := Render(testDraft(), "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("into directory", func(t *testing.T) {
		dir := t.TempDir()
		path, err := WriteExport(testDraft(), "markdown", dir)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if path != filepath.Join(dir, "draft-1.md") {
			t.Errorf("unexpected path %s", path)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "# Night Drive") {
			t.Error("file missing heading")
		}
	})

	t.Run("explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		got, err := WriteExport(testDraft(), "csv", path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		_, err := WriteExport(testDraft(), "text", filepath.Join(t.TempDir(), "missing", "out.txt"))
		if err == nil {
			t.Error("expected error for missing parent directory")
		}
	})
}
