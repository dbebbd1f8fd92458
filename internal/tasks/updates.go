package tasks

import (
	"fmt"

	"github.com/desertthunder/riff/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	QueryModel
	ParseReply
	SearchTracks
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case QueryModel:
		return "query_model"
	case ParseReply:
		return "parse_reply"
	case SearchTracks:
		return "search_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

func fetchSourceUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s...", id),
	}
}

func queryModelUpdate(model string) ProgressUpdate {
	msg := "Asking the model for suggestions..."
	if model != "" {
		msg = fmt.Sprintf("Asking %s for suggestions...", model)
	}
	return ProgressUpdate{Phase: QueryModel, Step: 1, Total: 1, Message: msg}
}

func parsedReplyUpdate(suggested *models.SuggestedPlaylist) ProgressUpdate {
	name := suggested.Name
	if name == "" {
		name = "New Playlist"
	}
	return ProgressUpdate{
		Phase:   ParseReply,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Created %q with %d suggested tracks. Finding them on Spotify...", name, len(suggested.Tracks)),
		Data:    suggested,
	}
}

func searchTracksUpdate(step, total int, s *models.Suggestion, found bool) ProgressUpdate {
	if s == nil {
		return ProgressUpdate{
			Phase:   SearchTracks,
			Step:    step,
			Total:   total,
			Message: "Searching for tracks on Spotify...",
		}
	}
	mark := "✓"
	if !found {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, mark, s.Artist, s.Title),
	}
}

func placeholderUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    total,
		Total:   total,
		Message: "Connect to Spotify to find actual tracks and save your playlist!",
	}
}

func foundTracksUpdate(found, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Found %d of %d tracks on Spotify.", found, total),
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q on Spotify...", name),
	}
}

func addTracksUpdate(pl *models.Playlist, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d tracks to %s (ID: %s)...", count, pl.Name, pl.ID),
		Data:    pl,
	}
}
