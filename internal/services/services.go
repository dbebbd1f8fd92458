package services

import (
	"context"

	"github.com/desertthunder/riff/internal/models"
)

// Catalog is the subset of the Spotify API used to resolve and save playlists.
type Catalog interface {
	Playlist(ctx context.Context, playlistID string) (*models.Playlist, error)
	SearchTrack(ctx context.Context, title, artist string) (*models.Track, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) error
}

// Completer sends a system and user prompt to a language model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

var (
	_ Catalog   = (*SpotifyService)(nil)
	_ Completer = (*OpenRouter)(nil)
)
