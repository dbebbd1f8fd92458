package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persistent entities.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// PlaceholderPrefix marks tracks that were suggested but never resolved against the catalog.
const PlaceholderPrefix = "temp-"

const (
	DefaultPlaylistName        = "My AI Playlist"
	DefaultPlaylistDescription = "Created with AI Playlist Creator"
)

// Track is a catalog track.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	DurationMS int    `json:"duration_ms,omitempty"`
	URI        string `json:"uri,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

// NewPlaceholderTrack wraps an unresolved suggestion. seq keeps IDs unique within a batch.
func NewPlaceholderTrack(s Suggestion, now time.Time, seq int) Track {
	return Track{
		ID:     fmt.Sprintf("%s%d-%d", PlaceholderPrefix, now.UnixMilli(), seq),
		Title:  s.Title,
		Artist: s.Artist,
	}
}

// IsPlaceholder reports whether t was never resolved.
func (t Track) IsPlaceholder() bool {
	return t.ID == "" || strings.HasPrefix(t.ID, PlaceholderPrefix)
}

// SpotifyURI returns the track URI used when adding to a playlist.
func (t Track) SpotifyURI() string {
	if t.URI != "" {
		return t.URI
	}
	return "spotify:track:" + t.ID
}

// Suggestion is a single title/artist pair proposed by the model.
type Suggestion struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// SuggestedPlaylist is the parsed model reply.
type SuggestedPlaylist struct {
	Name        string       `json:"playlistName"`
	Description string       `json:"description"`
	Tracks      []Suggestion `json:"tracks"`
}

// Playlist is a catalog playlist.
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Owner       string  `json:"owner,omitempty"`
	Public      bool    `json:"public"`
	TrackCount  int     `json:"track_count"`
	URL         string  `json:"url,omitempty"`
	Tracks      []Track `json:"tracks,omitempty"`
}

// Draft is the playlist being curated. Tracks are ordered and unique by ID.
type Draft struct {
	id               string
	name             string
	description      string
	prompt           string
	sourcePlaylistID string
	tracks           []Track
	createdAt        time.Time
	updatedAt        time.Time
}

// NewDraft creates an unsaved draft; the repository assigns its ID.
func NewDraft(name, prompt string) *Draft {
	now := time.Now().UTC()
	if strings.TrimSpace(name) == "" {
		name = DefaultPlaylistName
	}
	return &Draft{name: name, prompt: prompt, createdAt: now, updatedAt: now}
}

// RestoreDraft rebuilds a draft read from storage.
func RestoreDraft(id, name, description, prompt, sourcePlaylistID string, createdAt, updatedAt time.Time) *Draft {
	return &Draft{
		id:               id,
		name:             name,
		description:      description,
		prompt:           prompt,
		sourcePlaylistID: sourcePlaylistID,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

func (d *Draft) ID() string               { return d.id }
func (d *Draft) Name() string             { return d.name }
func (d *Draft) Description() string      { return d.description }
func (d *Draft) Prompt() string           { return d.prompt }
func (d *Draft) SourcePlaylistID() string { return d.sourcePlaylistID }
func (d *Draft) CreatedAt() time.Time     { return d.createdAt }
func (d *Draft) UpdatedAt() time.Time     { return d.updatedAt }
func (d *Draft) Tracks() []Track          { return append([]Track(nil), d.tracks...) }
func (d *Draft) Len() int                 { return len(d.tracks) }

func (d *Draft) SetID(id string)               { d.id = id }
func (d *Draft) SetName(name string)           { d.name = name }
func (d *Draft) SetDescription(desc string)    { d.description = desc }
func (d *Draft) SetPrompt(prompt string)       { d.prompt = prompt }
func (d *Draft) SetSourcePlaylistID(id string) { d.sourcePlaylistID = id }
func (d *Draft) SetUpdatedAt(t time.Time)      { d.updatedAt = t }

// SetTracks replaces the track list, dropping duplicates.
func (d *Draft) SetTracks(tracks []Track) {
	d.tracks = nil
	d.AddTracks(tracks...)
}

// AddTracks appends tracks whose IDs are not already present and returns how many were added.
func (d *Draft) AddTracks(tracks ...Track) int {
	seen := make(map[string]bool, len(d.tracks))
	for _, t := range d.tracks {
		seen[t.ID] = true
	}
	added := 0
	for _, t := range tracks {
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		d.tracks = append(d.tracks, t)
		added++
	}
	return added
}

// RemoveTrack removes the track with id and reports whether it was present.
func (d *Draft) RemoveTrack(id string) bool {
	for i, t := range d.tracks {
		if t.ID == id {
			d.tracks = append(d.tracks[:i], d.tracks[i+1:]...)
			return true
		}
	}
	return false
}

// SaveableURIs returns the URIs of every resolved track, in order.
func (d *Draft) SaveableURIs() []string {
	uris := make([]string, 0, len(d.tracks))
	for _, t := range d.tracks {
		if !t.IsPlaceholder() {
			uris = append(uris, t.SpotifyURI())
		}
	}
	return uris
}

// Validate checks required fields.
func (d *Draft) Validate() error {
	if d.id == "" {
		return fmt.Errorf("draft id is required")
	}
	if strings.TrimSpace(d.name) == "" {
		return fmt.Errorf("draft name is required")
	}
	return nil
}
