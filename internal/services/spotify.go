// Spotify Web API client
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/desertthunder/riff/internal/auth"
	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// maxTracksPerRequest is the playlist items endpoint limit.
	maxTracksPerRequest = 100
)

var playlistIDPattern = regexp.MustCompile(`playlist[/:]([a-zA-Z0-9]+)`)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	PreviewURL   *string         `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int                    `json:"total"`
	Items []SpotifyPlaylistTrack `json:"items"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Owner        Owner          `json:"owner"`
	Public       bool           `json:"public"`
	Tracks       playlistTracks `json:"tracks"`
	ExternalURLs externalURLs   `json:"external_urls"`
	URI          string         `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is nil for
// removed or local items.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// ToModel converts a Spotify track into a [models.Track].
func (t SpotifyTrack) ToModel() models.Track {
	track := models.Track{
		ID:         t.ID,
		Title:      t.Name,
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
		URI:        t.URI,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	if t.PreviewURL != nil {
		track.PreviewURL = *t.PreviewURL
	}
	if len(t.Album.Images) > 0 {
		track.ImageURL = t.Album.Images[0].URL
	}
	return track
}

// ToModel converts a Spotify playlist (with its first page of tracks) into a [models.Playlist].
func (p SpotifyPlaylist) ToModel() *models.Playlist {
	pl := &models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner.DisplayName,
		Public:      p.Public,
		TrackCount:  p.Tracks.Total,
		URL:         p.ExternalURLs.Spotify,
	}
	for _, item := range p.Tracks.Items {
		if item.Track == nil || item.Track.ID == "" {
			continue
		}
		pl.Tracks = append(pl.Tracks, item.Track.ToModel())
	}
	return pl
}

// ClientSource supplies an authenticated HTTP client. [auth.TokenManager] implements it.
type ClientSource interface {
	Client(ctx context.Context) (*http.Client, error)
}

// SpotifyService calls the Spotify Web API with the bearer client from a [ClientSource].
type SpotifyService struct {
	baseURL string
	clients ClientSource
}

// NewSpotifyService creates a client. An empty baseURL uses the public API.
func NewSpotifyService(clients ClientSource, baseURL string) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	return &SpotifyService{baseURL: baseURL, clients: clients}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// ExtractPlaylistID finds the playlist ID in a share URL or URI.
func ExtractPlaylistID(raw string) (string, bool) {
	m := playlistIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// doRequest performs an authenticated request, encoding body as JSON and decoding into result.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify returned 401", shared.ErrNotAuthenticated)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &StatusError{StatusCode: resp.StatusCode, Message: apiErrorMessage(resp.Body)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrInvalidResponse, err)
		}
	}
	return nil
}

// StatusError is a non-2xx Spotify response. It matches [shared.ErrAPIRequest].
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == shared.ErrAPIRequest
}

func apiErrorMessage(r io.Reader) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 1<<16)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Error.Message
}

// Me retrieves the current authenticated user's profile.
func (s *SpotifyService) Me(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FetchProfile implements [auth.ProfileFetcher].
func (s *SpotifyService) FetchProfile(ctx context.Context) (*auth.User, error) {
	me, err := s.Me(ctx)
	if err != nil {
		return nil, err
	}
	return &auth.User{
		ID:          me.ID,
		DisplayName: me.DisplayName,
		Email:       me.Email,
		Country:     me.Country,
		Product:     me.Product,
	}, nil
}

// Playlist retrieves a playlist and its first page of tracks.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	var playlist SpotifyPlaylist
	err := s.doRequest(ctx, http.MethodGet, "/playlists/"+url.PathEscape(playlistID), nil, &playlist)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if err != nil {
		return nil, err
	}
	return playlist.ToModel(), nil
}

// SearchTracks runs a free-text track search.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {strconv.Itoa(limit)},
	}

	var response searchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		tracks = append(tracks, item.ToModel())
	}
	return tracks, nil
}

// SearchTrack returns the best match for a title and artist.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	tracks, err := s.SearchTracks(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %s - %s", shared.ErrTrackNotFound, artist, title)
	}
	return &tracks[0], nil
}

// CreatePlaylist creates a playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var playlist SpotifyPlaylist
	endpoint := "/users/" + url.PathEscape(userID) + "/playlists"
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	return playlist.ToModel(), nil
}

// AddTracks appends uris to a playlist in batches of 100.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	for start := 0; start < len(uris); start += maxTracksPerRequest {
		end := min(start+maxTracksPerRequest, len(uris))
		body := map[string]any{"uris": uris[start:end]}
		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return fmt.Errorf("failed to add tracks %d-%d: %w", start+1, end, err)
		}
	}
	return nil
}
