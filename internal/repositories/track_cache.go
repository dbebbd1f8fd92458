package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/shared"
)

// TrackCache stores catalog search hits keyed by [shared.NormalizeTrackKey].
//
// Only resolved tracks are cached; a miss is never remembered so a later search can succeed.
type TrackCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewTrackCache creates a cache. Entries older than ttl are ignored; a zero ttl keeps them forever.
func NewTrackCache(db *sql.DB, ttl time.Duration) *TrackCache {
	return &TrackCache{db: db, ttl: ttl, now: time.Now}
}

// Lookup returns the cached track for title and artist, or nil when absent or stale.
func (c *TrackCache) Lookup(title, artist string) (*models.Track, error) {
	var (
		t        models.Track
		cachedAt time.Time
	)
	err := c.db.QueryRow(`
		SELECT track_id, title, artist, album, duration_ms, uri, preview_url, image_url, cached_at
		FROM track_cache WHERE lookup_key = ?
	`, shared.NormalizeTrackKey(title, artist)).Scan(
		&t.ID, &t.Title, &t.Artist, &t.Album, &t.DurationMS, &t.URI, &t.PreviewURL, &t.ImageURL, &cachedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read track cache: %w", err)
	}

	if c.ttl > 0 && c.now().Sub(cachedAt) > c.ttl {
		return nil, nil
	}
	return &t, nil
}

// Store records the resolved track for the suggested title and artist.
func (c *TrackCache) Store(title, artist string, track models.Track) error {
	if track.IsPlaceholder() {
		return nil
	}

	_, err := c.db.Exec(`
		INSERT INTO track_cache (lookup_key, track_id, title, artist, album, duration_ms, uri, preview_url, image_url, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(lookup_key) DO UPDATE SET
			track_id = excluded.track_id,
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			duration_ms = excluded.duration_ms,
			uri = excluded.uri,
			preview_url = excluded.preview_url,
			image_url = excluded.image_url,
			cached_at = excluded.cached_at
	`, shared.NormalizeTrackKey(title, artist), track.ID, track.Title, track.Artist, track.Album,
		track.DurationMS, track.URI, track.PreviewURL, track.ImageURL, c.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to cache track: %w", err)
	}
	return nil
}

// Purge removes every cached entry and returns how many were deleted.
func (c *TrackCache) Purge() (int64, error) {
	result, err := c.db.Exec("DELETE FROM track_cache")
	if err != nil {
		return 0, fmt.Errorf("failed to purge track cache: %w", err)
	}
	return result.RowsAffected()
}
