package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/shared"
)

// DraftRepository implements models.Repository[*models.Draft].
type DraftRepository struct {
	db *sql.DB
}

// NewDraftRepository creates a new DraftRepository with the given database connection
func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

var _ models.Repository[*models.Draft] = (*DraftRepository)(nil)

// Create inserts a draft and its tracks with a generated ID.
func (r *DraftRepository) Create(draft *models.Draft) error {
	draft.SetID(shared.GenerateID())
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return inTx(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO drafts (id, name, description, prompt, source_playlist_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, draft.ID(), draft.Name(), draft.Description(), draft.Prompt(), draft.SourcePlaylistID(),
			draft.CreatedAt(), draft.UpdatedAt())
		if err != nil {
			return fmt.Errorf("failed to insert draft: %w", err)
		}
		return writeTracks(tx, draft.ID(), draft.Tracks())
	})
}

// Get retrieves a draft and its tracks by ID.
func (r *DraftRepository) Get(id string) (*models.Draft, error) {
	row := r.db.QueryRow(`
		SELECT id, name, description, prompt, source_playlist_id, created_at, updated_at
		FROM drafts WHERE id = ?
	`, id)
	draft, err := scanDraft(row)
	if err != nil {
		return nil, err
	}
	return r.withTracks(draft)
}

// Latest returns the most recently updated draft.
func (r *DraftRepository) Latest() (*models.Draft, error) {
	row := r.db.QueryRow(`
		SELECT id, name, description, prompt, source_playlist_id, created_at, updated_at
		FROM drafts ORDER BY updated_at DESC, created_at DESC LIMIT 1
	`)
	draft, err := scanDraft(row)
	if err != nil {
		return nil, err
	}
	return r.withTracks(draft)
}

// Update writes the draft's fields and replaces its track list.
func (r *DraftRepository) Update(draft *models.Draft) error {
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	err := inTx(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE drafts
			SET name = ?, description = ?, prompt = ?, source_playlist_id = ?, updated_at = ?
			WHERE id = ?
		`, draft.Name(), draft.Description(), draft.Prompt(), draft.SourcePlaylistID(), now, draft.ID())
		if err != nil {
			return fmt.Errorf("failed to update draft: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: draft %s", ErrNotFound, draft.ID())
		}

		if _, err := tx.Exec("DELETE FROM draft_tracks WHERE draft_id = ?", draft.ID()); err != nil {
			return fmt.Errorf("failed to clear draft tracks: %w", err)
		}
		return writeTracks(tx, draft.ID(), draft.Tracks())
	})
	if err != nil {
		return err
	}

	draft.SetUpdatedAt(now)
	return nil
}

// Delete removes a draft; its tracks cascade.
func (r *DraftRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM drafts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: draft %s", ErrNotFound, id)
	}
	return nil
}

// List retrieves drafts, newest first. Supported criteria: "source_playlist_id".
// Tracks are not loaded.
func (r *DraftRepository) List(criteria map[string]any) ([]*models.Draft, error) {
	query := `
		SELECT id, name, description, prompt, source_playlist_id, created_at, updated_at
		FROM drafts
	`
	args := []any{}

	if source, ok := criteria["source_playlist_id"].(string); ok && source != "" {
		query += " WHERE source_playlist_id = ?"
		args = append(args, source)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*models.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return drafts, nil
}

func (r *DraftRepository) withTracks(draft *models.Draft) (*models.Draft, error) {
	rows, err := r.db.Query(`
		SELECT track_id, title, artist, album, duration_ms, uri, preview_url, image_url
		FROM draft_tracks WHERE draft_id = ? ORDER BY position ASC
	`, draft.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to query draft tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Album, &t.DurationMS, &t.URI, &t.PreviewURL, &t.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan draft track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	draft.SetTracks(tracks)
	return draft, nil
}

func writeTracks(tx *sql.Tx, draftID string, tracks []models.Track) error {
	stmt, err := tx.Prepare(`
		INSERT INTO draft_tracks (draft_id, track_id, position, title, artist, album, duration_ms, uri, preview_url, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range tracks {
		if _, err := stmt.Exec(draftID, t.ID, i, t.Title, t.Artist, t.Album, t.DurationMS, t.URI, t.PreviewURL, t.ImageURL); err != nil {
			return fmt.Errorf("failed to insert draft track %s: %w", t.ID, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(row scanner) (*models.Draft, error) {
	var (
		id, name, description, prompt, source string
		createdAt, updatedAt                  time.Time
	)
	err := row.Scan(&id, &name, &description, &prompt, &source, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan draft: %w", err)
	}
	return models.RestoreDraft(id, name, description, prompt, source, createdAt, updatedAt), nil
}
