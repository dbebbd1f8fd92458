package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, shared.RunMigrations(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleTracks() []models.Track {
	return []models.Track{
		{ID: "t1", Title: "Teardrop", Artist: "Massive Attack", URI: "spotify:track:t1", DurationMS: 330000},
		{ID: "t2", Title: "Glory Box", Artist: "Portishead", URI: "spotify:track:t2", ImageURL: "https://i.scdn.co/x"},
		{ID: "temp-1-0", Title: "Unknown", Artist: "Nobody"},
	}
}

func TestDraftRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))
		draft := models.NewDraft("Night Drive", "late night trip hop")
		draft.SetTracks(sampleTracks())

		require.NoError(t, repo.Create(draft))
		assert.NotEmpty(t, draft.ID())

		got, err := repo.Get(draft.ID())
		require.NoError(t, err)
		assert.Equal(t, "Night Drive", got.Name())
		assert.Equal(t, "late night trip hop", got.Prompt())
		assert.Equal(t, sampleTracks(), got.Tracks())
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))
		_, err := repo.Get("nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Update replaces tracks in order", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))
		draft := models.NewDraft("Mix", "")
		draft.SetTracks(sampleTracks())
		require.NoError(t, repo.Create(draft))

		draft.RemoveTrack("t1")
		draft.AddTracks(models.Track{ID: "t3", Title: "Angel", Artist: "Massive Attack"})
		draft.SetDescription("edited")
		draft.SetSourcePlaylistID("37i9dQZF1DX")
		require.NoError(t, repo.Update(draft))

		got, err := repo.Get(draft.ID())
		require.NoError(t, err)
		ids := []string{}
		for _, tr := range got.Tracks() {
			ids = append(ids, tr.ID)
		}
		assert.Equal(t, []string{"t2", "temp-1-0", "t3"}, ids)
		assert.Equal(t, "edited", got.Description())
		assert.Equal(t, "37i9dQZF1DX", got.SourcePlaylistID())
	})

	t.Run("Update missing", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))
		draft := models.RestoreDraft("ghost", "Ghost", "", "", "", time.Now(), time.Now())
		assert.ErrorIs(t, repo.Update(draft), ErrNotFound)
	})

	t.Run("Delete cascades", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewDraftRepository(db)
		draft := models.NewDraft("Gone", "")
		draft.SetTracks(sampleTracks())
		require.NoError(t, repo.Create(draft))

		require.NoError(t, repo.Delete(draft.ID()))
		assert.ErrorIs(t, repo.Delete(draft.ID()), ErrNotFound)

		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM draft_tracks").Scan(&n))
		assert.Zero(t, n)
	})

	t.Run("Latest and List", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))
		_, err := repo.Latest()
		assert.ErrorIs(t, err, ErrNotFound)

		first := models.NewDraft("First", "")
		require.NoError(t, repo.Create(first))
		second := models.NewDraft("Second", "")
		second.SetSourcePlaylistID("abc")
		require.NoError(t, repo.Create(second))
		require.NoError(t, repo.Update(second))

		latest, err := repo.Latest()
		require.NoError(t, err)
		assert.Equal(t, second.ID(), latest.ID())

		all, err := repo.List(nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		filtered, err := repo.List(map[string]any{"source_playlist_id": "abc"})
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, "Second", filtered[0].Name())
	})
}

func TestTrackCache(t *testing.T) {
	track := models.Track{ID: "t1", Title: "Teardrop", Artist: "Massive Attack", URI: "spotify:track:t1", ImageURL: "img"}

	t.Run("Miss then hit with normalized key", func(t *testing.T) {
		cache := NewTrackCache(setupTestDB(t), 0)

		got, err := cache.Lookup("Teardrop", "Massive Attack")
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, cache.Store("Teardrop", "Massive Attack", track))
		got, err = cache.Lookup("  teardrop ", "MASSIVE ATTACK")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, track, *got)
	})

	t.Run("Placeholders are not cached", func(t *testing.T) {
		cache := NewTrackCache(setupTestDB(t), 0)
		require.NoError(t, cache.Store("x", "y", models.Track{ID: "temp-1-0", Title: "x"}))
		got, err := cache.Lookup("x", "y")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Stale entries are ignored", func(t *testing.T) {
		cache := NewTrackCache(setupTestDB(t), time.Hour)
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		cache.now = func() time.Time { return base }
		require.NoError(t, cache.Store("Teardrop", "Massive Attack", track))

		cache.now = func() time.Time { return base.Add(2 * time.Hour) }
		got, err := cache.Lookup("Teardrop", "Massive Attack")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Purge", func(t *testing.T) {
		cache := NewTrackCache(setupTestDB(t), 0)
		require.NoError(t, cache.Store("Teardrop", "Massive Attack", track))
		n, err := cache.Purge()
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})
}

func TestInTxRollsBack(t *testing.T) {
	db := setupTestDB(t)
	boom := errors.New("boom")

	err := inTx(db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO drafts (id, name, created_at, updated_at) VALUES ('x', 'x', ?, ?)`, time.Now(), time.Now())
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM drafts").Scan(&n))
	assert.Zero(t, n)
}
