package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/riff/internal/profile"
	"github.com/desertthunder/riff/internal/shared"
	"github.com/desertthunder/riff/internal/store"
)

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults come from config", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Spotify.ClientID = "from-config"
		m := NewManager(store.NewMemory(), config)

		s, err := m.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "from-config", s.SpotifyClientID)
		assert.Equal(t, DefaultModel, s.Model)
	})

	t.Run("stored values win", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Spotify.ClientID = "from-config"
		config.OpenRouter.WebSearch = true
		m := NewManager(store.NewMemory(), config)

		require.NoError(t, m.Save(ctx, Settings{SpotifyClientID: " stored ", Model: "openai/gpt-4o"}))
		s, err := m.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "stored", s.SpotifyClientID)
		assert.Equal(t, "openai/gpt-4o", s.Model)
		assert.False(t, s.WebSearch)
	})

	t.Run("stored empty values clear config defaults", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Spotify.ClientID = "from-config"
		config.OpenRouter.APIKey = "sk-from-env"
		m := NewManager(store.NewMemory(), config)

		s, err := m.Apply(ctx, profile.SettingsRecord{SpotifyClientID: "imported"})
		require.NoError(t, err)
		assert.Empty(t, s.OpenRouterKey)

		loaded, err := m.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "imported", loaded.SpotifyClientID)
		assert.Empty(t, loaded.OpenRouterKey)

		require.NoError(t, m.Save(ctx, Settings{SpotifyClientID: "x", OpenRouterKey: "k"}))
		cleared, err := m.Set(ctx, "api_key", "")
		require.NoError(t, err)
		assert.Empty(t, cleared.OpenRouterKey)
		assert.Equal(t, "x", cleared.SpotifyClientID)
	})

	t.Run("set by alias", func(t *testing.T) {
		m := NewManager(store.NewMemory(), nil)

		s, err := m.Set(ctx, "web-search", "true")
		require.NoError(t, err)
		assert.True(t, s.WebSearch)

		s, err = m.Set(ctx, "api_key", "sk-or-1234567890")
		require.NoError(t, err)
		assert.Equal(t, "sk-or-1234567890", s.OpenRouterKey)
		assert.True(t, s.WebSearch)

		_, err = m.Set(ctx, "web_search", "maybe")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
		_, err = m.Set(ctx, "colour", "blue")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("apply imported record", func(t *testing.T) {
		m := NewManager(store.NewMemory(), nil)
		s, err := m.Apply(ctx, profile.SettingsRecord{SpotifyClientID: "id", OpenRouterKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, s.Model)

		loaded, err := m.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, s, loaded)
	})
}

func TestRecord(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	s := Settings{SpotifyClientID: "id", OpenRouterKey: "k", Model: "m", WebSearch: true}

	rec := s.Record(now)
	assert.Equal(t, time.UTC, rec.ExportedAt.Location())
	assert.Equal(t, s, FromRecord(rec))
}

func TestRedacted(t *testing.T) {
	tc := []struct {
		in, want string
	}{
		{in: "", want: ""},
		{in: "short", want: "*****"},
		{in: "sk-or-v1-abcdef", want: "sk-o*******cdef"},
	}
	for _, tt := range tc {
		got := Settings{OpenRouterKey: tt.in}.Redacted().OpenRouterKey
		assert.Equal(t, tt.want, got)
	}
}
