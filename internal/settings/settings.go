// Package settings holds the user-editable credentials and model preferences.
//
// Settings live in a single store record so a profile import applies every field or none.
// Until a record is stored the loaded [shared.Config] supplies the values; afterwards the record
// is authoritative, so an empty field stays empty.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/riff/internal/profile"
	"github.com/desertthunder/riff/internal/shared"
	"github.com/desertthunder/riff/internal/store"
)

const DefaultModel = "deepseek/deepseek-chat-v3-0324:free"

// Settings are the effective user settings.
type Settings struct {
	SpotifyClientID string `json:"spotify_client_id"`
	OpenRouterKey   string `json:"openrouter_key"`
	Model           string `json:"ai_model"`
	WebSearch       bool   `json:"web_search_enabled"`
}

// Record converts s into an exportable record stamped with now.
func (s Settings) Record(now time.Time) profile.SettingsRecord {
	return profile.SettingsRecord{
		SpotifyClientID:  s.SpotifyClientID,
		OpenRouterKey:    s.OpenRouterKey,
		AIModel:          s.Model,
		WebSearchEnabled: s.WebSearch,
		ExportedAt:       now.UTC(),
	}
}

// FromRecord builds settings from an imported record; an empty model becomes [DefaultModel].
func FromRecord(rec profile.SettingsRecord) Settings {
	s := Settings{
		SpotifyClientID: rec.SpotifyClientID,
		OpenRouterKey:   rec.OpenRouterKey,
		Model:           rec.AIModel,
		WebSearch:       rec.WebSearchEnabled,
	}
	if s.Model == "" {
		s.Model = DefaultModel
	}
	return s
}

// Redacted returns a copy with the API key masked for display.
func (s Settings) Redacted() Settings {
	s.OpenRouterKey = mask(s.OpenRouterKey)
	return s
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return strings.Repeat("*", len(v))
	}
	return v[:4] + strings.Repeat("*", len(v)-8) + v[len(v)-4:]
}

// Manager reads and writes the settings record.
type Manager struct {
	store    store.Store
	defaults Settings
}

// NewManager creates a manager whose fallbacks come from config.
func NewManager(s store.Store, config *shared.Config) *Manager {
	defaults := Settings{Model: DefaultModel}
	if config != nil {
		defaults.SpotifyClientID = config.Spotify.ClientID
		defaults.OpenRouterKey = config.OpenRouter.APIKey
		defaults.WebSearch = config.OpenRouter.WebSearch
		if config.OpenRouter.Model != "" {
			defaults.Model = config.OpenRouter.Model
		}
	}
	return &Manager{store: s, defaults: defaults}
}

// Load returns the stored settings, or the configured defaults when nothing has been stored.
func (m *Manager) Load(ctx context.Context) (Settings, error) {
	var stored Settings
	err := store.GetJSON(ctx, m.store, store.KeySettings, &stored)
	if errors.Is(err, store.ErrNotFound) {
		return m.defaults, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	if stored.Model == "" {
		stored.Model = DefaultModel
	}
	return stored, nil
}

// Save writes every field in one record.
func (m *Manager) Save(ctx context.Context, s Settings) error {
	s.SpotifyClientID = strings.TrimSpace(s.SpotifyClientID)
	s.OpenRouterKey = strings.TrimSpace(s.OpenRouterKey)
	s.Model = strings.TrimSpace(s.Model)
	if s.Model == "" {
		s.Model = DefaultModel
	}
	if err := store.PutJSON(ctx, m.store, store.KeySettings, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Apply stores an imported record.
func (m *Manager) Apply(ctx context.Context, rec profile.SettingsRecord) (Settings, error) {
	s := FromRecord(rec)
	if err := m.Save(ctx, s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Set updates one field by its record name (or a short alias) and saves.
func (m *Manager) Set(ctx context.Context, key, value string) (Settings, error) {
	s, err := m.Load(ctx)
	if err != nil {
		return Settings{}, err
	}

	switch strings.ToLower(key) {
	case "spotify_client_id", "client_id", "client-id":
		s.SpotifyClientID = value
	case "openrouter_key", "api_key", "api-key":
		s.OpenRouterKey = value
	case "ai_model", "model":
		s.Model = value
	case "web_search_enabled", "web_search", "web-search":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %s must be true or false", shared.ErrInvalidArgument, key)
		}
		s.WebSearch = b
	default:
		return Settings{}, fmt.Errorf("%w: unknown setting %q", shared.ErrInvalidArgument, key)
	}

	if err := m.Save(ctx, s); err != nil {
		return Settings{}, err
	}
	return m.Load(ctx)
}
