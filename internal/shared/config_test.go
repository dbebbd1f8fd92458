package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()
		if config.Storage.Path != "./riff.db" {
			t.Errorf("expected storage path ./riff.db, got %s", config.Storage.Path)
		}
		if config.Storage.Driver != "sqlite" {
			t.Errorf("expected sqlite driver, got %s", config.Storage.Driver)
		}
		if config.Spotify.RedirectURI != "http://127.0.0.1:3000/callback" {
			t.Errorf("unexpected redirect uri %s", config.Spotify.RedirectURI)
		}
		if len(config.Spotify.Scopes) != 4 {
			t.Errorf("expected 4 scopes, got %d", len(config.Spotify.Scopes))
		}
		if config.OpenRouter.Model != "deepseek/deepseek-chat-v3-0324:free" {
			t.Errorf("unexpected default model %s", config.OpenRouter.Model)
		}
		if config.Profile.Salted {
			t.Error("salted exports should be opt-in")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Storage.Path != DefaultConfig().Storage.Path {
			t.Errorf("created config storage path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[storage]
driver = "bolt"
path = "/custom/path.db"

[spotify]
client_id = "test_client_id"
redirect_uri = "http://localhost:8888/callback"

[openrouter]
model = "openai/gpt-4o"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Storage.Driver != "bolt" {
			t.Errorf("expected bolt driver, got %s", config.Storage.Driver)
		}
		if config.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected client_id test_client_id, got %s", config.Spotify.ClientID)
		}
		if config.OpenRouter.Model != "openai/gpt-4o" {
			t.Errorf("expected model openai/gpt-4o, got %s", config.OpenRouter.Model)
		}
		if config.OpenRouter.BaseURL != "https://openrouter.ai/api/v1" {
			t.Errorf("missing keys should keep defaults, got base_url %q", config.OpenRouter.BaseURL)
		}
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		t.Setenv("RIFF_SPOTIFY_CLIENT_ID", "env_client")
		t.Setenv("RIFF_WEB_SEARCH", "true")

		config, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.Spotify.ClientID != "env_client" {
			t.Errorf("expected env client id, got %s", config.Spotify.ClientID)
		}
		if !config.OpenRouter.WebSearch {
			t.Error("expected web search enabled from env")
		}
	})

	t.Run("SaveConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Spotify.ClientID = "saved"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}
		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Spotify.ClientID != "saved" {
			t.Errorf("expected client id saved, got %s", loaded.Spotify.ClientID)
		}
	})

	t.Run("ListenAddr", func(t *testing.T) {
		tt := []struct {
			name    string
			uri     string
			want    string
			wantErr bool
		}{
			{name: "loopback", uri: "http://127.0.0.1:3000/callback", want: "127.0.0.1:3000"},
			{name: "localhost", uri: "http://localhost:8888/cb", want: "localhost:8888"},
			{name: "no port", uri: "http://127.0.0.1/callback", wantErr: true},
			{name: "https", uri: "https://example.com:443/callback", wantErr: true},
		}
		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				got, err := SpotifyConfig{RedirectURI: tc.uri}.ListenAddr()
				if (err != nil) != tc.wantErr {
					t.Fatalf("ListenAddr() error = %v, wantErr %v", err, tc.wantErr)
				}
				if got != tc.want {
					t.Errorf("ListenAddr() = %q, want %q", got, tc.want)
				}
			})
		}
	})
}
