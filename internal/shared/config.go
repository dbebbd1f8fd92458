package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Fields tagged with env are overridden by environment variables after the file is parsed.
type Config struct {
	Spotify    SpotifyConfig    `toml:"spotify"`
	OpenRouter OpenRouterConfig `toml:"openrouter"`
	Storage    StorageConfig    `toml:"storage"`
	Profile    ProfileConfig    `toml:"profile"`
	Search     SearchConfig     `toml:"search"`
}

// SpotifyConfig contains the public PKCE client settings.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id" env:"RIFF_SPOTIFY_CLIENT_ID"`
	RedirectURI string   `toml:"redirect_uri" env:"RIFF_SPOTIFY_REDIRECT_URI"`
	Scopes      []string `toml:"scopes"`
}

// OpenRouterConfig contains language model API settings.
type OpenRouterConfig struct {
	APIKey      string  `toml:"api_key" env:"RIFF_OPENROUTER_KEY"`
	BaseURL     string  `toml:"base_url" env:"RIFF_OPENROUTER_BASE_URL"`
	Model       string  `toml:"model" env:"RIFF_MODEL"`
	WebSearch   bool    `toml:"web_search" env:"RIFF_WEB_SEARCH"`
	Temperature float32 `toml:"temperature"`
	Referer     string  `toml:"referer"`
	Title       string  `toml:"title"`
}

// StorageConfig selects the durable key-value backend and the SQLite database used for drafts.
type StorageConfig struct {
	Driver       string `toml:"driver" env:"RIFF_STORAGE_DRIVER"`
	Path         string `toml:"path" env:"RIFF_STORAGE_PATH"`
	BoltPath     string `toml:"bolt_path" env:"RIFF_BOLT_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ProfileConfig controls encrypted profile exports.
type ProfileConfig struct {
	Salted bool `toml:"salted" env:"RIFF_PROFILE_SALTED"`
}

// SearchConfig paces catalog lookups while resolving suggestions.
type SearchConfig struct {
	RateLimit   float64 `toml:"rate_limit"`
	Concurrency int     `toml:"concurrency"`
}

// ListenAddr returns the host:port the local callback server binds to, taken from the redirect URI.
func (c SpotifyConfig) ListenAddr() (string, error) {
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: redirect_uri: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" || u.Host == "" {
		return "", fmt.Errorf("%w: redirect_uri must be an http loopback URL, got %q", ErrInvalidConfig, c.RedirectURI)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		return "", fmt.Errorf("%w: redirect_uri needs an explicit port: %v", ErrInvalidConfig, err)
	}
	return net.JoinHostPort(host, port), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path, then applies environment overrides.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadOrDefault loads the config at path when it exists and falls back to defaults (with environment overrides) otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			return nil, err
		}
		return config, nil
	}
	return LoadConfig(path)
}

// ApplyEnv loads a .env file from the working directory if present and overlays RIFF_* variables onto config.
func ApplyEnv(config *Config) error {
	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: environment: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
