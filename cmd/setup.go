package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/riff/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a config file from the template when missing, then initializes storage.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			config, err := shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
			} else {
				r.config = config
				r.configPath = configPath
			}
		}
	}

	r.logger.Info("initializing storage", "driver", r.config.Storage.Driver, "path", r.config.Storage.Path)
	if err := r.open(ctx); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Storage.Path)

	s, err := r.settings.Load(ctx)
	if err != nil {
		return err
	}

	r.writePlain("✓ Storage ready\n")
	r.writePlainln("Next steps:")
	step := 1
	if s.SpotifyClientID == "" {
		r.writePlain("%d. Set your Spotify client ID: riff settings set client_id <id>\n", step)
		step++
	}
	if s.OpenRouterKey == "" {
		r.writePlain("%d. Set your OpenRouter key: riff settings set api_key <key>\n", step)
		step++
	}
	r.writePlain("%d. Connect your account: riff auth login\n", step)
	return r.writePlain("%d. Create a playlist: riff generate \"late night jazz for coding\"\n", step+1)
}
