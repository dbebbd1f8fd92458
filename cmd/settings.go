package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/riff/internal/auth"
	"github.com/desertthunder/riff/internal/profile"
	"github.com/desertthunder/riff/internal/shared"
	"github.com/desertthunder/riff/internal/ui"
	"github.com/urfave/cli/v3"
)

// SettingsShow prints the effective settings with the API key masked.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	s, err := r.settings.Load(ctx)
	if err != nil {
		return err
	}
	if !cmd.Bool("reveal") {
		s = s.Redacted()
	}

	if cmd.Bool("json") {
		return r.writeJSON(s, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Settings")
	r.writePlain("spotify_client_id   %s\n", orUnset(s.SpotifyClientID))
	r.writePlain("openrouter_key      %s\n", orUnset(s.OpenRouterKey))
	r.writePlain("ai_model            %s\n", s.Model)
	return r.writePlain("web_search_enabled  %t\n", s.WebSearch)
}

// SettingsSet updates a single setting.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	key, value := cmd.StringArg("key"), cmd.StringArg("value")
	if key == "" {
		return fmt.Errorf("%w: setting name", shared.ErrMissingArgument)
	}

	if _, err := r.settings.Set(ctx, key, value); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.RenderNotice(auth.Notice{Level: auth.LevelSuccess, Message: "Settings saved"}))
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

// password returns the --password flag, then RIFF_PROFILE_PASSWORD, then prompts.
func (r *Runner) password(cmd *cli.Command, title string) (string, error) {
	if pw := cmd.String("password"); pw != "" {
		return pw, nil
	}
	pw, err := ui.PromptPassword(r.input, r.output, title, profile.MinPasswordLength)
	if errors.Is(err, ui.ErrPromptCancelled) {
		return "", fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}
	return pw, err
}

// ProfileExport writes the current settings to an encrypted profile file.
func (r *Runner) ProfileExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	s, err := r.settings.Load(ctx)
	if err != nil {
		return err
	}

	pw, err := r.password(cmd, "Choose a password for this profile")
	if err != nil {
		return err
	}

	salted := r.config.Profile.Salted || cmd.Bool("salted")
	codec := profile.NewCodec(r.random, salted)

	path, err := codec.ExportFile(cmd.String("dir"), s.Record(r.now()), pw)
	if err != nil {
		return err
	}
	r.logger.Info("profile exported", "path", path, "salted", salted)
	return r.writePlain("%s\n", ui.RenderNotice(auth.Notice{Level: auth.LevelSuccess, Message: "Profile exported to " + path}))
}

// ProfileImport decrypts a profile file and replaces the stored settings with it.
func (r *Runner) ProfileImport(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	path := strings.TrimSpace(cmd.StringArg("path"))
	if path == "" {
		return fmt.Errorf("%w: profile path", shared.ErrMissingArgument)
	}

	pw, err := r.password(cmd, "Profile password")
	if err != nil {
		return err
	}

	rec, err := profile.NewCodec(r.random, false).ImportFile(path, pw)
	if err != nil {
		return err
	}

	applied, err := r.settings.Apply(ctx, rec)
	if err != nil {
		return err
	}
	r.logger.Debug("profile imported", "path", path, "exported_at", rec.ExportedAt, "model", applied.Model)

	msg := "Profile imported"
	if !rec.ExportedAt.IsZero() {
		msg = fmt.Sprintf("Profile imported (exported %s)", rec.ExportedAt.Local().Format("2006-01-02 15:04"))
	}
	return r.writePlain("%s\n", ui.RenderNotice(auth.Notice{Level: auth.LevelSuccess, Message: msg}))
}
