package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/riff/internal/formatter"
	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/repositories"
	"github.com/desertthunder/riff/internal/shared"
	"github.com/desertthunder/riff/internal/tasks"
	"github.com/urfave/cli/v3"
)

// currentDraft returns the most recently updated draft, or a new unsaved one when fresh is set or none exist.
func (r *Runner) currentDraft(fresh bool) (*models.Draft, bool, error) {
	if !fresh {
		d, err := r.drafts.Latest()
		if err == nil {
			return d, true, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, false, err
		}
	}
	return models.NewDraft(models.DefaultPlaylistName, ""), false, nil
}

func (r *Runner) persistDraft(d *models.Draft, exists bool) error {
	if exists {
		return r.drafts.Update(d)
	}
	return r.drafts.Create(d)
}

// watchProgress prints engine updates until the returned stop func is called.
func (r *Runner) watchProgress() (chan<- tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.QueryModel:
				r.writePlain("🤖 %s\n", update.Message)
			case tasks.ParseReply:
				r.writePlain("📋 %s\n", update.Message)
			case tasks.SearchTracks:
				if update.Step == 0 {
					r.writePlain("\n🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.CreatePlaylist:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.AddTracks:
				r.writePlain("➕ %s\n", update.Message)
			}
		}
	}()
	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

// Generate asks the model for a playlist and merges the resolved tracks into the current draft.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.TrimSpace(cmd.StringArg("prompt"))
	if prompt == "" {
		return fmt.Errorf("%w: please enter a description for your playlist", shared.ErrMissingArgument)
	}

	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	progressCh, stop := r.watchProgress()
	result, err := engine.Generate(ctx, progressCh, prompt)
	stop()
	if err != nil {
		return err
	}

	return r.applyResult(cmd, result, prompt)
}

// Remix fetches a playlist and asks the model for a variation of it.
func (r *Runner) Remix(ctx context.Context, cmd *cli.Command) error {
	playlistURL := strings.TrimSpace(cmd.StringArg("url"))
	if playlistURL == "" {
		return fmt.Errorf("%w: playlist url", shared.ErrMissingArgument)
	}

	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	prompt := cmd.String("prompt")
	progressCh, stop := r.watchProgress()
	result, err := engine.Remix(ctx, progressCh, playlistURL, prompt)
	stop()
	if err != nil {
		return err
	}

	return r.applyResult(cmd, result, prompt)
}

func (r *Runner) applyResult(cmd *cli.Command, result *tasks.GenerateResult, prompt string) error {
	draft, exists, err := r.currentDraft(cmd.Bool("new"))
	if err != nil {
		return err
	}
	if prompt != "" {
		draft.SetPrompt(prompt)
	}
	added := result.ApplyTo(draft)
	if err := r.persistDraft(draft, exists); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	r.writePlain("\n")
	r.writePlainHeader(draft.Name())
	if desc := draft.Description(); desc != "" {
		r.writePlain("%s\n", desc)
	}
	if result.Source != nil {
		r.writePlain("Remix of: %s\n", result.Source.Name)
	}
	r.writePlain("Added %d tracks to draft %s (%d total)\n", added, draft.ID(), draft.Len())

	if result.Placeholders() {
		return r.writePlainln("Connect to Spotify to find actual tracks and save your playlist!")
	}

	r.writePlainln("Found %d of %d tracks on Spotify.", result.Found, len(result.Suggested.Tracks))
	if len(result.Missing) > 0 {
		r.writePlain("Not found:\n")
		for _, s := range result.Missing {
			r.writePlain("  - %s - %s\n", s.Artist, s.Title)
		}
	}
	return nil
}

// DraftShow prints the current draft.
func (r *Runner) DraftShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	draft, err := r.loadDraft(cmd.String("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(formatter.NewDraftDocument(draft), cmd.Bool("pretty"))
	}

	out, err := formatter.ExportToText(draft)
	if err != nil {
		return err
	}
	_, err = r.output.Write(out)
	return err
}

// DraftList prints every stored draft.
func (r *Runner) DraftList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	drafts, err := r.drafts.List(nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		docs := make([]formatter.DraftDocument, 0, len(drafts))
		for _, d := range drafts {
			docs = append(docs, formatter.NewDraftDocument(d))
		}
		return r.writeJSON(docs, cmd.Bool("pretty"))
	}

	if len(drafts) == 0 {
		return r.writePlain("No drafts yet. Run 'riff generate \"your idea\"' to start one.\n")
	}
	for _, d := range drafts {
		r.writePlain("%s  %-30s  %s\n", d.ID(), d.Name(), d.UpdatedAt().Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (r *Runner) loadDraft(id string) (*models.Draft, error) {
	if id != "" {
		return r.drafts.Get(id)
	}
	d, err := r.drafts.Latest()
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: no draft yet, run 'riff generate' first", repositories.ErrNotFound)
	}
	return d, err
}

// DraftAdd searches the catalog and appends the chosen match to the draft.
func (r *Runner) DraftAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	if !r.tokens.IsAuthenticated() {
		return fmt.Errorf("%w: connect to Spotify to search for tracks", shared.ErrNotAuthenticated)
	}

	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	pick := max(int(cmd.Int("pick")), 1)
	tracks, err := r.spotify.SearchTracks(ctx, query, pick)
	if err != nil {
		return err
	}
	if len(tracks) < pick {
		return fmt.Errorf("%w: %q", shared.ErrTrackNotFound, query)
	}
	track := tracks[pick-1]

	draft, exists, err := r.currentDraft(false)
	if err != nil {
		return err
	}
	if draft.AddTracks(track) == 0 {
		return r.writePlain("%s - %s is already in the draft\n", track.Artist, track.Title)
	}
	if err := r.persistDraft(draft, exists); err != nil {
		return err
	}
	return r.writePlain("✓ Added %s - %s (%d tracks)\n", track.Artist, track.Title, draft.Len())
}

// DraftRemove removes a track by ID or by 1-based position.
func (r *Runner) DraftRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	ref := strings.TrimSpace(cmd.StringArg("track"))
	if ref == "" {
		return fmt.Errorf("%w: track id or position", shared.ErrMissingArgument)
	}

	draft, err := r.loadDraft("")
	if err != nil {
		return err
	}

	id := ref
	tracks := draft.Tracks()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(tracks) {
			return fmt.Errorf("%w: position %d out of range 1-%d", shared.ErrInvalidArgument, n, len(tracks))
		}
		id = tracks[n-1].ID
	}

	if !draft.RemoveTrack(id) {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, ref)
	}
	if err := r.drafts.Update(draft); err != nil {
		return err
	}
	return r.writePlain("✓ Removed track (%d remaining)\n", draft.Len())
}

// DraftRename sets the playlist name used when saving.
func (r *Runner) DraftRename(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	draft, exists, err := r.currentDraft(false)
	if err != nil {
		return err
	}
	draft.SetName(name)
	if err := r.persistDraft(draft, exists); err != nil {
		return err
	}
	return r.writePlain("✓ Renamed draft to %s\n", name)
}

// DraftClear empties the current draft, or deletes it with --delete.
func (r *Runner) DraftClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	draft, err := r.loadDraft(cmd.String("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("delete") {
		if err := r.drafts.Delete(draft.ID()); err != nil {
			return err
		}
		return r.writePlain("✓ Deleted draft %s\n", draft.ID())
	}

	draft.SetTracks(nil)
	draft.SetName(models.DefaultPlaylistName)
	draft.SetDescription("")
	draft.SetSourcePlaylistID("")
	if err := r.drafts.Update(draft); err != nil {
		return err
	}
	return r.writePlain("✓ Draft cleared\n")
}

// DraftSave creates the playlist on Spotify and resets the draft.
func (r *Runner) DraftSave(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	draft, err := r.loadDraft(cmd.String("id"))
	if err != nil {
		return err
	}
	if name := strings.TrimSpace(cmd.String("name")); name != "" {
		draft.SetName(name)
	}

	progressCh, stop := r.watchProgress()
	playlist, err := engine.Save(ctx, progressCh, draft)
	stop()
	if err != nil {
		if playlist != nil {
			r.logger.Warn("playlist created but tracks could not be added", "playlist", playlist.ID)
		}
		return err
	}

	if err := r.drafts.Update(draft); err != nil {
		r.logger.Warn("failed to reset draft after save", "error", err)
	}

	r.writePlain("\n")
	r.writePlainHeader("Playlist saved to Spotify!")
	r.writePlain("Name: %s\n", playlist.Name)
	r.writePlain("Tracks: %d\n", playlist.TrackCount)
	if playlist.URL != "" {
		r.writePlain("URL: %s\n", playlist.URL)
	}
	return nil
}

// DraftExport renders the draft in the requested format to stdout or a file.
func (r *Runner) DraftExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	draft, err := r.loadDraft(cmd.String("id"))
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if out := cmd.String("output"); out != "" {
		path, err := formatter.WriteExport(draft, format, out)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported draft to %s\n", path)
	}

	data, err := formatter.Render(draft, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// Search queries the catalog directly.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	if !r.tokens.IsAuthenticated() {
		return fmt.Errorf("%w: connect to Spotify to search for tracks", shared.ErrNotAuthenticated)
	}

	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	tracks, err := r.spotify.SearchTracks(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		return r.writePlain("No tracks found for %q\n", query)
	}
	for i, t := range tracks {
		r.writePlain("%2d. %s - %s", i+1, t.Artist, t.Title)
		if t.Album != "" {
			r.writePlain(" (%s)", t.Album)
		}
		r.writePlain("  %s\n", shared.FormatDuration(t.DurationMS))
	}
	return nil
}

// CachePurge removes stale catalog lookups.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	n, err := r.cache.Purge()
	if err != nil {
		return err
	}
	r.logger.Infof("purged %d cached lookups", n)
	return r.writePlain("✓ Removed %d stale lookups\n", n)
}
