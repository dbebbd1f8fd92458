package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/riff/internal/auth"
	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/services"
	"github.com/desertthunder/riff/internal/shared"
)

const (
	DefaultRateLimit   = 5.0
	DefaultConcurrency = 4
	maxConcurrency     = 10
)

// GenerateResult is the outcome of [Engine.Generate] or [Engine.Remix].
type GenerateResult struct {
	Suggested *models.SuggestedPlaylist // Parsed model reply
	Source    *models.Playlist          // Remixed playlist; nil for Generate
	Tracks    []models.Track            // Resolved tracks or placeholders, in suggestion order
	Found     int                       // Suggestions matched in the catalog
	Missing   []models.Suggestion       // Suggestions with no catalog match
}

// Placeholders reports whether the tracks were never resolved because no account was connected.
func (r *GenerateResult) Placeholders() bool {
	return len(r.Tracks) > 0 && r.Tracks[0].IsPlaceholder()
}

// ApplyTo merges the result into draft: the suggested name replaces the draft's and the tracks are
// appended without duplicates. It returns the number of tracks added.
func (r *GenerateResult) ApplyTo(draft *models.Draft) int {
	if r.Suggested != nil && strings.TrimSpace(r.Suggested.Name) != "" {
		draft.SetName(strings.TrimSpace(r.Suggested.Name))
	}
	if r.Suggested != nil && r.Suggested.Description != "" {
		draft.SetDescription(r.Suggested.Description)
	}
	if r.Source != nil {
		draft.SetSourcePlaylistID(r.Source.ID)
	}
	return draft.AddTracks(r.Tracks...)
}

// Engine defines the playlist operations.
type Engine interface {
	// Generate asks the model for a playlist matching prompt and resolves its suggestions.
	Generate(ctx context.Context, progress chan<- ProgressUpdate, prompt string) (*GenerateResult, error)

	// Remix fetches an existing playlist and asks the model to rework it. Requires a connected account.
	Remix(ctx context.Context, progress chan<- ProgressUpdate, playlistURL, prompt string) (*GenerateResult, error)

	// Save creates a private playlist from the draft's resolved tracks and then resets the draft.
	Save(ctx context.Context, progress chan<- ProgressUpdate, draft *models.Draft) (*models.Playlist, error)
}

// Session reports whether a catalog account is connected and who it belongs to.
//
// [auth.TokenManager] satisfies this.
type Session interface {
	IsAuthenticated() bool
	User() *auth.User
}

// TrackCacher persists resolved search results between runs.
type TrackCacher interface {
	Lookup(title, artist string) (*models.Track, error)
	Store(title, artist string, track models.Track) error
}

// PlaylistEngine implements [Engine].
type PlaylistEngine struct {
	catalog     services.Catalog
	llm         services.Completer
	session     Session
	cache       TrackCacher
	logger      *log.Logger
	now         func() time.Time
	rateLimit   float64
	concurrency int
}

// Option configures a [PlaylistEngine].
type Option func(*PlaylistEngine)

// WithTrackCache enables the search cache.
func WithTrackCache(c TrackCacher) Option {
	return func(e *PlaylistEngine) { e.cache = c }
}

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *PlaylistEngine) { e.logger = l }
}

// WithClock overrides the time source used for placeholder IDs.
func WithClock(now func() time.Time) Option {
	return func(e *PlaylistEngine) { e.now = now }
}

// WithSearchLimits sets catalog searches per second and the number of searches in flight.
func WithSearchLimits(perSecond float64, concurrency int) Option {
	return func(e *PlaylistEngine) {
		if perSecond > 0 {
			e.rateLimit = perSecond
		}
		if concurrency > 0 {
			e.concurrency = min(concurrency, maxConcurrency)
		}
	}
}

// NewPlaylistEngine creates a new PlaylistEngine. llm may be nil when no model key is configured,
// in which case Generate and Remix fail with [shared.ErrMissingCredentials].
func NewPlaylistEngine(catalog services.Catalog, llm services.Completer, session Session, opts ...Option) *PlaylistEngine {
	e := &PlaylistEngine{
		catalog:     catalog,
		llm:         llm,
		session:     session,
		logger:      log.Default(),
		now:         time.Now,
		rateLimit:   DefaultRateLimit,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ Engine = (*PlaylistEngine)(nil)

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Generate asks the model for a new playlist.
func (e *PlaylistEngine) Generate(ctx context.Context, progress chan<- ProgressUpdate, prompt string) (*GenerateResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}

	system, user := services.GeneratePrompt(prompt)
	result := &GenerateResult{}
	if err := e.suggest(ctx, progress, system, user, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Remix reworks the playlist at playlistURL.
func (e *PlaylistEngine) Remix(ctx context.Context, progress chan<- ProgressUpdate, playlistURL, prompt string) (*GenerateResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}

	id, ok := services.ExtractPlaylistID(strings.TrimSpace(playlistURL))
	if !ok {
		return nil, fmt.Errorf("%w: invalid playlist URL", shared.ErrInvalidArgument)
	}
	if !e.authenticated() {
		return nil, fmt.Errorf("%w: connect to Spotify first to remix playlists", shared.ErrNotAuthenticated)
	}

	e.sendProgress(progress, fetchSourceUpdate(id))
	source, err := e.catalog.Playlist(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	system, user := services.RemixPrompt(source, prompt)
	result := &GenerateResult{Source: source}
	if err := e.suggest(ctx, progress, system, user, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *PlaylistEngine) suggest(ctx context.Context, progress chan<- ProgressUpdate, system, user string, result *GenerateResult) error {
	if e.llm == nil {
		return fmt.Errorf("%w: OpenRouter API key is not set", shared.ErrMissingCredentials)
	}

	model := ""
	if m, ok := e.llm.(interface{ Model() string }); ok {
		model = m.Model()
	}
	e.sendProgress(progress, queryModelUpdate(model))

	reply, err := e.llm.Complete(ctx, system, user)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	suggested, err := services.ParseSuggestions(reply)
	if err != nil {
		return err
	}
	result.Suggested = suggested
	e.sendProgress(progress, parsedReplyUpdate(suggested))

	return e.resolve(ctx, progress, suggested.Tracks, result)
}

// Save creates a private playlist from the draft and resets it.
func (e *PlaylistEngine) Save(ctx context.Context, progress chan<- ProgressUpdate, draft *models.Draft) (*models.Playlist, error) {
	if !e.authenticated() {
		return nil, fmt.Errorf("%w: connect to Spotify to save playlists", shared.ErrNotAuthenticated)
	}
	user := e.session.User()
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("%w: no connected user profile", shared.ErrNotAuthenticated)
	}
	if draft == nil || draft.Len() == 0 {
		return nil, fmt.Errorf("%w: draft has no tracks", shared.ErrInvalidInput)
	}

	name := strings.TrimSpace(draft.Name())
	if name == "" {
		name = models.DefaultPlaylistName
	}

	e.sendProgress(progress, createPlaylistUpdate(name))
	pl, err := e.catalog.CreatePlaylist(ctx, user.ID, name, models.DefaultPlaylistDescription, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	uris := draft.SaveableURIs()
	if len(uris) > 0 {
		e.sendProgress(progress, addTracksUpdate(pl, len(uris)))
		if err := e.catalog.AddTracks(ctx, pl.ID, uris); err != nil {
			return pl, fmt.Errorf("failed to add tracks: %w", err)
		}
	}
	pl.TrackCount = len(uris)

	e.logger.Info("playlist saved", "id", pl.ID, "name", pl.Name, "tracks", len(uris))

	draft.SetTracks(nil)
	draft.SetName(models.DefaultPlaylistName)
	draft.SetDescription("")
	draft.SetSourcePlaylistID("")
	return pl, nil
}

func (e *PlaylistEngine) authenticated() bool {
	return e.session != nil && e.session.IsAuthenticated()
}
