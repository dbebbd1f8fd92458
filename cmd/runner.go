package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/riff/internal/auth"
	"github.com/desertthunder/riff/internal/repositories"
	"github.com/desertthunder/riff/internal/services"
	"github.com/desertthunder/riff/internal/settings"
	"github.com/desertthunder/riff/internal/shared"
	"github.com/desertthunder/riff/internal/store"
	"github.com/desertthunder/riff/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Storage and services are opened on first use so commands like setup can run before a database exists.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	httpClient *http.Client
	random     io.Reader
	now        func() time.Time
	spotifyAPI string
	tokenURL   string
	completer  services.Completer

	db       *sql.DB
	kv       store.Store
	ownsDB   bool
	ownsKV   bool
	sessions *auth.SessionStore
	tokens   *auth.TokenManager
	settings *settings.Manager
	spotify  *services.SpotifyService
	drafts   *repositories.DraftRepository
	cache    *repositories.TrackCache
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	HTTPClient *http.Client
	Random     io.Reader          // PKCE and profile entropy; nil uses crypto/rand
	Now        func() time.Time   // Defaults to time.Now
	DB         *sql.DB            // Migrated database; opened from config when nil
	Store      store.Store        // Key-value store; selected by storage.driver when nil
	SpotifyAPI string             // Web API base URL override
	TokenURL   string             // Token endpoint override
	Completer  services.Completer // Language model override; built from settings when nil
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TokenURL == "" {
		opts.TokenURL = auth.SpotifyTokenURL
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		httpClient: opts.HTTPClient,
		random:     opts.Random,
		now:        opts.Now,
		spotifyAPI: opts.SpotifyAPI,
		tokenURL:   opts.TokenURL,
		completer:  opts.Completer,
		db:         opts.DB,
		kv:         opts.Store,
	}
}

// SetLogger replaces the logger, e.g. while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Before loads the config named by --config and applies --verbose.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if path := cmd.String("config"); path != "" && path != r.configPath {
		config, err := shared.LoadOrDefault(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configPath = path
	}
	return ctx, nil
}

// After closes whatever storage the runner opened.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close releases storage opened by the runner. Injected storage is left open.
func (r *Runner) Close() error {
	var errs []error
	if r.kv != nil && r.ownsKV {
		errs = append(errs, r.kv.Close())
	}
	if r.db != nil && r.ownsDB {
		errs = append(errs, r.db.Close())
	}
	r.kv, r.db, r.ownsKV, r.ownsDB = nil, nil, false, false
	r.tokens = nil
	return errors.Join(errs...)
}

// open connects storage and builds the services. It is safe to call more than once.
func (r *Runner) open(ctx context.Context) error {
	if r.tokens != nil {
		return nil
	}

	if r.db == nil {
		cfg := r.config.Storage
		r.logger.Debug("opening database", "path", cfg.Path)
		db, err := shared.NewDatabase(cfg.Path)
		if err != nil {
			return err
		}
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		r.db, r.ownsDB = db, true
	}

	if r.kv == nil {
		kv, err := r.openStore()
		if err != nil {
			return err
		}
		r.kv, r.ownsKV = kv, true
	}

	tokens := auth.NewTokenManager(r.kv, r.now, r.logger)
	if _, err := tokens.Load(ctx); err != nil {
		return err
	}
	r.tokens = tokens
	r.sessions = auth.NewSessionStore(r.kv, r.logger)
	r.settings = settings.NewManager(r.kv, r.config)
	r.spotify = services.NewSpotifyService(r.tokens, r.spotifyAPI)
	r.drafts = repositories.NewDraftRepository(r.db)
	r.cache = repositories.NewTrackCache(r.db, 30*24*time.Hour)
	return nil
}

func (r *Runner) openStore() (store.Store, error) {
	switch r.config.Storage.Driver {
	case "", "sqlite":
		return store.NewSQLite(r.db), nil
	case "bolt", "bbolt":
		return store.OpenBolt(r.config.Storage.BoltPath)
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", shared.ErrInvalidConfig, r.config.Storage.Driver)
	}
}

// engine builds a playlist engine from the current settings. A missing model key leaves Generate
// and Remix unavailable but Save still works.
func (r *Runner) engine(ctx context.Context) (*tasks.PlaylistEngine, error) {
	if err := r.open(ctx); err != nil {
		return nil, err
	}

	completer := r.completer
	if completer == nil {
		s, err := r.settings.Load(ctx)
		if err != nil {
			return nil, err
		}
		if s.OpenRouterKey != "" {
			or := r.config.OpenRouter
			llm, err := services.NewOpenRouter(services.LLMConfig{
				APIKey:      s.OpenRouterKey,
				BaseURL:     or.BaseURL,
				Model:       s.Model,
				WebSearch:   s.WebSearch,
				Temperature: or.Temperature,
				Referer:     or.Referer,
				Title:       or.Title,
				HTTPClient:  r.httpClient,
			})
			if err != nil {
				return nil, err
			}
			completer = llm
		}
	}

	search := r.config.Search
	return tasks.NewPlaylistEngine(r.spotify, completer, r.tokens,
		tasks.WithTrackCache(r.cache),
		tasks.WithLogger(r.logger),
		tasks.WithClock(r.now),
		tasks.WithSearchLimits(search.RateLimit, search.Concurrency),
	), nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, settingsCommand, profileCommand, generateCommand, remixCommand,
		draftCommand, searchCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
