package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/riff/internal/auth"
	"github.com/desertthunder/riff/internal/server"
	"github.com/desertthunder/riff/internal/shared"
	"github.com/desertthunder/riff/internal/ui"
	"github.com/urfave/cli/v3"
)

// callbackHandler wires the token endpoint, profile fetcher and stores into a callback processor.
func (r *Runner) callbackHandler(clientID string, nav auth.Navigator, notify auth.Notifier) *auth.CallbackHandler {
	return auth.NewCallbackHandler(
		clientID,
		r.config.Spotify.RedirectURI,
		r.sessions,
		r.tokens,
		auth.NewTokenEndpoint(r.tokenURL, r.httpClient, r.now),
		r.spotify,
		auth.WithNavigator(nav),
		auth.WithNotifier(notify),
		auth.WithLogger(r.logger),
	)
}

// AuthLogin starts the local callback server, opens the authorization page and waits for the redirect.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	s, err := r.settings.Load(ctx)
	if err != nil {
		return err
	}

	redirect, err := url.Parse(r.config.Spotify.RedirectURI)
	if err != nil {
		return fmt.Errorf("%w: redirect_uri: %v", shared.ErrInvalidConfig, err)
	}
	addr, err := r.config.Spotify.ListenAddr()
	if err != nil {
		return err
	}

	callback := server.NewCallbackServer(redirect.Path, func(nav auth.Navigator, notify auth.Notifier) server.Processor {
		return r.callbackHandler(s.SpotifyClientID, nav, notify)
	}, r.logger)

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(callback)

	srv, err := server.Start(addr, router, r.logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("callback server shutdown", "error", err)
		}
	}()

	authURL, err := auth.NewAuthorizer(r.config.Spotify.RedirectURI, r.config.Spotify.Scopes, r.sessions, r.random, r.now).
		Begin(ctx, s.SpotifyClientID)
	if err != nil {
		return err
	}

	r.writePlain("Open this URL to connect your Spotify account:\n\n  %s\n\n", authURL)
	if !cmd.Bool("no-browser") {
		if err := shared.OpenBrowser(ctx, authURL); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}
	r.writePlain("Waiting for Spotify to redirect to %s ...\n", r.config.Spotify.RedirectURI)

	timeout := time.After(cmd.Duration("timeout"))
	select {
	case outcome := <-callback.Result():
		for _, n := range outcome.Notices {
			r.writePlain("%s\n", ui.RenderNotice(n))
		}
		if outcome.State != auth.Success {
			return fmt.Errorf("%w: %s: %v", shared.ErrAuthFailed, outcome.State, outcome.Err)
		}
		return nil
	case err := <-srv.Errors():
		return fmt.Errorf("callback server stopped: %w", err)
	case <-timeout:
		return fmt.Errorf("%w: no callback received", shared.ErrTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AuthCallback completes an authorization from a pasted redirect URL, for when the browser
// cannot reach the local server.
func (r *Runner) AuthCallback(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	raw := cmd.StringArg("url")
	if raw == "" {
		return fmt.Errorf("%w: callback url", shared.ErrMissingArgument)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: callback url: %v", shared.ErrInvalidArgument, err)
	}

	s, err := r.settings.Load(ctx)
	if err != nil {
		return err
	}

	h := r.callbackHandler(s.SpotifyClientID, auth.NavigatorFunc(func(*url.URL) {}), auth.NotifierFunc(func(n auth.Notice) {
		r.writePlain("%s\n", ui.RenderNotice(n))
	}))

	state, err := h.Handle(ctx, u)
	switch state {
	case auth.Success:
		return nil
	case auth.NoCallback:
		return fmt.Errorf("%w: url has no code or error parameter", shared.ErrInvalidArgument)
	default:
		return fmt.Errorf("%w: %s: %v", shared.ErrAuthFailed, state, err)
	}
}

// AuthLogout discards the token and the cached user.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	if err := r.tokens.Clear(ctx); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.RenderNotice(auth.Notice{Level: auth.LevelInfo, Message: "Disconnected from Spotify"}))
}

type authStatus struct {
	Connected bool       `json:"connected"`
	User      *auth.User `json:"user,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// AuthStatus reports whether a valid token is stored and for whom.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	status := authStatus{Connected: r.tokens.IsAuthenticated(), User: r.tokens.User()}
	if tok := r.tokens.Current(); tok != nil {
		exp := tok.ExpiresAt
		status.ExpiresAt = &exp
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	if !status.Connected {
		return r.writePlain("Not connected. Run 'riff auth login' to connect your Spotify account.\n")
	}
	name := "unknown user"
	if status.User != nil {
		name = status.User.Name()
	}
	r.writePlain("✓ Connected as %s\n", name)
	return r.writePlain("  Token expires %s\n", status.ExpiresAt.Local().Format(time.RFC1123))
}
