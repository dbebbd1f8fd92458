package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"

	"github.com/charmbracelet/log"
)

// State is the terminal (or intermediate) outcome of handling a callback URL.
type State int

const (
	NoCallback State = iota
	ErrorFromProvider
	StateMismatch
	Exchanging
	Success
	ExchangeFailed
)

func (s State) String() string {
	switch s {
	case NoCallback:
		return "no_callback"
	case ErrorFromProvider:
		return "error_from_provider"
	case StateMismatch:
		return "state_mismatch"
	case Exchanging:
		return "exchanging"
	case Success:
		return "success"
	case ExchangeFailed:
		return "exchange_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Level classifies a [Notice].
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-facing message.
type Notice struct {
	Level   Level
	Message string
}

// Navigator replaces the current location. It receives the callback URL without its query.
type Navigator interface {
	ReplaceURL(u *url.URL)
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// ProfileFetcher loads the authenticated user's profile.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context) (*User, error)
}

// ProfileFetcherFunc adapts a function to [ProfileFetcher].
type ProfileFetcherFunc func(ctx context.Context) (*User, error)

func (f ProfileFetcherFunc) FetchProfile(ctx context.Context) (*User, error) { return f(ctx) }

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(u *url.URL)

func (f NavigatorFunc) ReplaceURL(u *url.URL) { f(u) }

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// CallbackOption configures a [CallbackHandler].
type CallbackOption func(*CallbackHandler)

func WithNavigator(n Navigator) CallbackOption {
	return func(h *CallbackHandler) { h.navigator = n }
}

func WithNotifier(n Notifier) CallbackOption {
	return func(h *CallbackHandler) { h.notifier = n }
}

// WithObserver registers fn to be called on every state the handler enters.
func WithObserver(fn func(State)) CallbackOption {
	return func(h *CallbackHandler) { h.observers = append(h.observers, fn) }
}

func WithLogger(l *log.Logger) CallbackOption {
	return func(h *CallbackHandler) { h.logger = l }
}

// CallbackHandler interprets a redirect URL and drives the token exchange.
type CallbackHandler struct {
	clientID    string
	redirectURI string

	sessions  *SessionStore
	tokens    *TokenManager
	exchanger Exchanger
	profiles  ProfileFetcher

	navigator Navigator
	notifier  Notifier
	observers []func(State)
	logger    *log.Logger
}

// NewCallbackHandler creates a handler. profiles may be nil to skip the post-login profile fetch.
func NewCallbackHandler(clientID, redirectURI string, sessions *SessionStore, tokens *TokenManager, exchanger Exchanger, profiles ProfileFetcher, opts ...CallbackOption) *CallbackHandler {
	h := &CallbackHandler{
		clientID:    clientID,
		redirectURI: redirectURI,
		sessions:    sessions,
		tokens:      tokens,
		exchanger:   exchanger,
		profiles:    profiles,
		navigator:   NavigatorFunc(func(*url.URL) {}),
		notifier:    NotifierFunc(func(Notice) {}),
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one callback URL and returns the terminal state it reached.
func (h *CallbackHandler) Handle(ctx context.Context, u *url.URL) (State, error) {
	q := u.Query()

	if code := q.Get("error"); code != "" {
		h.enter(ErrorFromProvider)
		h.scrub(u)
		h.notify(LevelError, "Spotify auth error: "+code)
		return ErrorFromProvider, &ProviderError{Code: code, Description: q.Get("error_description")}
	}

	code := q.Get("code")
	if code == "" {
		h.enter(NoCallback)
		return NoCallback, nil
	}

	pending, err := h.sessions.TakeAndClear(ctx)
	if err != nil || pending == nil || !statesEqual(pending.State, q.Get("state")) {
		h.enter(StateMismatch)
		h.scrub(u)
		h.notify(LevelError, "State mismatch. Please try again.")
		if err != nil {
			return StateMismatch, fmt.Errorf("%w: %w", ErrStateMismatch, err)
		}
		return StateMismatch, ErrStateMismatch
	}

	h.enter(Exchanging)
	h.scrub(u)
	h.notify(LevelInfo, "Connecting to Spotify...")

	tok, err := h.exchanger.Exchange(ctx, ExchangeRequest{
		Code:        code,
		Verifier:    pending.Verifier,
		RedirectURI: h.redirectURI,
		ClientID:    h.clientID,
	})
	if err != nil {
		var xe *ExchangeError
		if !errors.As(err, &xe) {
			xe = &ExchangeError{Message: err.Error(), Err: err}
		}
		return h.fail(xe.Message, xe)
	}

	if err := h.tokens.Set(ctx, tok); err != nil {
		return h.fail(err.Error(), err)
	}

	if h.profiles != nil {
		user, err := h.profiles.FetchProfile(ctx)
		if err == nil {
			err = h.tokens.SetUser(ctx, user)
		}
		if err != nil {
			if clearErr := h.tokens.Clear(ctx); clearErr != nil {
				h.logger.Error("failed to clear token", "error", clearErr)
			}
			pe := &ProfileFetchError{Err: err}
			return h.fail(pe.Error(), pe)
		}
	}

	h.enter(Success)
	h.notify(LevelSuccess, "Connected to Spotify!")
	return Success, nil
}

func (h *CallbackHandler) fail(reason string, err error) (State, error) {
	h.enter(ExchangeFailed)
	h.notify(LevelError, "Auth failed: "+reason)
	return ExchangeFailed, err
}

func (h *CallbackHandler) enter(s State) {
	h.logger.Debug("callback state", "state", s)
	for _, fn := range h.observers {
		fn(s)
	}
}

func (h *CallbackHandler) notify(level Level, msg string) {
	h.notifier.Notify(Notice{Level: level, Message: msg})
}

func (h *CallbackHandler) scrub(u *url.URL) {
	clean := *u
	clean.RawQuery = ""
	clean.ForceQuery = false
	clean.Fragment = ""
	clean.RawFragment = ""
	h.navigator.ReplaceURL(&clean)
}

func statesEqual(stored, returned string) bool {
	if stored == "" || returned == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(returned)) == 1
}
