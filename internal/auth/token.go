package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/riff/internal/shared"
	"github.com/desertthunder/riff/internal/store"
)

// Token is an access token with a defined expiry.
type Token struct {
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
}

// Valid reports whether t is present and unexpired at now.
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// tokenRecord is the persisted form; expiry is epoch milliseconds.
type tokenRecord struct {
	AccessToken  string `json:"access_token"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// User is the cached identity of the authenticated account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
}

// Name returns the display name, falling back to the account ID.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}

// TokenManager owns the current token and the cached user.
type TokenManager struct {
	store  store.Store
	now    func() time.Time
	logger *log.Logger

	mu    sync.RWMutex
	token *Token
	user  *User
}

// NewTokenManager creates a manager backed by s. A nil clock uses [time.Now].
func NewTokenManager(s store.Store, now func() time.Time, logger *log.Logger) *TokenManager {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TokenManager{store: s, now: now, logger: logger}
}

// Load reads the persisted token and user. An expired or unreadable token is cleared and
// reported as absent.
func (m *TokenManager) Load(ctx context.Context) (*Token, error) {
	data, err := m.store.Get(ctx, store.KeyToken)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		m.logger.Warn("discarding unreadable token record", "error", err)
		return nil, m.Clear(ctx)
	}

	tok := &Token{
		AccessToken:  rec.AccessToken,
		ExpiresAt:    time.UnixMilli(rec.ExpiresAt),
		RefreshToken: rec.RefreshToken,
	}
	if !tok.Valid(m.now()) {
		m.logger.Debug("stored token expired", "expires_at", tok.ExpiresAt)
		return nil, m.Clear(ctx)
	}

	var user User
	if err := store.GetJSON(ctx, m.store, store.KeyUser, &user); err == nil {
		m.mu.Lock()
		m.user = &user
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()
	return tok, nil
}

// Current returns the token when it is unexpired, nil otherwise.
func (m *TokenManager) Current() *Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.token.Valid(m.now()) {
		return nil
	}
	tok := *m.token
	return &tok
}

// IsAuthenticated reports whether an unexpired token is held.
func (m *TokenManager) IsAuthenticated() bool {
	return m.Current() != nil
}

// Set persists tok and makes it current.
func (m *TokenManager) Set(ctx context.Context, tok *Token) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}
	if tok.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: token has no expiry", shared.ErrInvalidInput)
	}

	rec := tokenRecord{
		AccessToken:  tok.AccessToken,
		ExpiresAt:    tok.ExpiresAt.UnixMilli(),
		RefreshToken: tok.RefreshToken,
	}
	if err := store.PutJSON(ctx, m.store, store.KeyToken, rec); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	copied := *tok
	m.mu.Lock()
	m.token = &copied
	m.mu.Unlock()
	return nil
}

// Clear removes the token and the cached user. Clearing twice is not an error.
func (m *TokenManager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.token = nil
	m.user = nil
	m.mu.Unlock()

	if err := m.store.Delete(ctx, store.KeyToken); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	if err := m.store.Delete(ctx, store.KeyUser); err != nil {
		return fmt.Errorf("failed to clear user: %w", err)
	}
	return nil
}

// SetUser caches the authenticated user's profile.
func (m *TokenManager) SetUser(ctx context.Context, u *User) error {
	if u == nil {
		return fmt.Errorf("%w: empty user", shared.ErrInvalidInput)
	}
	if err := store.PutJSON(ctx, m.store, store.KeyUser, u); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	copied := *u
	m.mu.Lock()
	m.user = &copied
	m.mu.Unlock()
	return nil
}

// User returns the cached profile, or nil.
func (m *TokenManager) User() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Client returns an HTTP client that sends the current token as a bearer credential.
//
// The token is never refreshed; once it expires callers receive [shared.ErrNotAuthenticated].
// A base client can be supplied through ctx with the [oauth2.HTTPClient] key.
func (m *TokenManager) Client(ctx context.Context) (*http.Client, error) {
	tok := m.Current()
	if tok == nil {
		return nil, shared.ErrNotAuthenticated
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: tok.AccessToken,
		TokenType:   "Bearer",
		Expiry:      tok.ExpiresAt,
	})
	return oauth2.NewClient(ctx, src), nil
}
