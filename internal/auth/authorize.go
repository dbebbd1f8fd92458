package auth

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/riff/internal/pkce"
	"github.com/desertthunder/riff/internal/shared"
)

// DefaultScopes are the permissions requested at login.
var DefaultScopes = []string{
	"playlist-modify-public",
	"playlist-modify-private",
	"playlist-read-private",
	"user-read-private",
}

// Authorizer starts a login by persisting PKCE values and building the provider URL.
type Authorizer struct {
	AuthURL     string
	RedirectURI string
	Scopes      []string

	sessions *SessionStore
	random   io.Reader
	now      func() time.Time
}

// NewAuthorizer creates an Authorizer. A nil random reader uses crypto/rand.
func NewAuthorizer(redirectURI string, scopes []string, sessions *SessionStore, random io.Reader, now func() time.Time) *Authorizer {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	if now == nil {
		now = time.Now
	}
	return &Authorizer{
		AuthURL:     SpotifyAuthURL,
		RedirectURI: redirectURI,
		Scopes:      scopes,
		sessions:    sessions,
		random:      random,
		now:         now,
	}
}

// Begin generates fresh codes, replaces any pending authorization, and returns the URL to visit.
func (a *Authorizer) Begin(ctx context.Context, clientID string) (string, error) {
	if strings.TrimSpace(clientID) == "" {
		return "", fmt.Errorf("%w: spotify client id is not set", shared.ErrMissingCredentials)
	}

	codes, err := pkce.NewCodes(a.random)
	if err != nil {
		return "", err
	}

	pending := PendingAuthorization{Verifier: codes.Verifier, State: codes.State, CreatedAt: a.now().UTC()}
	if err := a.sessions.Save(ctx, pending); err != nil {
		return "", err
	}

	config := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: a.RedirectURI,
		Scopes:      a.Scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: a.AuthURL},
	}
	return config.AuthCodeURL(codes.State, oauth2.S256ChallengeOption(codes.Verifier)), nil
}
