package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const (
	SpotifyAuthURL  = "https://accounts.spotify.com/authorize"
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// ExchangeRequest carries the values sent to the token endpoint.
type ExchangeRequest struct {
	Code        string
	Verifier    string
	RedirectURI string
	ClientID    string
}

// Exchanger trades an authorization code for a [Token].
type Exchanger interface {
	Exchange(ctx context.Context, req ExchangeRequest) (*Token, error)
}

// TokenEndpoint exchanges codes against an OAuth2 token URL using a public-client PKCE request.
type TokenEndpoint struct {
	tokenURL string
	client   *http.Client
	now      func() time.Time
}

// NewTokenEndpoint creates an exchanger for tokenURL. A nil client uses [http.DefaultClient]
// and a nil clock uses [time.Now].
func NewTokenEndpoint(tokenURL string, client *http.Client, now func() time.Time) *TokenEndpoint {
	if tokenURL == "" {
		tokenURL = SpotifyTokenURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if now == nil {
		now = time.Now
	}
	return &TokenEndpoint{tokenURL: tokenURL, client: client, now: now}
}

// Exchange sends a single form-encoded authorization_code grant. It does not retry.
func (e *TokenEndpoint) Exchange(ctx context.Context, req ExchangeRequest) (*Token, error) {
	config := &oauth2.Config{
		ClientID:    req.ClientID,
		RedirectURL: req.RedirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  e.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)
	issued := e.now()

	tok, err := config.Exchange(ctx, req.Code, oauth2.VerifierOption(req.Verifier))
	if err != nil {
		return nil, exchangeError(err)
	}

	expiresAt, ok := expiry(tok, issued)
	if !ok {
		return nil, &ExchangeError{Message: "response missing expires_in"}
	}

	return &Token{
		AccessToken:  tok.AccessToken,
		ExpiresAt:    expiresAt,
		RefreshToken: tok.RefreshToken,
	}, nil
}

// expiry computes issued + expires_in, preferring the raw field so the injected clock is honored.
func expiry(tok *oauth2.Token, issued time.Time) (time.Time, bool) {
	var seconds int64
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		seconds = int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		seconds = n
	default:
		if tok.Expiry.IsZero() {
			return time.Time{}, false
		}
		return tok.Expiry, true
	}
	if seconds <= 0 {
		return time.Time{}, false
	}
	return issued.Add(time.Duration(seconds) * time.Second), true
}

func exchangeError(err error) *ExchangeError {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return &ExchangeError{Message: err.Error(), Err: err}
	}

	xe := &ExchangeError{Code: re.ErrorCode, Err: err}
	if re.Response != nil {
		xe.StatusCode = re.Response.StatusCode
	}

	switch {
	case re.ErrorDescription != "":
		xe.Message = re.ErrorDescription
	case re.ErrorCode != "":
		xe.Message = re.ErrorCode
	default:
		xe.Message = fmt.Sprintf("token endpoint returned status %d", xe.StatusCode)
	}
	return xe
}
