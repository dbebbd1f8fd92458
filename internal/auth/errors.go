package auth

import (
	"errors"
	"fmt"
)

// ErrStateMismatch is returned when the callback state does not match the pending authorization,
// including when no authorization is pending.
var ErrStateMismatch = errors.New("state mismatch")

// ProviderError is an error reported by the authorization server through the callback URL.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("spotify auth error: %s (%s)", e.Code, e.Description)
	}
	return "spotify auth error: " + e.Code
}

// ExchangeError is returned when the token endpoint rejects the authorization code
// or the exchange request cannot be completed.
type ExchangeError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *ExchangeError) Error() string {
	return "token exchange failed: " + e.Message
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// ProfileFetchError is returned when the user profile cannot be loaded right after a
// successful exchange. The token is discarded when this happens.
type ProfileFetchError struct {
	Err error
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("failed to fetch profile: %v", e.Err)
}

func (e *ProfileFetchError) Unwrap() error { return e.Err }
