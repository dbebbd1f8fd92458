package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/riff/internal/store"
)

// PendingAuthorization holds the values created by [Authorizer.Begin] that the callback needs.
type PendingAuthorization struct {
	Verifier  string    `json:"verifier"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore persists at most one [PendingAuthorization] across the redirect round trip.
type SessionStore struct {
	store  store.Store
	logger *log.Logger
}

func NewSessionStore(s store.Store, logger *log.Logger) *SessionStore {
	if logger == nil {
		logger = log.Default()
	}
	return &SessionStore{store: s, logger: logger}
}

// Save replaces any outstanding authorization.
func (s *SessionStore) Save(ctx context.Context, p PendingAuthorization) error {
	if err := store.PutJSON(ctx, s.store, store.KeyPending, p); err != nil {
		return fmt.Errorf("failed to save pending authorization: %w", err)
	}
	return nil
}

// TakeAndClear returns the pending authorization and removes it.
//
// It returns nil, nil when nothing is pending. An undecodable record is removed and
// reported as absent.
func (s *SessionStore) TakeAndClear(ctx context.Context) (*PendingAuthorization, error) {
	data, err := s.store.Take(ctx, store.KeyPending)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending authorization: %w", err)
	}

	var p PendingAuthorization
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("discarding unreadable pending authorization", "error", err)
		return nil, nil
	}
	return &p, nil
}
