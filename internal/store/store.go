// Package store provides the durable key-value records that stand in for browser local storage.
//
// Every record is written in a single operation, so multi-field entities (the token, the pending
// authorization, the settings) are serialized into one value rather than spread over several keys.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Record keys.
const (
	KeyToken    = "spotify_token"
	KeyUser     = "spotify_user"
	KeyPending  = "pkce_pending"
	KeySettings = "settings"
)

// ErrNotFound is returned when a key holds no value.
var ErrNotFound = errors.New("store: key not found")

// Store is a durable string-keyed byte store.
type Store interface {
	// Get returns the value for key or [ErrNotFound].
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the value for key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Take returns the value for key and removes it in the same transaction.
	Take(ctx context.Context, key string) ([]byte, error)
	Close() error
}

// GetJSON decodes the value at key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	return nil
}

// PutJSON encodes v and stores it at key.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

// TakeJSON atomically removes the value at key and decodes it into v.
func TakeJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Take(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	return nil
}
