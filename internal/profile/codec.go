package profile

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrDecryption covers a wrong password, a tampered file and a malformed file alike.
	ErrDecryption = errors.New("failed to decrypt - wrong password or corrupted file")

	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

const MinPasswordLength = 4

// SettingsRecord is the plaintext of an exported profile.
type SettingsRecord struct {
	SpotifyClientID  string    `json:"spotify_client_id"`
	OpenRouterKey    string    `json:"openrouter_key"`
	AIModel          string    `json:"ai_model"`
	WebSearchEnabled bool      `json:"web_search_enabled"`
	ExportedAt       time.Time `json:"exported_at"`
}

// Codec seals and opens settings records.
type Codec struct {
	random io.Reader
	salted bool
}

// NewCodec creates a codec drawing nonces (and salts) from random, or crypto/rand when nil.
// When salted is set, Encrypt produces version 2 envelopes.
func NewCodec(random io.Reader, salted bool) *Codec {
	if random == nil {
		random = rand.Reader
	}
	return &Codec{random: random, salted: salted}
}

// Encrypt serializes rec and seals it under a key derived from password.
func (c *Codec) Encrypt(rec SettingsRecord, password string) (*Envelope, error) {
	plaintext, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	env := &Envelope{Version: VersionLegacy}
	if c.salted {
		env.Version = VersionSalted
		env.Salt = make(ByteArray, SaltSize)
		if _, err := io.ReadFull(c.random, env.Salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	salt, err := env.salt()
	if err != nil {
		return nil, err
	}

	nonce := make(ByteArray, NonceSize)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aead, err := newAEAD(DeriveKey(password, salt))
	if err != nil {
		return nil, err
	}

	env.IV = nonce
	env.Data = aead.Seal(nil, nonce, plaintext, nil)
	return env, nil
}

// Decrypt opens env with password. Every failure is reported as [ErrDecryption].
func (c *Codec) Decrypt(env *Envelope, password string) (SettingsRecord, error) {
	if env == nil {
		return SettingsRecord{}, ErrDecryption
	}
	salt, err := env.salt()
	if err != nil {
		return SettingsRecord{}, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return open(env, DeriveKey(password, salt))
}

func open(env *Envelope, key []byte) (SettingsRecord, error) {
	var rec SettingsRecord
	if len(env.IV) != NonceSize {
		return rec, fmt.Errorf("%w: nonce must be %d bytes", ErrDecryption, NonceSize)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return rec, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	plaintext, err := aead.Open(nil, env.IV, env.Data, nil)
	if err != nil {
		return rec, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	if err := json.Unmarshal(plaintext, &rec); err != nil {
		return SettingsRecord{}, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return rec, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
