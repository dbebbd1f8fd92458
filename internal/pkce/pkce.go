// Package pkce generates the verifier, state, and challenge values for an
// authorization code flow with proof key (RFC 7636, S256 method only).
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// VerifierLength is the length of verifiers produced by [NewCodes].
	VerifierLength = 64
	// StateLength is the length of state values produced by [NewCodes].
	StateLength = 16

	MinVerifierLength = 43
	MaxVerifierLength = 128

	// Method is the only challenge method supported.
	Method = "S256"
)

// ErrInvalidLength is returned for verifier lengths outside 43..128.
var ErrInvalidLength = errors.New("pkce: verifier length must be between 43 and 128")

// Codes are the per-attempt values persisted between authorization and callback.
type Codes struct {
	Verifier  string
	State     string
	Challenge string
}

// RandomString draws n characters from the alphanumeric alphabet using r.
//
// Each byte is reduced modulo 62, so characters are not perfectly uniform.
func RandomString(r io.Reader, n int) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("pkce: read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}

// GenerateVerifier returns a verifier of the given length.
func GenerateVerifier(r io.Reader, length int) (string, error) {
	if length < MinVerifierLength || length > MaxVerifierLength {
		return "", ErrInvalidLength
	}
	return RandomString(r, length)
}

// DeriveChallenge computes BASE64URL(SHA256(verifier)) without padding.
func DeriveChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewCodes generates a fresh verifier, state and derived challenge.
func NewCodes(r io.Reader) (Codes, error) {
	if r == nil {
		r = rand.Reader
	}
	verifier, err := GenerateVerifier(r, VerifierLength)
	if err != nil {
		return Codes{}, err
	}
	state, err := RandomString(r, StateLength)
	if err != nil {
		return Codes{}, err
	}
	return Codes{Verifier: verifier, State: state, Challenge: DeriveChallenge(verifier)}, nil
}
