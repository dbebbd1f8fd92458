package profile

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	Iterations = 100_000
	KeySize    = 32
	SaltSize   = 16
)

// LegacySalt is the salt used by version 1 envelopes.
var LegacySalt = []byte("spotify-playlist-creator-salt")

// DeriveKey derives an AES-256 key from password. A nil salt uses [LegacySalt].
func DeriveKey(password string, salt []byte) []byte {
	if salt == nil {
		salt = LegacySalt
	}
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}
