package profile

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	VersionLegacy = 1
	VersionSalted = 2

	NonceSize = 12
)

// ByteArray is a byte slice encoded in JSON as an array of numbers.
type ByteArray []byte

func (b ByteArray) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	out := make([]byte, 0, len(b)*4+2)
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return append(out, ']'), nil
}

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return err
	}
	if nums == nil {
		*b = nil
		return nil
	}
	out := make(ByteArray, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return fmt.Errorf("byte %d out of range: %d", i, n)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}

// Envelope is the serialized form of an encrypted [SettingsRecord].
type Envelope struct {
	Version int       `json:"version,omitempty"`
	IV      ByteArray `json:"iv"`
	Data    ByteArray `json:"data"`
	Salt    ByteArray `json:"salt,omitempty"`
}

// EffectiveVersion treats a missing version as legacy.
func (e *Envelope) EffectiveVersion() int {
	if e.Version == 0 {
		return VersionLegacy
	}
	return e.Version
}

// salt returns the KDF salt for the envelope's version.
func (e *Envelope) salt() ([]byte, error) {
	switch e.EffectiveVersion() {
	case VersionLegacy:
		return LegacySalt, nil
	case VersionSalted:
		if len(e.Salt) != SaltSize {
			return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(e.Salt))
		}
		return e.Salt, nil
	default:
		return nil, fmt.Errorf("unsupported version %d", e.Version)
	}
}

// ParseEnvelope decodes an exported file. Malformed input reports [ErrDecryption].
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return &env, nil
}
