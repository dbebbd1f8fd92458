package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName returns the conventional export file name for now.
func FileName(now time.Time) string {
	return fmt.Sprintf("spotify-playlist-creator-profile-%d.json", now.UnixMilli())
}

// Export checks the password length, encrypts rec, and returns the indented JSON file contents.
func (c *Codec) Export(rec SettingsRecord, password string) ([]byte, error) {
	if len([]rune(password)) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	env, err := c.Encrypt(rec, password)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(env, "", "  ")
}

// Import parses and decrypts exported file contents.
func (c *Codec) Import(data []byte, password string) (SettingsRecord, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		return SettingsRecord{}, err
	}
	return c.Decrypt(env, password)
}

// ExportFile writes an export into dir using [FileName] and returns its path.
func (c *Codec) ExportFile(dir string, rec SettingsRecord, password string) (string, error) {
	data, err := c.Export(rec, password)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName(rec.ExportedAt))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write profile: %w", err)
	}
	return path, nil
}

// ImportFile reads and decrypts the export at path.
func (c *Codec) ImportFile(path, password string) (SettingsRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SettingsRecord{}, fmt.Errorf("failed to read profile: %w", err)
	}
	return c.Import(data, password)
}
