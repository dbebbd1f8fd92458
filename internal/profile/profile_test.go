package profile

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() SettingsRecord {
	return SettingsRecord{
		SpotifyClientID:  "abc123",
		OpenRouterKey:    "sk-or-v1-xyz",
		AIModel:          "deepseek/deepseek-chat-v3-0324:free",
		WebSearchEnabled: true,
		ExportedAt:       time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func assertRecordEqual(t *testing.T, want, got SettingsRecord) {
	t.Helper()
	assert.True(t, want.ExportedAt.Equal(got.ExportedAt), "exported_at: want %v, got %v", want.ExportedAt, got.ExportedAt)
	want.ExportedAt, got.ExportedAt = time.Time{}, time.Time{}
	assert.Equal(t, want, got)
}

func TestDeriveKey(t *testing.T) {
	a := DeriveKey("pw1234", nil)
	assert.Len(t, a, KeySize)
	assert.Equal(t, a, DeriveKey("pw1234", LegacySalt))
	assert.NotEqual(t, a, DeriveKey("pw1235", nil))
	assert.NotEqual(t, a, DeriveKey("pw1234", []byte("another-salt-value")))
}

func TestCodecRoundTrip(t *testing.T) {
	for _, salted := range []bool{false, true} {
		name := "legacy"
		if salted {
			name = "salted"
		}
		t.Run(name, func(t *testing.T) {
			c := NewCodec(nil, salted)
			rec := sampleRecord()

			env, err := c.Encrypt(rec, "pw1234")
			require.NoError(t, err)
			assert.Len(t, env.IV, NonceSize)
			if salted {
				assert.Equal(t, VersionSalted, env.Version)
				assert.Len(t, env.Salt, SaltSize)
			} else {
				assert.Equal(t, VersionLegacy, env.Version)
				assert.Nil(t, env.Salt)
			}

			got, err := c.Decrypt(env, "pw1234")
			require.NoError(t, err)
			assertRecordEqual(t, rec, got)

			_, err = c.Decrypt(env, "wrong")
			assert.ErrorIs(t, err, ErrDecryption)
		})
	}
}

func TestCodecFreshNonce(t *testing.T) {
	c := NewCodec(nil, false)
	a, err := c.Encrypt(sampleRecord(), "pw1234")
	require.NoError(t, err)
	b, err := c.Encrypt(sampleRecord(), "pw1234")
	require.NoError(t, err)
	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Data, b.Data)
}

func TestDecryptDetectsBitFlips(t *testing.T) {
	c := NewCodec(nil, false)
	env, err := c.Encrypt(sampleRecord(), "pw1234")
	require.NoError(t, err)
	key := DeriveKey("pw1234", nil)

	flip := func(b ByteArray, bit int) ByteArray {
		out := append(ByteArray(nil), b...)
		out[bit/8] ^= 1 << (bit % 8)
		return out
	}

	for bit := 0; bit < len(env.IV)*8; bit++ {
		tampered := &Envelope{Version: env.Version, IV: flip(env.IV, bit), Data: env.Data}
		if _, err := open(tampered, key); err == nil {
			t.Fatalf("nonce bit %d flip was not detected", bit)
		}
	}
	for bit := 0; bit < len(env.Data)*8; bit++ {
		tampered := &Envelope{Version: env.Version, IV: env.IV, Data: flip(env.Data, bit)}
		if _, err := open(tampered, key); err == nil {
			t.Fatalf("ciphertext bit %d flip was not detected", bit)
		}
	}
}

func TestDecryptRejectsMalformed(t *testing.T) {
	c := NewCodec(nil, false)
	env, err := c.Encrypt(sampleRecord(), "pw1234")
	require.NoError(t, err)

	tc := []struct {
		name string
		env  *Envelope
	}{
		{name: "nil envelope", env: nil},
		{name: "short nonce", env: &Envelope{IV: env.IV[:8], Data: env.Data}},
		{name: "empty data", env: &Envelope{IV: env.IV}},
		{name: "truncated data", env: &Envelope{IV: env.IV, Data: env.Data[:len(env.Data)-1]}},
		{name: "unknown version", env: &Envelope{Version: 9, IV: env.IV, Data: env.Data}},
		{name: "salted without salt", env: &Envelope{Version: VersionSalted, IV: env.IV, Data: env.Data}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.env, "pw1234")
			assert.ErrorIs(t, err, ErrDecryption)
		})
	}
}

func TestEnvelopeJSON(t *testing.T) {
	t.Run("bytes encode as number arrays", func(t *testing.T) {
		env := Envelope{Version: 1, IV: ByteArray{0, 1, 255}, Data: ByteArray{7}}
		data, err := json.Marshal(env)
		require.NoError(t, err)
		assert.JSONEq(t, `{"version":1,"iv":[0,1,255],"data":[7]}`, string(data))
	})

	t.Run("legacy file without version", func(t *testing.T) {
		c := NewCodec(nil, false)
		env, err := c.Encrypt(sampleRecord(), "pw1234")
		require.NoError(t, err)

		legacy := map[string]any{"iv": env.IV, "data": env.Data}
		data, err := json.Marshal(legacy)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "version")

		got, err := c.Import(data, "pw1234")
		require.NoError(t, err)
		assertRecordEqual(t, sampleRecord(), got)
	})

	t.Run("malformed files", func(t *testing.T) {
		for _, raw := range []string{
			`not json`,
			`{"iv":"AAAA","data":[1]}`,
			`{"iv":[256],"data":[1]}`,
			`{"iv":[-1],"data":[1]}`,
			`{"iv":[1,2,3,4,5,6,7,8,9,10,11,12],"data":[1,2,3]}`,
		} {
			_, err := NewCodec(nil, false).Import([]byte(raw), "pw1234")
			assert.ErrorIs(t, err, ErrDecryption, raw)
		}
	})

	t.Run("original record fields", func(t *testing.T) {
		plain := []byte(`{"spotify_client_id":"id","openrouter_key":"k","ai_model":"m","web_search_enabled":false,"exported_at":"2025-03-04T05:06:07.000Z"}`)
		var rec SettingsRecord
		require.NoError(t, json.Unmarshal(plain, &rec))
		assert.Equal(t, "id", rec.SpotifyClientID)
		assert.Equal(t, 2025, rec.ExportedAt.Year())
	})
}

func TestExport(t *testing.T) {
	t.Run("password minimum length", func(t *testing.T) {
		c := NewCodec(nil, false)
		_, err := c.Export(sampleRecord(), "abc")
		assert.ErrorIs(t, err, ErrPasswordTooShort)

		_, err = c.Export(sampleRecord(), "abcd")
		assert.NoError(t, err)
	})

	t.Run("file round trip", func(t *testing.T) {
		dir := t.TempDir()
		c := NewCodec(nil, true)
		rec := sampleRecord()

		path, err := c.ExportFile(dir, rec, "pw1234")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "spotify-playlist-creator-profile-1741064767000.json"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "{\n  \"version\": 2"))

		got, err := c.ImportFile(path, "pw1234")
		require.NoError(t, err)
		assertRecordEqual(t, rec, got)

		_, err = c.ImportFile(path, "pw12345")
		assert.ErrorIs(t, err, ErrDecryption)
	})

	t.Run("deterministic reader", func(t *testing.T) {
		random := bytes.NewReader(bytes.Repeat([]byte{9}, NonceSize))
		env, err := NewCodec(random, false).Encrypt(sampleRecord(), "pw1234")
		require.NoError(t, err)
		assert.Equal(t, ByteArray(bytes.Repeat([]byte{9}, NonceSize)), env.IV)

		_, err = NewCodec(random, false).Encrypt(sampleRecord(), "pw1234")
		assert.Error(t, err, "exhausted reader must fail")
	})
}
