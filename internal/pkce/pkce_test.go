package pkce

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"golang.org/x/oauth2"
)

func TestRandomString(t *testing.T) {
	t.Run("uses only the alphabet", func(t *testing.T) {
		s, err := RandomString(nil, 500)
		if err != nil {
			t.Fatalf("RandomString() error = %v", err)
		}
		if len(s) != 500 {
			t.Fatalf("expected 500 chars, got %d", len(s))
		}
		for _, r := range s {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("unexpected character %q", r)
			}
		}
	})

	t.Run("maps bytes modulo alphabet size", func(t *testing.T) {
		s, err := RandomString(bytes.NewReader([]byte{0, 61, 62, 255}), 4)
		if err != nil {
			t.Fatalf("RandomString() error = %v", err)
		}
		// 255 % 62 = 7
		if s != "A9AH" {
			t.Errorf("RandomString() = %q, want %q", s, "A9AH")
		}
	})

	t.Run("propagates reader errors", func(t *testing.T) {
		_, err := RandomString(iotest.ErrReader(errors.New("boom")), 8)
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestGenerateVerifier(t *testing.T) {
	tc := []struct {
		length  int
		wantErr bool
	}{
		{length: 42, wantErr: true},
		{length: 43},
		{length: 64},
		{length: 128},
		{length: 129, wantErr: true},
	}

	for _, tt := range tc {
		v, err := GenerateVerifier(nil, tt.length)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidLength) {
				t.Errorf("GenerateVerifier(%d) error = %v, want ErrInvalidLength", tt.length, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("GenerateVerifier(%d) error = %v", tt.length, err)
		}
		if len(v) != tt.length {
			t.Errorf("GenerateVerifier(%d) length = %d", tt.length, len(v))
		}
	}
}

func TestDeriveChallenge(t *testing.T) {
	t.Run("known vector", func(t *testing.T) {
		got := DeriveChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
		want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
		if got != want {
			t.Errorf("DeriveChallenge() = %q, want %q", got, want)
		}
	})

	t.Run("deterministic and url safe", func(t *testing.T) {
		v, _ := GenerateVerifier(nil, VerifierLength)
		a, b := DeriveChallenge(v), DeriveChallenge(v)
		if a != b {
			t.Error("expected identical challenges")
		}
		if strings.ContainsAny(a, "+/=") {
			t.Errorf("challenge %q is not base64url without padding", a)
		}
		if len(a) != 43 {
			t.Errorf("expected 43 chars, got %d", len(a))
		}
	})

	t.Run("matches oauth2 helper", func(t *testing.T) {
		v, _ := GenerateVerifier(nil, 100)
		if got, want := DeriveChallenge(v), oauth2.S256ChallengeFromVerifier(v); got != want {
			t.Errorf("DeriveChallenge() = %q, oauth2 = %q", got, want)
		}
	})
}

func TestNewCodes(t *testing.T) {
	a, err := NewCodes(nil)
	if err != nil {
		t.Fatalf("NewCodes() error = %v", err)
	}
	b, _ := NewCodes(nil)

	if len(a.Verifier) != VerifierLength || len(a.State) != StateLength {
		t.Errorf("unexpected lengths: verifier=%d state=%d", len(a.Verifier), len(a.State))
	}
	if a.Challenge != DeriveChallenge(a.Verifier) {
		t.Error("challenge does not match verifier")
	}
	if a.Verifier == b.Verifier || a.State == b.State {
		t.Error("expected fresh values per call")
	}
}
