package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestCredentialsIsValid validates credential validity check
func TestCredentialsIsValid(t *testing.T) {
	testCases := []struct {
		token     string
		expiresAt time.Time
		expect    bool
		name      string
	}{
		{"valid_token", time.Now().Add(1 * time.Hour), true, "valid credentials"},
		{"valid_token", time.Time{}, true, "no expiry recorded"},
		{"", time.Now().Add(1 * time.Hour), false, "empty token"},
		{"valid_token", time.Now().Add(-1 * time.Hour), false, "expired token"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			creds := &Credentials{Token: tc.token, ExpiresAt: tc.expiresAt}
			if got := creds.IsValid(); got != tc.expect {
				t.Errorf("Expected IsValid=%v, got %v", tc.expect, got)
			}
		})
	}

	var missing *Credentials
	if missing.IsValid() {
		t.Error("nil credentials must not be valid")
	}
}

func TestCredentialsLifecycle(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "config.toml")); err != nil {
		t.Fatal(err)
	}

	creds, err := LoadCredentials()
	if err != nil || creds != nil {
		t.Fatalf("expected no credentials yet, got %v, %v", creds, err)
	}

	saved := &Credentials{
		Token:      "jwt",
		CookieName: "threadfit_cookie",
		ExpiresAt:  time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		UserID:     "user-1",
		Email:      "owner@example.com",
	}
	if err := SaveCredentials(saved); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	info, err := os.Stat(GetCredentialsPath())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("credentials file mode = %v, want 0600", perm)
	}

	loaded, err := LoadCredentials()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Token != saved.Token || loaded.Email != saved.Email || !loaded.ExpiresAt.Equal(saved.ExpiresAt) {
		t.Errorf("loaded %+v, want %+v", loaded, saved)
	}

	if err := DeleteCredentials(); err != nil {
		t.Fatal(err)
	}
	if err := DeleteCredentials(); err != nil {
		t.Errorf("deleting twice should be a no-op: %v", err)
	}
}
