package config

import (
	"os"
	"time"

	json "github.com/json-iterator/go"
)

// Credentials is the saved session of the logged-in user.
type Credentials struct {
	Token      string    `json:"token"`
	CookieName string    `json:"cookie_name"`
	ExpiresAt  time.Time `json:"expires_at"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
}

// LoadCredentials reads the saved session. It returns nil, nil when nobody
// has logged in yet.
func LoadCredentials() (*Credentials, error) {
	data, err := os.ReadFile(GetCredentialsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveCredentials writes the session readable by the owner only.
func SaveCredentials(creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(GetCredentialsPath(), data, 0600)
}

// DeleteCredentials forgets the saved session. A missing file is not an error.
func DeleteCredentials() error {
	err := os.Remove(GetCredentialsPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// IsExpired checks if the session token is expired
func (c *Credentials) IsExpired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// IsValid checks if credentials are usable
func (c *Credentials) IsValid() bool {
	return c != nil && c.Token != "" && !c.IsExpired()
}
