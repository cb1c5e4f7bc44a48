package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/threadfit/backend/internal/models"
)

// MockAuthenticator is a configurable Authenticator for tests. Tokens map
// directly to users.
type MockAuthenticator struct {
	mu sync.Mutex

	CookieName string
	Users      map[string]*models.User // keyed by token

	// ValidateFunc overrides the token lookup when set.
	ValidateFunc func(ctx context.Context, token string) (*models.User, error)

	ValidateCalls int
}

var _ Authenticator = (*MockAuthenticator)(nil)

// NewMockAuthenticator creates a mock reading tokens from cookieName.
func NewMockAuthenticator(cookieName string) *MockAuthenticator {
	return &MockAuthenticator{
		CookieName: cookieName,
		Users:      make(map[string]*models.User),
	}
}

// AddUser registers token as a valid credential for user.
func (m *MockAuthenticator) AddUser(token string, user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[token] = user
}

func (m *MockAuthenticator) ExtractToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (m *MockAuthenticator) Validate(ctx context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	m.ValidateCalls++
	fn := m.ValidateFunc
	user, ok := m.Users[token]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, token)
	}
	if !ok {
		return nil, ErrInvalidToken
	}
	return user, nil
}
