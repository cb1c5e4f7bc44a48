package auth

import (
	"context"
	"net/http"

	"github.com/threadfit/backend/internal/models"
)

// Authenticator resolves the principal behind a request. The streaming
// endpoint treats a missing token and an invalid one the same way.
type Authenticator interface {
	// ExtractToken returns the bearer token carried by the session cookie.
	ExtractToken(r *http.Request) (string, bool)
	// Validate checks the token and returns the active user it names.
	Validate(ctx context.Context, token string) (*models.User, error)
}

// AuthServiceInterface is the full account surface used by the HTTP handlers.
type AuthServiceInterface interface {
	Authenticator

	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	CookieName() string
}

var _ AuthServiceInterface = (*Service)(nil)
