package handlers

import (
	"github.com/threadfit/backend/internal/auth"
	"github.com/threadfit/backend/internal/synthetic"
	"gorm.io/gorm"
)

// Handlers contains the synthetic-data HTTP handlers
type Handlers struct {
	db        *gorm.DB
	generator synthetic.Generator
	maxSpeed  float64
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *gorm.DB, generator synthetic.Generator, maxSpeed float64) *Handlers {
	if maxSpeed <= 0 {
		maxSpeed = 20
	}
	return &Handlers{
		db:        db,
		generator: generator,
		maxSpeed:  maxSpeed,
	}
}

// AuthHandlers handles account endpoints
type AuthHandlers struct {
	auth         auth.AuthServiceInterface
	secureCookie bool
}

// NewAuthHandlers creates auth handlers. secureCookie marks the session
// cookie Secure, which browsers require outside localhost.
func NewAuthHandlers(authService auth.AuthServiceInterface, secureCookie bool) *AuthHandlers {
	return &AuthHandlers{
		auth:         authService,
		secureCookie: secureCookie,
	}
}
