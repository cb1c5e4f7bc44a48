package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/threadfit_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "threadfit_cookie", cfg.Auth.CookieName)
	assert.Equal(t, time.Hour, cfg.Auth.Lifetime)
	assert.Equal(t, 5, cfg.Stream.MaxSessionsPerUser)
	assert.Equal(t, 10*time.Millisecond, cfg.Stream.MinDelay)
	assert.Equal(t, 20.0, cfg.Stream.MaxSpeed)
	assert.Equal(t, "postgres://localhost/threadfit_test", cfg.Database.URL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("WS_MAX_SESSIONS_PER_USER", "2")
	t.Setenv("WS_ADMISSION_BACKEND", "redis")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 2, cfg.Stream.MaxSessionsPerUser)
	assert.Equal(t, "redis", cfg.Stream.AdmissionBackend)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidateRejectsUnknownBackends(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("WS_ADMISSION_BACKEND", "etcd")

	_, err := Load()
	assert.ErrorContains(t, err, "WS_ADMISSION_BACKEND")
}
