package container

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadfit/backend/internal/config"
	"github.com/threadfit/backend/internal/testutil"
	"github.com/threadfit/backend/internal/websocket"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Auth: config.AuthConfig{
			JWTSecret:  "container-test-secret",
			Lifetime:   time.Hour,
			CookieName: "threadfit_cookie",
		},
		Stream: config.StreamConfig{
			MaxSessionsPerUser: 5,
			AdmissionBackend:   "memory",
			MinDelay:           time.Millisecond,
			MaxSpeed:           20,
		},
	}
}

func TestBuild_WiresEveryService(t *testing.T) {
	db := testutil.NewTestDB(t)

	c, err := Build(t.Context(), testConfig(), db)
	require.NoError(t, err)

	assert.Same(t, db, c.DB())
	assert.NotNil(t, c.Auth())
	assert.NotNil(t, c.Pipeline())
	assert.NotNil(t, c.Registry())
	assert.Same(t, c.Registry(), c.WebSocket().Registry())
	assert.Nil(t, c.Cache(), "memory admission must not dial redis")
	assert.IsType(t, &websocket.MemoryAdmission{}, c.Admission())

	require.NoError(t, c.Cleanup(t.Context()))
}

func TestValidate_ListsMissingDependencies(t *testing.T) {
	err := New().Validate()
	require.Error(t, err)

	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Contains(t, initErr.MissingDeps, "database (DB)")
	assert.Contains(t, initErr.MissingDeps, "generation pipeline")
	assert.Contains(t, err.Error(), "Missing required dependencies")
}

func TestCleanup_RunsInReverseOrder(t *testing.T) {
	c := New()
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		c.OnCleanup(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, c.Cleanup(t.Context()))
	assert.Equal(t, []string{"third", "second", "first"}, order)

	order = nil
	require.NoError(t, c.Cleanup(t.Context()), "hooks run once")
	assert.Empty(t, order)
}

func TestCleanup_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ran := false

	c := New().
		OnCleanup("tail", func(context.Context) error { ran = true; return nil }).
		OnCleanup("head", func(context.Context) error { return boom })

	err := c.Cleanup(t.Context())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "head: boom")
	assert.True(t, ran, "a failing hook must not stop the rest")
}
