package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadfit/backend/internal/cli/api"
	cliconfig "github.com/threadfit/backend/internal/cli/config"
	"github.com/threadfit/backend/internal/config"
	"github.com/threadfit/backend/internal/container"
	"github.com/threadfit/backend/internal/handlers"
	"github.com/threadfit/backend/internal/testutil"
)

func newBackend(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment: "test",
		Auth: config.AuthConfig{
			JWTSecret:  "cmd-test-secret",
			Lifetime:   time.Hour,
			CookieName: "threadfit_cookie",
			Audience:   "threadfit:auth",
		},
		Stream: config.StreamConfig{
			MaxSessionsPerUser: 5,
			AdmissionBackend:   "memory",
			MinDelay:           time.Millisecond,
			MaxSpeed:           1000,
		},
	}
	app, err := container.Build(context.Background(), cfg, testutil.NewTestDB(t))
	require.NoError(t, err)

	r := gin.New()
	handlers.RegisterRoutes(r, handlers.RouteDeps{
		Auth:             app.Auth(),
		AuthHandlers:     handlers.NewAuthHandlers(app.Auth(), false),
		Handlers:         handlers.NewHandlers(app.DB(), app.Pipeline(), cfg.Stream.MaxSpeed),
		WebSocket:        app.WebSocket(),
		DisableRateLimit: true,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Cleanup(ctx)
		srv.Close()
	})
	return srv.URL
}

type cli struct {
	t          *testing.T
	configPath string
	serverURL  string
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--config", c.configPath, "--server", c.serverURL, "-o", "text"}, args...))
	err := rootCmd.ExecuteContext(c.t.Context())
	return buf.String(), err
}

func TestSessionWorkflow(t *testing.T) {
	c := &cli{t: t, configPath: filepath.Join(t.TempDir(), "config.toml"), serverURL: newBackend(t)}

	out, err := c.run("auth", "register", "--email", "owner@example.com", "--password", "correct-horse")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created for owner@example.com")

	out, err = c.run("auth", "login", "--email", "owner@example.com", "--password", "correct-horse")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as owner@example.com")
	creds, err := cliconfig.LoadCredentials()
	require.NoError(t, err)
	require.True(t, creds.IsValid())
	assert.Equal(t, "owner@example.com", creds.Email)

	out, err = c.run("auth", "me", "-o", "json")
	require.NoError(t, err)
	var me map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &me))
	assert.Equal(t, creds.UserID, me["id"])

	out, err = c.run("pull", "users", "-n", "2", "--seed", "3", "--speed", "1000", "-o", "json")
	require.NoError(t, err)
	var pulled []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &pulled))
	require.Len(t, pulled, 2)
	batchID, _ := pulled[0]["batch_id"].(string)
	require.NotEmpty(t, batchID)

	out, err = c.run("batches", "-o", "json")
	require.NoError(t, err)
	var batches []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &batches))
	require.Len(t, batches, 1)
	assert.Equal(t, batchID, batches[0]["id"])

	out, err = c.run("data", "users", "--batch-id", batchID, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, pulled[0]["email"])

	out, err = c.run("generate", "users", "-n", "2", "--speed", "1000", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "2 users generated")

	out, err = c.run("auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	_, err = os.Stat(cliconfig.GetCredentialsPath())
	assert.True(t, os.IsNotExist(err))

	_, err = c.run("auth", "me")
	assert.ErrorContains(t, err, "not logged in")
}

func TestGenerateRejectedCommand(t *testing.T) {
	c := &cli{t: t, configPath: filepath.Join(t.TempDir(), "config.toml"), serverURL: newBackend(t)}
	_, err := c.run("auth", "register", "--email", "owner@example.com", "--password", "correct-horse")
	require.NoError(t, err)
	_, err = c.run("auth", "login", "--email", "owner@example.com", "--password", "correct-horse")
	require.NoError(t, err)

	_, err = c.run("generate", "comments", "-n", "1", "--post-id", "")
	var streamErr *api.StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Contains(t, streamErr.Detail, "post_id is required")
}

func TestInvalidOutputFormat(t *testing.T) {
	c := &cli{t: t, configPath: filepath.Join(t.TempDir(), "config.toml"), serverURL: "http://127.0.0.1:0"}
	_, err := c.run("version", "-o", "yaml")
	assert.ErrorContains(t, err, `invalid --output "yaml"`)
}

func TestConfigSet(t *testing.T) {
	c := &cli{t: t, configPath: filepath.Join(t.TempDir(), "config.toml"), serverURL: "http://127.0.0.1:0"}

	_, err := c.run("config", "set", "generate.speed", "4")
	require.NoError(t, err)

	data, err := os.ReadFile(c.configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "speed")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, `user u1 a@example.com (password pw)`,
		describe(map[string]any{"id": "u1", "email": "a@example.com", "password": "pw"}))
	assert.Equal(t, `post p1 "Hello"`, describe(map[string]any{"id": "p1", "title": "Hello"}))
	assert.Equal(t, `comment c1 on post p1`, describe(map[string]any{"id": "c1", "post_id": "p1"}))
}

func TestExplainHints(t *testing.T) {
	limit := &api.APIError{Code: "POLICY_VIOLATION", Message: "too many concurrent sessions", Details: "session_limit", StatusCode: 403}
	assert.Contains(t, explain(limit).Error(), "close another `threadfit generate`")

	expired := &api.APIError{Code: "POLICY_VIOLATION", Message: "a valid session is required", Details: "invalid_token", StatusCode: 403}
	assert.Contains(t, explain(expired).Error(), "threadfit auth login")

	assert.NoError(t, explain(nil))
}
