package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/json-iterator/go"
	"github.com/threadfit/backend/internal/cli/logger"
)

// Kinds are the entity collections the server generates and serves.
var Kinds = []string{"users", "posts", "comments"}

func validKind(kind string) error {
	for _, k := range Kinds {
		if k == kind {
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q (want users, posts or comments)", kind)
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password string) (*User, error) {
	logger.Debug("Registering account", "email", email)

	var user User
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(credentialsRequest{Email: email, Password: password}).
		Post("/auth/register")
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.Body(), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and adopts the issued session cookie.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	logger.Debug("Attempting login", "email", email)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(credentialsRequest{Email: email, Password: password}).
		Post("/auth/login")
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name != c.cookieName || cookie.Value == "" {
			continue
		}
		c.SetToken(cookie.Value)
		session := &Session{Token: cookie.Value, ExpiresAt: cookie.Expires}
		if session.ExpiresAt.IsZero() && cookie.MaxAge > 0 {
			session.ExpiresAt = resp.ReceivedAt().Add(time.Duration(cookie.MaxAge) * time.Second)
		}
		logger.Debug("Login successful", "expires_at", session.ExpiresAt)
		return session, nil
	}
	return nil, fmt.Errorf("login succeeded but no %s cookie was set", c.cookieName)
}

// Logout ends the session server-side and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Post("/auth/logout")
	c.SetToken("")
	return CheckResponse(resp, err)
}

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	resp, err := c.http.R().SetContext(ctx).Get("/auth/me")
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.Body(), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Pull runs a synchronous generation of kind and returns every entity at once.
func (c *Client) Pull(ctx context.Context, kind string, req PullRequest) (*PullResponse, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}

	body := map[string]any{}
	if req.Amount > 0 {
		body["num_"+kind] = req.Amount
	}
	if req.UserID != "" {
		body["user_id"] = req.UserID
	}
	if req.PostID != "" {
		body["post_id"] = req.PostID
	}
	if req.Seed != nil {
		body["seed"] = *req.Seed
	}
	if req.SpeedMultiplier != nil {
		body["speed_multiplier"] = *req.SpeedMultiplier
	}

	var out PullResponse
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/synthetic/" + kind)
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Batches lists the caller's batches, newest first.
func (c *Client) Batches(ctx context.Context) ([]Batch, error) {
	var out struct {
		Batches []Batch `json:"batches"`
	}
	resp, err := c.http.R().SetContext(ctx).Get("/data/batches")
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, err
	}
	return out.Batches, nil
}

// BatchData returns the entities of kind produced by batchID. A limit of
// zero leaves paging to the server.
func (c *Client) BatchData(ctx context.Context, kind, batchID string, limit int) (*BatchData, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}

	req := c.http.R().SetContext(ctx).SetQueryParam("batch_id", batchID)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	var out BatchData
	resp, err := req.Get("/data/" + kind)
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return out, ParseError(resp)
	}
	return out, nil
}
