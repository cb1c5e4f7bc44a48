// Package api is the threadfit CLI's client for the ThreadFit backend: the
// REST surface over resty and the generation stream over WebSocket.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
	"github.com/threadfit/backend/internal/cli/logger"
	"github.com/threadfit/backend/internal/telemetry"
)

const userAgent = "ThreadFit-CLI/0.1.0"

// Client talks to one ThreadFit server on behalf of at most one session.
type Client struct {
	http       *resty.Client
	baseURL    string
	cookieName string
	token      string
}

// New returns a client for baseURL. cookieName is the session cookie the
// server issues on login.
func New(baseURL string, timeout time.Duration, cookieName string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{baseURL: baseURL, cookieName: cookieName}

	c.http = resty.NewWithClient(telemetry.NewInstrumentedHTTPClient(timeout)).
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL)
		if c.token != "" {
			req.SetCookie(c.sessionCookie())
		}
		return nil
	})
	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response", "status", resp.StatusCode(), "elapsed", resp.Time())
		return nil
	})
	return c
}

// SetToken attaches a session token to every following request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current session token, if any.
func (c *Client) Token() string {
	return c.token
}

// CookieName is the name of the session cookie.
func (c *Client) CookieName() string {
	return c.cookieName
}

func (c *Client) sessionCookie() *http.Cookie {
	return &http.Cookie{Name: c.cookieName, Value: c.token}
}

// CheckResponse turns transport failures and non-2xx answers into errors.
func CheckResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return ParseError(resp)
	}
	return nil
}
