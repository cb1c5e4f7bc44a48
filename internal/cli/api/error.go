package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// ErrorResponse covers the server's {"code", "message"} error body and the
// bare {"error", "message"} body gin and proxies produce.
type ErrorResponse struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
	Details string `json:"details"`
}

// APIError represents an API error response
type APIError struct {
	Code       string
	Message    string
	Field      string
	Details    string
	StatusCode int
	RetryAfter string
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Field)
	}
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, msg)
}

// ParseError parses an error response from the API
func ParseError(resp *resty.Response) error {
	return parseError(resp.StatusCode(), resp.Header(), resp.Body())
}

func parseError(status int, header http.Header, body []byte) error {
	apiErr := &APIError{StatusCode: status, RetryAfter: header.Get("Retry-After")}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Code != "" || errResp.Error != "") {
		apiErr.Code = errResp.Code
		if apiErr.Code == "" {
			apiErr.Code = errResp.Error
		}
		apiErr.Message = errResp.Message
		apiErr.Field = errResp.Field
		apiErr.Details = errResp.Details
		if errResp.Details != "" {
			apiErr.Message += ": " + errResp.Details
		}
		return apiErr
	}

	// Fallback to generic error
	apiErr.Code = "unknown_error"
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsSessionLimit reports a streaming upgrade refused because the account
// already holds the maximum number of sessions.
func IsSessionLimit(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "POLICY_VIOLATION" && apiErr.Details == "session_limit"
}

// IsUnauthorized checks if error is due to missing/invalid authentication
func IsUnauthorized(err error) bool {
	s := statusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// IsNotFound checks if error is due to resource not found
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsRateLimited checks if the server asked us to slow down
func IsRateLimited(err error) bool {
	return statusOf(err) == http.StatusTooManyRequests
}
