package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorFormatting(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: post not found", NotFound("post").Error())
	assert.Equal(t, "VALIDATION_ERROR: must be positive (field: amount)", ValidationError("amount", "must be positive").Error())
}

func TestAsFindsWrappedAPIError(t *testing.T) {
	base := NotFound("user")
	wrapped := fmt.Errorf("create post: %w", base)

	apiErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, base, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	_, ok = As(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestPublicMessageHidesCauses(t *testing.T) {
	cause := stderrors.New(`pq: insert on table "posts" violates foreign key constraint`)
	apiErr := InternalError("failed to create post").Wrap(cause)

	assert.Equal(t, "failed to create post", PublicMessage(apiErr, "generation failed"))
	assert.Equal(t, "generation failed", PublicMessage(cause, "generation failed"))
	assert.ErrorIs(t, apiErr, cause)
}

func TestErrorCodeStatus(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, ErrPolicyViolation.StatusCode())
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("UNKNOWN").StatusCode())
}
