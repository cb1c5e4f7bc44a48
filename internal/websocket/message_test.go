package websocket

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadfit/backend/internal/synthetic"
)

func parseError(t *testing.T, raw string) *CommandError {
	t.Helper()

	cmd, err := ParseCommand([]byte(raw), 20)
	require.Error(t, err)
	assert.Nil(t, cmd)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr), "expected *CommandError, got %T", err)
	return cmdErr
}

func TestParseCommand_Defaults(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"action":"generate_users"}`), 20)
	require.NoError(t, err)

	assert.Equal(t, synthetic.ActionGenerateUsers, cmd.Action)
	assert.Equal(t, 1, cmd.Amount)
	assert.Equal(t, 1.0, cmd.Speed)
	assert.Nil(t, cmd.Seed)
}

func TestParseCommand_FullPayload(t *testing.T) {
	raw := `{"action":"generate_comments","payload":{"amount":4,"post_id":"p1","user_id":"u1","batch_id":"b1","seed":42},"speed_multiplier":2.5}`

	cmd, err := ParseCommand([]byte(raw), 20)
	require.NoError(t, err)

	assert.Equal(t, synthetic.ActionGenerateComments, cmd.Action)
	assert.Equal(t, 4, cmd.Amount)
	assert.Equal(t, "p1", cmd.PostID)
	assert.Equal(t, "u1", cmd.UserID)
	assert.Equal(t, "b1", cmd.BatchID)
	require.NotNil(t, cmd.Seed)
	assert.Equal(t, int64(42), *cmd.Seed)
	assert.Equal(t, 2.5, cmd.Speed)

	req := cmd.Request("owner-1")
	assert.Equal(t, "owner-1", req.OwnerID)
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, 4, req.Amount)
	assert.Equal(t, 2.5, req.Speed)
	assert.NoError(t, req.Validate())
}

func TestParseCommand_ZeroAmountIsAllowed(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"action":"generate_posts","payload":{"amount":0}}`), 20)
	require.NoError(t, err)
	assert.Equal(t, 0, cmd.Amount)
}

func TestParseCommand_SpeedFallsBackToOne(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"zero", `{"action":"generate_users","speed_multiplier":0}`},
		{"negative", `{"action":"generate_users","speed_multiplier":-3}`},
		{"above max", `{"action":"generate_users","speed_multiplier":1000}`},
		{"null", `{"action":"generate_users","speed_multiplier":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.raw), 20)
			require.NoError(t, err)
			assert.Equal(t, 1.0, cmd.Speed)
		})
	}

	nan := math.NaN()
	assert.Equal(t, 1.0, normalizeSpeed(&nan, 20))
}

func TestParseCommand_Rejections(t *testing.T) {
	t.Run("malformed JSON has no action", func(t *testing.T) {
		cmdErr := parseError(t, `{"action":`)
		assert.Nil(t, cmdErr.Action)
		assert.Equal(t, "invalid request: malformed JSON", cmdErr.Detail)
	})

	t.Run("missing action", func(t *testing.T) {
		cmdErr := parseError(t, `{"payload":{"amount":1}}`)
		assert.Nil(t, cmdErr.Action)
		assert.Equal(t, "invalid request: action is required", cmdErr.Detail)
	})

	t.Run("unknown action echoes the name", func(t *testing.T) {
		cmdErr := parseError(t, `{"action":"generate_dragons"}`)
		require.NotNil(t, cmdErr.Action)
		assert.Equal(t, "generate_dragons", *cmdErr.Action)
		assert.Equal(t, "unknown action 'generate_dragons'", cmdErr.Detail)
	})

	t.Run("negative amount", func(t *testing.T) {
		cmdErr := parseError(t, `{"action":"generate_users","payload":{"amount":-1}}`)
		require.NotNil(t, cmdErr.Action)
		assert.Equal(t, "generate_users", *cmdErr.Action)
		assert.Contains(t, cmdErr.Detail, "amount")
	})

	t.Run("wrong payload type", func(t *testing.T) {
		cmdErr := parseError(t, `{"action":"generate_users","payload":{"amount":"three"}}`)
		assert.Equal(t, "invalid payload: field 'amount' has the wrong type", cmdErr.Detail)
	})

	t.Run("payload is not an object", func(t *testing.T) {
		cmdErr := parseError(t, `{"action":"generate_users","payload":[1,2]}`)
		assert.Equal(t, "invalid payload: expected a JSON object", cmdErr.Detail)
	})

	t.Run("comments need a post", func(t *testing.T) {
		cmdErr := parseError(t, `{"action":"generate_comments","payload":{"amount":2}}`)
		assert.Equal(t, "invalid payload: post_id is required for generate_comments", cmdErr.Detail)
	})
}

func TestEvents_WireFormat(t *testing.T) {
	progress, err := json.Marshal(NewProgressEvent("generate_users", map[string]any{"id": "u1"}, 1))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"progress","action":"generate_users","payload":{"id":"u1"},"count":1}`, string(progress))

	completed, err := json.Marshal(NewCompletedEvent("generate_users", 3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"completed","action":"generate_users","total":3}`, string(completed))

	action := "generate_posts"
	failed, err := json.Marshal(NewErrorEvent(&action, "user not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","detail":"user not found","action":"generate_posts"}`, string(failed))

	anonymous, err := json.Marshal(NewErrorEvent(nil, "invalid request: malformed JSON"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","detail":"invalid request: malformed JSON","action":null}`, string(anonymous))
}

func TestEventType(t *testing.T) {
	assert.Equal(t, EventProgress, eventType(NewProgressEvent("a", nil, 1)))
	assert.Equal(t, EventCompleted, eventType(NewCompletedEvent("a", 0)))
	assert.Equal(t, EventError, eventType(NewErrorEvent(nil, "x")))
}
