package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/threadfit/backend/internal/synthetic"
)

// Event type discriminators.
const (
	EventProgress  = "progress"
	EventCompleted = "completed"
	EventError     = "error"
)

const (
	defaultSpeed  = 1.0
	defaultAmount = 1
)

// Command is an inbound generation request.
//
//	{"action": "generate_users", "payload": {"amount": 3}, "speed_multiplier": 2}
type Command struct {
	Action          string          `json:"action"`
	Payload         json.RawMessage `json:"payload"`
	SpeedMultiplier *float64        `json:"speed_multiplier"`
}

// CommandPayload holds the action-specific fields.
type CommandPayload struct {
	Amount  *int   `json:"amount"`
	UserID  string `json:"user_id"`
	PostID  string `json:"post_id"`
	BatchID string `json:"batch_id"`
	Seed    *int64 `json:"seed"`
}

// ParsedCommand is a validated Command with defaults applied.
type ParsedCommand struct {
	Action  synthetic.Action
	Amount  int
	UserID  string
	PostID  string
	BatchID string
	Seed    *int64
	Speed   float64
}

// Request builds the pipeline request on behalf of principal.
func (c *ParsedCommand) Request(principal string) synthetic.Request {
	return synthetic.Request{
		Action:  c.Action,
		Amount:  c.Amount,
		OwnerID: principal,
		UserID:  c.UserID,
		PostID:  c.PostID,
		BatchID: c.BatchID,
		Seed:    c.Seed,
		Speed:   c.Speed,
	}
}

// CommandError is a rejected command. Action is nil when the command was
// too malformed to name one.
type CommandError struct {
	Action *string
	Detail string
}

func (e *CommandError) Error() string {
	return e.Detail
}

// Event converts the rejection into the error event sent to the client.
func (e *CommandError) Event() ErrorEvent {
	return NewErrorEvent(e.Action, e.Detail)
}

// ParseCommand decodes and validates an inbound command. Speeds outside
// (0, maxSpeed] fall back to 1.0.
func ParseCommand(data []byte, maxSpeed float64) (*ParsedCommand, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, &CommandError{Detail: "invalid request: " + describeJSONError(err)}
	}
	if cmd.Action == "" {
		return nil, &CommandError{Detail: "invalid request: action is required"}
	}

	action, err := synthetic.ParseAction(cmd.Action)
	if err != nil {
		name := cmd.Action
		return nil, &CommandError{Action: &name, Detail: fmt.Sprintf("unknown action '%s'", cmd.Action)}
	}
	name := action.String()
	reject := func(format string, args ...any) error {
		return &CommandError{Action: &name, Detail: fmt.Sprintf(format, args...)}
	}

	var payload CommandPayload
	if raw := bytes.TrimSpace(cmd.Payload); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		decoder := json.NewDecoder(bytes.NewReader(raw))
		if err := decoder.Decode(&payload); err != nil {
			return nil, reject("invalid payload: %s", describeJSONError(err))
		}
	}

	amount := defaultAmount
	if payload.Amount != nil {
		amount = *payload.Amount
	}
	if amount < 0 {
		return nil, reject("invalid payload: amount must be zero or greater")
	}
	if action == synthetic.ActionGenerateComments && payload.PostID == "" {
		return nil, reject("invalid payload: post_id is required for %s", name)
	}

	return &ParsedCommand{
		Action:  action,
		Amount:  amount,
		UserID:  payload.UserID,
		PostID:  payload.PostID,
		BatchID: payload.BatchID,
		Seed:    payload.Seed,
		Speed:   normalizeSpeed(cmd.SpeedMultiplier, maxSpeed),
	}, nil
}

func normalizeSpeed(speed *float64, maxSpeed float64) float64 {
	if speed == nil {
		return defaultSpeed
	}
	s := *speed
	if math.IsNaN(s) || s <= 0 || s > maxSpeed {
		return defaultSpeed
	}
	return s
}

// describeJSONError words a decode failure without Go type names.
func describeJSONError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("field '%s' has the wrong type", typeErr.Field)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "malformed JSON"
	}
	return "expected a JSON object"
}

// ProgressEvent reports one persisted entity. Count runs 1..N within a run.
type ProgressEvent struct {
	Type    string         `json:"type"`
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload"`
	Count   int            `json:"count"`
}

// CompletedEvent is the last event of a successful run.
type CompletedEvent struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Total  int    `json:"total"`
}

// ErrorEvent reports a rejected command or a failed run.
type ErrorEvent struct {
	Type   string  `json:"type"`
	Detail string  `json:"detail"`
	Action *string `json:"action"`
}

func NewProgressEvent(action string, payload map[string]any, count int) ProgressEvent {
	return ProgressEvent{Type: EventProgress, Action: action, Payload: payload, Count: count}
}

func NewCompletedEvent(action string, total int) CompletedEvent {
	return CompletedEvent{Type: EventCompleted, Action: action, Total: total}
}

func NewErrorEvent(action *string, detail string) ErrorEvent {
	return ErrorEvent{Type: EventError, Detail: detail, Action: action}
}

// eventType returns the discriminator of an outbound event.
func eventType(ev any) string {
	switch e := ev.(type) {
	case ProgressEvent:
		return e.Type
	case CompletedEvent:
		return e.Type
	case ErrorEvent:
		return e.Type
	default:
		return "unknown"
	}
}
