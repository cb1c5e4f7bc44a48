package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	json "github.com/json-iterator/go"
	"github.com/threadfit/backend/internal/cli/logger"
)

// Stream event types.
const (
	EventProgress  = "progress"
	EventCompleted = "completed"
	EventError     = "error"
)

// StreamCommand is one generation request sent over an open stream.
type StreamCommand struct {
	Action          string         `json:"action"`
	Payload         map[string]any `json:"payload"`
	SpeedMultiplier *float64       `json:"speed_multiplier,omitempty"`
}

// Event is any event the server streams back.
type Event struct {
	Type    string         `json:"type"`
	Action  *string        `json:"action"`
	Payload map[string]any `json:"payload,omitempty"`
	Count   int            `json:"count,omitempty"`
	Total   int            `json:"total,omitempty"`
	Detail  string         `json:"detail,omitempty"`
}

// StreamError is an error event that ended a run.
type StreamError struct {
	Action string
	Detail string
}

func (e *StreamError) Error() string {
	if e.Action == "" {
		return e.Detail
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Detail)
}

// CloseError reports the server closing the stream before the run ended.
type CloseError struct {
	Code   websocket.StatusCode
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("stream closed by server (%d %s): %s", int(e.Code), e.Code, e.Reason)
}

// Stream is an open generation session.
type Stream struct {
	conn *websocket.Conn
}

func (c *Client) streamURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws/generate"
}

// OpenStream upgrades to a generation session authenticated by the current
// token. A refused upgrade comes back as an *APIError.
func (c *Client) OpenStream(ctx context.Context) (*Stream, error) {
	header := http.Header{}
	header.Set("User-Agent", userAgent)
	if c.token != "" {
		header.Set("Cookie", c.sessionCookie().String())
	}

	logger.Debug("Opening stream", "url", c.streamURL())
	conn, resp, err := websocket.Dial(ctx, c.streamURL(), &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, parseError(resp.StatusCode, resp.Header, body)
		}
		return nil, fmt.Errorf("open stream: %w", err)
	}
	conn.SetReadLimit(1 << 20)
	return &Stream{conn: conn}, nil
}

// Run sends cmd and hands every event to onEvent until the run completes
// or fails. Rejections of cmd are returned as *StreamError. Cancelling ctx
// abandons the stream; the server stops the run when the socket drops.
func (s *Stream) Run(ctx context.Context, cmd StreamCommand, onEvent func(Event)) (total int, err error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return 0, err
	}
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return 0, fmt.Errorf("send command: %w", err)
	}

	for {
		ev, err := s.next(ctx)
		if err != nil {
			return 0, err
		}
		if onEvent != nil {
			onEvent(ev)
		}

		switch ev.Type {
		case EventCompleted:
			return ev.Total, nil
		case EventError:
			se := &StreamError{Detail: ev.Detail}
			if ev.Action != nil {
				se.Action = *ev.Action
			}
			return 0, se
		}
	}
}

func (s *Stream) next(ctx context.Context) (Event, error) {
	_, data, err := s.conn.Read(ctx)
	if err != nil {
		var ce websocket.CloseError
		if errors.As(err, &ce) {
			return Event{}, &CloseError{Code: ce.Code, Reason: ce.Reason}
		}
		return Event{}, fmt.Errorf("read event: %w", err)
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	logger.Debug("Stream event", "type", ev.Type, "count", ev.Count)
	return ev, nil
}

// Close ends the session normally.
func (s *Stream) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "done")
}
