package websocket

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	apierrors "github.com/threadfit/backend/internal/errors"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/metrics"
	"github.com/threadfit/backend/internal/synthetic"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Send pings to peer with this period
	pingPeriod = 30 * time.Second

	// Maximum command size allowed from peer
	maxMessageSize = 64 * 1024

	// Outbound events buffered before a run waits for the writer
	sendBufferSize = 256

	// Time allowed for the admission release when a session closes
	releaseTimeout = 5 * time.Second
)

// State is the lifecycle state of a Session.
type State int

const (
	StateConnecting State = iota
	StateAuthenticated
	StateIdle
	StateGenerating
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionOptions tunes streaming sessions.
type SessionOptions struct {
	// MaxSpeed bounds speed_multiplier; larger values fall back to 1.0.
	MaxSpeed float64
	// CommandsPerSecond and CommandBurst limit inbound commands.
	CommandsPerSecond float64
	CommandBurst      int
}

// DefaultSessionOptions returns the production defaults.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		MaxSpeed:          20,
		CommandsPerSecond: 5,
		CommandBurst:      10,
	}
}

// Session binds one authenticated, admitted connection to at most one
// in-flight generation run.
type Session struct {
	ID        string
	Principal string

	conn      *websocket.Conn
	generator synthetic.Generator
	admission Admitter
	registry  *Registry
	opts      SessionOptions
	limiter   *rate.Limiter
	metrics   *metrics.Metrics

	send chan any

	// ctx scopes the writer; runCtx scopes generation and is cancelled
	// first so a close frame can still be written.
	ctx       context.Context
	cancel    context.CancelFunc
	runCtx    context.Context
	cancelRun context.CancelFunc

	mu         sync.Mutex
	state      State
	itemsTotal int

	runs        sync.WaitGroup
	writerDone  chan struct{}
	closeOnce   sync.Once
	releaseOnce sync.Once
	closeCode   websocket.StatusCode
	closeReason string
}

// newSession wraps an accepted connection whose principal already holds an
// admission slot. The session owns that slot from here on.
func newSession(conn *websocket.Conn, principal string, generator synthetic.Generator, admission Admitter, registry *Registry, opts SessionOptions) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	runCtx, cancelRun := context.WithCancel(ctx)
	if opts.MaxSpeed <= 0 {
		opts.MaxSpeed = DefaultSessionOptions().MaxSpeed
	}
	limit := rate.Inf
	if opts.CommandsPerSecond > 0 {
		limit = rate.Limit(opts.CommandsPerSecond)
	}

	return &Session{
		ID:          uuid.NewString(),
		Principal:   principal,
		conn:        conn,
		generator:   generator,
		admission:   admission,
		registry:    registry,
		opts:        opts,
		limiter:     rate.NewLimiter(limit, max(opts.CommandBurst, 1)),
		metrics:     metrics.Get(),
		send:        make(chan any, sendBufferSize),
		ctx:         ctx,
		cancel:      cancel,
		runCtx:      runCtx,
		cancelRun:   cancelRun,
		state:       StateAuthenticated,
		writerDone:  make(chan struct{}),
		closeCode:   websocket.StatusNormalClosure,
		closeReason: "closing",
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ItemsTotal returns how many entities this session has streamed so far.
func (s *Session) ItemsTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsTotal
}

// Serve runs the session until the peer disconnects or the session is
// aborted. It always releases the admission slot before returning.
func (s *Session) Serve() {
	if s.registry != nil && !s.registry.add(s) {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		s.cancelRun()
		s.cancel()
		_ = s.conn.Close(websocket.StatusGoingAway, "server shutting down")
		s.release()
		return
	}

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	logger.Log.Info("Streaming session opened",
		logger.WithSessionID(s.ID),
		logger.WithUserID(s.Principal),
	)

	go s.writePump()
	s.readPump()
	s.shutdown()
}

// Abort closes the connection with code and stops any run. Safe to call
// from any goroutine, any number of times; the first code wins.
func (s *Session) Abort(code websocket.StatusCode, reason string) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closeCode, s.closeReason = code, reason
		s.mu.Unlock()

		s.cancelRun()
		go func() {
			// Close blocks on the close handshake; readPump observes the
			// closed connection and drives shutdown.
			_ = s.conn.Close(code, reason)
			s.cancel()
		}()
	})
}

func (s *Session) readPump() {
	s.conn.SetReadLimit(maxMessageSize)

	// Reads are not bound to a context: cancelling one tears the connection
	// down without a close frame. Read returns once the connection closes.
	for {
		_, data, err := s.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				logger.Log.Info("Client disconnected", logger.WithSessionID(s.ID), logger.WithUserID(s.Principal))
			case s.runCtx.Err() != nil:
			default:
				logger.Log.Debug("Read ended", logger.WithSessionID(s.ID), zap.Error(err))
			}
			return
		}
		s.handleCommand(data)
	}
}

func (s *Session) writePump() {
	defer close(s.writerDone)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case ev := <-s.send:
			ctx, cancel := context.WithTimeout(s.ctx, writeWait)
			err := wsjson.Write(ctx, s.conn, ev)
			cancel()
			if err != nil {
				if s.ctx.Err() == nil {
					logger.Log.Warn("Write failed", logger.WithSessionID(s.ID), zap.Error(err))
				}
				s.teardown()
				return
			}
			s.metrics.WebSocketEventsTotal.WithLabelValues(eventType(ev)).Inc()
			if s.registry != nil {
				s.registry.metrics.EventsSent.Add(1)
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(s.ctx, writeWait)
			err := s.conn.Ping(ctx)
			cancel()
			if err != nil {
				if s.ctx.Err() == nil {
					logger.Log.Warn("Ping failed", logger.WithSessionID(s.ID), zap.Error(err))
				}
				s.teardown()
				return
			}
		}
	}
}

// teardown drops a connection that can no longer be written to.
func (s *Session) teardown() {
	s.cancelRun()
	s.cancel()
	_ = s.conn.CloseNow()
}

// enqueue hands an event to the writer, waiting for buffer space.
// It reports false once the session is going away.
func (s *Session) enqueue(ev any) bool {
	select {
	case <-s.runCtx.Done():
		return false
	default:
	}

	select {
	case s.send <- ev:
		return true
	case <-s.runCtx.Done():
		return false
	}
}

func (s *Session) reject(action *string, detail, reason string) {
	s.metrics.WebSocketCommandsRejected.WithLabelValues(reason).Inc()
	s.enqueue(NewErrorEvent(action, detail))
}

func (s *Session) handleCommand(data []byte) {
	if s.registry != nil {
		s.registry.metrics.CommandsReceived.Add(1)
	}

	if !s.limiter.Allow() {
		s.metrics.RateLimitExceededTotal.WithLabelValues("ws_commands").Inc()
		s.reject(nil, "too many commands, slow down", "rate_limited")
		return
	}

	cmd, err := ParseCommand(data, s.opts.MaxSpeed)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			logger.Log.Debug("Command rejected", logger.WithSessionID(s.ID), zap.String("detail", cmdErr.Detail))
			s.metrics.WebSocketCommandsRejected.WithLabelValues("invalid").Inc()
			s.enqueue(cmdErr.Event())
		}
		return
	}

	action := cmd.Action.String()

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		s.reject(&action, "session busy: a generation is already running", "busy")
		return
	}
	s.state = StateGenerating
	s.runs.Add(1)
	s.mu.Unlock()

	go s.generate(cmd)
}

// generate runs one command to completion, emitting progress in creation
// order followed by exactly one completed or error event.
func (s *Session) generate(cmd *ParsedCommand) {
	action := cmd.Action.String()
	defer s.runs.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("Generation panicked",
				logger.WithSessionID(s.ID),
				logger.WithAction(action),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			s.Abort(websocket.StatusInternalError, "internal error")
		}
	}()

	count := 0
	for res, err := range s.generator.Run(s.runCtx, cmd.Request(s.Principal)) {
		if err != nil {
			if s.runCtx.Err() != nil {
				// Transport is gone; nothing can be delivered.
				return
			}
			logger.Log.Warn("Generation failed",
				logger.WithSessionID(s.ID),
				logger.WithAction(action),
				zap.Int("produced", count),
				zap.Error(err),
			)
			s.finish(NewErrorEvent(&action, apierrors.PublicMessage(err, action+" failed")))
			return
		}

		count++
		s.mu.Lock()
		s.itemsTotal++
		s.mu.Unlock()

		if !s.enqueue(NewProgressEvent(action, res.Entity.Payload(), count)) {
			return
		}
	}

	if s.runCtx.Err() != nil {
		return
	}
	s.finish(NewCompletedEvent(action, count))
}

// finish emits the terminal event of a run and only then frees the slot, so
// a following run cannot interleave with it.
func (s *Session) finish(ev any) {
	delivered := s.enqueue(ev)

	s.mu.Lock()
	defer s.mu.Unlock()
	if delivered && s.state == StateGenerating {
		s.state = StateIdle
	}
}

// shutdown stops the run, waits for it and the writer, closes the connection
// and releases the admission slot exactly once.
func (s *Session) shutdown() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	s.cancelRun()
	s.runs.Wait()
	s.cancel()
	<-s.writerDone

	s.mu.Lock()
	code, reason := s.closeCode, s.closeReason
	s.mu.Unlock()
	s.closeOnce.Do(func() {
		_ = s.conn.Close(code, reason)
	})

	s.release()
	if s.registry != nil {
		s.registry.remove(s)
	}

	logger.Log.Info("Streaming session closed",
		logger.WithSessionID(s.ID),
		logger.WithUserID(s.Principal),
		zap.Int("items", s.ItemsTotal()),
		zap.Int("close_code", int(code)),
	)
}

func (s *Session) release() {
	s.releaseOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := s.admission.Release(ctx, s.Principal); err != nil {
			logger.Log.Error("Admission release failed", logger.WithUserID(s.Principal), zap.Error(err))
		}
	})
}
