package websocket

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/metrics"
	"go.uber.org/zap"
)

// Registry tracks live streaming sessions so they can be inspected and
// drained on shutdown.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byUser   map[string]map[string]*Session
	closing  bool

	metrics *Metrics

	wg sync.WaitGroup
}

// Metrics tracks streaming statistics
type Metrics struct {
	TotalSessions     atomic.Int64
	ActiveSessions    atomic.Int64
	CommandsReceived  atomic.Int64
	EventsSent        atomic.Int64
	AdmissionRejected atomic.Int64
	AuthRejected      atomic.Int64
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]map[string]*Session),
		metrics:  &Metrics{},
	}
}

// add tracks s. It reports false once Shutdown has started; the caller
// must then close s itself.
func (r *Registry) add(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closing {
		return false
	}
	r.wg.Add(1)
	r.sessions[s.ID] = s
	if r.byUser[s.Principal] == nil {
		r.byUser[s.Principal] = make(map[string]*Session)
	}
	r.byUser[s.Principal][s.ID] = s

	r.metrics.TotalSessions.Add(1)
	r.metrics.ActiveSessions.Add(1)
	metrics.Get().WebSocketSessionsActive.Inc()
	return true
}

func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; !ok {
		return
	}
	delete(r.sessions, s.ID)
	if userSessions, ok := r.byUser[s.Principal]; ok {
		delete(userSessions, s.ID)
		if len(userSessions) == 0 {
			delete(r.byUser, s.Principal)
		}
	}

	r.metrics.ActiveSessions.Add(-1)
	metrics.Get().WebSocketSessionsActive.Dec()
	r.wg.Done()
}

// Closing reports whether Shutdown has been called.
func (r *Registry) Closing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closing
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// UserSessionCount returns the number of live sessions held by principal.
func (r *Registry) UserSessionCount(principal string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[principal])
}

// Snapshot returns current streaming metrics
func (r *Registry) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalSessions:     r.metrics.TotalSessions.Load(),
		ActiveSessions:    r.metrics.ActiveSessions.Load(),
		CommandsReceived:  r.metrics.CommandsReceived.Load(),
		EventsSent:        r.metrics.EventsSent.Load(),
		AdmissionRejected: r.metrics.AdmissionRejected.Load(),
		AuthRejected:      r.metrics.AuthRejected.Load(),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	TotalSessions     int64 `json:"total_sessions"`
	ActiveSessions    int64 `json:"active_sessions"`
	CommandsReceived  int64 `json:"commands_received"`
	EventsSent        int64 `json:"events_sent"`
	AdmissionRejected int64 `json:"admission_rejected"`
	AuthRejected      int64 `json:"auth_rejected"`
}

// String implements Stringer for MetricsSnapshot
func (m MetricsSnapshot) String() string {
	return fmt.Sprintf(
		"sessions=%d/%d commands=%d events=%d rejected=admission:%d/auth:%d",
		m.ActiveSessions, m.TotalSessions,
		m.CommandsReceived, m.EventsSent,
		m.AdmissionRejected, m.AuthRejected,
	)
}

// Shutdown closes every live session with StatusGoingAway and waits for
// them to release their admission slots, or for ctx to expire. Sessions
// that try to register afterwards are turned away.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closing = true
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	logger.Log.Info("Draining streaming sessions", zap.Int("sessions", len(live)))
	for _, s := range live {
		s.Abort(websocket.StatusGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	start := time.Now()
	select {
	case <-done:
		logger.Log.Info("Streaming sessions drained", zap.Duration("took", time.Since(start)))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("streaming shutdown: %w", ctx.Err())
	}
}
