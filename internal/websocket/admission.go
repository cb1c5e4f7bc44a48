package websocket

import (
	"context"
	"errors"
	"sync"
)

// DefaultMaxSessionsPerUser is the admission ceiling when none is configured.
const DefaultMaxSessionsPerUser = 5

// ErrTooManySessions is returned by TryAdmit when the principal is at the ceiling.
var ErrTooManySessions = errors.New("too many concurrent sessions")

// Admitter caps concurrent streaming sessions per principal.
//
// TryAdmit either admits (returns nil, count incremented) or returns
// ErrTooManySessions without changing state. Every admitted session must be
// released exactly once.
type Admitter interface {
	TryAdmit(ctx context.Context, principal string) error
	Release(ctx context.Context, principal string) error
}

// MemoryAdmission is a process-local Admitter.
type MemoryAdmission struct {
	mu      sync.Mutex
	ceiling int
	active  map[string]int
}

var _ Admitter = (*MemoryAdmission)(nil)

func NewMemoryAdmission(ceiling int) *MemoryAdmission {
	if ceiling < 1 {
		ceiling = DefaultMaxSessionsPerUser
	}
	return &MemoryAdmission{
		ceiling: ceiling,
		active:  make(map[string]int),
	}
}

func (a *MemoryAdmission) TryAdmit(_ context.Context, principal string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active[principal] >= a.ceiling {
		return ErrTooManySessions
	}
	a.active[principal]++
	return nil
}

// Release decrements the principal's count and forgets it at zero.
// Releasing an unknown principal is a no-op.
func (a *MemoryAdmission) Release(_ context.Context, principal string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, ok := a.active[principal]
	if !ok {
		return nil
	}
	if n <= 1 {
		delete(a.active, principal)
		return nil
	}
	a.active[principal] = n - 1
	return nil
}

// Count returns the principal's active session count.
func (a *MemoryAdmission) Count(principal string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active[principal]
}

// Principals returns how many principals hold at least one session.
func (a *MemoryAdmission) Principals() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.active)
}
