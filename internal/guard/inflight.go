package guard

import (
	"context"
	"sync"

	"github.com/puzzlerush/platform/internal/domain"
)

// InFlightGuard suppresses concurrent settlements of the same session id
// within one process. The database idempotency check is the authority; this
// only spares the second of two simultaneous duplicates a pointless
// lock-contention round trip.
type InFlightGuard struct {
	mu     sync.Mutex
	active map[string]bool
}

// NewInFlightGuard creates an in-memory in-flight guard.
func NewInFlightGuard() *InFlightGuard {
	return &InFlightGuard{
		active: make(map[string]bool),
	}
}

// Begin marks the key in flight. Not allowed if a settlement for the same key
// is already running.
func (g *InFlightGuard) Begin(_ context.Context, key string) domain.GuardResult {
	if key == "" {
		return domain.GuardResult{Allowed: true}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active[key] {
		return domain.GuardResult{
			Allowed: false,
			Reason:  "settlement for this session is already in progress",
			Guard:   "in_flight",
		}
	}

	g.active[key] = true
	return domain.GuardResult{Allowed: true}
}

// Finish releases the key once the settlement reaches a terminal state or
// fails, allowing retries.
func (g *InFlightGuard) Finish(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, key)
}
