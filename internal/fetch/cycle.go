package fetch

import (
	"context"
	"sync"
)

// Cycle holds quota state for one orchestrator run. Clients called with a
// context carrying a Cycle record quota exhaustion on the Cycle instead of
// on themselves, so concurrent runs sharing a client do not clear each
// other's suspension.
type Cycle struct {
	mu       sync.Mutex
	exceeded map[string]bool
}

// NewCycle returns an empty cycle.
func NewCycle() *Cycle {
	return &Cycle{exceeded: make(map[string]bool)}
}

// Exceeded reports whether the named source tripped its quota in this cycle.
func (c *Cycle) Exceeded(source string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exceeded[source]
}

// trip marks source exhausted and reports whether this call set the flag.
func (c *Cycle) trip(source string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exceeded[source] {
		return false
	}
	c.exceeded[source] = true
	return true
}

type cycleKey struct{}

// WithCycle returns a context carrying cycle.
func WithCycle(ctx context.Context, cycle *Cycle) context.Context {
	return context.WithValue(ctx, cycleKey{}, cycle)
}

// StartCycle returns a context carrying a fresh Cycle.
func StartCycle(ctx context.Context) context.Context {
	return WithCycle(ctx, NewCycle())
}

// CycleFrom returns the cycle carried by ctx, or nil.
func CycleFrom(ctx context.Context) *Cycle {
	c, _ := ctx.Value(cycleKey{}).(*Cycle)
	return c
}
