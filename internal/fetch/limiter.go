package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/rickgao/tickersense/internal/clock"
)

// Limiter is a sliding-window request counter. Every attempt is recorded
// when it starts, so failed attempts count against the quota too.
type Limiter struct {
	mu     sync.Mutex
	clock  clock.Clock
	limit  int
	window time.Duration
	stamps []time.Time
}

// NewLimiter allows at most limit attempts in any window-long interval.
func NewLimiter(limit int, window time.Duration, clk clock.Clock) *Limiter {
	if clk == nil {
		clk = clock.New()
	}
	return &Limiter{
		clock:  clk,
		limit:  limit,
		window: window,
		stamps: make([]time.Time, 0, limit),
	}
}

// Wait blocks until a slot is free, then records it.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	var waited time.Duration
	for {
		wait, ok := l.reserve()
		if ok {
			return waited, nil
		}

		select {
		case <-ctx.Done():
			return waited, ctx.Err()
		case <-l.clock.After(wait):
			waited += wait
		}
	}
}

// reserve records a slot if one is free. Otherwise it returns how long until
// the oldest recorded attempt leaves the window.
func (l *Limiter) reserve() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.pruneLocked(now)

	if len(l.stamps) < l.limit {
		l.stamps = append(l.stamps, now)
		return 0, true
	}

	wait := l.stamps[0].Add(l.window).Sub(now)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

func (l *Limiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

// InWindow returns the number of attempts recorded in the current window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.clock.Now())
	return len(l.stamps)
}
