// Package clock abstracts wall-clock time so rate limiting, cursors and
// schedules can be driven deterministically in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock is the subset of the time package the pipeline depends on.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real is the system clock.
type Real struct{}

// New returns the system clock.
func New() Clock { return Real{} }

func (Real) Now() time.Time                         { return time.Now() }
func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (Real) NewTicker(d time.Duration) Ticker       { return realTicker{time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Manual is a clock that only moves when Advance or Set is called.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*waiter
	tickers []*manualTicker
}

type waiter struct {
	at time.Time
	ch chan time.Time
}

// NewManual returns a manual clock frozen at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After returns a channel that fires once the clock has been advanced by d.
func (m *Manual) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- m.now
		return ch
	}
	m.waiters = append(m.waiters, &waiter{at: m.now.Add(d), ch: ch})
	return ch
}

// NewTicker returns a ticker that fires each time the clock crosses a period boundary.
func (m *Manual) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTicker{clock: m, period: d, next: m.now.Add(d), ch: make(chan time.Time, 1)}
	m.tickers = append(m.tickers, t)
	return t
}

// Advance moves the clock forward by d and fires due timers and tickers.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.set(m.now.Add(d))
	m.mu.Unlock()
}

// Set moves the clock to t. Moving backwards fires nothing.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.set(t)
	m.mu.Unlock()
}

// Waiters reports how many After channels are pending.
func (m *Manual) Waiters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

func (m *Manual) set(t time.Time) {
	m.now = t

	sort.Slice(m.waiters, func(i, j int) bool { return m.waiters[i].at.Before(m.waiters[j].at) })
	pending := m.waiters[:0]
	for _, w := range m.waiters {
		if !w.at.After(t) {
			w.ch <- t
			continue
		}
		pending = append(pending, w)
	}
	m.waiters = pending

	for _, tk := range m.tickers {
		if tk.stopped || tk.next.After(t) {
			continue
		}
		// Like time.Ticker, slow receivers drop ticks.
		select {
		case tk.ch <- t:
		default:
		}
		for !tk.next.After(t) {
			tk.next = tk.next.Add(tk.period)
		}
	}
}

type manualTicker struct {
	clock   *Manual
	period  time.Duration
	next    time.Time
	ch      chan time.Time
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.clock.mu.Lock()
	t.stopped = true
	t.clock.mu.Unlock()
}
