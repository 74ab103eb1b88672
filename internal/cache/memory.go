package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/model"
)

type cachedQuote struct {
	q       model.Quote
	expires time.Time
}

type historyEntry struct {
	at    time.Time
	value float64
}

// Memory is an in-process store with the same behaviour as RedisStore.
type Memory struct {
	clock clock.Clock

	mu      sync.Mutex
	quotes  map[string]cachedQuote
	history map[string][]historyEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory(clk clock.Clock) *Memory {
	if clk == nil {
		clk = clock.New()
	}
	return &Memory{
		clock:   clk,
		quotes:  make(map[string]cachedQuote),
		history: make(map[string][]historyEntry),
	}
}

// GetQuote implements quote.Store.
func (m *Memory) GetQuote(_ context.Context, symbol string) (model.Quote, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.quotes[symbol]
	if !ok || !m.clock.Now().Before(c.expires) {
		delete(m.quotes, symbol)
		return model.Quote{}, false, nil
	}
	return c.q, true, nil
}

// SetQuote implements quote.Store.
func (m *Memory) SetQuote(_ context.Context, q model.Quote, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[q.Symbol] = cachedQuote{q: q, expires: m.clock.Now().Add(ttl)}
	return nil
}

// RecordSentiment implements History.
func (m *Memory) RecordSentiment(_ context.Context, symbol string, at time.Time, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := append(m.history[symbol], historyEntry{at: at, value: value})
	sort.SliceStable(h, func(i, j int) bool { return h[i].at.Before(h[j].at) })
	m.history[symbol] = h
	return nil
}

// PreviousSentiment implements History.
func (m *Memory) PreviousSentiment(_ context.Context, symbol string, before time.Time) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history[symbol]
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].at.Before(before) {
			return h[i].value, true, nil
		}
	}
	return 0, false, nil
}
