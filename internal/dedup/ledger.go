package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/rickgao/tickersense/internal/model"
)

// Ledger records which items have been persisted.
type Ledger interface {
	// IsNew reports whether no item with this fingerprint was committed.
	IsNew(ctx context.Context, fingerprint string) (bool, error)

	// Commit persists the item unless its fingerprint already exists.
	// It reports whether this call inserted it.
	Commit(ctx context.Context, item model.Item) (bool, error)

	// Sentiment returns the score stored with a committed item.
	Sentiment(ctx context.Context, fingerprint string) (model.SentimentScore, bool, error)

	// Cursor returns the newest committed creation time for a source, or
	// the zero time when nothing was committed.
	Cursor(ctx context.Context, source model.Source) (time.Time, error)
}

// MemoryLedger is an in-process Ledger.
type MemoryLedger struct {
	mu      sync.Mutex
	items   map[string]model.Item
	cursors map[model.Source]time.Time
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		items:   make(map[string]model.Item),
		cursors: make(map[model.Source]time.Time),
	}
}

// IsNew implements Ledger.
func (l *MemoryLedger) IsNew(_ context.Context, fingerprint string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.items[fingerprint]
	return !ok, nil
}

// Commit implements Ledger.
func (l *MemoryLedger) Commit(_ context.Context, item model.Item) (bool, error) {
	if item.Fingerprint == "" {
		item.Fingerprint = ItemFingerprint(item.RawItem)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.items[item.Fingerprint]; ok {
		return false, nil
	}
	l.items[item.Fingerprint] = item
	if item.CreatedAt.After(l.cursors[item.Source]) {
		l.cursors[item.Source] = item.CreatedAt
	}
	return true, nil
}

// Sentiment implements Ledger.
func (l *MemoryLedger) Sentiment(_ context.Context, fingerprint string) (model.SentimentScore, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	it, ok := l.items[fingerprint]
	return it.Sentiment, ok, nil
}

// Cursor implements Ledger.
func (l *MemoryLedger) Cursor(_ context.Context, source model.Source) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursors[source], nil
}

// Len returns the number of committed items.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items returns committed items for a source, in no particular order.
func (l *MemoryLedger) Items(source model.Source) []model.Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Item
	for _, it := range l.items {
		if it.Source == source {
			out = append(out, it)
		}
	}
	return out
}

// Purge removes items of a source created before the cutoff.
func (l *MemoryLedger) Purge(_ context.Context, source model.Source, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for fp, it := range l.items {
		if it.Source == source && it.CreatedAt.Before(before) {
			delete(l.items, fp)
			n++
		}
	}
	return n, nil
}
