package writer

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB records queued statements. Each argument slice whose first value
// was seen before reports zero rows affected.
type fakeDB struct {
	mu      sync.Mutex
	sent    [][]pgx.QueuedQuery
	seen    map[any]bool
	failErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{seen: make(map[any]bool)}
}

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	defer f.mu.Unlock()

	queued := make([]pgx.QueuedQuery, 0, len(b.QueuedQueries))
	tags := make([]pgconn.CommandTag, 0, len(b.QueuedQueries))
	for _, q := range b.QueuedQueries {
		queued = append(queued, *q)
		key := q.Arguments[0]
		if f.seen[key] {
			tags = append(tags, pgconn.NewCommandTag("INSERT 0 0"))
			continue
		}
		f.seen[key] = true
		tags = append(tags, pgconn.NewCommandTag("INSERT 0 1"))
	}
	f.sent = append(f.sent, queued)
	return &fakeResults{tags: tags, err: f.failErr}
}

func (f *fakeDB) batches() [][]pgx.QueuedQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]pgx.QueuedQuery(nil), f.sent...)
}

type fakeResults struct {
	tags []pgconn.CommandTag
	err  error
	i    int
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	if r.i >= len(r.tags) {
		return pgconn.CommandTag{}, errors.New("no more results")
	}
	tag := r.tags[r.i]
	r.i++
	return tag, nil
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (r *fakeResults) QueryRow() pgx.Row        { return nil }
func (r *fakeResults) Close() error             { return nil }
