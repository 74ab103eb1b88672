package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/tickersense/internal/model"
)

const insertItemSQL = `
	INSERT INTO items (
		fingerprint, source, origin_id, symbols, title, body, author, url, publisher,
		score, comments, created_at, fetched_at,
		compound, positive, neutral, negative, label
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (fingerprint) DO NOTHING
`

// PostgresLedger stores items in the items table keyed by fingerprint.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger creates a ledger on an existing pool.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// IsNew implements Ledger.
func (l *PostgresLedger) IsNew(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	err := l.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM items WHERE fingerprint = $1)`, fingerprint,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query fingerprint: %w", err)
	}
	return !exists, nil
}

// Commit implements Ledger. A conflicting insert is not an error.
func (l *PostgresLedger) Commit(ctx context.Context, item model.Item) (bool, error) {
	if item.Fingerprint == "" {
		item.Fingerprint = ItemFingerprint(item.RawItem)
	}
	ct, err := l.db.Exec(ctx, insertItemSQL, itemArgs(item)...)
	if err != nil {
		return false, fmt.Errorf("insert item: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// Sentiment implements Ledger.
func (l *PostgresLedger) Sentiment(ctx context.Context, fingerprint string) (model.SentimentScore, bool, error) {
	var s model.SentimentScore
	var label string
	err := l.db.QueryRow(ctx,
		`SELECT compound, positive, neutral, negative, label FROM items WHERE fingerprint = $1`, fingerprint,
	).Scan(&s.Compound, &s.Positive, &s.Neutral, &s.Negative, &label)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SentimentScore{}, false, nil
	}
	if err != nil {
		return model.SentimentScore{}, false, fmt.Errorf("query sentiment: %w", err)
	}
	s.Label = model.Label(label)
	return s, true, nil
}

// CommitBatch inserts items in one round trip and returns how many were new.
func (l *PostgresLedger) CommitBatch(ctx context.Context, items []model.Item) (inserted, conflicts int, err error) {
	if len(items) == 0 {
		return 0, 0, nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		if it.Fingerprint == "" {
			it.Fingerprint = ItemFingerprint(it.RawItem)
		}
		batch.Queue(insertItemSQL, itemArgs(it)...)
	}

	results := l.db.SendBatch(ctx, batch)
	defer results.Close()

	for range items {
		ct, err := results.Exec()
		if err != nil {
			return inserted, conflicts, fmt.Errorf("insert item: %w", err)
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		} else {
			inserted++
		}
	}
	return inserted, conflicts, nil
}

// Cursor implements Ledger.
func (l *PostgresLedger) Cursor(ctx context.Context, source model.Source) (time.Time, error) {
	var newest *time.Time
	err := l.db.QueryRow(ctx,
		`SELECT max(created_at) FROM items WHERE source = $1`, string(source),
	).Scan(&newest)
	if err != nil {
		return time.Time{}, fmt.Errorf("query cursor: %w", err)
	}
	if newest == nil {
		return time.Time{}, nil
	}
	return newest.UTC(), nil
}

// Purge deletes items of a source created before the cutoff.
func (l *PostgresLedger) Purge(ctx context.Context, source model.Source, before time.Time) (int64, error) {
	ct, err := l.db.Exec(ctx,
		`DELETE FROM items WHERE source = $1 AND created_at < $2`, string(source), before,
	)
	if err != nil {
		return 0, fmt.Errorf("purge items: %w", err)
	}
	return ct.RowsAffected(), nil
}

// itemArgs returns the insert arguments in column order.
func itemArgs(it model.Item) []any {
	symbols := it.Symbols
	if symbols == nil {
		symbols = []string{}
	}
	return []any{
		it.Fingerprint,
		string(it.Source),
		it.OriginID,
		symbols,
		it.Title,
		it.Body,
		it.Author,
		it.URL,
		it.Publisher,
		it.Score,
		it.Comments,
		nullTime(it.CreatedAt),
		it.FetchedAt,
		it.Sentiment.Compound,
		it.Sentiment.Positive,
		it.Sentiment.Neutral,
		it.Sentiment.Negative,
		string(it.Sentiment.Label),
	}
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
