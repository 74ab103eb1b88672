package writer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     500,
		FlushInterval: 5 * time.Second,
	}
}

// Batcher sends a queued batch in one round trip. *pgxpool.Pool satisfies it.
type Batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// commentRow represents a row for the comments table.
type commentRow struct {
	CommentID string
	PostID    string
	Symbols   []string
	Body      string
	Author    string
	Score     int
	CreatedAt *time.Time
	FetchedAt time.Time
	Compound  float64
	Label     string
}

// resultRow represents a row for the entity_results table.
type resultRow struct {
	Symbol    string
	RunID     string
	FetchedAt time.Time
	Compound  *float64 // NULL when no source produced sentiment
	Label     *string
	Flagged   bool
	RiskScore float64
	Result    []byte // JSONB
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}
