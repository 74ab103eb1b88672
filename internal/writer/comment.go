package writer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/model"
)

const insertCommentSQL = `
	INSERT INTO comments (comment_id, post_id, symbols, body, author, score, created_at, fetched_at, compound, label)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (comment_id) DO NOTHING
`

// CommentWriter batches scored comments into the comments table.
type CommentWriter struct {
	cfg    WriterConfig
	logger *slog.Logger
	clock  clock.Clock

	// Database
	db Batcher

	// Batching
	batch   []commentRow
	batchMu sync.Mutex
	flushMu sync.Mutex // Serializes flushes so rows land in order

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

// NewCommentWriter creates a new CommentWriter.
func NewCommentWriter(cfg WriterConfig, db Batcher, clk clock.Clock, logger *slog.Logger) *CommentWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.New()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultWriterConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultWriterConfig().FlushInterval
	}
	return &CommentWriter{
		cfg:    cfg,
		db:     db,
		clock:  clk,
		logger: logger.With("component", "comment_writer"),
		batch:  make([]commentRow, 0, cfg.BatchSize),
		ctx:    context.Background(),
	}
}

// Start begins the periodic flush loop.
func (w *CommentWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	ticker := w.clock.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.flushLoop(ticker)

	w.logger.Info("comment writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop ends the flush loop and writes whatever is still buffered.
func (w *CommentWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping comment writer")

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("comment writer stop timed out")
	}

	// Final flush runs on the caller's context; the writer's own is cancelled.
	err := w.flush(ctx)
	w.logger.Info("comment writer stopped", "inserts", w.Stats().Inserts)
	return err
}

// WriteComments buffers comments and flushes once the batch is full. The
// returned error reports a failed flush; rows of a failed flush are dropped.
func (w *CommentWriter) WriteComments(ctx context.Context, comments []model.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	w.batchMu.Lock()
	for _, c := range comments {
		w.batch = append(w.batch, w.transform(c))
	}
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		return w.flush(ctx)
	}
	return nil
}

// Pending returns the number of buffered rows.
func (w *CommentWriter) Pending() int {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return len(w.batch)
}

// Stats returns current metrics.
func (w *CommentWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *CommentWriter) flushLoop(ticker clock.Ticker) {
	defer w.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C():
			if err := w.flush(w.ctx); err != nil && w.ctx.Err() == nil {
				w.logger.Warn("periodic flush failed", "error", err)
			}
		}
	}
}

// transform converts a comment to a commentRow.
func (w *CommentWriter) transform(c model.Comment) commentRow {
	fetched := c.FetchedAt
	if fetched.IsZero() {
		fetched = w.clock.Now()
	}
	return commentRow{
		CommentID: c.ID,
		PostID:    c.PostID,
		Symbols:   nonNil(c.Symbols),
		Body:      c.Body,
		Author:    c.Author,
		Score:     c.Score,
		CreatedAt: nullTime(c.CreatedAt),
		FetchedAt: fetched.UTC(),
		Compound:  c.Sentiment.Compound,
		Label:     string(model.LabelFor(c.Sentiment.Compound)),
	}
}

// flush writes the current batch to the database.
func (w *CommentWriter) flush(ctx context.Context) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return nil
	}

	// Take ownership of current batch
	rows := w.batch
	w.batch = make([]commentRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := w.clock.Now()

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertCommentSQL,
			r.CommentID, r.PostID, r.Symbols, r.Body, r.Author, r.Score,
			r.CreatedAt, r.FetchedAt, r.Compound, r.Label,
		)
	}

	conflicts, err := execBatch(ctx, w.db, batch, len(rows))
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(rows))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return fmt.Errorf("insert comments: %w", err)
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(rows) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed comments",
		"count", len(rows),
		"conflicts", conflicts,
		"duration", w.clock.Now().Sub(start),
	)
	return nil
}
