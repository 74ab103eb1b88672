package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/tickersense/internal/ingest"
)

// The WHERE clause keeps a late write of an older run from replacing a newer
// result.
const upsertResultSQL = `
	INSERT INTO entity_results (symbol, run_id, fetched_at, compound, label, flagged, risk_score, result)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (symbol) DO UPDATE SET
		run_id     = EXCLUDED.run_id,
		fetched_at = EXCLUDED.fetched_at,
		compound   = EXCLUDED.compound,
		label      = EXCLUDED.label,
		flagged    = EXCLUDED.flagged,
		risk_score = EXCLUDED.risk_score,
		result     = EXCLUDED.result
	WHERE entity_results.fetched_at <= EXCLUDED.fetched_at
`

// ResultWriter stores the latest EntityResult per symbol. Writes are
// immediate; a refresh is only marked done once its row is stored.
type ResultWriter struct {
	db     Batcher
	logger *slog.Logger

	mu      sync.Mutex
	metrics WriterMetrics
}

// NewResultWriter creates a new ResultWriter.
func NewResultWriter(db Batcher, logger *slog.Logger) *ResultWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultWriter{
		db:     db,
		logger: logger.With("component", "result_writer"),
	}
}

// WriteResult implements ingest.ResultSink. A stale result, older than the
// stored one, counts as a conflict and is not an error.
func (w *ResultWriter) WriteResult(ctx context.Context, r ingest.EntityResult) error {
	row, err := w.transform(r)
	if err != nil {
		w.record(0, err)
		return err
	}

	batch := &pgx.Batch{}
	batch.Queue(upsertResultSQL,
		row.Symbol, row.RunID, row.FetchedAt, row.Compound, row.Label,
		row.Flagged, row.RiskScore, row.Result,
	)

	conflicts, err := execBatch(ctx, w.db, batch, 1)
	w.record(conflicts, err)
	if err != nil {
		w.logger.Error("upsert result failed", "symbol", r.Symbol, "error", err)
		return fmt.Errorf("upsert result %s: %w", r.Symbol, err)
	}
	if conflicts > 0 {
		w.logger.Debug("kept newer stored result", "symbol", r.Symbol, "run_id", r.RunID)
	}
	return nil
}

// Stats returns current metrics.
func (w *ResultWriter) Stats() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

func (w *ResultWriter) record(conflicts int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.metrics.Errors++
		return
	}
	w.metrics.Flushes++
	w.metrics.Inserts += int64(1 - conflicts)
	w.metrics.Conflicts += int64(conflicts)
}

// transform converts an EntityResult to a resultRow.
func (w *ResultWriter) transform(r ingest.EntityResult) (resultRow, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return resultRow{}, fmt.Errorf("marshal result %s: %w", r.Symbol, err)
	}

	row := resultRow{
		Symbol:    r.Symbol,
		RunID:     r.RunID,
		FetchedAt: r.FetchedAt.UTC(),
		Flagged:   r.Anomaly.Flagged,
		RiskScore: r.Anomaly.RiskScore,
		Result:    body,
	}
	if r.Overall.Available {
		compound := r.Overall.Compound
		label := string(r.Overall.Label)
		row.Compound = &compound
		row.Label = &label
	}
	return row, nil
}
