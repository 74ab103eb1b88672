package ingest

import (
	"context"
	"time"

	"github.com/rickgao/tickersense/internal/anomaly"
	"github.com/rickgao/tickersense/internal/market"
	"github.com/rickgao/tickersense/internal/model"
)

// EntityResult is the per-entity record produced by one refresh.
type EntityResult struct {
	Symbol    string             `json:"symbol"`
	RunID     string             `json:"runId"`
	FetchedAt time.Time          `json:"fetchedAt"`
	StockInfo *model.Quote       `json:"stockInfo,omitempty"`
	News      SourceData         `json:"newsData"`
	Social    SourceData         `json:"socialData"`
	Overall   OverallSentiment   `json:"overallSentiment"`
	Anomaly   anomaly.Assessment `json:"anomaly"`
}

// SourceData is the slice of a result contributed by one source.
type SourceData struct {
	Items     []model.Item               `json:"items"` // Newest first, capped
	Sentiment *model.AggregatedSentiment `json:"sentiment"`
	Count     int                        `json:"count"` // Before capping
	Status    string                     `json:"status"`
}

// OverallSentiment blends every source into one verdict.
type OverallSentiment struct {
	Available    bool                 `json:"available"`
	Compound     float64              `json:"compound"`
	Label        model.Label          `json:"label"`
	Confidence   float64              `json:"confidence"`
	Status       market.Status        `json:"status"`
	Velocity     float64              `json:"velocity"`
	Confirmation *market.Confirmation `json:"confirmation,omitempty"`
	Validation   *market.Summary      `json:"validation,omitempty"`
}

// ResultSink persists entity results.
type ResultSink interface {
	WriteResult(ctx context.Context, r EntityResult) error
}
