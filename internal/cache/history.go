package cache

import (
	"context"
	"time"
)

// History stores raw per-symbol sentiment over time.
type History interface {
	RecordSentiment(ctx context.Context, symbol string, at time.Time, value float64) error
	PreviousSentiment(ctx context.Context, symbol string, before time.Time) (float64, bool, error)
}

// Velocity returns current minus the previous recorded sentiment, or zero
// without history.
func Velocity(ctx context.Context, h History, symbol string, now time.Time, current float64) (float64, error) {
	prev, ok, err := h.PreviousSentiment(ctx, symbol, now)
	if err != nil || !ok {
		return 0, err
	}
	return current - prev, nil
}
