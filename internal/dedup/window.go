package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/rickgao/tickersense/internal/model"
)

// CursorSource returns the newest committed creation time for a source.
type CursorSource interface {
	Cursor(ctx context.Context, source model.Source) (time.Time, error)
}

// WindowConfig bounds incremental fetch windows.
type WindowConfig struct {
	Overlap       time.Duration // Subtracted from the cursor
	Initial       time.Duration // Look-back when there is no cursor
	BackfillAfter time.Duration // Cursor older than this triggers backfill
	MaxLookback   time.Duration // Backfill never reaches further back

	MaxItems           int // Per-source item cap
	SkipStreak         int // Consecutive already-seen items before stopping
	BackfillMaxItems   int
	BackfillSkipStreak int
}

// DefaultWindowConfig returns the standard window bounds.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Overlap:            5 * time.Minute,
		Initial:            2 * time.Hour,
		BackfillAfter:      2 * time.Hour,
		MaxLookback:        7 * 24 * time.Hour,
		MaxItems:           500,
		SkipStreak:         20,
		BackfillMaxItems:   2000,
		BackfillSkipStreak: 100,
	}
}

// Window is the lower bound and caps for one fetch.
type Window struct {
	Since      time.Time
	Cursor     time.Time // Zero when nothing was committed yet
	Backfill   bool
	MaxItems   int
	SkipStreak int
}

// Covers reports whether t falls inside the window.
func (w Window) Covers(t time.Time) bool {
	return !t.Before(w.Since)
}

// NextWindow computes the next fetch window for a source at now.
func NextWindow(ctx context.Context, cs CursorSource, source model.Source, now time.Time, cfg WindowConfig) (Window, error) {
	cursor, err := cs.Cursor(ctx, source)
	if err != nil {
		return Window{}, fmt.Errorf("cursor %s: %w", source, err)
	}
	return WindowAt(cursor, now, cfg), nil
}

// WindowAt computes a window from a known cursor.
func WindowAt(cursor, now time.Time, cfg WindowConfig) Window {
	w := Window{
		Cursor:     cursor,
		MaxItems:   cfg.MaxItems,
		SkipStreak: cfg.SkipStreak,
	}

	if cursor.IsZero() {
		w.Since = now.Add(-cfg.Initial)
		return w
	}

	w.Since = cursor.Add(-cfg.Overlap)
	if now.Sub(cursor) > cfg.BackfillAfter {
		w.Backfill = true
		w.MaxItems = cfg.BackfillMaxItems
		w.SkipStreak = cfg.BackfillSkipStreak
		if floor := now.Add(-cfg.MaxLookback); cfg.MaxLookback > 0 && w.Since.Before(floor) {
			w.Since = floor
		}
	}
	return w
}
