package entity

import (
	"context"
	"fmt"
)

// initialSync seeds the registry from the universe and persisted refresh times.
func (r *Registry) initialSync(ctx context.Context) error {
	start := r.clock.Now()

	if r.universe != nil {
		r.reconcile()
	}

	if r.store == nil {
		return nil
	}

	loadCtx := ctx
	if r.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, r.cfg.LoadTimeout)
		defer cancel()
	}

	refreshed, err := r.store.LastRefreshed(loadCtx)
	if err != nil {
		return fmt.Errorf("load refresh times: %w", err)
	}
	for sym, t := range refreshed {
		r.state.markRefreshed(normalize(sym), t)
	}

	r.logger.Info("initial entity sync complete",
		"entities", r.state.count(),
		"persisted", len(refreshed),
		"duration", r.clock.Now().Sub(start),
	)
	return nil
}

// reconciliationLoop periodically re-reads the universe.
func (r *Registry) reconciliationLoop(ctx context.Context) {
	ticker := r.clock.NewTicker(r.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			r.reconcile()
		}
	}
}

// reconcile adds universe symbols we have not seen and marks entities that
// left the universe as stale. Entities discovered from ingestion but absent
// from the universe are marked stale too.
func (r *Registry) reconcile() {
	symbols := r.universe.Symbols()
	if len(symbols) == 0 {
		r.logger.Warn("universe returned no symbols, skipping reconciliation")
		return
	}

	keep := make(map[string]bool, len(symbols))
	var added int

	r.state.mu.Lock()
	for _, s := range symbols {
		s = normalize(s)
		if s == "" {
			continue
		}
		keep[s] = true
		if r.state.addLocked(newEntity(s)) {
			r.state.notifyChange(Change{Symbol: s, EventType: "discovered"})
			added++
		}
	}
	staled := r.state.markStaleLocked(keep)
	r.state.lastSyncAt = r.clock.Now()
	r.state.mu.Unlock()

	if added > 0 || staled > 0 {
		r.logger.Info("universe reconciliation found changes",
			"added", added,
			"stale", staled,
		)
	} else {
		r.logger.Debug("universe reconciliation complete", "symbols", len(symbols))
	}
}
