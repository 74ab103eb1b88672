package entity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/model"
)

// ChangeBufferSize is the capacity of the Change channel.
const ChangeBufferSize = 1000

// Change describes an entity lifecycle transition.
type Change struct {
	Symbol    string
	EventType string // "discovered", "stale", "revived"
}

// Universe lists the valid symbols.
type Universe interface {
	Symbols() []string
}

// AliasSource is implemented by universes that know extra query strings
// per symbol.
type AliasSource interface {
	Aliases(symbol string) []string
}

// Store loads persisted refresh times.
type Store interface {
	LastRefreshed(ctx context.Context) (map[string]time.Time, error)
}

// Config holds registry configuration.
type Config struct {
	ReconcileInterval time.Duration
	LoadTimeout       time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReconcileInterval: 15 * time.Minute,
		LoadTimeout:       time.Minute,
	}
}

// Registry is the in-memory set of tracked entities.
type Registry struct {
	cfg      Config
	universe Universe
	store    Store
	clock    clock.Clock
	logger   *slog.Logger

	state *registryState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates a registry. universe and store may be nil.
func NewRegistry(cfg Config, universe Universe, store Store, clk clock.Clock, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.New()
	}

	return &Registry{
		cfg:      cfg,
		universe: universe,
		store:    store,
		clock:    clk,
		logger:   logger.With("component", "entity_registry"),
		state:    newState(),
	}
}

// Start loads the universe and persisted refresh times, then reconciles
// against the universe in the background.
func (r *Registry) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	if err := r.initialSync(r.ctx); err != nil {
		r.cancel()
		return err
	}

	if r.universe != nil && r.cfg.ReconcileInterval > 0 {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.reconciliationLoop(r.ctx)
		}()
	}

	r.logger.Info("entity registry started", "entities", r.state.count())
	return nil
}

// Stop gracefully shuts down.
func (r *Registry) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("entity registry stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get returns an entity by symbol.
func (r *Registry) Get(symbol string) (model.TrackedEntity, bool) {
	return r.state.get(normalize(symbol))
}

// Len returns the number of known entities.
func (r *Registry) Len() int {
	return r.state.count()
}

// All returns every known entity, sorted by symbol.
func (r *Registry) All() []model.TrackedEntity {
	return r.state.all()
}

// Discover registers symbols found during ingestion. It returns how many
// were new.
func (r *Registry) Discover(symbols ...string) int {
	added := 0
	for _, s := range symbols {
		s = normalize(s)
		if s == "" {
			continue
		}
		if r.state.add(model.TrackedEntity{Symbol: s}) {
			r.state.notifyChange(Change{Symbol: s, EventType: "discovered"})
			added++
		}
	}
	return added
}

// SetAliases replaces the alias query strings of an entity.
func (r *Registry) SetAliases(symbol string, aliases []string) {
	r.state.setAliases(normalize(symbol), aliases)
}

// MarkRefreshed records a successful refresh at t.
func (r *Registry) MarkRefreshed(symbol string, t time.Time) {
	r.state.markRefreshed(normalize(symbol), t)
}

// Stale returns non-stale-marked entities whose last refresh is at least
// interval old (or missing), oldest first. limit <= 0 means no limit.
func (r *Registry) Stale(interval time.Duration, limit int) []model.TrackedEntity {
	return r.state.due(r.clock.Now(), interval, limit)
}

// Changes returns a channel of entity lifecycle transitions.
func (r *Registry) Changes() <-chan Change {
	return r.state.changes
}
