package entity

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rickgao/tickersense/internal/model"
)

// registryState holds the thread-safe entity cache.
type registryState struct {
	mu sync.RWMutex

	// All known entities indexed by symbol.
	entities map[string]*model.TrackedEntity

	// Last successful universe reconciliation.
	lastSyncAt time.Time

	changes chan Change
}

func newState() *registryState {
	return &registryState{
		entities: make(map[string]*model.TrackedEntity),
		changes:  make(chan Change, ChangeBufferSize),
	}
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(symbol), "$"))
}

func (s *registryState) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// get returns an entity by symbol (read-locked).
func (s *registryState) get(symbol string) (model.TrackedEntity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[symbol]
	if !ok {
		return model.TrackedEntity{}, false
	}
	return copyEntity(e), true
}

// all returns a copy of every entity sorted by symbol (read-locked).
func (s *registryState) all() []model.TrackedEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.TrackedEntity, 0, len(s.entities))
	for _, e := range s.entities {
		result = append(result, copyEntity(e))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result
}

// add inserts an entity if absent (write-locked). A stale entity that is
// added again is revived.
func (s *registryState) add(e model.TrackedEntity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(e)
}

func (s *registryState) addLocked(e model.TrackedEntity) bool {
	if existing, ok := s.entities[e.Symbol]; ok {
		if existing.Stale {
			existing.Stale = false
			s.notifyChange(Change{Symbol: e.Symbol, EventType: "revived"})
		}
		if len(existing.Aliases) == 0 && len(e.Aliases) > 0 {
			existing.Aliases = append([]string(nil), e.Aliases...)
		}
		return false
	}
	eCopy := copyEntity(&e)
	s.entities[e.Symbol] = &eCopy
	return true
}

func (s *registryState) setAliases(symbol string, aliases []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entities[symbol]; ok {
		e.Aliases = append([]string(nil), aliases...)
	}
}

// markRefreshed moves the last-refresh time forward, never backward.
func (s *registryState) markRefreshed(symbol string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[symbol]
	if !ok {
		e = &model.TrackedEntity{Symbol: symbol}
		s.entities[symbol] = e
	}
	if t.After(e.LastRefresh) {
		e.LastRefresh = t
	}
}

// markStaleLocked flags entities missing from the keep set (caller must hold write lock).
func (s *registryState) markStaleLocked(keep map[string]bool) int {
	n := 0
	for sym, e := range s.entities {
		if keep[sym] || e.Stale {
			continue
		}
		e.Stale = true
		s.notifyChange(Change{Symbol: sym, EventType: "stale"})
		n++
	}
	return n
}

// due returns entities needing refresh, oldest first (read-locked).
func (s *registryState) due(now time.Time, interval time.Duration, limit int) []model.TrackedEntity {
	s.mu.RLock()
	var result []model.TrackedEntity
	for _, e := range s.entities {
		if e.Stale {
			continue
		}
		// An entity refreshed exactly one interval ago is already due.
		if e.LastRefresh.IsZero() || now.Sub(e.LastRefresh) >= interval {
			result = append(result, copyEntity(e))
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].LastRefresh, result[j].LastRefresh
		if !a.Equal(b) {
			return a.Before(b)
		}
		return result[i].Symbol < result[j].Symbol
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// notifyChange sends a change to the changes channel (non-blocking).
func (s *registryState) notifyChange(change Change) {
	select {
	case s.changes <- change:
	default:
		// Channel full, drop oldest by consuming one and retrying.
		select {
		case <-s.changes:
			s.changes <- change
		default:
		}
	}
}

func copyEntity(e *model.TrackedEntity) model.TrackedEntity {
	c := *e
	c.Aliases = append([]string(nil), e.Aliases...)
	return c
}

func newEntity(symbol string) model.TrackedEntity {
	return model.TrackedEntity{Symbol: symbol}
}
