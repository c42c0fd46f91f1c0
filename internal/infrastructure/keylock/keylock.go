// Package keylock provides per-entity exclusive locks keyed by UUID.
// Multi-entity acquisition sorts keys into canonical order so two
// overlapping acquisitions can never deadlock.
package keylock

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Map is a set of named mutexes. Lock entries are created on demand and
// dropped once no holder or waiter remains.
type Map struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

func NewMap() *Map {
	return &Map{locks: make(map[uuid.UUID]*entry)}
}

func (m *Map) acquire(id uuid.UUID) *entry {
	m.mu.Lock()
	e, ok := m.locks[id]
	if !ok {
		e = &entry{}
		m.locks[id] = e
	}
	e.refs++
	m.mu.Unlock()
	return e
}

func (m *Map) release(id uuid.UUID, e *entry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, id)
	}
	m.mu.Unlock()
}

// TryWithLock runs fn while holding the locks for all given keys, acquired
// in canonical sorted order. It never blocks: if any lock is already held
// it releases everything acquired so far and returns false.
func (m *Map) TryWithLock(fn func(), keys ...uuid.UUID) bool {
	sorted := sortKeys(keys)

	held := make([]*entry, 0, len(sorted))
	for _, id := range sorted {
		e := m.acquire(id)
		if !e.mu.TryLock() {
			m.release(id, e)
			for i := len(held) - 1; i >= 0; i-- {
				held[i].mu.Unlock()
				m.release(sorted[i], held[i])
			}
			return false
		}
		held = append(held, e)
	}

	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			m.release(sorted[i], held[i])
		}
	}()

	fn()
	return true
}

// WithLock runs fn while holding the locks for all given keys, blocking
// until every lock is available. Acquisition order is canonical.
func (m *Map) WithLock(fn func(), keys ...uuid.UUID) {
	sorted := sortKeys(keys)

	held := make([]*entry, 0, len(sorted))
	for _, id := range sorted {
		e := m.acquire(id)
		e.mu.Lock()
		held = append(held, e)
	}

	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			m.release(sorted[i], held[i])
		}
	}()

	fn()
}

// sortKeys returns a deduplicated copy of keys in canonical order.
func sortKeys(keys []uuid.UUID) []uuid.UUID {
	sorted := make([]uuid.UUID, 0, len(keys))
	seen := make(map[uuid.UUID]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})
	return sorted
}
