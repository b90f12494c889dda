package window

import (
	"sync"
	"time"

	"marketpulse/internal/model"
)

// DefaultCapacity is the per-symbol window size used when none is configured.
const DefaultCapacity = 50

// Store holds one bounded window per symbol. A store-level RWMutex
// guards the symbol map; each window carries its own mutex so appends on
// one symbol never block snapshots of another. Snapshot and Append for
// the same symbol are serialized, so a snapshot can never observe a
// half-applied eviction.
type Store struct {
	capacity int

	mu      sync.RWMutex
	windows map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	ring *ring
}

// NewStore creates a Store with the given per-symbol capacity.
// Capacity below 1 falls back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		windows:  make(map[string]*entry),
	}
}

// Append records one sample for a symbol, creating the window on first
// use and evicting the oldest sample at capacity. O(1) amortized.
func (s *Store) Append(symbol string, price float64, volume uint64, ts time.Time) {
	e := s.entryFor(symbol)
	e.mu.Lock()
	e.ring.push(Sample(price, volume, ts))
	e.mu.Unlock()
}

// Snapshot returns a point-in-time copy of a symbol's window,
// oldest-first. An unknown symbol yields an empty slice, not an error.
func (s *Store) Snapshot(symbol string) []model.Sample {
	s.mu.RLock()
	e, ok := s.windows[symbol]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ring.snapshot()
}

// Len returns the number of samples currently held for a symbol.
func (s *Store) Len(symbol string) int {
	s.mu.RLock()
	e, ok := s.windows[symbol]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ring.len()
}

// Last returns the most recent sample for a symbol. ok=false when the
// symbol has no data.
func (s *Store) Last(symbol string) (model.Sample, bool) {
	s.mu.RLock()
	e, ok := s.windows[symbol]
	s.mu.RUnlock()
	if !ok {
		return model.Sample{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ring.last()
}

// Release drops a symbol's window entirely. Called by the session
// registry when the last session for a symbol closes, so a long-running
// process does not accumulate windows for idle symbols.
func (s *Store) Release(symbol string) {
	s.mu.Lock()
	delete(s.windows, symbol)
	s.mu.Unlock()
}

// Symbols returns the symbols that currently hold data.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.windows))
	for sym := range s.windows {
		out = append(out, sym)
	}
	return out
}

func (s *Store) entryFor(symbol string) *entry {
	s.mu.RLock()
	e, ok := s.windows[symbol]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.windows[symbol]; ok {
		return e
	}
	e = &entry{ring: newRing(s.capacity)}
	s.windows[symbol] = e
	return e
}
