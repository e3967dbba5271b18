package book

import (
	"sync"
	"sync/atomic"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// Store is a concurrency-safe map from symbol to order book. Each symbol
// gets its own lock, so connections feeding disjoint symbol sets never
// contend; apply and read for the same symbol are mutually exclusive, so no
// reader ever observes a book mid-mutation.
type Store struct {
	mu       sync.RWMutex
	books    map[string]*entry
	maxDepth int

	updates atomic.Int64
	changed chan struct{}
}

type entry struct {
	mu   sync.Mutex
	book *orderBook
}

// NewStore creates a Store whose books are truncated to maxDepth levels per
// side (0 disables truncation).
func NewStore(maxDepth int) *Store {
	return &Store{
		books:    make(map[string]*entry),
		maxDepth: maxDepth,
		changed:  make(chan struct{}, 1),
	}
}

// Apply routes one parsed update into the owning book. Stale and malformed
// updates are dropped; the returned bool reports whether the book changed.
func (s *Store) Apply(u domain.BookUpdate) bool {
	if u.Symbol == "" {
		return false
	}
	e := s.lookup(u.Symbol)

	e.mu.Lock()
	applied := e.book.apply(u)
	e.mu.Unlock()

	if applied {
		s.updates.Add(1)
		// Coalescing notification: a full channel already means "changed".
		select {
		case s.changed <- struct{}{}:
		default:
		}
	}
	return applied
}

// Snapshot returns a defensive copy of the symbol's book. A symbol that has
// never received an update yields an empty book, not an error.
func (s *Store) Snapshot(symbol string) domain.BookSnapshot {
	s.mu.RLock()
	e, ok := s.books[symbol]
	s.mu.RUnlock()
	if !ok {
		return domain.BookSnapshot{Symbol: symbol}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.snapshot()
}

// Symbols returns every symbol that currently has a book.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.books))
	for sym := range s.books {
		out = append(out, sym)
	}
	return out
}

// UpdateCount returns the total number of applied updates since startup.
func (s *Store) UpdateCount() int64 {
	return s.updates.Load()
}

// Changed returns a channel that receives a coalesced signal whenever any
// book is mutated. Used by the evaluator's update-count trigger.
func (s *Store) Changed() <-chan struct{} {
	return s.changed
}

func (s *Store) lookup(symbol string) *entry {
	s.mu.RLock()
	e, ok := s.books[symbol]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.books[symbol]; ok {
		return e
	}
	e = &entry{book: newOrderBook(symbol, s.maxDepth)}
	s.books[symbol] = e
	return e
}
