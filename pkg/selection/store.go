package selection

import (
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Store is the set of selected item identifiers. It is the only piece of
// mutable shared state in the selection system; all components go through
// its methods, never the underlying representation.
//
// Every mutating method returns the resulting selection size so callers can
// observe the outcome without a second call.
type Store struct {
	mu  sync.RWMutex
	ids mapset.Set[int64]
}

// NewStore creates an empty selection store.
func NewStore() *Store {
	return &Store{
		ids: mapset.NewThreadUnsafeSet[int64](),
	}
}

// Add marks one identifier as selected.
func (s *Store) Add(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids.Add(id)
	return s.sizeLocked()
}

// Remove unmarks one identifier.
func (s *Store) Remove(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids.Remove(id)
	return s.sizeLocked()
}

// Toggle sets the membership of id to selected.
func (s *Store) Toggle(id int64, selected bool) int {
	if selected {
		return s.Add(id)
	}
	return s.Remove(id)
}

// SelectPage marks every identifier of the currently loaded page as
// selected. Identifiers outside ids are untouched.
func (s *Store) SelectPage(ids []int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids.Add(id)
	}
	return s.sizeLocked()
}

// DeselectPage unmarks every identifier of the currently loaded page.
// Identifiers outside ids are untouched, even if present.
func (s *Store) DeselectPage(ids []int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids.Remove(id)
	}
	return s.sizeLocked()
}

// ReplaceAll atomically swaps the entire selection for ids. This is the
// bulk selector's apply path and supersedes any prior membership.
func (s *Store) ReplaceAll(ids []int64) int {
	next := mapset.NewThreadUnsafeSet[int64](ids...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = next
	return s.sizeLocked()
}

// Clear empties the selection.
func (s *Store) Clear() int {
	return s.ReplaceAll(nil)
}

// IsSelected reports whether id is currently selected.
func (s *Store) IsSelected(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ids.Contains(id)
}

// Size returns the number of selected identifiers across the entire
// collection, not just the visible page.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ids.Cardinality()
}

// IDs returns a sorted snapshot of the selected identifiers, for summary
// display and tests.
func (s *Store) IDs() []int64 {
	s.mu.RLock()
	ids := s.ids.ToSlice()
	s.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sizeLocked reads the cardinality and updates the size gauge.
// Callers must hold mu.
func (s *Store) sizeLocked() int {
	n := s.ids.Cardinality()
	selectionSize.Set(float64(n))
	return n
}
