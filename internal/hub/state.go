package hub

import (
	"sync"
	"time"

	"github.com/vbonduro/pantrysync/internal/domain"
)

// StateStore holds the single authoritative copy of the inventory. State
// only ever changes by whole-list replacement; seq increases by one per
// replacement so an enrichment pipeline can detect that the version it
// started from has been superseded.
type StateStore struct {
	mu        sync.RWMutex
	items     []domain.Item
	seq       uint64
	updatedAt time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{}
}

// Replace installs items as the new state and returns the new sequence
// number. This is last-writer-wins: whatever was there before is discarded.
func (s *StateStore) Replace(items []domain.Item) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]domain.Item(nil), items...)
	s.seq++
	s.updatedAt = time.Now()
	return s.seq
}

// ReplaceIfCurrent installs items only if the state is still at seq, i.e.
// no newer replacement arrived while the caller was enriching. The sequence
// number does not advance: enrichment annotates a version, it does not
// create one. Returns false when the caller's version was superseded.
func (s *StateStore) ReplaceIfCurrent(seq uint64, items []domain.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != seq {
		return false
	}
	s.items = append([]domain.Item(nil), items...)
	return true
}

// Snapshot returns a copy of the current items and the sequence number they
// belong to.
func (s *StateStore) Snapshot() ([]domain.Item, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Item(nil), s.items...), s.seq
}

func (s *StateStore) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

func (s *StateStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
