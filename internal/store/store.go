// Package store holds the reconciled roadmap state. Reconciliation is a pure
// function over immutable item sets; the store itself is just an atomic slot
// readers and the sync loop share.
package store

import (
	"sync/atomic"
	"time"

	"github.com/robby/roadmap/internal/domain"
)

// ItemSet is an immutable, ordered collection of roadmap items with a by-ID
// index. A set is never modified after construction; new state means a new
// set.
type ItemSet struct {
	items []domain.Item
	byID  map[int64]int // ID -> index into items
}

// NewItemSet builds a set from items already deduplicated by ID.
func NewItemSet(items []domain.Item) *ItemSet {
	set := &ItemSet{
		items: items,
		byID:  make(map[int64]int, len(items)),
	}
	for idx := range items {
		set.byID[items[idx].ID] = idx
	}
	return set
}

// EmptyItemSet returns a set with no items.
func EmptyItemSet() *ItemSet {
	return NewItemSet(nil)
}

// Items returns the items in feed order. Callers must not mutate the result.
func (s *ItemSet) Items() []domain.Item {
	return s.items
}

// Get returns the item with the given ID.
func (s *ItemSet) Get(id int64) (domain.Item, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return domain.Item{}, false
	}
	return s.items[idx], true
}

// Len returns the number of items.
func (s *ItemSet) Len() int {
	return len(s.items)
}

// Reconcile merges an incoming snapshot into a new item set. The feed is
// authoritative and complete, so the incoming payload fully replaces prev;
// prev is only consulted for its identity (it remains valid for any reader
// still holding it) and is never mutated.
//
// Incoming order is preserved. When an ID repeats within one payload the
// later occurrence wins, keeping the position of its final occurrence.
func Reconcile(prev *ItemSet, snap *domain.Snapshot) *ItemSet {
	_ = prev // full-snapshot replacement: previous content does not influence the result

	// First pass: find the winning (last) occurrence per ID.
	winner := make(map[int64]int, len(snap.Items))
	for idx := range snap.Items {
		winner[snap.Items[idx].ID] = idx
	}

	items := make([]domain.Item, 0, len(winner))
	for idx := range snap.Items {
		if winner[snap.Items[idx].ID] == idx {
			items = append(items, snap.Items[idx])
		}
	}

	return NewItemSet(items)
}

// Version describes the snapshot a reconciled set came from.
type Version struct {
	Fingerprint string    // Content hash (preferred) or version string
	Version     string    // Feed version string
	GeneratedAt time.Time // When the feed generated the snapshot
	SyncedAt    time.Time // When we reconciled it locally
}

// state is the unit of atomic replacement: the set and the version it came
// from always change together.
type state struct {
	set     *ItemSet
	version Version
}

// Store is the single shared slot for reconciled roadmap state. All readers
// observe either the fully-old or fully-new set; Replace is the only
// mutation and swaps the whole state at once.
type Store struct {
	current atomic.Pointer[state]
}

// New creates a store holding an empty item set.
func New() *Store {
	s := &Store{}
	s.current.Store(&state{set: EmptyItemSet()})
	return s
}

// Current returns the current item set and its version. The returned set is
// immutable and stays valid however long the caller holds it.
func (s *Store) Current() (*ItemSet, Version) {
	st := s.current.Load()
	return st.set, st.version
}

// Items is shorthand for Current when only the set matters.
func (s *Store) Items() *ItemSet {
	return s.current.Load().set
}

// Fingerprint returns the fingerprint of the last reconciled snapshot, or ""
// before the first sync. The sync loop compares this against probe results.
func (s *Store) Fingerprint() string {
	return s.current.Load().version.Fingerprint
}

// Replace atomically installs a new reconciled set. The old set is retired
// but remains valid for readers that already hold it.
func (s *Store) Replace(set *ItemSet, version Version) {
	s.current.Store(&state{set: set, version: version})
}
