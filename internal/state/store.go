package state

import (
	"sync"

	"github.com/shopspring/decimal"
)

// CartStore is the single shared holder of the local cart snapshot. All writes
// go through Replace/Patch style operations that are atomic with respect to
// readers, so subscribers only ever observe fully-formed snapshots.
//
// Every authoritative refetch is tagged with a sequence number allocated at
// issue time; a response whose sequence is older than the last applied one is
// discarded, so a slow refetch cannot overwrite a newer snapshot.
type CartStore struct {
	mu      sync.Mutex
	snap    CartSnapshot
	issued  uint64
	applied uint64
	nextSub int
	subs    map[int]func(CartSnapshot)
}

func NewCartStore() *CartStore {
	return &CartStore{
		snap: CartSnapshot{TotalAmount: decimal.Zero},
		subs: map[int]func(CartSnapshot){},
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *CartStore) Snapshot() CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

// Subscribe registers a callback invoked after every state change and returns
// a cancel func. Callbacks receive a private copy of the snapshot.
func (s *CartStore) Subscribe(fn func(CartSnapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// BeginRefetch allocates a sequence number for an authoritative refetch and
// flips the loading flag. The returned sequence must be passed to
// ApplyAuthoritative or FailRefetch when the fetch resolves.
func (s *CartStore) BeginRefetch() uint64 {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.snap.Loading = true
	snap, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return seq
}

// ApplyAuthoritative replaces local state with the given server snapshot.
// Returns false when the response is stale (an equal-or-newer snapshot has
// already been applied) and was discarded.
func (s *CartStore) ApplyAuthoritative(seq uint64, snap CartSnapshot) bool {
	s.mu.Lock()
	if seq <= s.applied {
		s.mu.Unlock()
		return false
	}
	s.applied = seq
	snap.Loading = false
	snap.LastError = ""
	s.snap = snap.clone()
	current, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	notify(subs, current)
	return true
}

// FailRefetch records a failed refetch. Items are left as last-known; only the
// loading flag and error surface change.
func (s *CartStore) FailRefetch(seq uint64, message string) {
	s.mu.Lock()
	if seq <= s.applied {
		s.mu.Unlock()
		return
	}
	s.snap.Loading = false
	s.snap.LastError = message
	current, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	notify(subs, current)
}

// Patch applies a partial update atomically. Used for the sanctioned
// optimistic pre-increment; everything else should arrive via
// ApplyAuthoritative.
func (s *CartStore) Patch(fn func(*CartSnapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	current, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	notify(subs, current)
}

// Reset synchronously empties the cart and invalidates every refetch issued
// before this instant, so an in-flight response cannot resurrect cleared
// items.
func (s *CartStore) Reset() {
	s.mu.Lock()
	s.issued++
	s.applied = s.issued
	s.snap = CartSnapshot{TotalAmount: decimal.Zero}
	current, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	notify(subs, current)
}

func (s *CartStore) snapshotAndSubsLocked() (CartSnapshot, []func(CartSnapshot)) {
	subs := make([]func(CartSnapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return s.snap.clone(), subs
}

func notify(subs []func(CartSnapshot), snap CartSnapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
