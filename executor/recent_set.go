package executor

import (
	"sync"

	"github.com/units-io/units/core/types"
)

// RecentSet retains a bounded, FIFO window of recently-seen transactions
// for the conflict checker's pre-check (§4.1): Executor.Execute compares a
// transaction against the retained transactions whose receipts record the
// same slot, and it conflicts with any of them whose write set it overlaps.
// Transactions age out once the window fills.
type RecentSet struct {
	mu       sync.Mutex
	capacity int
	order    []types.Hash
	byHash   map[types.Hash]*types.Transaction
}

// NewRecentSet constructs a RecentSet holding at most capacity transactions.
// A capacity of zero or less retains nothing, and every pre-check degrades
// to ReadOnly/NoConflict.
func NewRecentSet(capacity int) *RecentSet {
	return &RecentSet{
		capacity: capacity,
		byHash:   make(map[types.Hash]*types.Transaction),
	}
}

// Add records tx, evicting the oldest retained transaction if the window is
// full. Re-adding an already-retained hash moves nothing; it's a no-op.
func (s *RecentSet) Add(tx *types.Transaction) {
	if s.capacity <= 0 || tx == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHash[tx.Hash]; ok {
		return
	}
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byHash, oldest)
	}
	s.order = append(s.order, tx.Hash)
	s.byHash[tx.Hash] = tx
}

// Snapshot returns every transaction currently retained, in insertion order.
// The returned slice is a copy; callers may range over it without holding
// the RecentSet's lock.
func (s *RecentSet) Snapshot() []*types.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Transaction, 0, len(s.order))
	for _, h := range s.order {
		out = append(out, s.byHash[h])
	}
	return out
}
