package service

import (
	"sync"

	"github.com/units-io/units/core/types"
)

// txStore retains submitted transactions by hash for get_transaction, in
// the style of the teacher's txpool hash-lookup index — except entries
// here are never evicted on drain, since a transaction stays retrievable
// after its slot executes, not just while pending.
type txStore struct {
	mu sync.RWMutex
	m  map[types.Hash]*types.Transaction
}

func newTxStore() *txStore {
	return &txStore{m: make(map[types.Hash]*types.Transaction)}
}

func (s *txStore) put(tx *types.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[tx.Hash] = tx
}

func (s *txStore) get(hash types.Hash) (*types.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.m[hash]
	return tx, ok
}
