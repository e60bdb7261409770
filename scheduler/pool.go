package scheduler

import (
	"errors"
	"sync"

	"github.com/units-io/units/core/types"
	"github.com/units-io/units/metrics"
)

// ErrPoolFull is returned by Pool.Submit when the pool is already at
// capacity — the service facade maps this to ServiceUnavailable (§5).
var ErrPoolFull = errors.New("scheduler: pending pool is full")

// ErrAlreadyKnown is returned by Submit for a transaction hash already
// sitting in the pool.
var ErrAlreadyKnown = errors.New("scheduler: transaction already known")

// Pool is the pending-transaction queue a slot drains from. Unlike the
// teacher's txpool, there is no per-sender nonce ordering to enforce —
// UNITS has no account-nonce concept, so FIFO submission order is the
// entire ordering policy (§5 "implementations may choose any total order
// that's consistent per slot, e.g., submission order").
type Pool struct {
	mu       sync.Mutex
	capacity int
	order    []types.Hash
	byHash   map[types.Hash]*types.Transaction
}

// NewPool constructs a Pool that holds at most capacity transactions at
// once. A capacity of zero or less means unbounded.
func NewPool(capacity int) *Pool {
	return &Pool{capacity: capacity, byHash: make(map[types.Hash]*types.Transaction)}
}

// Submit enqueues tx, returning ErrAlreadyKnown for a duplicate hash and
// ErrPoolFull once capacity is reached.
func (p *Pool) Submit(tx *types.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byHash[tx.Hash]; ok {
		metrics.PoolRejected.Inc()
		return ErrAlreadyKnown
	}
	if p.capacity > 0 && len(p.order) >= p.capacity {
		metrics.PoolRejected.Inc()
		return ErrPoolFull
	}
	p.order = append(p.order, tx.Hash)
	p.byHash[tx.Hash] = tx
	metrics.PoolSubmitted.Inc()
	metrics.PoolPending.Set(int64(len(p.order)))
	return nil
}

// Drop removes a pending transaction before its slot begins (§5
// cancellation); a no-op if the hash isn't queued.
func (p *Pool) Drop(hash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remove(hash)
}

func (p *Pool) remove(hash types.Hash) {
	if _, ok := p.byHash[hash]; !ok {
		return
	}
	delete(p.byHash, hash)
	for i, h := range p.order {
		if h == hash {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	metrics.PoolPending.Set(int64(len(p.order)))
}

// Drain removes and returns up to max transactions in FIFO submission
// order. max <= 0 means drain everything pending.
func (p *Pool) Drain(max int) []*types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.order)
	if max > 0 && max < n {
		n = max
	}
	out := make([]*types.Transaction, 0, n)
	for i := 0; i < n; i++ {
		hash := p.order[i]
		out = append(out, p.byHash[hash])
		delete(p.byHash, hash)
	}
	p.order = p.order[n:]
	metrics.PoolPending.Set(int64(len(p.order)))
	return out
}

// Count reports how many transactions are currently pending.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}
