package rawdb

import (
	"sort"
	"sync"

	"github.com/units-io/units/core/types"
)

// lockState is one object's advisory lock: a single writer or any number
// of concurrent readers, per §5's "any write-X excludes all other accesses
// to X; read-read is allowed" rule.
type lockState struct {
	mu        sync.Mutex
	writer    bool
	readers   int
}

// LockManager hands out advisory per-object locks. Deadlock avoidance is
// the caller's responsibility via LockMany, which always acquires in
// ascending id order (§5, §9).
type LockManager struct {
	mu    sync.Mutex
	locks map[types.ObjectId]*lockState
}

// NewLockManager constructs an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[types.ObjectId]*lockState)}
}

func (m *LockManager) stateFor(id types.ObjectId) *lockState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.locks[id]
	if !ok {
		s = &lockState{}
		m.locks[id] = s
	}
	return s
}

// Guard releases whichever lock it was returned from on Release.
type Guard struct {
	id     types.ObjectId
	write  bool
	state  *lockState
	released bool
}

// Release is idempotent; calling it more than once is a no-op.
func (g *Guard) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	g.state.mu.Lock()
	defer g.state.mu.Unlock()
	if g.write {
		g.state.writer = false
	} else {
		g.state.readers--
	}
}

// Lock blocks until a write lock on id is available.
func (m *LockManager) Lock(id types.ObjectId) *Guard {
	s := m.stateFor(id)
	for {
		s.mu.Lock()
		if !s.writer && s.readers == 0 {
			s.writer = true
			s.mu.Unlock()
			return &Guard{id: id, write: true, state: s}
		}
		s.mu.Unlock()
	}
}

// TryLock attempts to acquire a write lock on id without blocking.
func (m *LockManager) TryLock(id types.ObjectId) (*Guard, bool) {
	s := m.stateFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer || s.readers > 0 {
		return nil, false
	}
	s.writer = true
	return &Guard{id: id, write: true, state: s}, true
}

// RLock acquires a shared read lock on id; concurrent readers are allowed,
// but it blocks while a writer holds the lock.
func (m *LockManager) RLock(id types.ObjectId) *Guard {
	s := m.stateFor(id)
	for {
		s.mu.Lock()
		if !s.writer {
			s.readers++
			s.mu.Unlock()
			return &Guard{id: id, write: false, state: s}
		}
		s.mu.Unlock()
	}
}

// LockMany acquires write locks on every id, sorted ascending first, so
// two callers racing over overlapping id sets can never form a cycle
// (§5, §9). The returned guards must be released by the caller.
func (m *LockManager) LockMany(ids []types.ObjectId) []*Guard {
	sorted := make([]types.ObjectId, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	guards := make([]*Guard, 0, len(sorted))
	for _, id := range sorted {
		guards = append(guards, m.Lock(id))
	}
	return guards
}

// ReleaseAll releases every guard in guards, in reverse acquisition order.
func ReleaseAll(guards []*Guard) {
	for i := len(guards) - 1; i >= 0; i-- {
		guards[i].Release()
	}
}
