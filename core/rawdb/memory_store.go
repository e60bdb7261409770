package rawdb

import (
	"sort"
	"sync"

	"github.com/units-io/units/core/types"
	"github.com/units-io/units/metrics"
	"github.com/units-io/units/proofs"
)

// objectHistory tracks every slot at which an object changed, sorted
// ascending, so GetAtSlot/GetHistory can answer "latest state at or
// before slot" without scanning the whole object set.
type objectHistory struct {
	slots   []uint64
	states  map[uint64]*types.Object // nil entry means deleted at this slot
	proofs  []*types.ObjectProof     // every proof in the chain, ascending; CompactHistory does not trim it
	current *types.Object            // nil if deleted or never created
}

// MemoryStore is the in-memory reference implementation of ObjectStorage,
// HistoricalStorage, ProofStorage, and ReceiptStorage — the required
// default backend, and the one every other backend's behavior is tested
// against.
type MemoryStore struct {
	mu sync.RWMutex

	objects  map[types.ObjectId]*types.Object
	history  map[types.ObjectId]*objectHistory
	receipts map[types.Hash]*types.TransactionReceipt
	byObject map[types.ObjectId][]types.Hash // receipts touching each object, ascending by slot
	stateProofs map[uint64]*types.StateProof
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:     make(map[types.ObjectId]*types.Object),
		history:     make(map[types.ObjectId]*objectHistory),
		receipts:    make(map[types.Hash]*types.TransactionReceipt),
		byObject:    make(map[types.ObjectId][]types.Hash),
		stateProofs: make(map[uint64]*types.StateProof),
	}
}

func (s *MemoryStore) historyFor(id types.ObjectId) *objectHistory {
	h, ok := s.history[id]
	if !ok {
		h = &objectHistory{states: make(map[uint64]*types.Object)}
		s.history[id] = h
	}
	return h
}

// Get returns the current state of id, if present.
func (s *MemoryStore) Get(id types.ObjectId) (*types.Object, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[id]
	if !ok {
		return nil, false, nil
	}
	return o.Clone(), true, nil
}

// Set stores o as the current state at slot and mints a chained
// ObjectProof for the write.
func (s *MemoryStore) Set(o *types.Object, slot uint64, txHash *types.Hash) (*types.ObjectProof, error) {
	if o == nil {
		return nil, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(o, slot, txHash)
}

func (s *MemoryStore) setLocked(o *types.Object, slot uint64, txHash *types.Hash) (*types.ObjectProof, error) {
	h := s.historyFor(o.ID)
	var prev *types.ObjectProof
	if len(h.proofs) > 0 {
		prev = h.proofs[len(h.proofs)-1]
	}
	p := proofs.GenerateObjectProof(o, slot, prev, txHash)

	_, existed := s.objects[o.ID]
	clone := o.Clone()
	s.objects[o.ID] = clone
	h.current = clone
	h.slots = append(h.slots, slot)
	h.states[slot] = clone
	h.proofs = append(h.proofs, p)
	metrics.ProofsGenerated.Inc()
	if !existed {
		metrics.ObjectsStored.Inc()
	}
	return p, nil
}

// Delete removes id's current state at slot and mints a tombstone proof.
func (s *MemoryStore) Delete(id types.ObjectId, slot uint64, txHash *types.Hash) (*types.ObjectProof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(id, slot, txHash)
}

func (s *MemoryStore) deleteLocked(id types.ObjectId, slot uint64, txHash *types.Hash) (*types.ObjectProof, error) {
	h := s.historyFor(id)
	var prev *types.ObjectProof
	if len(h.proofs) > 0 {
		prev = h.proofs[len(h.proofs)-1]
	}
	p := proofs.GenerateDeletionProof(id, slot, prev, txHash)

	if _, existed := s.objects[id]; existed {
		metrics.ObjectsStored.Dec()
	}
	delete(s.objects, id)
	h.current = nil
	h.slots = append(h.slots, slot)
	h.states[slot] = nil
	h.proofs = append(h.proofs, p)
	metrics.ProofsGenerated.Inc()
	return p, nil
}

// SetBatch applies Set to every object under a single governing tx_hash.
func (s *MemoryStore) SetBatch(objs []*types.Object, slot uint64, txHash *types.Hash) ([]*types.ObjectProof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.ObjectProof, 0, len(objs))
	for _, o := range objs {
		p, err := s.setLocked(o, slot, txHash)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// DeleteBatch applies Delete to every id under a single governing tx_hash.
func (s *MemoryStore) DeleteBatch(ids []types.ObjectId, slot uint64, txHash *types.Hash) ([]*types.ObjectProof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.ObjectProof, 0, len(ids))
	for _, id := range ids {
		p, err := s.deleteLocked(id, slot, txHash)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Iter calls fn for every currently-live object, stopping early if fn
// returns false. Iteration order is unspecified.
func (s *MemoryStore) Iter(fn func(*types.Object) bool) error {
	s.mu.RLock()
	snapshot := make([]*types.Object, 0, len(s.objects))
	for _, o := range s.objects {
		snapshot = append(snapshot, o.Clone())
	}
	s.mu.RUnlock()
	for _, o := range snapshot {
		if !fn(o) {
			break
		}
	}
	return nil
}

// GetAtSlot returns the latest state of id at or before slot: None if
// created after slot or deleted at or before slot (§3 Lifecycle).
func (s *MemoryStore) GetAtSlot(id types.ObjectId, slot uint64) (*types.Object, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.history[id]
	if !ok {
		return nil, false, nil
	}
	idx := sort.Search(len(h.slots), func(i int) bool { return h.slots[i] > slot })
	if idx == 0 {
		return nil, false, nil
	}
	o := h.states[h.slots[idx-1]]
	if o == nil {
		return nil, false, nil
	}
	return o.Clone(), true, nil
}

// GetHistory returns every (slot, object) snapshot recorded for id within
// [start, end] inclusive, ascending by slot.
func (s *MemoryStore) GetHistory(id types.ObjectId, start, end uint64) ([]SlotObjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.history[id]
	if !ok {
		return nil, nil
	}
	var out []SlotObjectRecord
	for _, slot := range h.slots {
		if slot < start || slot > end {
			continue
		}
		out = append(out, SlotObjectRecord{Slot: slot, Object: h.states[slot].Clone()})
	}
	return out, nil
}

// CompactHistory drops per-slot snapshots strictly before beforeSlot,
// preserving the most recent snapshot at or before that boundary so
// GetAtSlot/GetHistory remain correct for any slot >= beforeSlot (§9).
func (s *MemoryStore) CompactHistory(beforeSlot uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	compacted := 0
	for _, h := range s.history {
		idx := sort.Search(len(h.slots), func(i int) bool { return h.slots[i] >= beforeSlot })
		if idx <= 1 {
			continue
		}
		keepFrom := idx - 1
		for _, slot := range h.slots[:keepFrom] {
			delete(h.states, slot)
			compacted++
		}
		h.slots = h.slots[keepFrom:]
	}
	return compacted, nil
}

// StoreObjectProof appends p to its object's proof chain and records
// p.Slot in the object's slot index, without writing any object state.
// Set/Delete already append their own proofs, so it is for proofs minted
// without an accompanying object write.
func (s *MemoryStore) StoreObjectProof(p *types.ObjectProof) error {
	if p == nil {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.historyFor(p.ObjectID)
	h.slots = append(h.slots, p.Slot)
	h.proofs = append(h.proofs, p.Clone())
	return nil
}

// GetLatestProof returns the most recently minted proof for id.
func (s *MemoryStore) GetLatestProof(id types.ObjectId) (*types.ObjectProof, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.history[id]
	if !ok || len(h.proofs) == 0 {
		return nil, false, nil
	}
	return h.proofs[len(h.proofs)-1].Clone(), true, nil
}

// GetProofHistory returns id's proof chain within the optional [start, end]
// slot bounds, ascending.
func (s *MemoryStore) GetProofHistory(id types.ObjectId, start, end *uint64) ([]*types.ObjectProof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.history[id]
	if !ok {
		return nil, nil
	}
	out := make([]*types.ObjectProof, 0, len(h.proofs))
	for _, p := range h.proofs {
		if start != nil && p.Slot < *start {
			continue
		}
		if end != nil && p.Slot > *end {
			continue
		}
		out = append(out, p.Clone())
	}
	return out, nil
}

// StoreStateProof persists sp, keyed by its slot.
func (s *MemoryStore) StoreStateProof(sp *types.StateProof) error {
	if sp == nil {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateProofs[sp.Slot] = sp.Clone()
	return nil
}

// GetStateProof returns the state proof for slot, if any.
func (s *MemoryStore) GetStateProof(slot uint64) (*types.StateProof, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.stateProofs[slot]
	if !ok {
		return nil, false, nil
	}
	return sp.Clone(), true, nil
}

// GetStateProofHistory returns every stored state proof within [start, end].
func (s *MemoryStore) GetStateProofHistory(start, end uint64) ([]*types.StateProof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.StateProof
	for slot, sp := range s.stateProofs {
		if slot >= start && slot <= end {
			out = append(out, sp.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

// StoreReceipt persists r, keyed by its transaction hash, and indexes it
// against every object its effects touched.
func (s *MemoryStore) StoreReceipt(r *types.TransactionReceipt) error {
	if r == nil {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[r.TransactionHash] = r
	for _, e := range r.Effects {
		s.byObject[e.ObjectID] = append(s.byObject[e.ObjectID], r.TransactionHash)
	}
	return nil
}

// GetReceipt returns the receipt stored under txHash, if any.
func (s *MemoryStore) GetReceipt(txHash types.Hash) (*types.TransactionReceipt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[txHash]
	return r, ok, nil
}

// GetReceiptsForSlot returns every receipt committed in slot.
func (s *MemoryStore) GetReceiptsForSlot(slot uint64) ([]*types.TransactionReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.TransactionReceipt
	for _, r := range s.receipts {
		if r.Slot == slot {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetReceiptsRange returns every receipt committed within [start, end].
func (s *MemoryStore) GetReceiptsRange(start, end uint64) ([]*types.TransactionReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.TransactionReceipt
	for _, r := range s.receipts {
		if r.Slot >= start && r.Slot <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetReceiptsForObject returns every receipt whose effects touched id,
// within the optional [start, end] slot bounds.
func (s *MemoryStore) GetReceiptsForObject(id types.ObjectId, start, end *uint64) ([]*types.TransactionReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.TransactionReceipt
	for _, txHash := range s.byObject[id] {
		r := s.receipts[txHash]
		if r == nil {
			continue
		}
		if start != nil && r.Slot < *start {
			continue
		}
		if end != nil && r.Slot > *end {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// CleanupReceiptsBefore deletes every receipt committed strictly before
// slot, returning the count removed.
func (s *MemoryStore) CleanupReceiptsBefore(slot uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for hash, r := range s.receipts {
		if r.Slot < slot {
			delete(s.receipts, hash)
			n++
		}
	}
	return n, nil
}
