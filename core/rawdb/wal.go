package rawdb

import (
	"sync"

	"github.com/units-io/units/core/types"
)

// MemoryWAL is an in-process WriteAheadLog: it retains every record for
// replay but provides no durability across process restarts.
// FileObjectStore does not use it; it writes its own WAL file.
type MemoryWAL struct {
	mu      sync.Mutex
	records []WALRecord
}

// NewMemoryWAL constructs an empty MemoryWAL.
func NewMemoryWAL() *MemoryWAL {
	return &MemoryWAL{}
}

// RecordUpdate appends an update record.
func (w *MemoryWAL) RecordUpdate(o *types.Object, p *types.ObjectProof, txHash *types.Hash) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, WALRecord{Kind: WALUpdate, Object: o.Clone(), Proof: p.Clone(), TxHash: txHash})
	return nil
}

// RecordDeletion appends a deletion record.
func (w *MemoryWAL) RecordDeletion(id types.ObjectId, p *types.ObjectProof, txHash *types.Hash) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, WALRecord{Kind: WALDeletion, ObjectID: id, Proof: p.Clone(), TxHash: txHash})
	return nil
}

// RecordStateProof appends a state proof record.
func (w *MemoryWAL) RecordStateProof(sp *types.StateProof) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, WALRecord{Kind: WALStateProof, StateProof: sp.Clone()})
	return nil
}

// Replay invokes fn for every record in append order.
func (w *MemoryWAL) Replay(fn func(WALRecord) error) error {
	w.mu.Lock()
	records := make([]WALRecord, len(w.records))
	copy(records, w.records)
	w.mu.Unlock()

	for _, r := range records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}
