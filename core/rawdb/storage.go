// Package rawdb implements UNITS's storage-contract interfaces (§6) plus
// reference backends: an in-memory store used by tests and the default
// "memory" config, and a file-backed store (WAL + flat files) for the
// "file" config.storage.type, in the style of the teacher corpus's own
// key-value-store abstraction and append-only WAL layout.
package rawdb

import (
	"github.com/units-io/units/core/types"
)

// ObjectStorage is the live, current-state object store. Set and Delete
// return the ObjectProof minted for the write, chained onto whatever
// proof previously existed for that object.
type ObjectStorage interface {
	Get(id types.ObjectId) (*types.Object, bool, error)
	Set(o *types.Object, slot uint64, txHash *types.Hash) (*types.ObjectProof, error)
	Delete(id types.ObjectId, slot uint64, txHash *types.Hash) (*types.ObjectProof, error)
	SetBatch(objs []*types.Object, slot uint64, txHash *types.Hash) ([]*types.ObjectProof, error)
	DeleteBatch(ids []types.ObjectId, slot uint64, txHash *types.Hash) ([]*types.ObjectProof, error)
	Iter(fn func(*types.Object) bool) error
}

// HistoricalStorage answers point-in-time and ranged queries over an
// object's past states.
type HistoricalStorage interface {
	GetAtSlot(id types.ObjectId, slot uint64) (*types.Object, bool, error)
	GetHistory(id types.ObjectId, start, end uint64) ([]SlotObjectRecord, error)
	CompactHistory(beforeSlot uint64) (int, error)
}

// SlotObjectRecord is one historical snapshot of an object.
type SlotObjectRecord struct {
	Slot   uint64
	Object *types.Object
}

// ProofStorage persists and retrieves object and state proofs.
type ProofStorage interface {
	StoreObjectProof(p *types.ObjectProof) error
	GetLatestProof(id types.ObjectId) (*types.ObjectProof, bool, error)
	GetProofHistory(id types.ObjectId, start, end *uint64) ([]*types.ObjectProof, error)
	StoreStateProof(sp *types.StateProof) error
	GetStateProof(slot uint64) (*types.StateProof, bool, error)
	GetStateProofHistory(start, end uint64) ([]*types.StateProof, error)
}

// ReceiptStorage persists and retrieves transaction receipts.
type ReceiptStorage interface {
	StoreReceipt(r *types.TransactionReceipt) error
	GetReceipt(txHash types.Hash) (*types.TransactionReceipt, bool, error)
	GetReceiptsForSlot(slot uint64) ([]*types.TransactionReceipt, error)
	GetReceiptsRange(start, end uint64) ([]*types.TransactionReceipt, error)
	GetReceiptsForObject(id types.ObjectId, start, end *uint64) ([]*types.TransactionReceipt, error)
	CleanupReceiptsBefore(slot uint64) (int, error)
}

// WriteAheadLog is an optional durability layer: durable backends should
// append every committed update and state proof here before (or as part
// of) acknowledging the write, and support replay for crash recovery.
type WriteAheadLog interface {
	RecordUpdate(o *types.Object, p *types.ObjectProof, txHash *types.Hash) error
	RecordDeletion(id types.ObjectId, p *types.ObjectProof, txHash *types.Hash) error
	RecordStateProof(sp *types.StateProof) error
	Replay(fn func(WALRecord) error) error
}

// WALRecordKind distinguishes the three record shapes a WAL stores.
type WALRecordKind uint8

const (
	WALUpdate WALRecordKind = iota
	WALDeletion
	WALStateProof
)

// WALRecord is one entry replayed from a WriteAheadLog.
type WALRecord struct {
	Kind       WALRecordKind
	Object     *types.Object
	ObjectID   types.ObjectId
	Proof      *types.ObjectProof
	StateProof *types.StateProof
	TxHash     *types.Hash
}
