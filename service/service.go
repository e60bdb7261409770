package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/units-io/units/core/rawdb"
	"github.com/units-io/units/core/types"
	"github.com/units-io/units/scheduler"
)

// BuildInfo carries the fields Version reports — populated by cmd/unitsd
// from build-time ldflags, in the teacher's own version-reporting style.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// HealthStatus is the response shape for Health.
type HealthStatus struct {
	Status string `json:"status"`
	Slot   uint64 `json:"slot"`
}

// Service wires the pending pool, slot scheduler, and storage backends
// into the verb set a front end dispatches by name (§4.7). It holds no
// state of its own beyond the txStore needed to answer get_transaction,
// since neither the pool nor the executor retains a transaction once its
// slot has drained it.
type Service struct {
	pool     *scheduler.Pool
	sched    *scheduler.Scheduler
	objects  rawdb.ObjectStorage
	receipts rawdb.ReceiptStorage
	txs      *txStore
	build    BuildInfo
}

// New constructs a Service over the given components.
func New(pool *scheduler.Pool, sched *scheduler.Scheduler, objects rawdb.ObjectStorage, receipts rawdb.ReceiptStorage, build BuildInfo) *Service {
	return &Service{
		pool:     pool,
		sched:    sched,
		objects:  objects,
		receipts: receipts,
		txs:      newTxStore(),
		build:    build,
	}
}

// SubmitTransaction validates tx and enqueues it for the next slot,
// returning its hash. Validation failures and a full pool are reported as
// distinct sentinel errors so front ends can map them to the right
// status code (§6: InvalidRequest vs ServiceUnavailable).
func (s *Service) SubmitTransaction(tx *types.Transaction) (types.Hash, error) {
	if tx.IsEmpty() {
		return types.Hash{}, ErrEmptyTransaction
	}
	if err := s.pool.Submit(tx); err != nil {
		if errors.Is(err, scheduler.ErrPoolFull) {
			return types.Hash{}, ErrPoolFull
		}
		if errors.Is(err, scheduler.ErrAlreadyKnown) {
			return tx.Hash, nil
		}
		return types.Hash{}, err
	}
	s.txs.put(tx)
	return tx.Hash, nil
}

// GetObject returns the current state of id, or ErrNotFound.
func (s *Service) GetObject(id types.ObjectId) (*types.Object, error) {
	obj, ok, err := s.objects.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return obj, nil
}

// GetTransaction returns a previously submitted transaction by hash, or
// ErrNotFound.
func (s *Service) GetTransaction(hash types.Hash) (*types.Transaction, error) {
	tx, ok := s.txs.get(hash)
	if !ok {
		return nil, ErrNotFound
	}
	return tx, nil
}

// GetTransactionReceipt returns the receipt produced for hash once its
// slot has finalized, or ErrNotFound beforehand.
func (s *Service) GetTransactionReceipt(hash types.Hash) (*types.TransactionReceipt, error) {
	r, ok, err := s.receipts.GetReceipt(hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// GetCurrentSlot returns the slot the scheduler is currently accumulating
// transactions for.
func (s *Service) GetCurrentSlot() uint64 {
	return s.sched.CurrentSlot()
}

// AdvanceSlot is the admin operation that forces an out-of-band slot tick,
// returning the slot number that was just finalized.
func (s *Service) AdvanceSlot() (uint64, error) {
	slot := s.sched.CurrentSlot()
	if _, err := s.sched.AdvanceSlot(); err != nil {
		return 0, err
	}
	return slot, nil
}

// CreateObject is the admin bootstrap path (§4.7): it writes an object
// directly to storage, bypassing controller dispatch entirely, since the
// controller that would otherwise authorize the write doesn't exist yet
// the first time it's created. If id is the zero value, a random one is
// generated.
func (s *Service) CreateObject(id types.ObjectId, controllerID types.ObjectId, kind types.ObjectKind, vmType types.VMType, data []byte) (*types.Object, error) {
	if id.IsZero() {
		for {
			id = randomObjectID()
			if _, ok, err := s.objects.Get(id); err != nil {
				return nil, err
			} else if !ok {
				break
			}
		}
	}
	obj := &types.Object{ID: id, ControllerID: controllerID, ObjectType: kind, VMType: vmType, Data: data}
	if _, err := s.objects.Set(obj, s.sched.CurrentSlot(), nil); err != nil {
		return nil, err
	}
	return obj, nil
}

// randomObjectID fills a 32-byte ObjectId from two concatenated UUIDv4s,
// since ObjectId is twice the width of a single UUID.
func randomObjectID() types.ObjectId {
	var id types.ObjectId
	a, b := uuid.New(), uuid.New()
	copy(id[:16], a[:])
	copy(id[16:], b[:])
	return id
}

// Health reports a liveness summary.
func (s *Service) Health() HealthStatus {
	return HealthStatus{Status: "ok", Slot: s.sched.CurrentSlot()}
}

// Version reports the build info the service was compiled with.
func (s *Service) Version() BuildInfo {
	return s.build
}
