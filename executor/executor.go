// Package executor implements the transaction execution pipeline (spec
// §4.5): conflict pre-check, object load, per-instruction dispatch through
// the controller host, effect merge, atomic commit, and receipt assembly.
package executor

import (
	"errors"
	"fmt"

	"github.com/units-io/units/conflict"
	"github.com/units-io/units/controller"
	"github.com/units-io/units/core/rawdb"
	"github.com/units-io/units/core/types"
	"github.com/units-io/units/kernel"
	"github.com/units-io/units/log"
	"github.com/units-io/units/metrics"
	"github.com/units-io/units/riscv"
)

var execLog = log.Default().Module("executor")

// ErrObjectTypeChanged is a fatal invariant violation (§3 invariant 5): an
// object's object_type must never change once created.
var ErrObjectTypeChanged = errors.New("executor: object_type changed across effect")

// Executor runs transactions to completion against one set of storage
// backends. It holds no per-transaction state between calls; RecentSet is
// the only thing that accumulates across Execute calls.
type Executor struct {
	store    rawdb.ObjectStorage
	locks    *rawdb.LockManager
	wal      rawdb.WriteAheadLog // optional; nil disables WAL recording
	receipts rawdb.ReceiptStorage
	registry *kernel.Registry
	host     *riscv.Host
	recent   *RecentSet
}

// New constructs an Executor. wal may be nil for backends that don't offer
// one (§6 — WriteAheadLog is optional).
func New(store rawdb.ObjectStorage, locks *rawdb.LockManager, wal rawdb.WriteAheadLog, receipts rawdb.ReceiptStorage, registry *kernel.Registry, host *riscv.Host, recent *RecentSet) *Executor {
	return &Executor{
		store:    store,
		locks:    locks,
		wal:      wal,
		receipts: receipts,
		registry: registry,
		host:     host,
		recent:   recent,
	}
}

// Execute runs tx atomically at (slot, timestamp) and returns its receipt.
// A nil error means the pipeline ran to completion — the receipt itself
// reports Success/Failed; a non-nil error is either ErrEmptyTransaction for
// a transaction with no instructions or a storage-layer failure that, per
// §7's propagation policy, escapes to the caller unchanged rather than
// being folded into a receipt.
func (ex *Executor) Execute(tx *types.Transaction, slot uint64, timestamp int64) (*types.TransactionReceipt, error) {
	if tx.IsEmpty() {
		return nil, ErrEmptyTransaction
	}

	timer := metrics.NewTimer(metrics.ExecutionTime)
	defer timer.Stop()

	// 1. Pre-check against the retained transactions whose receipts record
	// this same slot.
	var sameSlot []*types.Transaction
	for _, other := range ex.recent.Snapshot() {
		r, ok, err := ex.receipts.GetReceipt(other.Hash)
		if err != nil {
			return nil, err
		}
		if ok && r.Slot == slot {
			sameSlot = append(sameSlot, other)
		}
	}
	result := conflict.Check(tx, sameSlot)
	if result.Verdict == conflict.Conflict {
		metrics.TransactionsFailed.Inc()
		msg := conflictMessage(result)
		execLog.Debug("transaction rejected on conflict pre-check", "hash", tx.Hash.Hex(), "reason", msg)
		receipt := types.NewFailedReceipt(tx.Hash, slot, timestamp, msg)
		if err := ex.receipts.StoreReceipt(receipt); err != nil {
			return nil, err
		}
		ex.recent.Add(tx)
		return receipt, nil
	}

	// Locks are acquired in ascending id order by LockMany and held through
	// dispatch and commit (§5 — cross-object atomicity without a native
	// multi-row commit requires holding locks until the last proof is
	// written).
	guards := ex.locks.LockMany(tx.WriteSet())
	defer rawdb.ReleaseAll(guards)

	// 2/3. Object load (via controller.BuildContext per instruction) and
	// per-instruction dispatch, in order.
	perInstruction := make([][]types.ObjectEffect, 0, len(tx.Instructions))
	var failure string
	for _, instr := range tx.Instructions {
		ctx, ctlr, err := controller.BuildContext(ex.store, instr, slot, timestamp)
		if err != nil {
			failure = err.Error()
			break
		}
		effects, fault := controller.Invoke(ctlr, ctx, ex.registry, ex.host)
		if fault != nil {
			failure = fault.Error()
			break
		}
		if err := validateEffects(effects); err != nil {
			failure = err.Error()
			break
		}
		perInstruction = append(perInstruction, effects)
	}

	if failure != "" {
		metrics.TransactionsFailed.Inc()
		execLog.Warn("instruction dispatch failed", "hash", tx.Hash.Hex(), "reason", failure)
		receipt := types.NewFailedReceipt(tx.Hash, slot, timestamp, failure)
		if err := ex.receipts.StoreReceipt(receipt); err != nil {
			return nil, err
		}
		ex.recent.Add(tx)
		return receipt, nil
	}

	// 4. Effect merge.
	merged, err := mergeEffects(perInstruction)
	if err != nil {
		metrics.TransactionsFailed.Inc()
		execLog.Warn("effect merge failed", "hash", tx.Hash.Hex(), "reason", err.Error())
		receipt := types.NewFailedReceipt(tx.Hash, slot, timestamp, err.Error())
		if err := ex.receipts.StoreReceipt(receipt); err != nil {
			return nil, err
		}
		ex.recent.Add(tx)
		return receipt, nil
	}

	// 5. Commit.
	objectProofs, err := ex.commit(merged, slot, &tx.Hash)
	if err != nil {
		// Storage IO errors escape to the caller unchanged (§7); no receipt
		// is recorded since nothing was durably committed.
		metrics.TransactionsFailed.Inc()
		execLog.Error("commit failed", "hash", tx.Hash.Hex(), "err", err)
		return nil, err
	}

	// 6. Receipt.
	receipt := &types.TransactionReceipt{
		TransactionHash: tx.Hash,
		Slot:            slot,
		Success:         true,
		Timestamp:       timestamp,
		CommitmentLevel: types.Committed,
		ObjectProofs:    objectProofs,
		Effects:         merged,
	}
	if err := ex.receipts.StoreReceipt(receipt); err != nil {
		return nil, err
	}
	metrics.TransactionsExecuted.Inc()
	ex.recent.Add(tx)
	return receipt, nil
}

// commit writes every net effect to object storage — creations and
// modifications via SetBatch, deletions via DeleteBatch, both under
// txHash — and appends the corresponding WAL records, returning the
// chained proof minted for each object.
func (ex *Executor) commit(effects []types.ObjectEffect, slot uint64, txHash *types.Hash) (map[types.ObjectId]*types.ObjectProof, error) {
	var toSet []*types.Object
	var toDelete []types.ObjectId
	for _, e := range effects {
		if e.AfterImage != nil {
			toSet = append(toSet, e.AfterImage)
		} else {
			toDelete = append(toDelete, e.ObjectID)
		}
	}

	proofs := make(map[types.ObjectId]*types.ObjectProof, len(effects))

	if len(toSet) > 0 {
		setProofs, err := ex.store.SetBatch(toSet, slot, txHash)
		if err != nil {
			return nil, err
		}
		for i, o := range toSet {
			proofs[o.ID] = setProofs[i]
			if ex.wal != nil {
				if err := ex.wal.RecordUpdate(o, setProofs[i], txHash); err != nil {
					return nil, err
				}
			}
		}
	}
	if len(toDelete) > 0 {
		delProofs, err := ex.store.DeleteBatch(toDelete, slot, txHash)
		if err != nil {
			return nil, err
		}
		for i, id := range toDelete {
			proofs[id] = delProofs[i]
			if ex.wal != nil {
				if err := ex.wal.RecordDeletion(id, delProofs[i], txHash); err != nil {
					return nil, err
				}
			}
		}
	}
	return proofs, nil
}

// mergeEffects implements §4.5 step 4: within one transaction, a later
// effect on the same object supersedes an earlier one, with the earliest
// before_image preserved as authoritative. Order of first appearance is
// preserved in the output so receipts are deterministic for a given
// instruction ordering.
func mergeEffects(perInstruction [][]types.ObjectEffect) ([]types.ObjectEffect, error) {
	order := make([]types.ObjectId, 0)
	before := make(map[types.ObjectId]*types.Object)
	after := make(map[types.ObjectId]*types.Object)
	seen := make(map[types.ObjectId]bool)

	for _, effects := range perInstruction {
		for _, e := range effects {
			if !seen[e.ObjectID] {
				seen[e.ObjectID] = true
				before[e.ObjectID] = e.BeforeImage
				order = append(order, e.ObjectID)
			}
			after[e.ObjectID] = e.AfterImage
		}
	}

	merged := make([]types.ObjectEffect, 0, len(order))
	for _, id := range order {
		b, a := before[id], after[id]
		if b != nil && a != nil && b.ObjectType != a.ObjectType {
			return nil, fmt.Errorf("%w: object %s", ErrObjectTypeChanged, id.Hex())
		}
		merged = append(merged, types.ObjectEffect{ObjectID: id, BeforeImage: b, AfterImage: a})
	}
	return merged, nil
}

// validateEffects enforces the shape constraint (§3) on every effect a
// single instruction produced, ahead of the merge step.
func validateEffects(effects []types.ObjectEffect) error {
	for i := range effects {
		if err := effects[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func conflictMessage(r conflict.Result) string {
	msg := "conflict with"
	for i, h := range r.Conflicting {
		if i > 0 {
			msg += ","
		}
		msg += " " + h.Hex()
	}
	return msg
}
