package executor

import "github.com/units-io/units/core/types"

// Rollback undoes a Processing transaction's already-committed effects
// (§4.5): each effect's before_image is restored to storage under a
// compensating proof chained onto the one the original commit produced,
// and the resulting receipt is stored with CommitmentLevel=Failed. Only a
// receipt still at CommitmentLevel=Processing may be rolled back; a
// Committed or Failed transaction is final.
//
// This is a recovery primitive for callers that commit a transaction's
// effects before deciding whether to keep it — e.g. a scheduler that
// executes every transaction in a slot and only finalizes once the whole
// slot's state proof assembles cleanly. rollbackTxHash identifies the
// compensating write for proof-chain and WAL purposes; it must differ from
// the original transaction's hash.
func (ex *Executor) Rollback(receipt *types.TransactionReceipt, rollbackTxHash types.Hash, slot uint64, timestamp int64) (*types.TransactionReceipt, error) {
	if receipt == nil || receipt.CommitmentLevel != types.Processing {
		return nil, ErrNotProcessing
	}

	restored := make([]types.ObjectEffect, 0, len(receipt.Effects))
	for _, e := range receipt.Effects {
		restored = append(restored, types.ObjectEffect{
			ObjectID:    e.ObjectID,
			BeforeImage: e.AfterImage,
			AfterImage:  e.BeforeImage,
		})
	}

	objectProofs, err := ex.commit(restored, slot, &rollbackTxHash)
	if err != nil {
		return nil, err
	}

	out := &types.TransactionReceipt{
		TransactionHash: receipt.TransactionHash,
		Slot:            slot,
		Success:         false,
		Timestamp:       timestamp,
		CommitmentLevel: types.Failed,
		ErrorMessage:    "rolled back",
		ObjectProofs:    objectProofs,
		Effects:         restored,
	}
	if err := ex.receipts.StoreReceipt(out); err != nil {
		return nil, err
	}
	return out, nil
}
