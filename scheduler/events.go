package scheduler

import "github.com/units-io/units/core/types"

// SlotStartedData is published as node.Event.Data for node.EventSlotStarted.
type SlotStartedData struct {
	Slot      uint64
	Timestamp int64
}

// SlotExecutedData is published for node.EventSlotExecuted, once every
// transaction drained for the slot has run.
type SlotExecutedData struct {
	Slot         uint64
	TxCount      int
	SuccessCount int
}

// SlotFinalizedData is published for node.EventSlotFinalized once the
// slot's StateProof has been assembled and persisted.
type SlotFinalizedData struct {
	Slot  uint64
	Proof *types.StateProof
}

// SlotFailedData is published for node.EventSlotFailed when proof assembly
// or persistence fails (§7 — the slot's receipts are left untouched so an
// operator can retry finalization).
type SlotFailedData struct {
	Slot uint64
	Err  error
}
