// Package scheduler implements the slot scheduler (§4.6): a monotonically
// increasing current_slot driven either by a ticker (auto-advance) or by
// explicit AdvanceSlot calls (manual), draining the pending pool and
// running each transaction through the executor before assembling and
// persisting the slot's StateProof.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/units-io/units/core/rawdb"
	"github.com/units-io/units/core/types"
	"github.com/units-io/units/executor"
	"github.com/units-io/units/log"
	"github.com/units-io/units/metrics"
	"github.com/units-io/units/node"
	"github.com/units-io/units/proofs"
)

var schedLog = log.Default().Module("scheduler")

// Config holds the scheduler's timing and throughput parameters.
type Config struct {
	// SlotDurationMs is the ticker period for auto-advance mode. Zero
	// disables the ticker entirely — Run then does nothing and only
	// explicit AdvanceSlot calls move the slot forward (manual mode).
	SlotDurationMs int
	// GracePeriodMs is how long AdvanceSlot waits for late-arriving
	// transactions before draining the pool.
	GracePeriodMs int
	// MaxTransactionsPerSlot bounds how many transactions a single slot
	// drains from the pool. Zero means unbounded.
	MaxTransactionsPerSlot int
}

// Scheduler runs the slot lifecycle described in §4.6.
type Scheduler struct {
	cfg      Config
	pool     *Pool
	ex       *executor.Executor
	proofs   rawdb.ProofStorage
	receipts rawdb.ReceiptStorage
	bus      *node.EventBus

	advanceMu sync.Mutex // serializes AdvanceSlot against concurrent ticks

	mu          sync.RWMutex
	currentSlot uint64
	slotStart   time.Time
	prevProof   *types.StateProof
}

// New constructs a Scheduler starting at slot 0.
func New(cfg Config, pool *Pool, ex *executor.Executor, proofStore rawdb.ProofStorage, receiptStore rawdb.ReceiptStorage, bus *node.EventBus) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		pool:      pool,
		ex:        ex,
		proofs:    proofStore,
		receipts:  receiptStore,
		bus:       bus,
		slotStart: time.Now(),
	}
}

// CurrentSlot returns the slot the scheduler is currently accumulating
// transactions for.
func (s *Scheduler) CurrentSlot() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSlot
}

// Run drives auto-advance mode: a ticker fires every SlotDurationMs and
// each tick calls AdvanceSlot. A SlotDurationMs of zero makes Run return
// immediately — the scheduler then only advances via explicit AdvanceSlot
// calls. Run blocks until ctx is cancelled. Go's time.Ticker naturally
// drops a tick if AdvanceSlot is still running when the next one fires,
// matching §4.6's "missed ticks are skipped, never queued".
func (s *Scheduler) Run(ctx context.Context) {
	if s.cfg.SlotDurationMs <= 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(s.cfg.SlotDurationMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.AdvanceSlot()
		}
	}
}

// AdvanceSlot runs one full slot cycle: wait out the grace period, drain
// the pool, execute every transaction in order, assemble and persist the
// resulting StateProof, and move current_slot forward. It is safe to call
// concurrently with Run's ticker — calls serialize on advanceMu.
func (s *Scheduler) AdvanceSlot() (*types.StateProof, error) {
	s.advanceMu.Lock()
	defer s.advanceMu.Unlock()

	s.mu.RLock()
	slot := s.currentSlot
	prev := s.prevProof
	s.mu.RUnlock()

	timer := metrics.NewTimer(metrics.SlotProcessTime)
	defer timer.Stop()

	timestamp := time.Now().UnixMilli()
	s.publish(node.EventSlotStarted, SlotStartedData{Slot: slot, Timestamp: timestamp})

	if s.cfg.GracePeriodMs > 0 {
		time.Sleep(time.Duration(s.cfg.GracePeriodMs) * time.Millisecond)
	}

	txs := s.pool.Drain(s.cfg.MaxTransactionsPerSlot)

	objectProofs := make(map[types.ObjectId]*types.ObjectProof)
	txHashes := make([]types.Hash, 0, len(txs))
	successCount := 0
	for _, tx := range txs {
		receipt, err := s.ex.Execute(tx, slot, timestamp)
		if err != nil {
			metrics.SlotsFailed.Inc()
			schedLog.Error("slot execution aborted", "slot", slot, "err", err)
			s.publish(node.EventSlotFailed, SlotFailedData{Slot: slot, Err: err})
			return nil, err
		}
		txHashes = append(txHashes, tx.Hash)
		if receipt.Success {
			successCount++
		}
		for id, p := range receipt.ObjectProofs {
			objectProofs[id] = p
		}
	}
	s.publish(node.EventSlotExecuted, SlotExecutedData{Slot: slot, TxCount: len(txs), SuccessCount: successCount})

	sp := proofs.GenerateStateProof(slot, objectProofs, txHashes, prev)
	if err := s.proofs.StoreStateProof(sp); err != nil {
		// Receipts already persisted by the executor are left untouched
		// (§7) — an operator may retry finalization for this slot.
		metrics.SlotsFailed.Inc()
		schedLog.Error("state proof persistence failed", "slot", slot, "err", err)
		s.publish(node.EventSlotFailed, SlotFailedData{Slot: slot, Err: err})
		return nil, err
	}
	metrics.SlotsFinalized.Inc()
	metrics.ProofsGenerated.Inc()
	schedLog.Debug("slot finalized", "slot", slot, "tx_count", len(txs), "success_count", successCount)
	s.publish(node.EventSlotFinalized, SlotFinalizedData{Slot: slot, Proof: sp})

	s.mu.Lock()
	s.currentSlot = slot + 1
	s.slotStart = time.Now()
	s.prevProof = sp
	s.mu.Unlock()
	metrics.CurrentSlot.Set(int64(slot + 1))

	return sp, nil
}

func (s *Scheduler) publish(eventType node.EventType, data interface{}) {
	if s.bus != nil {
		s.bus.Publish(eventType, data)
	}
}
