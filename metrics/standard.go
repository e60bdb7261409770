package metrics

// Pre-defined metrics for the UNITS node. All metrics live in
// DefaultRegistry so they are globally accessible without passing a
// registry around.

var (
	// ---- Slot metrics ----

	// CurrentSlot tracks the scheduler's current_slot.
	CurrentSlot = DefaultRegistry.Gauge("slot.current")
	// SlotProcessTime records the wall-clock duration of one AdvanceSlot
	// call, in milliseconds.
	SlotProcessTime = DefaultRegistry.Histogram("slot.process_ms")
	// SlotsFinalized counts slots that reached SlotFinalized.
	SlotsFinalized = DefaultRegistry.Counter("slot.finalized")
	// SlotsFailed counts slots that emitted SlotFailed during finalization.
	SlotsFailed = DefaultRegistry.Counter("slot.failed")

	// ---- Pending pool metrics ----

	// PoolPending tracks the number of transactions waiting to be drained.
	PoolPending = DefaultRegistry.Gauge("pool.pending")
	// PoolSubmitted counts transactions accepted by Pool.Submit.
	PoolSubmitted = DefaultRegistry.Counter("pool.submitted")
	// PoolRejected counts transactions rejected by Pool.Submit (full or
	// already known).
	PoolRejected = DefaultRegistry.Counter("pool.rejected")

	// ---- Executor metrics ----

	// TransactionsExecuted counts transactions run through Executor.Execute.
	TransactionsExecuted = DefaultRegistry.Counter("executor.transactions")
	// TransactionsFailed counts transactions whose receipt came back
	// Failed (conflict, instruction fault, or rollback).
	TransactionsFailed = DefaultRegistry.Counter("executor.transactions_failed")
	// ExecutionTime records per-transaction execution duration in
	// milliseconds.
	ExecutionTime = DefaultRegistry.Histogram("executor.execution_ms")

	// ---- Controller host metrics ----

	// ControllerInvocations counts calls into controller.Invoke.
	ControllerInvocations = DefaultRegistry.Counter("controller.invocations")
	// ControllerFaults counts invocations that returned a non-OK
	// KernelFault.
	ControllerFaults = DefaultRegistry.Counter("controller.faults")
	// RiscVInvocations counts invocations that fell through to the RISC-V
	// host instead of a native module.
	RiscVInvocations = DefaultRegistry.Counter("controller.riscv_invocations")

	// ---- RPC metrics ----

	// RPCRequests counts incoming JSON-RPC requests.
	RPCRequests = DefaultRegistry.Counter("rpc.requests")
	// RPCErrors counts JSON-RPC requests that returned an error.
	RPCErrors = DefaultRegistry.Counter("rpc.errors")
	// RPCLatency records JSON-RPC request latency in milliseconds.
	RPCLatency = DefaultRegistry.Histogram("rpc.latency_ms")

	// ---- Storage metrics ----

	// ObjectsStored tracks the number of live objects in ObjectStorage.
	ObjectsStored = DefaultRegistry.Gauge("storage.objects")
	// ProofsGenerated counts object and state proofs minted.
	ProofsGenerated = DefaultRegistry.Counter("storage.proofs_generated")
)
