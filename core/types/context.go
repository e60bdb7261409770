package types

// ExecutionContext is everything a controller invocation sees: the
// instruction being dispatched, every object it may touch, and the sole
// clock the sandbox exposes (§4.4). It is what the host serializes into
// the RISC-V guest's INPUT_BUFFER (§4.3).
type ExecutionContext struct {
	Instruction Instruction         `json:"instruction"`
	Objects     map[ObjectId]*Object `json:"objects"`
	Slot        uint64              `json:"slot"`
	Timestamp   int64               `json:"timestamp"`
}
