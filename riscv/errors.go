package riscv

import "fmt"

// Fault is the closed VM error enum of §7: ExecutionFailed,
// InvalidBytecode, MemoryLimitExceeded, InstructionLimitExceeded,
// TimeoutExceeded, SerializationError, ControllerValidationFailed,
// UnsupportedVMType.
type Fault uint8

const (
	FaultExecutionFailed Fault = iota
	FaultInvalidBytecode
	FaultMemoryLimitExceeded
	FaultInstructionLimitExceeded
	FaultTimeoutExceeded
	FaultSerializationError
	FaultControllerValidationFailed
	FaultUnsupportedVMType
)

func (f Fault) String() string {
	switch f {
	case FaultExecutionFailed:
		return "ExecutionFailed"
	case FaultInvalidBytecode:
		return "InvalidBytecode"
	case FaultMemoryLimitExceeded:
		return "MemoryLimitExceeded"
	case FaultInstructionLimitExceeded:
		return "InstructionLimitExceeded"
	case FaultTimeoutExceeded:
		return "TimeoutExceeded"
	case FaultSerializationError:
		return "SerializationError"
	case FaultControllerValidationFailed:
		return "ControllerValidationFailed"
	case FaultUnsupportedVMType:
		return "UnsupportedVMType"
	default:
		return "Unknown"
	}
}

// VMError pairs a Fault with a human-readable detail, e.g.
// "ExecutionFailed(exit=3)" or "ExecutionFailed(out of bounds)" per §4.3.
type VMError struct {
	Fault  Fault
	Detail string
}

func (e *VMError) Error() string {
	if e.Detail == "" {
		return e.Fault.String()
	}
	return fmt.Sprintf("%s(%s)", e.Fault, e.Detail)
}

func newFault(f Fault, detail string) *VMError {
	return &VMError{Fault: f, Detail: detail}
}
