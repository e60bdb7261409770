package controller

import (
	"github.com/units-io/units/core/types"
	"github.com/units-io/units/kernel"
	"github.com/units-io/units/metrics"
	"github.com/units-io/units/riscv"
)

// Invoke runs ctx against ctlr's bytecode, sniffing for the native-module
// magic (§4.9) before falling back to the full RISC-V host (§4.3). Both
// paths return the same (effects, *KernelFault) shape, so callers never
// need to know which one ran.
func Invoke(ctlr *types.Object, ctx *types.ExecutionContext, registry *kernel.Registry, host *riscv.Host) ([]types.ObjectEffect, *types.KernelFault) {
	metrics.ControllerInvocations.Inc()

	if id, ok := kernel.Sniff(ctlr.Data); ok {
		module, ok := registry.Lookup(id)
		if !ok {
			metrics.ControllerFaults.Inc()
			return nil, types.NewKernelFault(types.KernelInvalidData, "unregistered native module")
		}
		effects, fault := module.Invoke(ctx)
		if fault != nil {
			metrics.ControllerFaults.Inc()
			return nil, fault
		}
		if err := validateAuthority(ctx, effects); err != nil {
			metrics.ControllerFaults.Inc()
			return nil, err
		}
		return effects, nil
	}

	metrics.RiscVInvocations.Inc()
	effects, err := host.Invoke(ctlr.Data, ctx)
	if err != nil {
		metrics.ControllerFaults.Inc()
		return nil, mapVMFault(err)
	}
	return effects, nil
}

// validateAuthority enforces §3 invariant 4 (every after_image's
// controller_id must equal the invoking instruction's controller_id) for
// native modules; the RISC-V host already enforces the equivalent rule
// internally (§4.3).
func validateAuthority(ctx *types.ExecutionContext, effects []types.ObjectEffect) *types.KernelFault {
	for i := range effects {
		e := &effects[i]
		if e.AfterImage == nil {
			continue
		}
		if e.AfterImage.ControllerID != ctx.Instruction.ControllerID {
			return types.NewKernelFault(types.KernelUnauthorized, "controller authority violation")
		}
	}
	return nil
}

// mapVMFault translates a sandbox-level VMError into the KernelError space
// the executor and receipt model understand. The RISC-V host's faults are
// about the sandbox itself (resource exhaustion, malformed bytecode, a
// buggy or malicious controller's exit code) rather than one of the
// well-defined business-logic codes a native module returns directly, so
// each maps to the closest KernelError and keeps the VMError detail string
// for diagnostics.
func mapVMFault(err error) *types.KernelFault {
	vmErr, ok := err.(*riscv.VMError)
	if !ok {
		return types.NewKernelFault(types.KernelPanic, err.Error())
	}
	switch vmErr.Fault {
	case riscv.FaultControllerValidationFailed:
		return types.NewKernelFault(types.KernelUnauthorized, vmErr.Detail)
	case riscv.FaultInvalidBytecode, riscv.FaultSerializationError, riscv.FaultUnsupportedVMType:
		return types.NewKernelFault(types.KernelInvalidData, vmErr.Error())
	case riscv.FaultMemoryLimitExceeded, riscv.FaultInstructionLimitExceeded, riscv.FaultTimeoutExceeded:
		return types.NewKernelFault(types.KernelIOError, vmErr.Error())
	default: // FaultExecutionFailed, including nonzero controller exit codes
		return types.NewKernelFault(types.KernelPanic, vmErr.Error())
	}
}
