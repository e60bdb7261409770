package riscv

import (
	"github.com/units-io/units/core/codec"
	"github.com/units-io/units/core/types"
)

// Host runs a controller's bytecode against an ExecutionContext and
// returns the resulting effects, enforcing the memory/instruction/time
// bounds of §4.3.
type Host struct {
	Config Config
}

// NewHost constructs a Host with cfg (use DefaultConfig() for the spec
// defaults).
func NewHost(cfg Config) *Host {
	return &Host{Config: cfg}
}

// Invoke loads bytecode, writes ctx into INPUT_BUFFER, runs the CPU to
// completion, and decodes+validates the effects written to OUTPUT_BUFFER
// (§4.3's full execution contract).
func (h *Host) Invoke(bytecode []byte, ctx *types.ExecutionContext) ([]types.ObjectEffect, error) {
	cpu := NewCPU(h.Config)

	entry, err := LoadBytecode(cpu.Mem, bytecode)
	if err != nil {
		return nil, err
	}

	payload := codec.EncodeExecutionContext(ctx)
	if uint32(len(payload)) > MaxBufferSize {
		return nil, newFault(FaultSerializationError, "execution context exceeds MAX_BUFFER_SIZE")
	}
	if err := cpu.Mem.WriteWord(InputBuffer-4, uint32(len(payload))); err != nil {
		return nil, newFault(FaultExecutionFailed, "out of bounds")
	}
	if err := cpu.Mem.WriteBytes(InputBuffer, payload); err != nil {
		return nil, newFault(FaultExecutionFailed, "out of bounds")
	}

	cpu.PC = entry
	if err := cpu.Run(h.Config); err != nil {
		return nil, err
	}
	if cpu.ExitCode() != 0 {
		return nil, newFault(FaultExecutionFailed, exitDetail(cpu.ExitCode()))
	}

	outLen, err := cpu.Mem.ReadWord(OutputBuffer - 4)
	if err != nil {
		return nil, newFault(FaultExecutionFailed, "out of bounds")
	}
	if outLen > MaxBufferSize {
		return nil, newFault(FaultSerializationError, "output payload exceeds MAX_BUFFER_SIZE")
	}
	outBytes, err := cpu.Mem.ReadBytes(OutputBuffer, outLen)
	if err != nil {
		return nil, newFault(FaultExecutionFailed, "out of bounds")
	}
	effects, err := codec.DecodeEffects(outBytes)
	if err != nil {
		return nil, newFault(FaultSerializationError, err.Error())
	}

	if err := validateEffects(ctx, effects); err != nil {
		return nil, err
	}
	return effects, nil
}

// validateEffects enforces §4.3's controller-authority rule: every effect
// whose after_image is present must be controlled by the instruction's
// controller, unless the effect removes the object entirely.
func validateEffects(ctx *types.ExecutionContext, effects []types.ObjectEffect) error {
	for i := range effects {
		e := &effects[i]
		if e.AfterImage == nil {
			continue
		}
		if e.AfterImage.ControllerID != ctx.Instruction.ControllerID {
			return newFault(FaultControllerValidationFailed, "")
		}
	}
	return nil
}

func exitDetail(code uint32) string {
	return "exit=" + itoa(code)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
