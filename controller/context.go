// Package controller assembles the ExecutionContext a controller invocation
// sees (§4.4) and dispatches that invocation to either the RISC-V sandboxed
// host or a native reference module, depending on the controller object's
// data header (§4.9).
package controller

import (
	"github.com/units-io/units/core/rawdb"
	"github.com/units-io/units/core/types"
)

// BuildContext loads the controller object plus every id named in
// instr.TargetObjects and assembles the ExecutionContext the invocation
// will see. A missing object — controller or target — is ErrObjectNotFound,
// surfaced by the executor as an instruction failure rather than a panic.
func BuildContext(store rawdb.ObjectStorage, instr types.Instruction, slot uint64, timestamp int64) (*types.ExecutionContext, *types.Object, error) {
	ctlr, ok, err := store.Get(instr.ControllerID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrObjectNotFound
	}
	if ctlr.ObjectType != types.Executable {
		return nil, nil, ErrNotExecutable
	}

	objects := make(map[types.ObjectId]*types.Object, len(instr.TargetObjects)+1)
	objects[ctlr.ID] = ctlr
	for _, id := range instr.TargetObjects {
		if _, ok := objects[id]; ok {
			continue
		}
		obj, ok, err := store.Get(id)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, ErrObjectNotFound
		}
		objects[id] = obj
	}

	ctx := &types.ExecutionContext{
		Instruction: instr,
		Objects:     objects,
		Slot:        slot,
		Timestamp:   timestamp,
	}
	return ctx, ctlr, nil
}
