package codec

import (
	"sort"

	"github.com/units-io/units/core/types"
)

// EncodeObject canonically serializes a UnitsObject. This is the encoding
// whose hash is an ObjectProof's object_hash (§4.2 step 1).
func EncodeObject(o *types.Object) []byte {
	w := NewWriter(64 + len(o.Data))
	w.PutFixed(o.ID.Bytes())
	w.PutFixed(o.ControllerID.Bytes())
	w.PutUint8(uint8(o.ObjectType))
	w.PutUint8(uint8(o.VMType))
	w.PutBytes(o.Data)
	return w.Bytes()
}

// DecodeObject reverses EncodeObject.
func DecodeObject(b []byte) (*types.Object, error) {
	r := NewReader(b)
	idb, err := r.Fixed(types.ObjectIdLength)
	if err != nil {
		return nil, err
	}
	ctrlb, err := r.Fixed(types.ObjectIdLength)
	if err != nil {
		return nil, err
	}
	ot, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	vt, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	data, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	return &types.Object{
		ID:           types.BytesToObjectId(idb),
		ControllerID: types.BytesToObjectId(ctrlb),
		ObjectType:   types.ObjectKind(ot),
		VMType:       types.VMType(vt),
		Data:         data,
	}, nil
}

// EncodeInstruction canonically serializes an Instruction.
func EncodeInstruction(ins *types.Instruction) []byte {
	w := NewWriter(64 + len(ins.Params))
	w.PutFixed(ins.ControllerID.Bytes())
	w.PutBytes([]byte(ins.TargetFunction))
	w.PutUint32(uint32(len(ins.TargetObjects)))
	for _, id := range ins.TargetObjects {
		w.PutFixed(id.Bytes())
	}
	w.PutBytes(ins.Params)
	return w.Bytes()
}

// DecodeInstruction reverses EncodeInstruction.
func DecodeInstruction(b []byte) (*types.Instruction, error) {
	r := NewReader(b)
	ctrlb, err := r.Fixed(types.ObjectIdLength)
	if err != nil {
		return nil, err
	}
	fn, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	targets := make([]types.ObjectId, 0, n)
	for i := uint32(0); i < n; i++ {
		tb, err := r.Fixed(types.ObjectIdLength)
		if err != nil {
			return nil, err
		}
		targets = append(targets, types.BytesToObjectId(tb))
	}
	params, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	return &types.Instruction{
		ControllerID:   types.BytesToObjectId(ctrlb),
		TargetFunction: string(fn),
		TargetObjects:  targets,
		Params:         params,
	}, nil
}

// EncodeTransaction canonically serializes a Transaction.
func EncodeTransaction(tx *types.Transaction) []byte {
	w := NewWriter(64)
	w.PutFixed(tx.Hash.Bytes())
	w.PutUint32(uint32(len(tx.Instructions)))
	for i := range tx.Instructions {
		w.PutBytes(EncodeInstruction(&tx.Instructions[i]))
	}
	w.PutUint8(uint8(tx.CommitmentLevel))
	return w.Bytes()
}

// DecodeTransaction reverses EncodeTransaction.
func DecodeTransaction(b []byte) (*types.Transaction, error) {
	r := NewReader(b)
	hb, err := r.Fixed(32)
	if err != nil {
		return nil, err
	}
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	instrs := make([]types.Instruction, 0, n)
	for i := uint32(0); i < n; i++ {
		raw, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		ins, err := DecodeInstruction(raw)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, *ins)
	}
	level, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return &types.Transaction{
		Hash:            types.BytesToHash(hb),
		Instructions:    instrs,
		CommitmentLevel: types.CommitmentLevel(level),
	}, nil
}

// EncodeObjectEffect canonically serializes an ObjectEffect.
func EncodeObjectEffect(e *types.ObjectEffect) []byte {
	w := NewWriter(32)
	w.PutFixed(e.ObjectID.Bytes())
	w.PutBool(e.BeforeImage != nil)
	if e.BeforeImage != nil {
		w.PutBytes(EncodeObject(e.BeforeImage))
	}
	w.PutBool(e.AfterImage != nil)
	if e.AfterImage != nil {
		w.PutBytes(EncodeObject(e.AfterImage))
	}
	return w.Bytes()
}

// DecodeObjectEffect reverses EncodeObjectEffect.
func DecodeObjectEffect(b []byte) (*types.ObjectEffect, error) {
	r := NewReader(b)
	idb, err := r.Fixed(types.ObjectIdLength)
	if err != nil {
		return nil, err
	}
	e := &types.ObjectEffect{ObjectID: types.BytesToObjectId(idb)}
	hasBefore, err := r.Bool()
	if err != nil {
		return nil, err
	}
	if hasBefore {
		raw, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		obj, err := DecodeObject(raw)
		if err != nil {
			return nil, err
		}
		e.BeforeImage = obj
	}
	hasAfter, err := r.Bool()
	if err != nil {
		return nil, err
	}
	if hasAfter {
		raw, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		obj, err := DecodeObject(raw)
		if err != nil {
			return nil, err
		}
		e.AfterImage = obj
	}
	return e, nil
}

// EncodeEffects canonically serializes a slice of ObjectEffect — this is
// exactly the shape written to the RISC-V host's OUTPUT_BUFFER (§4.3).
func EncodeEffects(effects []types.ObjectEffect) []byte {
	w := NewWriter(64 * (len(effects) + 1))
	w.PutUint32(uint32(len(effects)))
	for i := range effects {
		w.PutBytes(EncodeObjectEffect(&effects[i]))
	}
	return w.Bytes()
}

// DecodeEffects reverses EncodeEffects.
func DecodeEffects(b []byte) ([]types.ObjectEffect, error) {
	r := NewReader(b)
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	out := make([]types.ObjectEffect, 0, n)
	for i := uint32(0); i < n; i++ {
		raw, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		e, err := DecodeObjectEffect(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

// EncodeObjectProof canonically serializes the fields an ObjectProof's
// outer hash commits to: (object_id, slot, object_hash, prev_proof_hash?,
// transaction_hash?, proof_data), per §4.2 step 2/3.
func EncodeObjectProof(p *types.ObjectProof) []byte {
	w := NewWriter(96 + len(p.ProofData))
	w.PutFixed(p.ObjectID.Bytes())
	w.PutUint64(p.Slot)
	w.PutFixed(p.ObjectHash.Bytes())
	if p.PrevProofHash != nil {
		w.PutOptionalFixed(true, p.PrevProofHash.Bytes())
	} else {
		w.PutOptionalFixed(false, nil)
	}
	if p.TransactionHash != nil {
		w.PutOptionalFixed(true, p.TransactionHash.Bytes())
	} else {
		w.PutOptionalFixed(false, nil)
	}
	w.PutBytes(p.ProofData)
	return w.Bytes()
}

// DecodeObjectProof reverses EncodeObjectProof.
func DecodeObjectProof(b []byte) (*types.ObjectProof, error) {
	r := NewReader(b)
	idb, err := r.Fixed(types.ObjectIdLength)
	if err != nil {
		return nil, err
	}
	slot, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	hb, err := r.Fixed(32)
	if err != nil {
		return nil, err
	}
	prevb, err := r.OptionalFixed(32)
	if err != nil {
		return nil, err
	}
	txb, err := r.OptionalFixed(32)
	if err != nil {
		return nil, err
	}
	data, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	p := &types.ObjectProof{
		ObjectID:   types.BytesToObjectId(idb),
		Slot:       slot,
		ObjectHash: types.BytesToHash(hb),
		ProofData:  data,
	}
	if prevb != nil {
		h := types.BytesToHash(prevb)
		p.PrevProofHash = &h
	}
	if txb != nil {
		h := types.BytesToHash(txb)
		p.TransactionHash = &h
	}
	return p, nil
}

// EncodeStateProofPayload canonically serializes a state proof's proof_data
// body {object_root, transaction_root, slot}, per §4.2.
func EncodeStateProofPayload(objectRoot, transactionRoot types.Hash, slot uint64) []byte {
	w := NewWriter(72)
	w.PutFixed(objectRoot.Bytes())
	w.PutFixed(transactionRoot.Bytes())
	w.PutUint64(slot)
	return w.Bytes()
}

// DecodeStateProofPayload reverses EncodeStateProofPayload.
func DecodeStateProofPayload(b []byte) (objectRoot, transactionRoot types.Hash, slot uint64, err error) {
	r := NewReader(b)
	ob, err := r.Fixed(32)
	if err != nil {
		return
	}
	tb, err := r.Fixed(32)
	if err != nil {
		return
	}
	slot, err = r.Uint64()
	if err != nil {
		return
	}
	objectRoot = types.BytesToHash(ob)
	transactionRoot = types.BytesToHash(tb)
	return
}

// EncodeExecutionContext canonically serializes an ExecutionContext — the
// exact byte shape written to the RISC-V guest's INPUT_BUFFER (§4.3,
// §4.4). Objects are written in ascending-id order so the encoding is
// deterministic regardless of map iteration order.
func EncodeExecutionContext(ctx *types.ExecutionContext) []byte {
	w := NewWriter(128)
	w.PutBytes(EncodeInstruction(&ctx.Instruction))
	w.PutUint64(ctx.Slot)
	w.PutInt64(ctx.Timestamp)

	ids := make([]types.ObjectId, 0, len(ctx.Objects))
	for id := range ctx.Objects {
		ids = append(ids, id)
	}
	ids = SortedObjectIDs(ids)
	w.PutUint32(uint32(len(ids)))
	for _, id := range ids {
		w.PutFixed(id.Bytes())
		w.PutBytes(EncodeObject(ctx.Objects[id]))
	}
	return w.Bytes()
}

// DecodeExecutionContext reverses EncodeExecutionContext.
func DecodeExecutionContext(b []byte) (*types.ExecutionContext, error) {
	r := NewReader(b)
	insRaw, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	ins, err := DecodeInstruction(insRaw)
	if err != nil {
		return nil, err
	}
	slot, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	ts, err := r.Int64()
	if err != nil {
		return nil, err
	}
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	objects := make(map[types.ObjectId]*types.Object, n)
	for i := uint32(0); i < n; i++ {
		idb, err := r.Fixed(types.ObjectIdLength)
		if err != nil {
			return nil, err
		}
		objRaw, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		obj, err := DecodeObject(objRaw)
		if err != nil {
			return nil, err
		}
		objects[types.BytesToObjectId(idb)] = obj
	}
	return &types.ExecutionContext{
		Instruction: *ins,
		Objects:     objects,
		Slot:        slot,
		Timestamp:   ts,
	}, nil
}

// SortedObjectIDs returns a copy of ids sorted ascending, the order every
// canonical aggregate (object_root, StateProof.ObjectIDs) must use.
func SortedObjectIDs(ids []types.ObjectId) []types.ObjectId {
	out := make([]types.ObjectId, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
