package rpc

import (
	"encoding/hex"
	"fmt"

	"github.com/units-io/units/core/types"
)

func objectToView(o *types.Object) *ObjectView {
	v := &ObjectView{
		ID:           o.ID.Hex(),
		ControllerID: o.ControllerID.Hex(),
		ObjectType:   o.ObjectType.String(),
		Data:         hexEncode(o.Data),
	}
	if o.ObjectType == types.Executable {
		v.VMType = o.VMType.String()
	}
	return v
}

func transactionToView(tx *types.Transaction) *TransactionView {
	instructions := make([]InstructionView, len(tx.Instructions))
	for i, ins := range tx.Instructions {
		instructions[i] = instructionToView(&ins)
	}
	return &TransactionView{
		Hash:            tx.Hash.Hex(),
		Instructions:    instructions,
		CommitmentLevel: tx.CommitmentLevel.String(),
	}
}

func instructionToView(ins *types.Instruction) InstructionView {
	targets := make([]string, len(ins.TargetObjects))
	for i, id := range ins.TargetObjects {
		targets[i] = id.Hex()
	}
	return InstructionView{
		ControllerID:   ins.ControllerID.Hex(),
		TargetFunction: ins.TargetFunction,
		TargetObjects:  targets,
		Params:         hexEncode(ins.Params),
	}
}

func receiptToView(r *types.TransactionReceipt) *ReceiptView {
	return &ReceiptView{
		TransactionHash: r.TransactionHash.Hex(),
		Slot:            r.Slot,
		Success:         r.Success,
		Timestamp:       r.Timestamp,
		CommitmentLevel: r.CommitmentLevel.String(),
		ErrorMessage:    r.ErrorMessage,
	}
}

// txFromView decodes a submitted transaction's wire form. CommitmentLevel
// is never read from the wire — a freshly submitted transaction is always
// Processing.
func txFromView(v *TransactionView) (*types.Transaction, error) {
	hashBytes, err := decodeHex32(v.Hash)
	if err != nil {
		return nil, fmt.Errorf("hash: %w", err)
	}
	instructions := make([]types.Instruction, len(v.Instructions))
	for i, iv := range v.Instructions {
		ins, err := instructionFromView(&iv)
		if err != nil {
			return nil, fmt.Errorf("instructions[%d]: %w", i, err)
		}
		instructions[i] = *ins
	}
	return &types.Transaction{
		Hash:         types.BytesToHash(hashBytes),
		Instructions: instructions,
	}, nil
}

func instructionFromView(v *InstructionView) (*types.Instruction, error) {
	controllerBytes, err := decodeHex32(v.ControllerID)
	if err != nil {
		return nil, fmt.Errorf("controller_id: %w", err)
	}
	targets := make([]types.ObjectId, len(v.TargetObjects))
	for i, s := range v.TargetObjects {
		b, err := decodeHex32(s)
		if err != nil {
			return nil, fmt.Errorf("target_objects[%d]: %w", i, err)
		}
		targets[i] = types.BytesToObjectId(b)
	}
	params, err := hexDecode(v.Params)
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	return &types.Instruction{
		ControllerID:   types.BytesToObjectId(controllerBytes),
		TargetFunction: v.TargetFunction,
		TargetObjects:  targets,
		Params:         params,
	}, nil
}

func hexEncode(b []byte) string {
	if len(b) == 0 {
		return "0x"
	}
	return "0x" + hex.EncodeToString(b)
}

func hexDecode(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) == 0 {
		return nil, nil
	}
	return hex.DecodeString(s)
}
