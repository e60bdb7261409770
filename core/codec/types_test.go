package codec

import (
	"testing"

	"github.com/units-io/units/core/types"
)

func TestObjectRoundTrip(t *testing.T) {
	obj := &types.Object{
		ID:           types.BytesToObjectId([]byte{0x01}),
		ControllerID: types.TokenControllerID,
		ObjectType:   types.Data,
		Data:         []byte("hello-units"),
	}
	got, err := DecodeObject(EncodeObject(obj))
	if err != nil {
		t.Fatalf("DecodeObject: %v", err)
	}
	if !got.Equal(obj) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, obj)
	}
}

func TestObjectRoundTripEmptyData(t *testing.T) {
	obj := &types.Object{ID: types.BytesToObjectId([]byte{0x02}), ObjectType: types.Executable, VMType: types.VMTypeRiscV}
	got, err := DecodeObject(EncodeObject(obj))
	if err != nil {
		t.Fatalf("DecodeObject: %v", err)
	}
	if !got.Equal(obj) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, obj)
	}
}

func TestInstructionRoundTrip(t *testing.T) {
	ins := &types.Instruction{
		ControllerID:   types.TokenControllerID,
		TargetFunction: "transfer",
		TargetObjects: []types.ObjectId{
			types.BytesToObjectId([]byte{0x02}),
			types.BytesToObjectId([]byte{0x03}),
		},
		Params: []byte{0xde, 0xad, 0xbe, 0xef},
	}
	got, err := DecodeInstruction(EncodeInstruction(ins))
	if err != nil {
		t.Fatalf("DecodeInstruction: %v", err)
	}
	if got.ControllerID != ins.ControllerID || got.TargetFunction != ins.TargetFunction {
		t.Fatalf("mismatch: %+v vs %+v", got, ins)
	}
	if len(got.TargetObjects) != len(ins.TargetObjects) {
		t.Fatalf("target object count mismatch: got %d want %d", len(got.TargetObjects), len(ins.TargetObjects))
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := &types.Transaction{
		Hash: types.BytesToHash([]byte{0xaa}),
		Instructions: []types.Instruction{
			{ControllerID: types.TokenControllerID, TargetFunction: "mint", TargetObjects: []types.ObjectId{types.BytesToObjectId([]byte{1})}},
		},
		CommitmentLevel: types.Processing,
	}
	got, err := DecodeTransaction(EncodeTransaction(tx))
	if err != nil {
		t.Fatalf("DecodeTransaction: %v", err)
	}
	if got.Hash != tx.Hash || len(got.Instructions) != 1 || got.CommitmentLevel != tx.CommitmentLevel {
		t.Fatalf("mismatch: %+v vs %+v", got, tx)
	}
}

func TestEffectsRoundTripCreationAndDeletion(t *testing.T) {
	id := types.BytesToObjectId([]byte{0x09})
	created := &types.Object{ID: id, ControllerID: types.TokenControllerID, ObjectType: types.Data, Data: []byte("v1")}
	effects := []types.ObjectEffect{
		{ObjectID: id, AfterImage: created},
		{ObjectID: id, BeforeImage: created, AfterImage: nil},
	}
	got, err := DecodeEffects(EncodeEffects(effects))
	if err != nil {
		t.Fatalf("DecodeEffects: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 effects, got %d", len(got))
	}
	if !got[0].IsCreation() {
		t.Fatalf("expected first effect to be a creation")
	}
	if !got[1].IsDeletion() {
		t.Fatalf("expected second effect to be a deletion")
	}
}

func TestEncodeEffectsEmpty(t *testing.T) {
	got, err := DecodeEffects(EncodeEffects(nil))
	if err != nil {
		t.Fatalf("DecodeEffects: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no effects, got %d", len(got))
	}
}

func TestStateProofPayloadRoundTrip(t *testing.T) {
	objRoot := types.BytesToHash([]byte{0x11})
	txRoot := types.BytesToHash([]byte{0x22})
	gotObj, gotTx, gotSlot, err := DecodeStateProofPayload(EncodeStateProofPayload(objRoot, txRoot, 42))
	if err != nil {
		t.Fatalf("DecodeStateProofPayload: %v", err)
	}
	if gotObj != objRoot || gotTx != txRoot || gotSlot != 42 {
		t.Fatalf("mismatch: obj=%v tx=%v slot=%d", gotObj, gotTx, gotSlot)
	}
}

func TestSortedObjectIDs(t *testing.T) {
	a := types.BytesToObjectId([]byte{0x01})
	b := types.BytesToObjectId([]byte{0x02})
	c := types.BytesToObjectId([]byte{0x03})
	got := SortedObjectIDs([]types.ObjectId{c, a, b})
	if got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("expected ascending order, got %v", got)
	}
}

func TestReaderTruncated(t *testing.T) {
	_, err := DecodeObject([]byte{0x01, 0x02})
	if err == nil {
		t.Fatal("expected error decoding truncated object")
	}
}
