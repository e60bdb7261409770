package kernel

import (
	"crypto/ed25519"
	"testing"

	"github.com/units-io/units/core/codec"
	"github.com/units-io/units/core/types"
)

func createParams(owner, recovery ed25519.PublicKey) []byte {
	w := codec.NewWriter(64)
	var ownerFixed, recoveryFixed [ed25519.PublicKeySize]byte
	copy(ownerFixed[:], owner)
	copy(recoveryFixed[:], recovery)
	w.PutFixed(ownerFixed[:])
	w.PutFixed(recoveryFixed[:])
	return w.Bytes()
}

func rotateParams(newKey ed25519.PublicKey, sig []byte) []byte {
	w := codec.NewWriter(128)
	var keyFixed [ed25519.PublicKeySize]byte
	copy(keyFixed[:], newKey)
	w.PutFixed(keyFixed[:])
	w.PutFixed(sig)
	return w.Bytes()
}

func TestAccountCreate(t *testing.T) {
	ownerPub, _, _ := ed25519.GenerateKey(nil)
	acctID := types.BytesToObjectId([]byte("acct"))
	obj := &types.Object{ID: acctID, ControllerID: acctID, ObjectType: types.Executable}

	mod := NewAccountModule()
	ctx := &types.ExecutionContext{
		Instruction: types.Instruction{ControllerID: acctID, TargetFunction: FuncCreate, TargetObjects: []types.ObjectId{acctID}, Params: createParams(ownerPub, nil)},
		Objects:     map[types.ObjectId]*types.Object{acctID: obj},
	}
	effects, fault := mod.Invoke(ctx)
	if fault != nil {
		t.Fatalf("create: %v", fault)
	}
	st, err := decodeAccountState(effects[0].AfterImage.Data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.OwnerPubKey.Equal(ownerPub) {
		t.Fatal("owner key mismatch after create")
	}
	if st.RecoveryPubKey != nil {
		t.Fatal("expected no recovery key")
	}
}

func TestAccountUpdateKey(t *testing.T) {
	ownerPub, ownerPriv, _ := ed25519.GenerateKey(nil)
	newPub, _, _ := ed25519.GenerateKey(nil)
	acctID := types.BytesToObjectId([]byte("acct"))
	obj := &types.Object{
		ID: acctID, ControllerID: acctID, ObjectType: types.Executable,
		Data: encodeAccountState(&accountState{OwnerPubKey: ownerPub}),
	}

	sig := ed25519.Sign(ownerPriv, newPub)
	mod := NewAccountModule()
	ctx := &types.ExecutionContext{
		Instruction: types.Instruction{ControllerID: acctID, TargetFunction: FuncUpdateKey, TargetObjects: []types.ObjectId{acctID}, Params: rotateParams(newPub, sig)},
		Objects:     map[types.ObjectId]*types.Object{acctID: obj},
	}
	effects, fault := mod.Invoke(ctx)
	if fault != nil {
		t.Fatalf("update_key: %v", fault)
	}
	st, _ := decodeAccountState(effects[0].AfterImage.Data)
	if !st.OwnerPubKey.Equal(newPub) {
		t.Fatal("owner key was not rotated")
	}
}

func TestAccountUpdateKeyBadSignatureRejected(t *testing.T) {
	ownerPub, _, _ := ed25519.GenerateKey(nil)
	newPub, otherPriv, _ := ed25519.GenerateKey(nil)
	acctID := types.BytesToObjectId([]byte("acct"))
	obj := &types.Object{
		ID: acctID, ControllerID: acctID, ObjectType: types.Executable,
		Data: encodeAccountState(&accountState{OwnerPubKey: ownerPub}),
	}

	badSig := ed25519.Sign(otherPriv, newPub) // signed by the wrong key
	mod := NewAccountModule()
	ctx := &types.ExecutionContext{
		Instruction: types.Instruction{ControllerID: acctID, TargetFunction: FuncUpdateKey, TargetObjects: []types.ObjectId{acctID}, Params: rotateParams(newPub, badSig)},
		Objects:     map[types.ObjectId]*types.Object{acctID: obj},
	}
	_, fault := mod.Invoke(ctx)
	if fault == nil || fault.Code != types.KernelUnauthorized {
		t.Fatalf("expected Unauthorized, got %v", fault)
	}
}

func TestAccountRecover(t *testing.T) {
	ownerPub, _, _ := ed25519.GenerateKey(nil)
	recoveryPub, recoveryPriv, _ := ed25519.GenerateKey(nil)
	newPub, _, _ := ed25519.GenerateKey(nil)
	acctID := types.BytesToObjectId([]byte("acct"))
	obj := &types.Object{
		ID: acctID, ControllerID: acctID, ObjectType: types.Executable,
		Data: encodeAccountState(&accountState{OwnerPubKey: ownerPub, RecoveryPubKey: recoveryPub}),
	}

	sig := ed25519.Sign(recoveryPriv, newPub)
	mod := NewAccountModule()
	ctx := &types.ExecutionContext{
		Instruction: types.Instruction{ControllerID: acctID, TargetFunction: FuncRecover, TargetObjects: []types.ObjectId{acctID}, Params: rotateParams(newPub, sig)},
		Objects:     map[types.ObjectId]*types.Object{acctID: obj},
	}
	effects, fault := mod.Invoke(ctx)
	if fault != nil {
		t.Fatalf("recover: %v", fault)
	}
	st, _ := decodeAccountState(effects[0].AfterImage.Data)
	if !st.OwnerPubKey.Equal(newPub) {
		t.Fatal("owner key was not replaced by recovery")
	}
}

func TestAccountRecoverWithoutRecoveryKeyConfigured(t *testing.T) {
	ownerPub, _, _ := ed25519.GenerateKey(nil)
	newPub, newPriv, _ := ed25519.GenerateKey(nil)
	acctID := types.BytesToObjectId([]byte("acct"))
	obj := &types.Object{
		ID: acctID, ControllerID: acctID, ObjectType: types.Executable,
		Data: encodeAccountState(&accountState{OwnerPubKey: ownerPub}),
	}

	sig := ed25519.Sign(newPriv, newPub)
	mod := NewAccountModule()
	ctx := &types.ExecutionContext{
		Instruction: types.Instruction{ControllerID: acctID, TargetFunction: FuncRecover, TargetObjects: []types.ObjectId{acctID}, Params: rotateParams(newPub, sig)},
		Objects:     map[types.ObjectId]*types.Object{acctID: obj},
	}
	_, fault := mod.Invoke(ctx)
	if fault == nil || fault.Code != types.KernelUnauthorized {
		t.Fatalf("expected Unauthorized, got %v", fault)
	}
}
