package kernel

import (
	"crypto/ed25519"

	"github.com/units-io/units/core/codec"
	"github.com/units-io/units/core/types"
)

// Account function names, matched against Instruction.TargetFunction.
const (
	FuncCreate    = "create"
	FuncUpdateKey = "update_key"
	FuncRecover   = "recover"
)

// accountState is the decoded form of an account object's data: its
// current owner key and an optional separate recovery key, per §4.10.
type accountState struct {
	OwnerPubKey    ed25519.PublicKey
	RecoveryPubKey ed25519.PublicKey // nil if none was set at creation
}

func encodeAccountState(s *accountState) []byte {
	w := codec.NewWriter(96)
	w.PutBytes(s.OwnerPubKey)
	w.PutBytes(s.RecoveryPubKey)
	return w.Bytes()
}

func decodeAccountState(b []byte) (*accountState, error) {
	r := codec.NewReader(b)
	owner, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	recovery, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	s := &accountState{OwnerPubKey: ed25519.PublicKey(owner)}
	if len(recovery) > 0 {
		s.RecoveryPubKey = ed25519.PublicKey(recovery)
	}
	return s, nil
}

// AccountModule is the native reference implementation of the Account
// controller (§4.10): create, key rotation, and recovery, all
// Ed25519-verified. RSA/ECDSA/TOTP are not implemented — they were
// unfinished stubs in the source this was distilled from.
//
// As with TokenModule, "account" below means the Data object holding
// accountState, not the Executable controller dispatching to this module —
// one AccountModuleID controller services any number of accounts.
//
// Target object conventions:
//
//	create      [account]          params: owner_pubkey(32) recovery_pubkey(32, all-zero if none)
//	update_key  [account]          params: new_pubkey(32) signature(64) over new_pubkey, verified against current owner key
//	recover     [account]          params: new_pubkey(32) signature(64) over new_pubkey, verified against the recovery key
type AccountModule struct{}

// NewAccountModule constructs an AccountModule.
func NewAccountModule() *AccountModule { return &AccountModule{} }

func (m *AccountModule) Invoke(ctx *types.ExecutionContext) ([]types.ObjectEffect, *types.KernelFault) {
	switch ctx.Instruction.TargetFunction {
	case FuncCreate:
		return m.create(ctx)
	case FuncUpdateKey:
		return m.updateKey(ctx)
	case FuncRecover:
		return m.recover(ctx)
	default:
		return nil, types.NewKernelFault(types.KernelInvalidFunction, ctx.Instruction.TargetFunction)
	}
}

func (m *AccountModule) create(ctx *types.ExecutionContext) ([]types.ObjectEffect, *types.KernelFault) {
	targets := ctx.Instruction.TargetObjects
	if len(targets) != 1 {
		return nil, types.NewKernelFault(types.KernelInvalidParams, "create requires [account]")
	}
	obj, ok := ctx.Objects[targets[0]]
	if !ok {
		return nil, types.NewKernelFault(types.KernelObjectNotFound, targets[0].Hex())
	}

	r := codec.NewReader(ctx.Instruction.Params)
	owner, err := r.Fixed(ed25519.PublicKeySize)
	if err != nil {
		return nil, types.NewKernelFault(types.KernelInvalidParams, err.Error())
	}
	recovery, err := r.Fixed(ed25519.PublicKeySize)
	if err != nil {
		return nil, types.NewKernelFault(types.KernelInvalidParams, err.Error())
	}

	st := &accountState{OwnerPubKey: ed25519.PublicKey(owner)}
	if !isZero(recovery) {
		st.RecoveryPubKey = ed25519.PublicKey(recovery)
	}

	after := obj.Clone()
	after.Data = encodeAccountState(st)
	after.ControllerID = ctx.Instruction.ControllerID
	return []types.ObjectEffect{
		{ObjectID: obj.ID, BeforeImage: obj.Clone(), AfterImage: after},
	}, nil
}

func (m *AccountModule) updateKey(ctx *types.ExecutionContext) ([]types.ObjectEffect, *types.KernelFault) {
	return m.rotate(ctx, func(st *accountState) ed25519.PublicKey { return st.OwnerPubKey })
}

func (m *AccountModule) recover(ctx *types.ExecutionContext) ([]types.ObjectEffect, *types.KernelFault) {
	return m.rotate(ctx, func(st *accountState) ed25519.PublicKey { return st.RecoveryPubKey })
}

// rotate verifies params' signature over the new key against whichever key
// verifyingKey selects from the current state, then installs the new key
// as the account's owner key.
func (m *AccountModule) rotate(ctx *types.ExecutionContext, verifyingKey func(*accountState) ed25519.PublicKey) ([]types.ObjectEffect, *types.KernelFault) {
	targets := ctx.Instruction.TargetObjects
	if len(targets) != 1 {
		return nil, types.NewKernelFault(types.KernelInvalidParams, "requires [account]")
	}
	obj, ok := ctx.Objects[targets[0]]
	if !ok {
		return nil, types.NewKernelFault(types.KernelObjectNotFound, targets[0].Hex())
	}
	st, err := decodeAccountState(obj.Data)
	if err != nil {
		return nil, types.NewKernelFault(types.KernelInvalidData, err.Error())
	}

	r := codec.NewReader(ctx.Instruction.Params)
	newKey, err := r.Fixed(ed25519.PublicKeySize)
	if err != nil {
		return nil, types.NewKernelFault(types.KernelInvalidParams, err.Error())
	}
	sig, err := r.Fixed(ed25519.SignatureSize)
	if err != nil {
		return nil, types.NewKernelFault(types.KernelInvalidParams, err.Error())
	}

	key := verifyingKey(st)
	if len(key) != ed25519.PublicKeySize {
		return nil, types.NewKernelFault(types.KernelUnauthorized, "no recovery key configured")
	}
	if !ed25519.Verify(key, newKey, sig) {
		return nil, types.NewKernelFault(types.KernelUnauthorized, "signature verification failed")
	}

	st.OwnerPubKey = ed25519.PublicKey(newKey)
	after := obj.Clone()
	after.Data = encodeAccountState(st)
	after.ControllerID = ctx.Instruction.ControllerID
	return []types.ObjectEffect{
		{ObjectID: obj.ID, BeforeImage: obj.Clone(), AfterImage: after},
	}, nil
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
