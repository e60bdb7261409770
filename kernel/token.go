package kernel

import (
	"github.com/holiman/uint256"

	"github.com/units-io/units/core/codec"
	"github.com/units-io/units/core/types"
)

// addChecked sums a and b using 256-bit arithmetic and reports whether the
// uint64 result overflowed, since balances and total supply are stored as
// uint64 but additions must still detect wraparound before it happens.
func addChecked(a, b uint64) (uint64, bool) {
	sum := new(uint256.Int).Add(uint256.NewInt(a), uint256.NewInt(b))
	return sum.Uint64(), !sum.IsUint64()
}

// Token function names, matched against Instruction.TargetFunction.
const (
	FuncMint         = "mint"
	FuncBurn         = "burn"
	FuncTransfer     = "transfer"
	FuncFreeze       = "freeze"
	FuncUnfreeze     = "unfreeze"
	FuncSetAllowance = "set_allowance"
	FuncTransferFrom = "transfer_from"
)

// TokenModule is the native reference implementation of the Token
// controller (§4.11): mint/burn/transfer/freeze plus delegated
// allowances, carried over from the original Rust token crate.
//
// "token" in the conventions below always means the token's metadata Data
// object (total supply, decimals, symbol, frozen flag) — a plain object
// this module controls, not the Executable controller object itself. The
// controller object's own data carries only the dispatch header (§4.9);
// keeping token state in a separate object lets the same controller own
// any number of distinct tokens.
//
// Target object conventions (position is significant):
//
//	mint           [token, recipient_balance]         params: amount(u64)
//	burn           [token, holder_balance]             params: amount(u64)
//	transfer       [token, from_balance, to_balance]   params: amount(u64)
//	freeze/unfreeze [token]                            params: (none)
//	set_allowance  [token, owner_balance]              params: spender(32) amount(u64)
//	transfer_from  [token, owner_balance, to_balance]  params: spender(32) amount(u64)
type TokenModule struct{}

// NewTokenModule constructs a TokenModule.
func NewTokenModule() *TokenModule { return &TokenModule{} }

func (m *TokenModule) Invoke(ctx *types.ExecutionContext) ([]types.ObjectEffect, *types.KernelFault) {
	switch ctx.Instruction.TargetFunction {
	case FuncMint:
		return m.mint(ctx)
	case FuncBurn:
		return m.burn(ctx)
	case FuncTransfer:
		return m.transfer(ctx)
	case FuncFreeze:
		return m.setFrozen(ctx, true)
	case FuncUnfreeze:
		return m.setFrozen(ctx, false)
	case FuncSetAllowance:
		return m.setAllowance(ctx)
	case FuncTransferFrom:
		return m.transferFrom(ctx)
	default:
		return nil, types.NewKernelFault(types.KernelInvalidFunction, ctx.Instruction.TargetFunction)
	}
}

func (m *TokenModule) loadToken(ctx *types.ExecutionContext, id types.ObjectId) (*types.Object, *tokenState, *types.KernelFault) {
	obj, ok := ctx.Objects[id]
	if !ok {
		return nil, nil, types.NewKernelFault(types.KernelObjectNotFound, id.Hex())
	}
	st, err := decodeTokenState(obj.Data)
	if err != nil {
		return nil, nil, types.NewKernelFault(types.KernelInvalidData, err.Error())
	}
	return obj, st, nil
}

func (m *TokenModule) loadBalance(ctx *types.ExecutionContext, id types.ObjectId) (*types.Object, *balanceState, *types.KernelFault) {
	obj, ok := ctx.Objects[id]
	if !ok {
		return nil, nil, types.NewKernelFault(types.KernelObjectNotFound, id.Hex())
	}
	st, err := decodeBalanceState(obj.Data)
	if err != nil {
		return nil, nil, types.NewKernelFault(types.KernelInvalidData, err.Error())
	}
	return obj, st, nil
}

func (m *TokenModule) writeToken(ctx *types.ExecutionContext, obj *types.Object, st *tokenState) types.ObjectEffect {
	after := obj.Clone()
	after.Data = encodeTokenState(st)
	after.ControllerID = ctx.Instruction.ControllerID
	return types.ObjectEffect{ObjectID: obj.ID, BeforeImage: obj.Clone(), AfterImage: after}
}

func (m *TokenModule) writeBalance(ctx *types.ExecutionContext, obj *types.Object, st *balanceState) types.ObjectEffect {
	after := obj.Clone()
	after.Data = encodeBalanceState(st)
	after.ControllerID = ctx.Instruction.ControllerID
	return types.ObjectEffect{ObjectID: obj.ID, BeforeImage: obj.Clone(), AfterImage: after}
}

func (m *TokenModule) mint(ctx *types.ExecutionContext) ([]types.ObjectEffect, *types.KernelFault) {
	targets := ctx.Instruction.TargetObjects
	if len(targets) != 2 {
		return nil, types.NewKernelFault(types.KernelInvalidParams, "mint requires [token, recipient]")
	}
	amount, err := decodeAmount(ctx.Instruction.Params)
	if err != nil {
		return nil, err
	}

	tokObj, tok, ferr := m.loadToken(ctx, targets[0])
	if ferr != nil {
		return nil, ferr
	}
	if tok.Frozen {
		return nil, types.NewKernelFault(types.KernelTokenFrozen, "")
	}
	balObj, bal, ferr := m.loadBalance(ctx, targets[1])
	if ferr != nil {
		return nil, ferr
	}

	newSupply, overflow := addChecked(tok.TotalSupply, amount)
	newAmount, overflow2 := addChecked(bal.Amount, amount)
	if overflow || overflow2 {
		return nil, types.NewKernelFault(types.KernelOverflow, "")
	}
	tok.TotalSupply = newSupply
	bal.Amount = newAmount

	return []types.ObjectEffect{
		m.writeToken(ctx, tokObj, tok),
		m.writeBalance(ctx, balObj, bal),
	}, nil
}

func (m *TokenModule) burn(ctx *types.ExecutionContext) ([]types.ObjectEffect, *types.KernelFault) {
	targets := ctx.Instruction.TargetObjects
	if len(targets) != 2 {
		return nil, types.NewKernelFault(types.KernelInvalidParams, "burn requires [token, holder]")
	}
	amount, err := decodeAmount(ctx.Instruction.Params)
	if err != nil {
		return nil, err
	}

	tokObj, tok, ferr := m.loadToken(ctx, targets[0])
	if ferr != nil {
		return nil, ferr
	}
	if tok.Frozen {
		return nil, types.NewKernelFault(types.KernelTokenFrozen, "")
	}
	balObj, bal, ferr := m.loadBalance(ctx, targets[1])
	if ferr != nil {
		return nil, ferr
	}
	if bal.Amount < amount {
		return nil, types.NewKernelFault(types.KernelInsufficientBalance, "")
	}

	tok.TotalSupply -= amount
	bal.Amount -= amount

	return []types.ObjectEffect{
		m.writeToken(ctx, tokObj, tok),
		m.writeBalance(ctx, balObj, bal),
	}, nil
}

func (m *TokenModule) transfer(ctx *types.ExecutionContext) ([]types.ObjectEffect, *types.KernelFault) {
	targets := ctx.Instruction.TargetObjects
	if len(targets) != 3 {
		return nil, types.NewKernelFault(types.KernelInvalidParams, "transfer requires [token, from, to]")
	}
	amount, err := decodeAmount(ctx.Instruction.Params)
	if err != nil {
		return nil, err
	}

	_, tok, ferr := m.loadToken(ctx, targets[0])
	if ferr != nil {
		return nil, ferr
	}
	if tok.Frozen {
		return nil, types.NewKernelFault(types.KernelTokenFrozen, "")
	}

	return m.moveBalance(ctx, targets[1], targets[2], amount)
}

// moveBalance debits amount from the `from` balance and credits it to the
// `to` balance, without touching token-level state.
func (m *TokenModule) moveBalance(ctx *types.ExecutionContext, fromID, toID types.ObjectId, amount uint64) ([]types.ObjectEffect, *types.KernelFault) {
	fromObj, from, ferr := m.loadBalance(ctx, fromID)
	if ferr != nil {
		return nil, ferr
	}
	if from.Amount < amount {
		return nil, types.NewKernelFault(types.KernelInsufficientBalance, "")
	}
	toObj, to, ferr := m.loadBalance(ctx, toID)
	if ferr != nil {
		return nil, ferr
	}
	newTo, overflow := addChecked(to.Amount, amount)
	if overflow {
		return nil, types.NewKernelFault(types.KernelOverflow, "")
	}

	from.Amount -= amount
	to.Amount = newTo

	return []types.ObjectEffect{
		m.writeBalance(ctx, fromObj, from),
		m.writeBalance(ctx, toObj, to),
	}, nil
}

func (m *TokenModule) setFrozen(ctx *types.ExecutionContext, frozen bool) ([]types.ObjectEffect, *types.KernelFault) {
	targets := ctx.Instruction.TargetObjects
	if len(targets) != 1 {
		return nil, types.NewKernelFault(types.KernelInvalidParams, "freeze/unfreeze requires [token]")
	}
	tokObj, tok, ferr := m.loadToken(ctx, targets[0])
	if ferr != nil {
		return nil, ferr
	}
	tok.Frozen = frozen
	return []types.ObjectEffect{m.writeToken(ctx, tokObj, tok)}, nil
}

func (m *TokenModule) setAllowance(ctx *types.ExecutionContext) ([]types.ObjectEffect, *types.KernelFault) {
	targets := ctx.Instruction.TargetObjects
	if len(targets) != 2 {
		return nil, types.NewKernelFault(types.KernelInvalidParams, "set_allowance requires [token, owner]")
	}
	spender, amount, err := decodeSpenderAmount(ctx.Instruction.Params)
	if err != nil {
		return nil, err
	}
	ownerObj, owner, ferr := m.loadBalance(ctx, targets[1])
	if ferr != nil {
		return nil, ferr
	}
	if owner.Allowances == nil {
		owner.Allowances = make(map[types.ObjectId]uint64)
	}
	owner.Allowances[spender] = amount
	return []types.ObjectEffect{m.writeBalance(ctx, ownerObj, owner)}, nil
}

func (m *TokenModule) transferFrom(ctx *types.ExecutionContext) ([]types.ObjectEffect, *types.KernelFault) {
	targets := ctx.Instruction.TargetObjects
	if len(targets) != 3 {
		return nil, types.NewKernelFault(types.KernelInvalidParams, "transfer_from requires [token, owner, to]")
	}
	spender, amount, err := decodeSpenderAmount(ctx.Instruction.Params)
	if err != nil {
		return nil, err
	}

	_, tok, ferr := m.loadToken(ctx, targets[0])
	if ferr != nil {
		return nil, ferr
	}
	if tok.Frozen {
		return nil, types.NewKernelFault(types.KernelTokenFrozen, "")
	}

	ownerObj, owner, ferr := m.loadBalance(ctx, targets[1])
	if ferr != nil {
		return nil, ferr
	}
	allowed := owner.Allowances[spender]
	if allowed < amount {
		return nil, types.NewKernelFault(types.KernelUnauthorized, "allowance exceeded")
	}
	if owner.Amount < amount {
		return nil, types.NewKernelFault(types.KernelInsufficientBalance, "")
	}
	toObj, to, ferr := m.loadBalance(ctx, targets[2])
	if ferr != nil {
		return nil, ferr
	}
	newTo, overflow := addChecked(to.Amount, amount)
	if overflow {
		return nil, types.NewKernelFault(types.KernelOverflow, "")
	}

	owner.Amount -= amount
	owner.Allowances[spender] = allowed - amount
	to.Amount = newTo

	return []types.ObjectEffect{
		m.writeBalance(ctx, ownerObj, owner),
		m.writeBalance(ctx, toObj, to),
	}, nil
}

func decodeAmount(params []byte) (uint64, *types.KernelFault) {
	r := codec.NewReader(params)
	v, err := r.Uint64()
	if err != nil {
		return 0, types.NewKernelFault(types.KernelInvalidParams, err.Error())
	}
	return v, nil
}

func decodeSpenderAmount(params []byte) (types.ObjectId, uint64, *types.KernelFault) {
	r := codec.NewReader(params)
	idB, err := r.Fixed(types.ObjectIdLength)
	if err != nil {
		return types.ObjectId{}, 0, types.NewKernelFault(types.KernelInvalidParams, err.Error())
	}
	amount, err := r.Uint64()
	if err != nil {
		return types.ObjectId{}, 0, types.NewKernelFault(types.KernelInvalidParams, err.Error())
	}
	return types.BytesToObjectId(idB), amount, nil
}
