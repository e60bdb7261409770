package kernel

import (
	"math"
	"testing"

	"github.com/units-io/units/core/codec"
	"github.com/units-io/units/core/types"
)

func newToken(id types.ObjectId, supply uint64, frozen bool) *types.Object {
	return &types.Object{
		ID:           id,
		ControllerID: id,
		ObjectType:   types.Executable,
		Data:         encodeTokenState(&tokenState{TotalSupply: supply, Decimals: 18, Symbol: "TEST", Frozen: frozen}),
	}
}

func newBalance(id, controller types.ObjectId, amount uint64) *types.Object {
	return &types.Object{
		ID:           id,
		ControllerID: controller,
		ObjectType:   types.Data,
		Data:         encodeBalanceState(&balanceState{Owner: id, Amount: amount, Allowances: map[types.ObjectId]uint64{}}),
	}
}

func amountParams(v uint64) []byte {
	w := codec.NewWriter(8)
	w.PutUint64(v)
	return w.Bytes()
}

func tokenFixture(t *testing.T, supply uint64, aliceAmt, bobAmt uint64, frozen bool) (types.ObjectId, types.ObjectId, types.ObjectId, map[types.ObjectId]*types.Object) {
	t.Helper()
	tokenID := types.BytesToObjectId([]byte("token"))
	aliceID := types.BytesToObjectId([]byte("alice"))
	bobID := types.BytesToObjectId([]byte("bob"))
	objs := map[types.ObjectId]*types.Object{
		tokenID: newToken(tokenID, supply, frozen),
		aliceID: newBalance(aliceID, tokenID, aliceAmt),
		bobID:   newBalance(bobID, tokenID, bobAmt),
	}
	return tokenID, aliceID, bobID, objs
}

func TestTokenLifecycle(t *testing.T) {
	tokenID, aliceID, bobID, objs := tokenFixture(t, 1_000_000, 1_000_000, 0, false)
	mod := NewTokenModule()

	invoke := func(fn string, targets []types.ObjectId, params []byte) []types.ObjectEffect {
		ctx := &types.ExecutionContext{
			Instruction: types.Instruction{ControllerID: tokenID, TargetFunction: fn, TargetObjects: targets, Params: params},
			Objects:     objs,
		}
		effects, fault := mod.Invoke(ctx)
		if fault != nil {
			t.Fatalf("%s: %v", fn, fault)
		}
		for _, e := range effects {
			objs[e.ObjectID] = e.AfterImage
		}
		return effects
	}

	invoke(FuncTransfer, []types.ObjectId{tokenID, aliceID, bobID}, amountParams(100_000))
	assertBalance(t, objs[aliceID], 900_000)
	assertBalance(t, objs[bobID], 100_000)

	invoke(FuncMint, []types.ObjectId{tokenID, aliceID}, amountParams(500_000))
	assertSupply(t, objs[tokenID], 1_500_000)
	assertBalance(t, objs[aliceID], 1_400_000)

	invoke(FuncFreeze, []types.ObjectId{tokenID}, nil)
	ctx := &types.ExecutionContext{
		Instruction: types.Instruction{ControllerID: tokenID, TargetFunction: FuncTransfer, TargetObjects: []types.ObjectId{tokenID, aliceID, bobID}, Params: amountParams(50_000)},
		Objects:     objs,
	}
	_, fault := mod.Invoke(ctx)
	if fault == nil || fault.Code != types.KernelTokenFrozen {
		t.Fatalf("expected TokenFrozen, got %v", fault)
	}

	invoke(FuncUnfreeze, []types.ObjectId{tokenID}, nil)
	invoke(FuncBurn, []types.ObjectId{tokenID, bobID}, amountParams(50_000))
	assertSupply(t, objs[tokenID], 1_450_000)
	assertBalance(t, objs[bobID], 50_000)
}

func TestTokenInsufficientBalance(t *testing.T) {
	tokenID, aliceID, bobID, objs := tokenFixture(t, 100, 100, 0, false)
	mod := NewTokenModule()
	ctx := &types.ExecutionContext{
		Instruction: types.Instruction{ControllerID: tokenID, TargetFunction: FuncTransfer, TargetObjects: []types.ObjectId{tokenID, aliceID, bobID}, Params: amountParams(200)},
		Objects:     objs,
	}
	_, fault := mod.Invoke(ctx)
	if fault == nil || fault.Code != types.KernelInsufficientBalance {
		t.Fatalf("expected InsufficientBalance, got %v", fault)
	}
	assertBalance(t, objs[aliceID], 100)
	assertSupply(t, objs[tokenID], 100)
}

func TestTokenOverflowGuard(t *testing.T) {
	tokenID, aliceID, bobID, objs := tokenFixture(t, math.MaxUint64, 100, math.MaxUint64-50, false)
	mod := NewTokenModule()
	ctx := &types.ExecutionContext{
		Instruction: types.Instruction{ControllerID: tokenID, TargetFunction: FuncTransfer, TargetObjects: []types.ObjectId{tokenID, aliceID, bobID}, Params: amountParams(100)},
		Objects:     objs,
	}
	_, fault := mod.Invoke(ctx)
	if fault == nil || fault.Code != types.KernelOverflow {
		t.Fatalf("expected Overflow, got %v", fault)
	}
	assertBalance(t, objs[aliceID], 100)
	assertBalance(t, objs[bobID], math.MaxUint64-50)
}

func TestTokenSetAllowanceAndTransferFrom(t *testing.T) {
	tokenID, aliceID, bobID, objs := tokenFixture(t, 1000, 1000, 0, false)
	spender := types.BytesToObjectId([]byte("spender"))
	mod := NewTokenModule()

	allowParams := func(spender types.ObjectId, amount uint64) []byte {
		w := codec.NewWriter(40)
		w.PutFixed(spender.Bytes())
		w.PutUint64(amount)
		return w.Bytes()
	}

	ctx := &types.ExecutionContext{
		Instruction: types.Instruction{ControllerID: tokenID, TargetFunction: FuncSetAllowance, TargetObjects: []types.ObjectId{tokenID, aliceID}, Params: allowParams(spender, 300)},
		Objects:     objs,
	}
	effects, fault := mod.Invoke(ctx)
	if fault != nil {
		t.Fatalf("set_allowance: %v", fault)
	}
	objs[aliceID] = effects[0].AfterImage

	ctx = &types.ExecutionContext{
		Instruction: types.Instruction{ControllerID: tokenID, TargetFunction: FuncTransferFrom, TargetObjects: []types.ObjectId{tokenID, aliceID, bobID}, Params: allowParams(spender, 200)},
		Objects:     objs,
	}
	effects, fault = mod.Invoke(ctx)
	if fault != nil {
		t.Fatalf("transfer_from: %v", fault)
	}
	for _, e := range effects {
		objs[e.ObjectID] = e.AfterImage
	}
	assertBalance(t, objs[aliceID], 800)
	assertBalance(t, objs[bobID], 200)

	ctx = &types.ExecutionContext{
		Instruction: types.Instruction{ControllerID: tokenID, TargetFunction: FuncTransferFrom, TargetObjects: []types.ObjectId{tokenID, aliceID, bobID}, Params: allowParams(spender, 200)},
		Objects:     objs,
	}
	_, fault = mod.Invoke(ctx)
	if fault == nil || fault.Code != types.KernelUnauthorized {
		t.Fatalf("expected Unauthorized (allowance exhausted), got %v", fault)
	}
}

func assertBalance(t *testing.T, obj *types.Object, want uint64) {
	t.Helper()
	st, err := decodeBalanceState(obj.Data)
	if err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if st.Amount != want {
		t.Fatalf("balance = %d, want %d", st.Amount, want)
	}
}

func assertSupply(t *testing.T, obj *types.Object, want uint64) {
	t.Helper()
	st, err := decodeTokenState(obj.Data)
	if err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if st.TotalSupply != want {
		t.Fatalf("total_supply = %d, want %d", st.TotalSupply, want)
	}
}
