package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/units-io/units/core/codec"
	"github.com/units-io/units/core/rawdb"
	"github.com/units-io/units/core/types"
	"github.com/units-io/units/executor"
	"github.com/units-io/units/kernel"
	"github.com/units-io/units/node"
	"github.com/units-io/units/riscv"
	"github.com/units-io/units/scheduler"
)

func nativeModuleData(id kernel.ModuleID) []byte {
	data := make([]byte, 0, 4+len(id))
	data = append(data, kernel.Magic[:]...)
	data = append(data, id[:]...)
	return data
}

func amountParams(v uint64) []byte {
	w := codec.NewWriter(8)
	w.PutUint64(v)
	return w.Bytes()
}

func newTestService(t *testing.T) (*Service, types.ObjectId, types.ObjectId) {
	t.Helper()
	store := rawdb.NewMemoryStore()
	wal := rawdb.NewMemoryWAL()
	locks := rawdb.NewLockManager()
	registry := kernel.NewDefaultRegistry()
	host := riscv.NewHost(riscv.DefaultConfig())
	recent := executor.NewRecentSet(64)
	ex := executor.New(store, locks, wal, store, registry, host, recent)

	tokenID := types.BytesToObjectId([]byte("token"))
	tokenMetaID := types.BytesToObjectId([]byte("token-meta"))
	aliceID := types.BytesToObjectId([]byte("alice"))

	bootstrap := func(o *types.Object) {
		if _, err := store.Set(o, 0, nil); err != nil {
			t.Fatalf("bootstrap %v: %v", o.ID, err)
		}
	}
	bootstrap(&types.Object{ID: tokenID, ControllerID: tokenID, ObjectType: types.Executable, Data: nativeModuleData(kernel.TokenModuleID)})
	bootstrap(&types.Object{ID: tokenMetaID, ControllerID: tokenID, ObjectType: types.Data, Data: kernel.NewTokenData(0, 0, "TKN", false)})
	bootstrap(&types.Object{ID: aliceID, ControllerID: tokenID, ObjectType: types.Data, Data: kernel.NewBalanceData(aliceID, 0)})

	bus := node.NewEventBus(16)
	pool := scheduler.NewPool(0)
	sched := scheduler.New(scheduler.Config{}, pool, ex, store, store, bus)

	svc := New(pool, sched, store, store, BuildInfo{Version: "test"})
	return svc, tokenMetaID, aliceID
}

func mintTx(tokenMetaID, to types.ObjectId, amount uint64, hash string) *types.Transaction {
	return &types.Transaction{
		Hash: types.BytesToHash([]byte(hash)),
		Instructions: []types.Instruction{
			{ControllerID: types.BytesToObjectId([]byte("token")), TargetFunction: kernel.FuncMint, TargetObjects: []types.ObjectId{tokenMetaID, to}, Params: amountParams(amount)},
		},
	}
}

func TestSubmitTransactionRejectsEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.SubmitTransaction(&types.Transaction{Hash: types.BytesToHash([]byte("empty"))}); err != ErrEmptyTransaction {
		t.Fatalf("expected ErrEmptyTransaction, got %v", err)
	}
}

func TestSubmitTransactionThenAdvanceProducesReceipt(t *testing.T) {
	svc, tokenMetaID, aliceID := newTestService(t)
	tx := mintTx(tokenMetaID, aliceID, 100, "mint-1")

	hash, err := svc.SubmitTransaction(tx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if hash != tx.Hash {
		t.Fatalf("returned hash %v, want %v", hash, tx.Hash)
	}

	got, err := svc.GetTransaction(hash)
	if err != nil || got.Hash != tx.Hash {
		t.Fatalf("get transaction: got=%v err=%v", got, err)
	}

	if _, err := svc.AdvanceSlot(); err != nil {
		t.Fatalf("advance: %v", err)
	}

	receipt, err := svc.GetTransactionReceipt(hash)
	if err != nil {
		t.Fatalf("get receipt: %v", err)
	}
	if !receipt.Success {
		t.Fatalf("receipt not successful: %s", receipt.ErrorMessage)
	}

	obj, err := svc.GetObject(aliceID)
	if err != nil {
		t.Fatalf("get object: %v", err)
	}
	amt, err := kernel.BalanceAmount(obj)
	if err != nil || amt != 100 {
		t.Fatalf("alice balance = %d, err=%v, want 100", amt, err)
	}
}

func TestGetObjectNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.GetObject(types.BytesToObjectId([]byte("nope"))); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTransactionReceiptNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.GetTransactionReceipt(types.BytesToHash([]byte("nope"))); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateObjectBootstrapsWithGeneratedID(t *testing.T) {
	svc, _, _ := newTestService(t)
	controllerID := types.BytesToObjectId([]byte("new-controller"))
	obj, err := svc.CreateObject(types.ObjectId{}, controllerID, types.Data, types.VMTypeNone, []byte("hello"))
	require.NoError(t, err)
	require.False(t, obj.ID.IsZero(), "expected a non-zero generated id")

	fetched, err := svc.GetObject(obj.ID)
	require.NoError(t, err)
	require.True(t, fetched.Equal(obj), "fetched object does not match created object")
}

func TestCreateObjectWithExplicitID(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := types.BytesToObjectId([]byte("explicit"))
	controllerID := types.BytesToObjectId([]byte("new-controller"))
	obj, err := svc.CreateObject(id, controllerID, types.Executable, types.VMTypeRiscV, []byte{0x01})
	if err != nil {
		t.Fatalf("create object: %v", err)
	}
	if obj.ID != id {
		t.Fatalf("id = %v, want %v", obj.ID, id)
	}
}

func TestHealthAndVersion(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := svc.Health()
	if h.Status != "ok" || h.Slot != 0 {
		t.Fatalf("unexpected health: %+v", h)
	}
	if svc.Version().Version != "test" {
		t.Fatalf("unexpected version: %+v", svc.Version())
	}
}

func TestSubmitTransactionPoolFull(t *testing.T) {
	store := rawdb.NewMemoryStore()
	wal := rawdb.NewMemoryWAL()
	locks := rawdb.NewLockManager()
	registry := kernel.NewDefaultRegistry()
	host := riscv.NewHost(riscv.DefaultConfig())
	recent := executor.NewRecentSet(64)
	ex := executor.New(store, locks, wal, store, registry, host, recent)
	bus := node.NewEventBus(16)
	pool := scheduler.NewPool(1)
	sched := scheduler.New(scheduler.Config{}, pool, ex, store, store, bus)
	svc := New(pool, sched, store, store, BuildInfo{})

	tx1 := &types.Transaction{Hash: types.BytesToHash([]byte("a")), Instructions: []types.Instruction{{TargetObjects: []types.ObjectId{types.BytesToObjectId([]byte("x"))}}}}
	tx2 := &types.Transaction{Hash: types.BytesToHash([]byte("b")), Instructions: []types.Instruction{{TargetObjects: []types.ObjectId{types.BytesToObjectId([]byte("y"))}}}}

	if _, err := svc.SubmitTransaction(tx1); err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if _, err := svc.SubmitTransaction(tx2); err != ErrPoolFull {
		t.Fatalf("expected ErrPoolFull, got %v", err)
	}
}
