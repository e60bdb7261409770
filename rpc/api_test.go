package rpc

import (
	"encoding/json"
	"testing"

	"github.com/units-io/units/core/codec"
	"github.com/units-io/units/core/rawdb"
	"github.com/units-io/units/core/types"
	"github.com/units-io/units/executor"
	"github.com/units-io/units/kernel"
	"github.com/units-io/units/node"
	"github.com/units-io/units/riscv"
	"github.com/units-io/units/scheduler"
	"github.com/units-io/units/service"
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

func newTestAPI(t *testing.T) (*API, types.ObjectId, types.ObjectId) {
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
	svc := service.New(pool, sched, store, store, service.BuildInfo{Version: "test"})

	return NewAPI(svc), tokenMetaID, aliceID
}

func rawJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func callRPC(t *testing.T, api *API, method string, params ...interface{}) *Response {
	t.Helper()
	req := &Request{JSONRPC: "2.0", Method: method, ID: rawJSON(t, 1)}
	for _, p := range params {
		req.Params = append(req.Params, rawJSON(t, p))
	}
	return api.HandleRequest(req)
}

func TestHandleRequestUnknownMethod(t *testing.T) {
	api, _, _ := newTestAPI(t)
	resp := callRPC(t, api, "unknown_method")
	if resp.Error == nil || resp.Error.Code != ErrCodeMethodNotFound {
		t.Fatalf("expected ErrCodeMethodNotFound, got %+v", resp.Error)
	}
}

func TestHealthAndVersionAndCurrentSlot(t *testing.T) {
	api, _, _ := newTestAPI(t)

	resp := callRPC(t, api, "health")
	if resp.Error != nil {
		t.Fatalf("health: %v", resp.Error)
	}

	resp = callRPC(t, api, "version")
	if resp.Error != nil {
		t.Fatalf("version: %v", resp.Error)
	}

	resp = callRPC(t, api, "get_current_slot")
	if resp.Error != nil {
		t.Fatalf("get_current_slot: %v", resp.Error)
	}
	if resp.Result.(uint64) != 0 {
		t.Fatalf("current slot = %v, want 0", resp.Result)
	}
}

func TestGetObjectNotFoundMapsToNotFoundCode(t *testing.T) {
	api, _, _ := newTestAPI(t)
	missing := types.BytesToObjectId([]byte("missing")).Hex()
	resp := callRPC(t, api, "get_object", missing)
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Fatalf("expected ErrCodeNotFound, got %+v", resp.Error)
	}
}

func TestGetObjectInvalidIDRejected(t *testing.T) {
	api, _, _ := newTestAPI(t)
	resp := callRPC(t, api, "get_object", "not-64-hex-chars")
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidParams {
		t.Fatalf("expected ErrCodeInvalidParams, got %+v", resp.Error)
	}
}

func TestSubmitTransactionThenAdvanceThenReceipt(t *testing.T) {
	api, tokenMetaID, aliceID := newTestAPI(t)

	tx := TransactionView{
		Hash: types.BytesToHash([]byte("mint-1")).Hex(),
		Instructions: []InstructionView{{
			ControllerID:   types.BytesToObjectId([]byte("token")).Hex(),
			TargetFunction: kernel.FuncMint,
			TargetObjects:  []string{tokenMetaID.Hex(), aliceID.Hex()},
			Params:         hexEncode(amountParams(250)),
		}},
	}

	resp := callRPC(t, api, "submit_transaction", tx)
	if resp.Error != nil {
		t.Fatalf("submit_transaction: %v", resp.Error)
	}
	hash := resp.Result.(string)
	if hash != tx.Hash {
		t.Fatalf("hash = %s, want %s", hash, tx.Hash)
	}

	resp = callRPC(t, api, "get_transaction", hash)
	if resp.Error != nil {
		t.Fatalf("get_transaction: %v", resp.Error)
	}

	resp = callRPC(t, api, "advance_slot")
	if resp.Error != nil {
		t.Fatalf("advance_slot: %v", resp.Error)
	}

	resp = callRPC(t, api, "get_transaction_receipt", hash)
	if resp.Error != nil {
		t.Fatalf("get_transaction_receipt: %v", resp.Error)
	}
	view := resp.Result.(*ReceiptView)
	if !view.Success {
		t.Fatalf("receipt not successful: %s", view.ErrorMessage)
	}

	resp = callRPC(t, api, "get_object", aliceID.Hex())
	if resp.Error != nil {
		t.Fatalf("get_object: %v", resp.Error)
	}
}

func TestSubmitTransactionEmptyRejected(t *testing.T) {
	api, _, _ := newTestAPI(t)
	tx := TransactionView{Hash: types.BytesToHash([]byte("empty")).Hex()}
	resp := callRPC(t, api, "submit_transaction", tx)
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidRequest {
		t.Fatalf("expected ErrCodeInvalidRequest, got %+v", resp.Error)
	}
}

func TestSubmitTransactionMissingParamsRejected(t *testing.T) {
	api, _, _ := newTestAPI(t)
	resp := callRPC(t, api, "submit_transaction")
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidParams {
		t.Fatalf("expected ErrCodeInvalidParams, got %+v", resp.Error)
	}
}
