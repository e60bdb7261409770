package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/units-io/units/core/types"
	"github.com/units-io/units/log"
	"github.com/units-io/units/metrics"
	"github.com/units-io/units/service"
)

var rpcLog = log.Default().Module("rpc")

// API implements the eight JSON-RPC methods of §6 by dispatching onto a
// service.Service.
type API struct {
	svc *service.Service
}

// NewAPI constructs an API over svc.
func NewAPI(svc *service.Service) *API {
	return &API{svc: svc}
}

// HandleRequest dispatches req to the matching method, in the same
// switch-by-method-name style as the teacher's EthAPI.HandleRequest.
func (api *API) HandleRequest(req *Request) *Response {
	metrics.RPCRequests.Inc()
	timer := metrics.NewTimer(metrics.RPCLatency)
	defer timer.Stop()

	resp := api.dispatch(req)
	if resp.Error != nil {
		metrics.RPCErrors.Inc()
		rpcLog.Debug("request failed", "method", req.Method, "code", resp.Error.Code, "message", resp.Error.Message)
	}
	return resp
}

func (api *API) dispatch(req *Request) *Response {
	switch req.Method {
	case "submit_transaction":
		return api.submitTransaction(req)
	case "get_object":
		return api.getObject(req)
	case "get_transaction":
		return api.getTransaction(req)
	case "get_transaction_receipt":
		return api.getTransactionReceipt(req)
	case "get_current_slot":
		return api.getCurrentSlot(req)
	case "advance_slot":
		return api.advanceSlot(req)
	case "health":
		return api.health(req)
	case "version":
		return api.version(req)
	default:
		return errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

func (api *API) submitTransaction(req *Request) *Response {
	if len(req.Params) < 1 {
		return errorResponse(req.ID, ErrCodeInvalidParams, "missing transaction parameter")
	}
	var view TransactionView
	if err := json.Unmarshal(req.Params[0], &view); err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	tx, err := txFromView(&view)
	if err != nil {
		return errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}

	hash, err := api.svc.SubmitTransaction(tx)
	if err != nil {
		return mapServiceError(req.ID, err)
	}
	return successResponse(req.ID, hash.Hex())
}

func (api *API) getObject(req *Request) *Response {
	id, errResp := paramObjectID(req, 0)
	if errResp != nil {
		return errResp
	}
	obj, err := api.svc.GetObject(id)
	if err != nil {
		return mapServiceError(req.ID, err)
	}
	return successResponse(req.ID, objectToView(obj))
}

func (api *API) getTransaction(req *Request) *Response {
	hash, errResp := paramHash(req, 0)
	if errResp != nil {
		return errResp
	}
	tx, err := api.svc.GetTransaction(hash)
	if err != nil {
		return mapServiceError(req.ID, err)
	}
	return successResponse(req.ID, transactionToView(tx))
}

func (api *API) getTransactionReceipt(req *Request) *Response {
	hash, errResp := paramHash(req, 0)
	if errResp != nil {
		return errResp
	}
	r, err := api.svc.GetTransactionReceipt(hash)
	if err != nil {
		return mapServiceError(req.ID, err)
	}
	return successResponse(req.ID, receiptToView(r))
}

func (api *API) getCurrentSlot(req *Request) *Response {
	return successResponse(req.ID, api.svc.GetCurrentSlot())
}

func (api *API) advanceSlot(req *Request) *Response {
	slot, err := api.svc.AdvanceSlot()
	if err != nil {
		return mapServiceError(req.ID, err)
	}
	return successResponse(req.ID, slot)
}

func (api *API) health(req *Request) *Response {
	h := api.svc.Health()
	return successResponse(req.ID, HealthView{Status: h.Status, Slot: h.Slot})
}

func (api *API) version(req *Request) *Response {
	v := api.svc.Version()
	return successResponse(req.ID, VersionView{Version: v.Version, Commit: v.Commit, BuildTime: v.BuildTime})
}

func mapServiceError(id json.RawMessage, err error) *Response {
	switch err {
	case service.ErrNotFound:
		return errorResponse(id, ErrCodeNotFound, err.Error())
	case service.ErrEmptyTransaction:
		return errorResponse(id, ErrCodeInvalidRequest, err.Error())
	case service.ErrPoolFull:
		return errorResponse(id, ErrCodeServiceUnavailable, err.Error())
	default:
		return errorResponse(id, ErrCodeInternal, err.Error())
	}
}

func paramObjectID(req *Request, i int) (types.ObjectId, *Response) {
	if len(req.Params) <= i {
		return types.ObjectId{}, errorResponse(req.ID, ErrCodeInvalidParams, "missing id parameter")
	}
	var s string
	if err := json.Unmarshal(req.Params[i], &s); err != nil {
		return types.ObjectId{}, errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	id, err := decodeHex32(s)
	if err != nil {
		return types.ObjectId{}, errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return types.BytesToObjectId(id), nil
}

func paramHash(req *Request, i int) (types.Hash, *Response) {
	if len(req.Params) <= i {
		return types.Hash{}, errorResponse(req.ID, ErrCodeInvalidParams, "missing hash parameter")
	}
	var s string
	if err := json.Unmarshal(req.Params[i], &s); err != nil {
		return types.Hash{}, errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	b, err := decodeHex32(s)
	if err != nil {
		return types.Hash{}, errorResponse(req.ID, ErrCodeInvalidParams, err.Error())
	}
	return types.BytesToHash(b), nil
}

// decodeHex32 requires exactly 64 hex characters (32 bytes), per §6's wire
// identifier format.
func decodeHex32(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != 64 {
		return nil, fmt.Errorf("identifier must be exactly 64 hex characters, got %d", len(s))
	}
	return hex.DecodeString(s)
}
