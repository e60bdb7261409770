package kernel

import (
	"github.com/units-io/units/core/codec"
	"github.com/units-io/units/core/types"
)

// tokenState is the decoded form of a token's metadata Data object: the
// global supply/metadata record for one token, per spec.md seed test 1.
type tokenState struct {
	TotalSupply uint64
	Decimals    uint8
	Symbol      string
	Frozen      bool
}

func encodeTokenState(s *tokenState) []byte {
	w := codec.NewWriter(32)
	w.PutUint64(s.TotalSupply)
	w.PutUint8(s.Decimals)
	w.PutBytes([]byte(s.Symbol))
	w.PutBool(s.Frozen)
	return w.Bytes()
}

func decodeTokenState(b []byte) (*tokenState, error) {
	r := codec.NewReader(b)
	supply, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	decimals, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	symbol, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	frozen, err := r.Bool()
	if err != nil {
		return nil, err
	}
	return &tokenState{
		TotalSupply: supply,
		Decimals:    decimals,
		Symbol:      string(symbol),
		Frozen:      frozen,
	}, nil
}

// balanceState is the decoded form of a balance object's data: the amount
// held by one account for one token, plus any delegated spending allowances
// (§4.11's SetAllowance/TransferFrom).
type balanceState struct {
	Owner      types.ObjectId
	Amount     uint64
	Allowances map[types.ObjectId]uint64
}

func encodeBalanceState(s *balanceState) []byte {
	w := codec.NewWriter(64)
	w.PutFixed(s.Owner.Bytes())
	w.PutUint64(s.Amount)
	ids := codec.SortedObjectIDs(allowanceKeys(s.Allowances))
	w.PutUint32(uint32(len(ids)))
	for _, id := range ids {
		w.PutFixed(id.Bytes())
		w.PutUint64(s.Allowances[id])
	}
	return w.Bytes()
}

func decodeBalanceState(b []byte) (*balanceState, error) {
	r := codec.NewReader(b)
	ownerB, err := r.Fixed(types.ObjectIdLength)
	if err != nil {
		return nil, err
	}
	amount, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	allowances := make(map[types.ObjectId]uint64, n)
	for i := uint32(0); i < n; i++ {
		idB, err := r.Fixed(types.ObjectIdLength)
		if err != nil {
			return nil, err
		}
		v, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		allowances[types.BytesToObjectId(idB)] = v
	}
	return &balanceState{
		Owner:      types.BytesToObjectId(ownerB),
		Amount:     amount,
		Allowances: allowances,
	}, nil
}

// BalanceAmount decodes the token amount held by a balance object, for
// callers outside this package (the service facade, RPC layer, tests) that
// need to read a balance without taking a dependency on this package's
// unexported wire representation.
func BalanceAmount(obj *types.Object) (uint64, error) {
	st, err := decodeBalanceState(obj.Data)
	if err != nil {
		return 0, err
	}
	return st.Amount, nil
}

// TokenSupply decodes the total supply recorded on a token's metadata Data
// object, for the same external-inspection use case as BalanceAmount.
func TokenSupply(obj *types.Object) (uint64, error) {
	st, err := decodeTokenState(obj.Data)
	if err != nil {
		return 0, err
	}
	return st.TotalSupply, nil
}

// NewTokenData encodes a fresh token metadata payload, for bootstrapping a
// token's Data object outside this package (admin object creation, tests).
func NewTokenData(totalSupply uint64, decimals uint8, symbol string, frozen bool) []byte {
	return encodeTokenState(&tokenState{
		TotalSupply: totalSupply,
		Decimals:    decimals,
		Symbol:      symbol,
		Frozen:      frozen,
	})
}

// NewBalanceData encodes a fresh balance payload with no allowances, for
// bootstrapping a balance object outside this package.
func NewBalanceData(owner types.ObjectId, amount uint64) []byte {
	return encodeBalanceState(&balanceState{Owner: owner, Amount: amount})
}

func allowanceKeys(m map[types.ObjectId]uint64) []types.ObjectId {
	ids := make([]types.ObjectId, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}
