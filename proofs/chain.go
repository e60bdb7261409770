package proofs

import (
	"fmt"

	"github.com/units-io/units/core/types"
)

// ChainVerdict is the outcome of verifying a proof chain (§4.2).
type ChainVerdict uint8

const (
	// ChainValid means every step verified and every link matched.
	ChainValid ChainVerdict = iota
	// ChainInvalid means a step failed verification or a link's
	// prev_proof_hash didn't match — Reason explains which.
	ChainInvalid
	// ChainMissingData means a requested slot had no corresponding proof.
	ChainMissingData
)

// ChainResult reports a proof chain verification outcome.
type ChainResult struct {
	Verdict ChainVerdict
	Reason  string
}

// SlotObject pairs a slot with the object state recorded at it, the input
// shape VerifyProofChain consumes alongside the matching proof sequence.
type SlotObject struct {
	Slot   uint64
	Object *types.Object
}

// VerifyProofChain checks that every (slot, object) pair has a
// corresponding proof at the same slot, that each proof individually
// verifies, and that consecutive proofs link via prev_proof_hash (§4.2).
func VerifyProofChain(objs []SlotObject, chain []*types.ObjectProof) ChainResult {
	bySlot := make(map[uint64]*types.ObjectProof, len(chain))
	for _, p := range chain {
		bySlot[p.Slot] = p
	}

	for _, so := range objs {
		p, ok := bySlot[so.Slot]
		if !ok {
			return ChainResult{Verdict: ChainMissingData, Reason: fmt.Sprintf("no proof at slot %d", so.Slot)}
		}
		ok = false
		if so.Object == nil {
			ok = VerifyDeletionProof(p)
		} else {
			ok = VerifyObjectProof(so.Object, p)
		}
		if !ok {
			return ChainResult{Verdict: ChainInvalid, Reason: fmt.Sprintf("object proof at slot %d failed verification", so.Slot)}
		}
	}

	for i := 1; i < len(chain); i++ {
		want := HashProof(chain[i-1])
		got := chain[i].PrevProofHash
		if got == nil || *got != want {
			return ChainResult{Verdict: ChainInvalid, Reason: fmt.Sprintf("proof at slot %d does not chain onto slot %d", chain[i].Slot, chain[i-1].Slot)}
		}
	}

	return ChainResult{Verdict: ChainValid}
}
