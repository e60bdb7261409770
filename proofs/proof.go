// Package proofs implements the UNITS proof engine (spec §4.2): per-object
// proof construction and verification, per-slot state proof aggregation,
// and cross-slot proof chain verification.
//
// The hash function is fixed system-wide, as required by §4.2: BLAKE3 for
// proof_data, SHA-256 for a proof's own outer hash. Both are pinned here so
// every caller — write path and verify path alike — hashes identically.
package proofs

import (
	"crypto/sha256"

	"github.com/units-io/units/core/codec"
	"github.com/units-io/units/core/types"
	"lukechampine.com/blake3"
)

// hashObjectData computes H(canonical_serialize(o)) — the object_hash
// recorded in an ObjectProof (§4.2 step 1).
func hashObjectData(o *types.Object) types.Hash {
	return blake3Sum(codec.EncodeObject(o))
}

// blake3Sum is the proof_data hash function.
func blake3Sum(b []byte) types.Hash {
	return types.Hash(blake3.Sum256(b))
}

// outerHash is the proof's own hash function — the value every
// prev_proof_hash/prev_state_proof_hash link records.
func outerHash(b []byte) types.Hash {
	return types.Hash(sha256.Sum256(b))
}

// DeletionTombstoneHash is the fixed object_hash recorded for a deletion
// effect — there is no object to canonically serialize once it's gone, so
// a constant sentinel stands in for H(canonical_serialize(o)).
var DeletionTombstoneHash = outerHash([]byte("units/deletion-tombstone"))

// computeProofData derives proof_data = H(h_obj || slot || prev? || tx?),
// the single formula every construction and verification path shares.
func computeProofData(objHash types.Hash, slot uint64, prevProofHash, txHash *types.Hash) []byte {
	w := codec.NewWriter(96)
	w.PutFixed(objHash.Bytes())
	var slotBuf [8]byte
	writeLE64(slotBuf[:], slot)
	w.PutFixed(slotBuf[:])
	if prevProofHash != nil {
		w.PutOptionalFixed(true, prevProofHash.Bytes())
	} else {
		w.PutOptionalFixed(false, nil)
	}
	if txHash != nil {
		w.PutOptionalFixed(true, txHash.Bytes())
	} else {
		w.PutOptionalFixed(false, nil)
	}
	return blake3Sum(w.Bytes()).Bytes()
}

func buildProof(id types.ObjectId, objHash types.Hash, slot uint64, prev *types.ObjectProof, txHash *types.Hash) *types.ObjectProof {
	var prevHash *types.Hash
	if prev != nil {
		h := HashProof(prev)
		prevHash = &h
	}
	p := &types.ObjectProof{
		ObjectID:      id,
		Slot:          slot,
		ObjectHash:    objHash,
		PrevProofHash: prevHash,
		ProofData:     computeProofData(objHash, slot, prevHash, txHash),
	}
	if txHash != nil {
		th := *txHash
		p.TransactionHash = &th
	}
	return p
}

// GenerateObjectProof builds the ObjectProof for object o at slot, chained
// onto prev (nil at the genesis of this object's chain), optionally
// attributed to the transaction that caused the change (§4.2).
func GenerateObjectProof(o *types.Object, slot uint64, prev *types.ObjectProof, txHash *types.Hash) *types.ObjectProof {
	return buildProof(o.ID, hashObjectData(o), slot, prev, txHash)
}

// GenerateDeletionProof builds the ObjectProof that records id's removal at
// slot, chained onto prev.
func GenerateDeletionProof(id types.ObjectId, slot uint64, prev *types.ObjectProof, txHash *types.Hash) *types.ObjectProof {
	return buildProof(id, DeletionTombstoneHash, slot, prev, txHash)
}

// HashProof computes a proof's own outer hash, over the fields §3 says it
// commits to: (object_id, slot, object_hash, prev_proof_hash?,
// transaction_hash?, proof_data).
func HashProof(p *types.ObjectProof) types.Hash {
	return outerHash(codec.EncodeObjectProof(p))
}

// VerifyObjectProof checks an ObjectProof against the object it claims to
// describe, per §4.2's three verification clauses.
func VerifyObjectProof(o *types.Object, p *types.ObjectProof) bool {
	if o == nil || p == nil {
		return false
	}
	if o.ID != p.ObjectID {
		return false
	}
	if hashObjectData(o) != p.ObjectHash {
		return false
	}
	expected := computeProofData(p.ObjectHash, p.Slot, p.PrevProofHash, p.TransactionHash)
	return bytesEqual(expected, p.ProofData)
}

// VerifyDeletionProof checks a deletion proof: object_hash must equal the
// fixed tombstone and proof_data must recompute correctly.
func VerifyDeletionProof(p *types.ObjectProof) bool {
	if p == nil || p.ObjectHash != DeletionTombstoneHash {
		return false
	}
	expected := computeProofData(p.ObjectHash, p.Slot, p.PrevProofHash, p.TransactionHash)
	return bytesEqual(expected, p.ProofData)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func writeLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
