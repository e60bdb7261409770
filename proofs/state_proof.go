package proofs

import (
	"errors"

	"github.com/units-io/units/core/codec"
	"github.com/units-io/units/core/types"
)

// GenerateStateProof aggregates a slot's object proofs into a StateProof
// (§4.2): object_root hashes the sorted-by-id set of (id, proof-hash)
// pairs, transaction_root is a Merkle root over the slot's transaction
// hashes, and proof_data serializes both alongside the slot number.
func GenerateStateProof(slot uint64, objectProofs map[types.ObjectId]*types.ObjectProof, txHashes []types.Hash, prev *types.StateProof) *types.StateProof {
	ids := make([]types.ObjectId, 0, len(objectProofs))
	for id := range objectProofs {
		ids = append(ids, id)
	}
	sortedIDs := codec.SortedObjectIDs(ids)

	objectRoot := computeObjectRoot(sortedIDs, objectProofs)
	txRoot := MerkleRoot(txHashes)
	proofData := codec.EncodeStateProofPayload(objectRoot, txRoot, slot)

	sp := &types.StateProof{
		Slot:      slot,
		ObjectIDs: sortedIDs,
		ProofData: proofData,
	}
	if prev != nil {
		h := HashStateProof(prev)
		sp.PrevStateProofHash = &h
	}
	return sp
}

func computeObjectRoot(sortedIDs []types.ObjectId, objectProofs map[types.ObjectId]*types.ObjectProof) types.Hash {
	w := codec.NewWriter(64 * (len(sortedIDs) + 1))
	for _, id := range sortedIDs {
		p := objectProofs[id]
		ph := HashProof(p)
		w.PutFixed(id.Bytes())
		w.PutFixed(ph.Bytes())
	}
	return outerHash(w.Bytes())
}

// HashStateProof computes a state proof's own hash, the value the next
// slot's prev_state_proof_hash records.
func HashStateProof(sp *types.StateProof) types.Hash {
	w := codec.NewWriter(64)
	var slotBuf [8]byte
	writeLE64(slotBuf[:], sp.Slot)
	w.PutFixed(slotBuf[:])
	if sp.PrevStateProofHash != nil {
		w.PutOptionalFixed(true, sp.PrevStateProofHash.Bytes())
	} else {
		w.PutOptionalFixed(false, nil)
	}
	w.PutUint32(uint32(len(sp.ObjectIDs)))
	for _, id := range sp.ObjectIDs {
		w.PutFixed(id.Bytes())
	}
	w.PutBytes(sp.ProofData)
	return outerHash(w.Bytes())
}

// VerifyStateProof recomputes object_root from the supplied object proofs
// and checks it against the proof's own recorded payload.
func VerifyStateProof(sp *types.StateProof, objectProofs map[types.ObjectId]*types.ObjectProof) bool {
	if sp == nil {
		return false
	}
	objectRoot, _, slot, err := codec.DecodeStateProofPayload(sp.ProofData)
	if err != nil || slot != sp.Slot {
		return false
	}
	recomputed := computeObjectRoot(sp.ObjectIDs, objectProofs)
	return recomputed == objectRoot
}

// MerkleRoot builds the Merkle root of hashes by pairwise hashing
// bottom-up, duplicating the last node whenever a level has odd length
// (§4.2, §8 boundary behaviors). An empty list yields the all-zero hash.
func MerkleRoot(hashes []types.Hash) types.Hash {
	if len(hashes) == 0 {
		return types.Hash{}
	}
	level := make([]types.Hash, len(hashes))
	copy(level, hashes)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = hashPair(level[i], level[i+1])
		}
		level = next
	}
	return level[0]
}

func hashPair(left, right types.Hash) types.Hash {
	w := codec.NewWriter(64)
	w.PutFixed(left.Bytes())
	w.PutFixed(right.Bytes())
	return outerHash(w.Bytes())
}

// MerklePath returns the sibling path for leaf index idx within hashes,
// as a bottom-up sequence of MerkleSteps, so a verifier can walk it with
// VerifyTransactionInclusion without access to the full transaction set.
func MerklePath(hashes []types.Hash, idx int) ([]types.MerkleStep, error) {
	if idx < 0 || idx >= len(hashes) {
		return nil, errors.New("proofs: merkle path index out of range")
	}
	level := make([]types.Hash, len(hashes))
	copy(level, hashes)
	var path []types.MerkleStep
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		isRightChild := idx%2 == 1
		var siblingIdx int
		if isRightChild {
			siblingIdx = idx - 1
		} else {
			siblingIdx = idx + 1
		}
		path = append(path, types.MerkleStep{Hash: level[siblingIdx], IsLeft: isRightChild})
		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = hashPair(level[i], level[i+1])
		}
		level = next
		idx /= 2
	}
	return path, nil
}

// VerifyTransactionInclusion walks a Merkle path leaf-up from txHash and
// checks the resulting root against the state proof's recorded
// transaction_root (§4.2).
func VerifyTransactionInclusion(sp *types.StateProof, txHash types.Hash, path []types.MerkleStep) bool {
	_, transactionRoot, _, err := codec.DecodeStateProofPayload(sp.ProofData)
	if err != nil {
		return false
	}
	acc := txHash
	for _, step := range path {
		if step.IsLeft {
			acc = hashPair(step.Hash, acc)
		} else {
			acc = hashPair(acc, step.Hash)
		}
	}
	return acc == transactionRoot
}
