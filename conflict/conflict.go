// Package conflict implements the conservative write-set conflict checker
// of §4.1: a transaction's write set is the union of every instruction's
// target_objects, and a transaction conflicts with any recent transaction
// whose write set it overlaps.
package conflict

import "github.com/units-io/units/core/types"

// Verdict classifies the outcome of checking one transaction against a
// recent-transaction buffer.
type Verdict uint8

const (
	// ReadOnly means the transaction's write set is empty — it can never
	// conflict with anything.
	ReadOnly Verdict = iota
	// NoConflict means the write set is disjoint from every recent
	// transaction's write set.
	NoConflict
	// Conflict means at least one recent transaction's write set
	// overlaps this one's.
	Conflict
)

func (v Verdict) String() string {
	switch v {
	case ReadOnly:
		return "ReadOnly"
	case NoConflict:
		return "NoConflict"
	case Conflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

// Result is the outcome of Check: a Verdict plus, for Conflict, the
// hashes of every recent transaction it overlapped with.
type Result struct {
	Verdict     Verdict
	Conflicting []types.Hash
}

// WriteSet returns tx's conservative write set: the deduplicated union of
// every instruction's TargetObjects (§4.1 — a stricter read/write split is
// permitted but not required, and this checker implements the required
// conservative default).
func WriteSet(tx *types.Transaction) map[types.ObjectId]struct{} {
	set := make(map[types.ObjectId]struct{})
	for _, id := range tx.WriteSet() {
		set[id] = struct{}{}
	}
	return set
}

// Check compares tx's write set against every transaction in recent,
// suppressing a self-comparison (by hash equality) so a buffer that
// happens to still contain tx itself never reports a spurious conflict.
func Check(tx *types.Transaction, recent []*types.Transaction) Result {
	writeSet := WriteSet(tx)
	if len(writeSet) == 0 {
		return Result{Verdict: ReadOnly}
	}

	var conflicting []types.Hash
	for _, other := range recent {
		if other == nil || other.Hash == tx.Hash {
			continue
		}
		if overlaps(writeSet, other.WriteSet()) {
			conflicting = append(conflicting, other.Hash)
		}
	}
	if len(conflicting) == 0 {
		return Result{Verdict: NoConflict}
	}
	return Result{Verdict: Conflict, Conflicting: conflicting}
}

func overlaps(set map[types.ObjectId]struct{}, ids []types.ObjectId) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
