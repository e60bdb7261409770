package conflict

import (
	"testing"

	"github.com/units-io/units/core/types"
)

func tx(hash string, targets ...string) *types.Transaction {
	var objs []types.ObjectId
	for _, s := range targets {
		objs = append(objs, types.BytesToObjectId([]byte(s)))
	}
	return &types.Transaction{
		Hash: types.BytesToHash([]byte(hash)),
		Instructions: []types.Instruction{
			{TargetObjects: objs},
		},
	}
}

func TestCheckReadOnly(t *testing.T) {
	result := Check(tx("a"), nil)
	if result.Verdict != ReadOnly {
		t.Fatalf("verdict = %v, want ReadOnly", result.Verdict)
	}
}

func TestCheckNoConflict(t *testing.T) {
	a := tx("a", "x")
	b := tx("b", "y")
	result := Check(a, []*types.Transaction{b})
	if result.Verdict != NoConflict {
		t.Fatalf("verdict = %v, want NoConflict", result.Verdict)
	}
}

func TestCheckConflict(t *testing.T) {
	a := tx("a", "x")
	b := tx("b", "x", "y")
	result := Check(a, []*types.Transaction{b})
	if result.Verdict != Conflict {
		t.Fatalf("verdict = %v, want Conflict", result.Verdict)
	}
	if len(result.Conflicting) != 1 || result.Conflicting[0] != b.Hash {
		t.Fatalf("conflicting = %v, want [%v]", result.Conflicting, b.Hash)
	}
}

func TestCheckSelfConflictSuppressed(t *testing.T) {
	a := tx("a", "x")
	result := Check(a, []*types.Transaction{a})
	if result.Verdict != NoConflict {
		t.Fatalf("verdict = %v, want NoConflict (self-comparison must be suppressed)", result.Verdict)
	}
}

func TestCheckMultipleConflicts(t *testing.T) {
	a := tx("a", "x")
	b := tx("b", "x")
	c := tx("c", "x")
	result := Check(a, []*types.Transaction{b, c})
	if result.Verdict != Conflict {
		t.Fatalf("verdict = %v, want Conflict", result.Verdict)
	}
	if len(result.Conflicting) != 2 {
		t.Fatalf("expected 2 conflicting hashes, got %d", len(result.Conflicting))
	}
}
