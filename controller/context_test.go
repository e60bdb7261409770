package controller

import (
	"testing"

	"github.com/units-io/units/core/rawdb"
	"github.com/units-io/units/core/types"
)

func ctlrObject(id types.ObjectId) *types.Object {
	return &types.Object{ID: id, ControllerID: id, ObjectType: types.Executable, Data: []byte{'U', 'K', 'N', 'M', 't', 'o', 'k', 'e', 'n', 0, 0, 0}}
}

func dataObject(id, controller types.ObjectId) *types.Object {
	return &types.Object{ID: id, ControllerID: controller, ObjectType: types.Data}
}

func TestBuildContextLoadsControllerAndTargets(t *testing.T) {
	store := rawdb.NewMemoryStore()
	ctlrID := types.BytesToObjectId([]byte("ctlr"))
	targetID := types.BytesToObjectId([]byte("target"))
	store.Set(ctlrObject(ctlrID), 1, nil)
	store.Set(dataObject(targetID, ctlrID), 1, nil)

	instr := types.Instruction{ControllerID: ctlrID, TargetObjects: []types.ObjectId{targetID}}
	ctx, ctlr, err := BuildContext(store, instr, 2, 1000)
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if ctlr.ID != ctlrID {
		t.Fatalf("controller id = %v, want %v", ctlr.ID, ctlrID)
	}
	if len(ctx.Objects) != 2 {
		t.Fatalf("expected 2 objects in context (controller+target), got %d", len(ctx.Objects))
	}
	if _, ok := ctx.Objects[targetID]; !ok {
		t.Fatal("expected target object present in context")
	}
}

func TestBuildContextMissingControllerIsObjectNotFound(t *testing.T) {
	store := rawdb.NewMemoryStore()
	instr := types.Instruction{ControllerID: types.BytesToObjectId([]byte("missing"))}
	_, _, err := BuildContext(store, instr, 1, 0)
	if err != ErrObjectNotFound {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestBuildContextMissingTargetIsObjectNotFound(t *testing.T) {
	store := rawdb.NewMemoryStore()
	ctlrID := types.BytesToObjectId([]byte("ctlr"))
	store.Set(ctlrObject(ctlrID), 1, nil)

	instr := types.Instruction{ControllerID: ctlrID, TargetObjects: []types.ObjectId{types.BytesToObjectId([]byte("missing"))}}
	_, _, err := BuildContext(store, instr, 1, 0)
	if err != ErrObjectNotFound {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestBuildContextNonExecutableController(t *testing.T) {
	store := rawdb.NewMemoryStore()
	ctlrID := types.BytesToObjectId([]byte("ctlr"))
	store.Set(dataObject(ctlrID, ctlrID), 1, nil)

	instr := types.Instruction{ControllerID: ctlrID}
	_, _, err := BuildContext(store, instr, 1, 0)
	if err != ErrNotExecutable {
		t.Fatalf("expected ErrNotExecutable, got %v", err)
	}
}
