package inspector

import (
	"testing"

	"github.com/lookbusy1344/thumbpatch/arg"
	"github.com/lookbusy1344/thumbpatch/asm"
	_ "github.com/lookbusy1344/thumbpatch/encoder"
	"github.com/lookbusy1344/thumbpatch/mask"
	"github.com/lookbusy1344/thumbpatch/patchfile"
	"github.com/lookbusy1344/thumbpatch/srcpos"
)

func pos(line int) srcpos.Position { return srcpos.Position{File: "t.pat", Line: line} }

func TestNew_BuildsTreeOverBoundApplicator(t *testing.T) {
	original := make([]byte, 16)
	copy(original[4:], []byte{0xAA, 0xBB})
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}
	nopDef, err := asm.Find("NOP", []arg.Argument{}, pos(1))
	if err != nil {
		t.Fatalf("asm.Find(NOP): %v", err)
	}
	items := []asm.BlockItem{
		asm.NewLabelItem("foo", true, pos(1)),
		asm.NewInstance(nopDef, "NOP", []arg.Argument{}, pos(2)),
	}
	m := mask.New([]mask.Part{mask.Literal([]byte{0xAA, 0xBB})}, 0, pos(1))
	patch.AddBlock(patchfile.NewBlock(patch, m, items))

	app := patchfile.NewApplicator(patch, 0x08004000, patchfile.NewRanges())
	if _, err := app.Apply(false); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	insp := New(app, nil)
	if insp.Tree.GetRoot() == nil {
		t.Fatal("expected a non-nil tree root")
	}
	children := insp.Tree.GetRoot().GetChildren()
	if len(children) != 1 {
		t.Fatalf("expected 1 block node, got %d", len(children))
	}

	block, ok := children[0].GetReference().(*patchfile.Block)
	if !ok {
		t.Fatal("expected the block node's reference to be the *patchfile.Block")
	}
	insp.showBlock(block)
	if insp.Detail.GetText(true) == "" {
		t.Error("expected showBlock to populate the detail pane")
	}
}

func TestNew_SurfacesBlockError(t *testing.T) {
	original := []byte{0x01}
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}
	m := mask.New([]mask.Part{mask.Literal([]byte{0x01})}, 0, pos(1))
	block := patchfile.NewBlock(patch, m, nil)
	patch.AddBlock(block)

	app := patchfile.NewApplicator(patch, 0x08004000, patchfile.NewRanges())
	if err := app.BindAll(); err != nil {
		t.Fatalf("BindAll: %v", err)
	}

	insp := New(app, []BlockError{{Block: block, Err: errTest}})
	children := insp.Tree.GetRoot().GetChildren()
	if len(children) != 1 {
		t.Fatalf("expected 1 block node, got %d", len(children))
	}
	insp.showBlock(block)
	if insp.Status.GetText(true) == "" {
		t.Error("expected the status pane to report the collected block error")
	}
}

var errTest = &testErr{"mask not found"}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }
