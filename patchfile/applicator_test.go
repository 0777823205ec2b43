package patchfile_test

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

func mustDef(t *testing.T, mnemonic string, args []arg.Argument) *asm.Definition {
	t.Helper()
	def, err := asm.Find(mnemonic, args, pos(1))
	if err != nil {
		t.Fatalf("asm.Find(%s): %v", mnemonic, err)
	}
	return def
}

// TestBindThenApply is the §8 "bind-then-apply scenario": one block
// whose mask matches uniquely at firmware offset p, containing
// "global foo / BL bar / DCD bar" where bar is defined in a second block
// at offset q; applying with codebase 0x08004000 must produce a binary
// where offset p holds the BL encoding for (q - (p+4)) and offset p+4
// holds u32-le(0x08004000 + q).
func TestBindThenApply(t *testing.T) {
	const codebase = 0x08004000

	original := make([]byte, 64)
	anchor1 := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	anchor2 := []byte{0xCA, 0xFE, 0xCA, 0xFE}
	copy(original[8:], anchor1)
	copy(original[40:], anchor2)

	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}

	// Block 1: global foo / BL bar / DCD bar, anchored at anchor1.
	blDef := mustDef(t, "BL", []arg.Argument{arg.NewLabelPattern()})
	dcdDef := mustDef(t, "DCD", []arg.Argument{arg.NewLabelPattern()})

	items1 := []asm.BlockItem{
		asm.NewLabelItem("foo", true, pos(1)),
		asm.NewInstance(blDef, "BL", []arg.Argument{arg.NewLabelValue("bar", 0)}, pos(2)),
		asm.NewInstance(dcdDef, "DCD", []arg.Argument{arg.NewLabelValue("bar", 0)}, pos(3)),
	}
	// The mask spans the 8 bytes the block writes (BL + DCD), so Apply's
	// length check passes.
	m1 := mask.New([]mask.Part{mask.Literal(anchor1), mask.Skip(4)}, 0, pos(1))
	block1 := patchfile.NewBlock(patch, m1, items1)
	patch.AddBlock(block1)

	// Block 2: bar: (global label), anchored at anchor2.
	items2 := []asm.BlockItem{
		asm.NewLabelItem("bar", true, pos(10)),
	}
	m2 := mask.New([]mask.Part{mask.Literal(anchor2)}, 0, pos(10))
	block2 := patchfile.NewBlock(patch, m2, items2)
	patch.AddBlock(block2)

	app := patchfile.NewApplicator(patch, codebase, patchfile.NewRanges())
	out, err := app.Apply(false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	p := 8  // offset of anchor1 == block1's position
	q := 40 // offset of anchor2 == block2's position

	blBytes := out[p : p+4]
	dcdBytes := out[p+4 : p+8]

	wantBL := encodeBL(t, int64(q)-int64(p+4))
	if string(blBytes) != string(wantBL) {
		t.Errorf("BL bytes = % X, want % X", blBytes, wantBL)
	}

	wantAddr := uint32(codebase + q)
	gotAddr := uint32(dcdBytes[0]) | uint32(dcdBytes[1])<<8 | uint32(dcdBytes[2])<<16 | uint32(dcdBytes[3])<<24
	if gotAddr != wantAddr {
		t.Errorf("DCD bar = %#x, want %#x", gotAddr, wantAddr)
	}

	if len(out) != len(original) {
		t.Errorf("expected unchanged binary length %d, got %d", len(original), len(out))
	}
}

func encodeBL(t *testing.T, offset int64) []byte {
	t.Helper()
	off := uint32(offset) & 0x7FFFFF
	off >>= 1
	hiO := (off >> 11) & 0x7FF
	loO := off & 0x7FF
	hi := uint16((0b11110 << 11) + hiO)
	lo := uint16((0b11111 << 11) + loO)
	return []byte{byte(hi), byte(hi >> 8), byte(lo), byte(lo >> 8)}
}

// TestApplicator_DuplicateSymbol exercises the patch-level global-symbol
// uniqueness invariant (§3 "Names are unique inside each scope").
func TestApplicator_DuplicateSymbol(t *testing.T) {
	original := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}

	m := mask.New([]mask.Part{mask.Literal([]byte{0xAA})}, 0, pos(1))
	items := []asm.BlockItem{
		asm.NewLabelItem("dup", true, pos(1)),
		asm.NewLabelItem("dup", true, pos(2)),
	}
	block := patchfile.NewBlock(patch, m, items)
	patch.AddBlock(block)

	app := patchfile.NewApplicator(patch, 0x08004000, patchfile.NewRanges())
	if err := app.BindAll(); err == nil {
		t.Error("expected duplicate symbol error")
	}
}

// TestApplicator_MaskNotFound exercises the MaskNotFoundError path.
func TestApplicator_MaskNotFound(t *testing.T) {
	original := []byte{0x01, 0x02, 0x03}
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}
	m := mask.New([]mask.Part{mask.Literal([]byte{0xFF, 0xFF})}, 0, pos(1))
	block := patchfile.NewBlock(patch, m, nil)
	patch.AddBlock(block)

	app := patchfile.NewApplicator(patch, 0x08004000, patchfile.NewRanges())
	if err := app.BindAll(); err == nil {
		t.Error("expected mask-not-found error")
	}
}

// TestApplicator_FloatingBlock exercises the free-range allocator path
// for a block with no anchor mask, placed entirely within the original
// image.
func TestApplicator_FloatingBlock(t *testing.T) {
	original := make([]byte, 32)
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}

	nopDef := mustDef(t, "NOP", []arg.Argument{})
	items := []asm.BlockItem{
		asm.NewInstance(nopDef, "NOP", []arg.Argument{}, pos(1)),
	}
	m := mask.NewFloating(2, pos(1))
	block := patchfile.NewBlock(patch, m, items)
	patch.AddBlock(block)

	ranges := patchfile.NewRanges()
	ranges.Add(16, 32)

	app := patchfile.NewApplicator(patch, 0x08004000, ranges)
	out, err := app.Apply(false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out[16] != 0x00 || out[17] != 0xBF {
		t.Errorf("expected NOP bytes at offset 16, got % X", out[16:18])
	}
	if len(out) != len(original) {
		t.Errorf("expected unchanged binary length %d, got %d", len(original), len(out))
	}
}

// TestApplicator_FloatingBlockPastEOF exercises §6.4's binary-growth
// rule: a floating block placed in a free range past the end of the
// original image grows the output instead of erroring.
func TestApplicator_FloatingBlockPastEOF(t *testing.T) {
	original := make([]byte, 16)
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}

	nopDef := mustDef(t, "NOP", []arg.Argument{})
	items := []asm.BlockItem{
		asm.NewInstance(nopDef, "NOP", []arg.Argument{}, pos(1)),
	}
	m := mask.NewFloating(2, pos(1))
	block := patchfile.NewBlock(patch, m, items)
	patch.AddBlock(block)

	ranges := patchfile.NewRanges()
	ranges.AddEOF(original, 32, 0)

	app := patchfile.NewApplicator(patch, 0x08004000, ranges)
	out, err := app.Apply(false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(out) != 18 {
		t.Fatalf("expected binary to grow to 18 bytes, got %d", len(out))
	}
	if out[16] != 0x00 || out[17] != 0xBF {
		t.Errorf("expected NOP bytes at offset 16, got % X", out[16:18])
	}
}
