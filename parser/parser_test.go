package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lookbusy1344/thumbpatch/srcpos"
)

func pos() srcpos.Position { return srcpos.Position{File: "t.pat", Line: 1} }

func writeTemp(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestParsePatch_SimpleBlock(t *testing.T) {
	dir := t.TempDir()
	src := `DE AD BE EF @ {
global foo
bar: NOP
}
`
	path := writeTemp(t, dir, "p.pat", src)
	binary := make([]byte, 16)
	copy(binary[4:], []byte{0xDE, 0xAD, 0xBE, 0xEF})

	patch, err := ParsePatch(path, binary)
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}
	blocks := patch.Blocks
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
}

func TestParsePatch_DefineAndIfdef(t *testing.T) {
	dir := t.TempDir()
	src := `#define PLATFORM v3
#ifdef PLATFORM
AA BB {
global only_if_defined
}
#else
CC DD {
global never
}
#endif
`
	path := writeTemp(t, dir, "p.pat", src)
	binary := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	patch, err := ParsePatch(path, binary)
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}
	if len(patch.Blocks) != 1 {
		t.Fatalf("expected exactly the #ifdef branch's block, got %d", len(patch.Blocks))
	}
}

func TestParsePatch_IfvalMatchesDefineValue(t *testing.T) {
	dir := t.TempDir()
	src := `#define PLATFORM v3
#ifval v3
AA {
global matched
}
#endif
#ifnval v3
BB {
global unmatched
}
#endif
`
	path := writeTemp(t, dir, "p.pat", src)
	binary := []byte{0xAA, 0xBB}
	patch, err := ParsePatch(path, binary)
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}
	if len(patch.Blocks) != 1 {
		t.Fatalf("expected only the #ifval-matched block, got %d", len(patch.Blocks))
	}
}

func TestParsePatch_Default(t *testing.T) {
	dir := t.TempDir()
	src := `#define NAME first
#default NAME second
#ifval first
AA {
global matched
}
#endif
`
	path := writeTemp(t, dir, "p.pat", src)
	binary := []byte{0xAA}
	patch, err := ParsePatch(path, binary)
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}
	if len(patch.Blocks) != 1 {
		t.Fatalf("expected #default to yield to the existing #define, got %d blocks", len(patch.Blocks))
	}
}

func TestParsePatch_Include(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "inc.pat", `BB {
global included
}
`)
	src := `AA {
global main
}
#include inc.pat
`
	path := writeTemp(t, dir, "p.pat", src)
	binary := []byte{0xAA, 0xBB}
	patch, err := ParsePatch(path, binary)
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}
	if len(patch.Blocks) != 2 {
		t.Fatalf("expected 2 blocks (main + included), got %d", len(patch.Blocks))
	}
}

func TestParsePatch_UnexpectedEOF(t *testing.T) {
	dir := t.TempDir()
	src := `AA {
global foo
`
	path := writeTemp(t, dir, "p.pat", src)
	if _, err := ParsePatch(path, []byte{0xAA}); err == nil {
		t.Fatal("expected an unexpected-EOF error for an unclosed block")
	}
}

func TestParsePatch_CommentAndStringLiteral(t *testing.T) {
	dir := t.TempDir()
	src := `"hi;there" ; trailing comment is stripped
{
global foo
}
`
	path := writeTemp(t, dir, "p.pat", src)
	binary := []byte("hi;there")
	patch, err := ParsePatch(path, binary)
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}
	if len(patch.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(patch.Blocks))
	}
}

func TestParseInstructionLine_RegListAndMemOperand(t *testing.T) {
	mnemonic, args, err := parseInstructionLine("LDR R12, [SP, 0x24]", pos())
	if err != nil {
		t.Fatalf("parseInstructionLine: %v", err)
	}
	if mnemonic != "LDR" {
		t.Errorf("expected mnemonic LDR, got %s", mnemonic)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 arguments, got %d", len(args))
	}
	if args[1] == nil {
		t.Fatalf("expected a non-nil memory operand")
	}
}

func TestParseInstructionLine_LabelWithShift(t *testing.T) {
	_, args, err := parseInstructionLine("BL foo+4", pos())
	if err != nil {
		t.Fatalf("parseInstructionLine: %v", err)
	}
	if len(args) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(args))
	}
}

func TestParseInstructionLine_BadCharacter(t *testing.T) {
	if _, _, err := parseInstructionLine("MOV R1, #5", pos()); err == nil {
		t.Fatal("expected an error for the unsupported '#' token")
	}
}
