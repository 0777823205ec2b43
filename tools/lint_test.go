package tools

import (
	"testing"

	"github.com/lookbusy1344/thumbpatch/arg"
	"github.com/lookbusy1344/thumbpatch/asm"
	_ "github.com/lookbusy1344/thumbpatch/encoder"
	"github.com/lookbusy1344/thumbpatch/mask"
	"github.com/lookbusy1344/thumbpatch/patchfile"
	"github.com/lookbusy1344/thumbpatch/srcpos"
)

func lintPos(line int) srcpos.Position { return srcpos.Position{File: "t.pat", Line: line} }

func lintDef(t *testing.T, mnemonic string, args []arg.Argument) *asm.Definition {
	t.Helper()
	def, err := asm.Find(mnemonic, args, lintPos(1))
	if err != nil {
		t.Fatalf("asm.Find(%s): %v", mnemonic, err)
	}
	return def
}

func hasIssue(issues []*LintIssue, code string) bool {
	for _, i := range issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

func TestLint_UndefinedLabel(t *testing.T) {
	original := []byte{0xAA}
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}
	blDef := lintDef(t, "BL", []arg.Argument{arg.NewLabelPattern()})
	items := []asm.BlockItem{
		asm.NewInstance(blDef, "BL", []arg.Argument{arg.NewLabelValue("nowhere", 0)}, lintPos(1)),
	}
	m := mask.New([]mask.Part{mask.Literal([]byte{0xAA})}, 0, lintPos(1))
	patch.AddBlock(patchfile.NewBlock(patch, m, items))

	issues := Lint(patch)
	if !hasIssue(issues, "UNDEF_LABEL") {
		t.Error("expected an UNDEF_LABEL issue for a reference with no matching definition")
	}
}

func TestLint_DuplicateGlobal(t *testing.T) {
	original := []byte{0xAA, 0xBB}
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}
	items1 := []asm.BlockItem{asm.NewLabelItem("dup", true, lintPos(1))}
	items2 := []asm.BlockItem{asm.NewLabelItem("dup", true, lintPos(2))}
	m1 := mask.New([]mask.Part{mask.Literal([]byte{0xAA})}, 0, lintPos(1))
	m2 := mask.New([]mask.Part{mask.Literal([]byte{0xBB})}, 0, lintPos(2))
	patch.AddBlock(patchfile.NewBlock(patch, m1, items1))
	patch.AddBlock(patchfile.NewBlock(patch, m2, items2))

	issues := Lint(patch)
	if !hasIssue(issues, "DUPLICATE_GLOBAL") {
		t.Error("expected a DUPLICATE_GLOBAL issue for two global labels sharing a name")
	}
}

func TestLint_UnusedGlobal(t *testing.T) {
	original := []byte{0xAA}
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}
	items := []asm.BlockItem{asm.NewLabelItem("never_used", true, lintPos(1))}
	m := mask.New([]mask.Part{mask.Literal([]byte{0xAA})}, 0, lintPos(1))
	patch.AddBlock(patchfile.NewBlock(patch, m, items))

	issues := Lint(patch)
	if !hasIssue(issues, "UNUSED_GLOBAL") {
		t.Error("expected an UNUSED_GLOBAL issue for a global label with no references")
	}
}

func TestLint_EmptyMask(t *testing.T) {
	original := []byte{0xAA}
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}
	// A leading skip part folds into Mask.Offset (see mask.New), so a
	// second skip part is needed to leave a non-empty, anchored,
	// literal-free Parts slice.
	m := mask.New([]mask.Part{mask.Skip(1), mask.Skip(2)}, 0, lintPos(1))
	patch.AddBlock(patchfile.NewBlock(patch, m, nil))

	issues := Lint(patch)
	if !hasIssue(issues, "EMPTY_MASK") {
		t.Error("expected an EMPTY_MASK issue for a mask with no literal bytes")
	}
}

func TestLint_ValInFloatingBlock(t *testing.T) {
	original := make([]byte, 8)
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}
	items := []asm.BlockItem{asm.NewValItem("captured", lintPos(1))}
	m := mask.NewFloating(0, lintPos(1))
	patch.AddBlock(patchfile.NewBlock(patch, m, items))

	issues := Lint(patch)
	if !hasIssue(issues, "VAL_IN_FLOATING_BLOCK") {
		t.Error("expected a VAL_IN_FLOATING_BLOCK issue")
	}
}

func TestLint_CleanPatchHasNoIssues(t *testing.T) {
	original := []byte{0xAA, 0xBB}
	patch, err := patchfile.NewPatch("t.pat", nil, original)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}
	blDef := lintDef(t, "BL", []arg.Argument{arg.NewLabelPattern()})
	items := []asm.BlockItem{
		asm.NewLabelItem("target", true, lintPos(1)),
		asm.NewInstance(blDef, "BL", []arg.Argument{arg.NewLabelValue("target", 0)}, lintPos(2)),
	}
	m := mask.New([]mask.Part{mask.Literal([]byte{0xAA, 0xBB})}, 0, lintPos(1))
	patch.AddBlock(patchfile.NewBlock(patch, m, items))

	issues := Lint(patch)
	if len(issues) != 0 {
		t.Errorf("expected no issues for a clean patch, got %v", issues)
	}
}

func TestLint_IssueStringFormat(t *testing.T) {
	issue := &LintIssue{Level: LintError, Pos: lintPos(3), Code: "UNDEF_LABEL", Message: "undefined symbol \"x\""}
	s := issue.String()
	if s == "" {
		t.Fatal("expected a non-empty rendered issue")
	}
}

func TestLintLevel_String(t *testing.T) {
	cases := map[LintLevel]string{LintError: "error", LintWarning: "warning", LintInfo: "info"}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("LintLevel(%d).String() = %s, want %s", level, got, want)
		}
	}
}
