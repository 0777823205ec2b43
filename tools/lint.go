package tools

import (
	"fmt"
	"sort"

	"github.com/lookbusy1344/thumbpatch/arg"
	"github.com/lookbusy1344/thumbpatch/asm"
	"github.com/lookbusy1344/thumbpatch/patchfile"
	"github.com/lookbusy1344/thumbpatch/srcpos"
)

// LintLevel is the severity of a lint finding.
type LintLevel int

const (
	LintError   LintLevel = iota // would fail at bind time
	LintWarning                  // suspicious but not fatal
	LintInfo                     // style/cleanliness suggestion
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue is a single finding, anchored at the source position that
// produced it.
type LintIssue struct {
	Level   LintLevel
	Pos     srcpos.Position
	Message string
	Code    string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", i.Pos, i.Level, i.Message, i.Code)
}

// Lint performs static checks over an unbound Patch: problems that
// would surface as a hard Bind error are reported as LintError, things
// that bind tolerates but are likely mistakes as LintWarning, and style
// observations as LintInfo. Grounded on the teacher's tools/lint.go
// (LintLevel/LintIssue shape, sorted-by-position output), generalized
// from ARM32 directive linting to block/mask/label checks.
func Lint(patch *patchfile.Patch) []*LintIssue {
	l := &linter{
		patch:       patch,
		globalDefs:  map[string]srcpos.Position{},
		localDefs:   map[*patchfile.Block]map[string]srcpos.Position{},
		referenced:  map[string]bool{},
	}
	l.run()
	sort.Slice(l.issues, func(i, j int) bool {
		a, b := l.issues[i].Pos, l.issues[j].Pos
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	return l.issues
}

type linter struct {
	patch *patchfile.Patch

	globalDefs map[string]srcpos.Position
	localDefs  map[*patchfile.Block]map[string]srcpos.Position
	referenced map[string]bool

	issues []*LintIssue
}

func (l *linter) add(level LintLevel, pos srcpos.Position, code, format string, args ...any) {
	l.issues = append(l.issues, &LintIssue{Level: level, Pos: pos, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (l *linter) run() {
	l.collectDefinitions()
	l.checkMasks()
	l.checkFloatingVals()
	l.checkReferences()
	l.checkUnusedLabels()
}

// collectDefinitions walks every block recording global and block-local
// symbol definitions, flagging duplicates the same way Patch.DefineGlobal
// and blockScope.DefineLocal would at bind time.
func (l *linter) collectDefinitions() {
	for _, b := range l.patch.Blocks {
		l.localDefs[b] = map[string]srcpos.Position{}
		for _, it := range b.Items {
			switch v := it.(type) {
			case *asm.LabelItem:
				if v.Global {
					if prev, dup := l.globalDefs[v.Name]; dup {
						l.add(LintError, v.Pos(), "DUPLICATE_GLOBAL", "duplicate global symbol %q (first defined at %s)", v.Name, prev)
						continue
					}
					l.globalDefs[v.Name] = v.Pos()
				} else {
					if prev, dup := l.localDefs[b][v.Name]; dup {
						l.add(LintError, v.Pos(), "DUPLICATE_LOCAL", "duplicate local symbol %q in block (first defined at %s)", v.Name, prev)
						continue
					}
					l.localDefs[b][v.Name] = v.Pos()
				}
			case *asm.ValItem:
				if prev, dup := l.globalDefs[v.Name]; dup {
					l.add(LintError, v.Pos(), "DUPLICATE_GLOBAL", "duplicate global symbol %q (first defined at %s)", v.Name, prev)
					continue
				}
				l.globalDefs[v.Name] = v.Pos()
			}
		}
	}
}

// checkMasks flags anchored masks with no literal bytes at all: every
// candidate offset in the firmware matches equally well, so the match
// is meaningless even before it becomes ambiguous.
func (l *linter) checkMasks() {
	for _, b := range l.patch.Blocks {
		if b.Mask.Floating() {
			continue
		}
		hasLiteral := false
		for _, p := range b.Mask.Parts {
			if p.Literal != nil {
				hasLiteral = true
				break
			}
		}
		if !hasLiteral {
			l.add(LintWarning, b.Mask.Pos, "EMPTY_MASK", "mask has no literal bytes to anchor on")
		}
	}
}

// checkFloatingVals flags "val" items placed in a floating block ahead
// of Bind, which would otherwise reject it with a hard error.
func (l *linter) checkFloatingVals() {
	for _, b := range l.patch.Blocks {
		if !b.Mask.Floating() {
			continue
		}
		for _, it := range b.Items {
			if v, ok := it.(*asm.ValItem); ok {
				l.add(LintError, v.Pos(), "VAL_IN_FLOATING_BLOCK", "val %q in a floating block will fail at bind time", v.Name)
			}
		}
	}
}

// checkReferences walks every instruction's arguments for Label
// references and verifies each resolves in some reachable scope
// (its own block's locals, or any block's globals/vals).
func (l *linter) checkReferences() {
	for _, b := range l.patch.Blocks {
		for _, it := range b.Items {
			inst, ok := it.(*asm.Instance)
			if !ok {
				continue
			}
			for _, a := range inst.Args {
				walkLabels(a, func(lbl *arg.Label) {
					l.referenced[lbl.Name] = true
					if _, local := l.localDefs[b][lbl.Name]; local {
						return
					}
					if _, global := l.globalDefs[lbl.Name]; global {
						return
					}
					l.add(LintError, inst.Pos(), "UNDEF_LABEL", "undefined symbol %q", lbl.Name)
				})
			}
		}
	}
}

// checkUnusedLabels warns about global symbols defined but never
// referenced by any instruction; local labels are not flagged since a
// block boundary marker is often left in place for readability even
// when currently unused.
func (l *linter) checkUnusedLabels() {
	for name, pos := range l.globalDefs {
		if !l.referenced[name] {
			l.add(LintInfo, pos, "UNUSED_GLOBAL", "global symbol %q defined but never referenced", name)
		}
	}
}

// walkLabels recursively visits every *arg.Label value (not pattern)
// reachable from a, including through a bracketed [Rn, label]-style
// arg.List.
func walkLabels(a arg.Argument, visit func(*arg.Label)) {
	switch v := a.(type) {
	case *arg.Label:
		if !v.IsPattern {
			visit(v)
		}
	case *arg.List:
		for _, item := range v.Items {
			walkLabels(item, visit)
		}
	}
}
