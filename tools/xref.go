package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lookbusy1344/thumbpatch/arg"
	"github.com/lookbusy1344/thumbpatch/asm"
	"github.com/lookbusy1344/thumbpatch/patchfile"
	"github.com/lookbusy1344/thumbpatch/srcpos"
)

// RefKind classifies how an instruction refers to a symbol.
type RefKind int

const (
	RefBranch RefKind = iota // B/Bcc target
	RefCall                  // BL target
	RefLoad                  // LDR[BH] address operand
	RefStore                 // STR[BH] address operand
	RefData                  // DCD word value
)

func (k RefKind) String() string {
	switch k {
	case RefBranch:
		return "branch"
	case RefCall:
		return "call"
	case RefLoad:
		return "load"
	case RefStore:
		return "store"
	case RefData:
		return "data"
	default:
		return "unknown"
	}
}

// Reference is one instruction's use of a symbol.
type Reference struct {
	Kind RefKind
	Pos  srcpos.Position
	Text string // the mnemonic + rendered arguments
}

// SymbolXRef is one symbol's definition site and every reference to it.
type SymbolXRef struct {
	Name       string
	Global     bool
	DefPos     srcpos.Position
	References []Reference
}

// XRefReport is the full cross-reference listing for a patch, keyed by
// symbol name.
type XRefReport struct {
	Symbols map[string]*SymbolXRef
}

// String renders the report sorted by symbol name, mirroring the
// teacher's XRefReport.String() layout: one header line per symbol
// followed by an indented list of its references.
func (r *XRefReport) String() string {
	names := make([]string, 0, len(r.Symbols))
	for n := range r.Symbols {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		s := r.Symbols[n]
		scope := "local"
		if s.Global {
			scope = "global"
		}
		fmt.Fprintf(&b, "%s (%s) defined at %s\n", s.Name, scope, s.DefPos)
		for _, ref := range s.References {
			fmt.Fprintf(&b, "    %s: %s (%s)\n", ref.Pos, ref.Text, ref.Kind)
		}
	}
	return b.String()
}

// XRef builds a cross-reference report for patch: every label/val
// definition and every instruction argument that names it. Arguments are
// only scanned for mnemonics refKindOf classifies (branches other than BX,
// BL, LDR*, STR*, DCD); labels named by other instructions, such as CBZ,
// CBNZ or ADR, are not listed as references. Grounded on
// the teacher's tools/xref.go, generalized from ARM32 operand-string
// scanning to walking Instance.Args directly.
func XRef(patch *patchfile.Patch) *XRefReport {
	report := &XRefReport{Symbols: map[string]*SymbolXRef{}}

	for _, b := range patch.Blocks {
		for _, it := range b.Items {
			switch v := it.(type) {
			case *asm.LabelItem:
				report.Symbols[v.Name] = &SymbolXRef{Name: v.Name, Global: v.Global, DefPos: v.Pos()}
			case *asm.ValItem:
				report.Symbols[v.Name] = &SymbolXRef{Name: v.Name, Global: true, DefPos: v.Pos()}
			}
		}
	}

	for _, b := range patch.Blocks {
		for _, it := range b.Items {
			inst, ok := it.(*asm.Instance)
			if !ok {
				continue
			}
			kind, ok := refKindOf(inst.Mnemonic)
			if !ok {
				continue
			}
			for _, a := range inst.Args {
				walkLabels(a, func(lbl *arg.Label) {
					sym, known := report.Symbols[lbl.Name]
					if !known {
						sym = &SymbolXRef{Name: lbl.Name}
						report.Symbols[lbl.Name] = sym
					}
					sym.References = append(sym.References, Reference{
						Kind: kind,
						Pos:  inst.Pos(),
						Text: renderInstruction(inst),
					})
				})
			}
		}
	}
	return report
}

func refKindOf(mnemonic string) (RefKind, bool) {
	base := strings.TrimSuffix(strings.ToUpper(mnemonic), ".W")
	switch {
	case base == "BL":
		return RefCall, true
	case base == "B" || (len(base) >= 1 && base[0] == 'B' && base != "BX"):
		return RefBranch, true
	case strings.HasPrefix(base, "LDR"):
		return RefLoad, true
	case strings.HasPrefix(base, "STR"):
		return RefStore, true
	case base == "DCD":
		return RefData, true
	default:
		return 0, false
	}
}

func renderInstruction(inst *asm.Instance) string {
	var b strings.Builder
	b.WriteString(inst.Mnemonic)
	for i, a := range inst.Args {
		if i > 0 {
			b.WriteString(", ")
		} else {
			b.WriteString(" ")
		}
		b.WriteString(a.String())
	}
	return b.String()
}
