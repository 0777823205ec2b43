package encoder

import (
	"encoding/binary"

	"github.com/lookbusy1344/thumbpatch/arg"
	"github.com/lookbusy1344/thumbpatch/asm"
)

// Pseudo-instructions with no direct equivalent in original_source/libpatcher/
// asm.py (the original only had db/DCB): DCW, and ALIGN from SPEC_FULL.md's
// dropped-feature list, grounded in the same style as the
// Python source's literal-data Instruction subclasses.

func init() {
	registerNop()
	registerLiterals()
	registerAlign()
}

func registerNop() {
	asm.Register(&asm.Definition{
		Mnemonics: []string{"NOP"},
		Args:      []arg.Argument{},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			return asm.Code{Halfwords: []uint16{0xBF00}}, nil
		},
	})
}

// registerLiterals covers DCB/db (raw byte sequence), DCW (16-bit LE
// words) and DCD (32-bit LE words, either a plain integer or a label
// with an optional "+k" constant shift resolved at bind time).
func registerLiterals() {
	asm.Register(&asm.Definition{
		Mnemonics: []string{"DCB", "db"},
		Args:      []arg.Argument{arg.NewStrPattern()},
		SizeFunc: func(inst *asm.Instance) int {
			return len(strArg(inst.Args[0]).Bytes)
		},
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			s := strArg(inst.Args[0])
			return asm.Code{Raw: append([]byte(nil), s.Bytes...)}, nil
		},
	})

	asm.Register(&asm.Definition{
		Mnemonics: []string{"DCW"},
		Args:      []arg.Argument{arg.NewImmPattern(16, true, 0)},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			imm := immArg(inst.Args[0])
			return asm.Code{Halfwords: []uint16{uint16(imm.Value)}}, nil
		},
	})

	// DCD with a plain 32-bit immediate.
	asm.Register(&asm.Definition{
		Mnemonics: []string{"DCD"},
		Args:      []arg.Argument{arg.NewImmPattern(32, true, 0)},
		SizeFixed: 4,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			imm := immArg(inst.Args[0])
			buf := make([]byte, 4)
			binary.LittleEndian.PutUint32(buf, uint32(imm.Value))
			return asm.Code{Raw: buf}, nil
		},
	})

	// DCD with a label reference (address of a symbol, plus an optional
	// constant shift), resolved against the instruction's scope chain at
	// encode time — not PC-relative, unlike every branch/load form.
	asm.Register(&asm.Definition{
		Mnemonics: []string{"DCD"},
		Args:      []arg.Argument{arg.NewLabelPattern()},
		SizeFixed: 4,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			lbl := labelArg(inst.Args[0])
			resolver := inst.Resolver()
			addr, ok := resolver.Resolve(lbl.Name)
			if !ok {
				return asm.Code{}, &LabelError{Name: lbl.Name, Pos: inst.Pos()}
			}
			val := uint32(int64(addr) + int64(lbl.Shift))
			buf := make([]byte, 4)
			binary.LittleEndian.PutUint32(buf, val)
			return asm.Code{Raw: buf}, nil
		},
	})
}

// registerAlign ("ALIGN 4") pads the current address up to the next 4-byte boundary
// with a single 2-byte NOP when needed, and contributes zero bytes
// otherwise. Its size depends on the address it is bound at, so it uses
// SizeFunc rather than SizeFixed.
func registerAlign() {
	asm.Register(&asm.Definition{
		Mnemonics: []string{"ALIGN"},
		Args:      []arg.Argument{arg.NewImmValue(4, "4")},
		SizeFunc: func(inst *asm.Instance) int {
			if inst.Addr()%4 != 0 {
				return 2
			}
			return 0
		},
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			if inst.Addr()%4 != 0 {
				return asm.Code{Halfwords: []uint16{0xBF00}}, nil
			}
			return asm.Code{}, nil
		},
	})
}
