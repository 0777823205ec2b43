package encoder

import (
	"github.com/lookbusy1344/thumbpatch/arg"
	"github.com/lookbusy1344/thumbpatch/asm"
)

// Grounded on original_source/libpatcher/asm.py: _longJump, Bcond_instruction,
// CBx, B.

func init() {
	registerLongJump()
	registerCondBranch()
	registerCBx()
	registerShortB()
	registerBX()
}

// registerLongJump covers BL (always linked) and B.W (unconditional
// wide branch), both 4-byte T4 encodings sharing the same 23-bit
// split-offset layout; only the low opcode bits (lo_c) differ.
func registerLongJump() {
	longJump := func(bl bool) func(inst *asm.Instance) (asm.Code, error) {
		return func(inst *asm.Instance) (asm.Code, error) {
			lbl := labelArg(inst.Args[0])
			if err := ValidateOffsetBits(inst, lbl, 23); err != nil {
				return asm.Code{}, err
			}
			raw, err := rawOffset(inst, lbl)
			if err != nil {
				return asm.Code{}, err
			}
			offset := uint32(raw) & 0x7FFFFF // 23-bit wrap
			offset >>= 1
			hiO := (offset >> 11) & 0x7FF
			loO := offset & 0x7FF
			hi := uint16((0b11110 << 11) + hiO)
			var loC uint32 = 0b10111
			if bl {
				loC = 0b11111
			}
			lo := uint16((loC << 11) + loO)
			return asm.Code{Halfwords: []uint16{hi, lo}}, nil
		}
	}
	asm.Register(&asm.Definition{
		Mnemonics: []string{"BL"},
		Args:      []arg.Argument{arg.NewLabelPattern()},
		SizeFixed: 4,
		Encode:    longJump(true),
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"B.W"},
		Args:      []arg.Argument{arg.NewLabelPattern()},
		SizeFixed: 4,
		Encode:    longJump(false),
	})
}

// registerCondBranch covers B{cond} (T1, 9-bit offset, 2 bytes) and
// B{cond}.W (T3, 19-bit offset, 4 bytes).
func registerCondBranch() {
	for _, cc := range condMnemonics {
		val := uint32(condCodes[cc])
		mnemonic := "B" + cc
		asm.Register(&asm.Definition{
			Mnemonics: []string{mnemonic},
			Args:      []arg.Argument{arg.NewLabelPattern()},
			SizeFixed: 2,
			Encode: func(inst *asm.Instance) (asm.Code, error) {
				lbl := labelArg(inst.Args[0])
				v, err := Offset(inst, lbl, 9, 1, false)
				if err != nil {
					return asm.Code{}, err
				}
				code := uint16((0b1101 << 12) + (val << 8) + v)
				return asm.Code{Halfwords: []uint16{code}}, nil
			},
		})
	}
	for _, cc := range condMnemonics {
		val := uint32(condCodes[cc])
		mnemonic := "B" + cc + ".W"
		asm.Register(&asm.Definition{
			Mnemonics: []string{mnemonic},
			Args:      []arg.Argument{arg.NewLabelPattern()},
			SizeFixed: 4,
			Encode: func(inst *asm.Instance) (asm.Code, error) {
				lbl := labelArg(inst.Args[0])
				if err := ValidateOffsetBits(inst, lbl, 19); err != nil {
					return asm.Code{}, err
				}
				s1, err := OffsetSlice(inst, lbl, 1, 18)
				if err != nil {
					return asm.Code{}, err
				}
				s6, err := OffsetSlice(inst, lbl, 6, 12)
				if err != nil {
					return asm.Code{}, err
				}
				s11, err := OffsetSlice(inst, lbl, 11, 1)
				if err != nil {
					return asm.Code{}, err
				}
				hi := uint16((0b11110 << 11) + (s1 << 10) + (val << 6) + s6)
				lo := uint16((0b10101 << 11) + s11)
				return asm.Code{Halfwords: []uint16{hi, lo}}, nil
			},
		})
	}
}

// registerCBx covers CBZ and CBNZ (compare-and-branch on zero/nonzero),
// a lo-register-only, forward-only (0-126), even-offset 2-byte form.
func registerCBx() {
	cbx := func(op uint32) func(inst *asm.Instance) (asm.Code, error) {
		return func(inst *asm.Instance) (asm.Code, error) {
			rn := regArg(inst.Args[0])
			lbl := labelArg(inst.Args[1])
			if err := ValidateOffsetRange(inst, lbl, 0, 126); err != nil {
				return asm.Code{}, err
			}
			v, err := Offset(inst, lbl, 7, 1, true)
			if err != nil {
				return asm.Code{}, err
			}
			code := uint16((0b1011 << 12) + (op << 11) + ((v >> 5) << 9) + (1 << 8) + ((v & 0x1F) << 3) + uint32(rn.Number))
			return asm.Code{Halfwords: []uint16{code}}, nil
		}
	}
	asm.Register(&asm.Definition{
		Mnemonics: []string{"CBZ"},
		Args:      []arg.Argument{arg.NewRegPattern(arg.RegLow), arg.NewLabelPattern()},
		SizeFixed: 2,
		Encode:    cbx(0),
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"CBNZ"},
		Args:      []arg.Argument{arg.NewRegPattern(arg.RegLow), arg.NewLabelPattern()},
		SizeFixed: 2,
		Encode:    cbx(1),
	})
}

// registerShortB covers the unconditional narrow branch B (T2, 12-bit
// signed halfword-aligned offset, 2 bytes).
func registerShortB() {
	asm.Register(&asm.Definition{
		Mnemonics: []string{"B"},
		Args:      []arg.Argument{arg.NewLabelPattern()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			lbl := labelArg(inst.Args[0])
			v, err := Offset(inst, lbl, 12, 1, false)
			if err != nil {
				return asm.Code{}, err
			}
			code := uint16((0b11100 << 11) + v)
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
}

// registerBX covers BX and BLX (register-indirect branch/call, 2 bytes).
func registerBX() {
	bx := func(link uint32) func(inst *asm.Instance) (asm.Code, error) {
		return func(inst *asm.Instance) (asm.Code, error) {
			rm := regArg(inst.Args[0])
			prefix := uint32(0b010001110) | link
			code := uint16((prefix << 7) + (uint32(rm.Number) << 3))
			return asm.Code{Halfwords: []uint16{code}}, nil
		}
	}
	asm.Register(&asm.Definition{
		Mnemonics: []string{"BX"},
		Args:      []arg.Argument{arg.NewRegPattern(arg.RegAny)},
		SizeFixed: 2,
		Encode:    bx(0),
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"BLX"},
		Args:      []arg.Argument{arg.NewRegPattern(arg.RegAny)},
		SizeFixed: 2,
		Encode:    bx(1),
	})
}
