package encoder

import (
	"github.com/lookbusy1344/thumbpatch/arg"
	"github.com/lookbusy1344/thumbpatch/asm"
)

// Grounded on original_source/libpatcher/asm.py's LDR/LDRB/STR/STRB forms
// (the instruction(['LDR.W','LDR'], [Reg(), ([Reg(),Num(12)],[Reg()])], ...)
// shape), extended to LDRH/STRH and the narrow T1 forms spec.md lists that
// the Python source never implemented.

func loadStoreImm5(opcode uint32, scale uint32) func(inst *asm.Instance) (asm.Code, error) {
	return func(inst *asm.Instance) (asm.Code, error) {
		rt := regArg(inst.Args[0])
		lst := listArg(inst.Args[1])
		rn := regArg(lst.Items[0])
		imm := uint32(0)
		if len(lst.Items) > 1 {
			imm = uint32(immArg(lst.Items[1]).Value) / scale
		}
		code := uint16((opcode << 11) + (imm << 6) + (uint32(rn.Number) << 3) + uint32(rt.Number))
		return asm.Code{Halfwords: []uint16{code}}, nil
	}
}

func loadStoreReg(opcode uint32) func(inst *asm.Instance) (asm.Code, error) {
	return func(inst *asm.Instance) (asm.Code, error) {
		rt := regArg(inst.Args[0])
		lst := listArg(inst.Args[1])
		rn := regArg(lst.Items[0])
		rm := regArg(lst.Items[1])
		code := uint16((opcode << 9) + (uint32(rm.Number) << 6) + (uint32(rn.Number) << 3) + uint32(rt.Number))
		return asm.Code{Halfwords: []uint16{code}}, nil
	}
}

func loadStoreWide(hiFixed uint32) func(inst *asm.Instance) (asm.Code, error) {
	return func(inst *asm.Instance) (asm.Code, error) {
		rt := regArg(inst.Args[0])
		lst := listArg(inst.Args[1])
		rn := regArg(lst.Items[0])
		imm := uint32(0)
		if len(lst.Items) > 1 {
			imm = uint32(immArg(lst.Items[1]).Value)
		}
		hi := uint16((0b11111 << 11) + (hiFixed << 4) + uint32(rn.Number))
		lo := uint16((uint32(rt.Number) << 12) + imm)
		return asm.Code{Halfwords: []uint16{hi, lo}}, nil
	}
}

// memOperand builds the "[Rn]" / "[Rn, #imm]" addressing-mode pattern:
// an Alt of a 1-item List (register only, implicit zero offset) and a
// 2-item List (register plus immediate offset pattern).
func memOperand(reg arg.Argument, imm arg.Argument) *arg.Alt {
	return &arg.Alt{Options: []arg.Argument{
		&arg.List{Items: []arg.Argument{reg}},
		&arg.List{Items: []arg.Argument{reg, imm}},
	}}
}

func init() {
	// LDR Rt, [Rn, #imm5*4] / [Rn] (T1, lo registers)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"LDR"},
		Args:      []arg.Argument{lo(), memOperand(lo(), arg.NewImmPattern(7, true, 2))},
		SizeFixed: 2,
		Encode:    loadStoreImm5(0b01101, 4),
	})
	// LDR Rt, [Rn, Rm] (T1, register offset, lo registers)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"LDR"},
		Args: []arg.Argument{lo(), &arg.List{Items: []arg.Argument{lo(), lo()}}},
		SizeFixed: 2,
		Encode:    loadStoreReg(0b0101100),
	})
	// LDR Rt, label (PC-relative literal pool load, T1)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"LDR"},
		Args:      []arg.Argument{lo(), arg.NewLabelPattern()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rt := regArg(inst.Args[0])
			lbl := inst.Args[1].(*arg.Label)
			v, err := Offset(inst, lbl, 10, 2, true)
			if err != nil {
				return asm.Code{}, err
			}
			code := uint16((0b01001 << 11) + (uint32(rt.Number) << 8) + v)
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	// LDR/LDR.W Rt, [Rn, #imm12] / [Rn] (T3, any register)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"LDR", "LDR.W"},
		Args:      []arg.Argument{anyReg(), memOperand(anyReg(), arg.NewImmPattern(12, true, 0))},
		SizeFixed: 4,
		Encode:    loadStoreWide(0b1101),
	})

	// LDRB Rt, [Rn, #imm5] / [Rn] (T1)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"LDRB"},
		Args:      []arg.Argument{lo(), memOperand(lo(), arg.NewImmPattern(5, true, 0))},
		SizeFixed: 2,
		Encode:    loadStoreImm5(0b01111, 1),
	})
	// LDRB Rt, [Rn, Rm] (T1, register offset)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"LDRB"},
		Args: []arg.Argument{lo(), &arg.List{Items: []arg.Argument{lo(), lo()}}},
		SizeFixed: 2,
		Encode:    loadStoreReg(0b0101110),
	})
	// LDRB.W Rt, [Rn, #imm12] / [Rn] (T2, any register)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"LDRB", "LDRB.W"},
		Args:      []arg.Argument{anyReg(), memOperand(anyReg(), arg.NewImmPattern(12, true, 0))},
		SizeFixed: 4,
		Encode:    loadStoreWide(0b1001),
	})

	// LDRH Rt, [Rn, #imm5*2] / [Rn] (T1)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"LDRH"},
		Args:      []arg.Argument{lo(), memOperand(lo(), arg.NewImmPattern(6, true, 1))},
		SizeFixed: 2,
		Encode:    loadStoreImm5(0b10001, 2),
	})
	// LDRH Rt, [Rn, Rm] (T1, register offset)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"LDRH"},
		Args: []arg.Argument{lo(), &arg.List{Items: []arg.Argument{lo(), lo()}}},
		SizeFixed: 2,
		Encode:    loadStoreReg(0b0101101),
	})

	// STR Rt, [Rn, #imm5*4] / [Rn] (T1)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"STR"},
		Args:      []arg.Argument{lo(), memOperand(lo(), arg.NewImmPattern(7, true, 2))},
		SizeFixed: 2,
		Encode:    loadStoreImm5(0b01100, 4),
	})
	// STR Rt, [SP, #imm8*4] (T2)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"STR"},
		Args:      []arg.Argument{lo(), memOperand(arg.NewRegExact(13), arg.NewImmPattern(10, true, 2))},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rt := regArg(inst.Args[0])
			lst := listArg(inst.Args[1])
			imm := uint32(0)
			if len(lst.Items) > 1 {
				imm = uint32(immArg(lst.Items[1]).Value) / 4
			}
			code := uint16((0b10010 << 11) + (uint32(rt.Number) << 8) + imm)
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	// STR/STR.W Rt, [Rn, #imm12] / [Rn] (T3, any register)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"STR", "STR.W"},
		Args:      []arg.Argument{anyReg(), memOperand(anyReg(), arg.NewImmPattern(12, true, 0))},
		SizeFixed: 4,
		Encode:    loadStoreWide(0b1100),
	})

	// STRB Rt, [Rn, #imm5] / [Rn] (T1)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"STRB"},
		Args:      []arg.Argument{lo(), memOperand(lo(), arg.NewImmPattern(5, true, 0))},
		SizeFixed: 2,
		Encode:    loadStoreImm5(0b01110, 1),
	})
	// STRB Rt, [Rn, Rm] (T1, register offset)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"STRB"},
		Args: []arg.Argument{lo(), &arg.List{Items: []arg.Argument{lo(), lo()}}},
		SizeFixed: 2,
		Encode:    loadStoreReg(0b0101010),
	})

	// STRH Rt, [Rn, #imm5*2] / [Rn] (T1)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"STRH"},
		Args:      []arg.Argument{lo(), memOperand(lo(), arg.NewImmPattern(6, true, 1))},
		SizeFixed: 2,
		Encode:    loadStoreImm5(0b10000, 2),
	})
	// STRH Rt, [Rn, Rm] (T1, register offset)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"STRH"},
		Args: []arg.Argument{lo(), &arg.List{Items: []arg.Argument{lo(), lo()}}},
		SizeFixed: 2,
		Encode:    loadStoreReg(0b0101001),
	})

	registerPushPop()
	registerAdr()
}

// registerPushPop covers PUSH (T1 lo+LR, T2 wide) and POP (T1 lo+PC, T2 wide).
func registerPushPop() {
	asm.Register(&asm.Definition{
		Mnemonics: []string{"PUSH"},
		Args:      []arg.Argument{&arg.RegList{IsPattern: true, Lo: arg.Required, PCState: arg.Forbidden, SPState: arg.Forbidden}},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rl := regListArg(inst.Args[0])
			l := uint32(0)
			if rl.Has(14) {
				l = 1
			}
			code := uint16((0b1011010 << 9) + (l << 8) + uint32(rl.LowMask()))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"PUSH", "PUSH.W"},
		Args:      []arg.Argument{&arg.RegList{IsPattern: true, Lo: arg.Required, PCState: arg.Forbidden, SPState: arg.Forbidden, LoCutoff: 13}},
		SizeFixed: 4,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rl := regListArg(inst.Args[0])
			m := uint32(0)
			if rl.Has(14) {
				m = 1
			}
			hi := uint16(0xE92D)
			lo := uint16((m << 14) + uint32(rl.LowMask()))
			return asm.Code{Halfwords: []uint16{hi, lo}}, nil
		},
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"POP"},
		Args:      []arg.Argument{&arg.RegList{IsPattern: true, Lo: arg.Required, LRState: arg.Forbidden, SPState: arg.Forbidden}},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rl := regListArg(inst.Args[0])
			p := uint32(0)
			if rl.Has(15) {
				p = 1
			}
			code := uint16((0b1011110 << 9) + (p << 8) + uint32(rl.LowMask()))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"POP", "POP.W"},
		Args:      []arg.Argument{&arg.RegList{IsPattern: true, Lo: arg.Required, LRState: arg.Forbidden, SPState: arg.Forbidden, LoCutoff: 13}},
		SizeFixed: 4,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rl := regListArg(inst.Args[0])
			p := uint32(0)
			if rl.Has(15) {
				p = 1
			}
			hi := uint16(0xE8BD)
			lo := uint16((p << 15) + uint32(rl.LowMask()))
			return asm.Code{Halfwords: []uint16{hi, lo}}, nil
		},
	})
}

// registerAdr covers ADR Rd, label (T1, PC-aligned-down-to-4, positive
// imm8*4 offset 0-1020).
func registerAdr() {
	asm.Register(&asm.Definition{
		Mnemonics: []string{"ADR"},
		Args:      []arg.Argument{lo(), arg.NewLabelPattern()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rd := regArg(inst.Args[0])
			lbl := inst.Args[1].(*arg.Label)
			resolver := inst.Resolver()
			addr, ok := resolver.Resolve(lbl.Name)
			if !ok {
				return asm.Code{}, &LabelError{Name: lbl.Name, Pos: inst.Pos()}
			}
			target := int64(addr) + int64(lbl.Shift)
			pc := (int64(inst.Addr()) + 4) &^ 3
			ofs := target - pc
			if ofs < 0 || ofs > 1020 || ofs%4 != 0 {
				return asm.Code{}, &OffsetOutOfRangeError{Label: lbl.Name, Offset: ofs, Bits: 10, Pos: inst.Pos()}
			}
			code := uint16((0b10100 << 11) + (uint32(rd.Number) << 8) + uint32(ofs)/4)
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
}
