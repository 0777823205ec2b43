package encoder

import (
	"github.com/lookbusy1344/thumbpatch/arg"
	"github.com/lookbusy1344/thumbpatch/asm"
)

// Grounded on original_source/libpatcher/asm.py's ADD/MOV/MOVS/MOVW/SUB/SUBS/
// UXTB/MUL forms, extended with forms spec.md requires that the Python
// source never implemented (LSL/LSR, AND/EOR/TST T2, RSB, SUB.W, CMP),
// synthesized in the same closure-per-family style against the ARM ARM.

func lo() *arg.Reg  { return arg.NewRegPattern(arg.RegLow) }
func anyReg() *arg.Reg { return arg.NewRegPattern(arg.RegNotPC) }

func init() {
	registerMov()
	registerAddSub()
	registerDataProcImm()
	registerCompareTest()
	registerShifts()
	registerMulUxtb()
}

// registerMov covers MOV/MOVS (lo/lo, any/any, lo/imm8, ThumbExpandImm
// T2) and MOVW (T3 16-bit positive immediate).
func registerMov() {
	setsFlags := func(inst *asm.Instance) uint32 {
		if inst.HasSuffix("S") {
			return 1
		}
		return 0
	}

	// MOV Rd, Rm (any register, T1 hi-register-capable, never sets flags)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"MOV"},
		Args:      []arg.Argument{anyReg(), anyReg()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rd := regArg(inst.Args[0])
			rm := regArg(inst.Args[1])
			d := uint32(rd.Number>>3) & 1
			rdn3 := uint32(rd.Number) & 7
			code := uint16((0b01000110 << 8) + (d << 7) + (uint32(rm.Number) << 3) + rdn3)
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	// MOVS Rd, Rm (lo/lo, sets flags, encoded as LSLS Rd, Rm, #0)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"MOVS"},
		Args:      []arg.Argument{lo(), lo()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rd := regArg(inst.Args[0])
			rm := regArg(inst.Args[1])
			code := uint16((uint32(rm.Number) << 3) + uint32(rd.Number))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	// MOV/MOVS Rd, #imm8 (lo, T1)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"MOV", "MOVS"},
		Args:      []arg.Argument{lo(), arg.NewImmPattern(8, true, 0)},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rd := regArg(inst.Args[0])
			imm := immArg(inst.Args[1])
			code := uint16((0b00100 << 11) + (uint32(rd.Number) << 8) + uint32(imm.Value))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	// MOV/MOVS Rd, #ThumbExpandImm (any register, T2, 32-bit)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"MOV", "MOVS", "MOV.W"},
		Args:      []arg.Argument{anyReg(), arg.ThumbExpandablePattern()},
		SizeFixed: 4,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rd := regArg(inst.Args[0])
			imm := immArg(inst.Args[1])
			s := setsFlags(inst)
			hi := uint16((0b11110 << 11) + (imm.ExpI << 10) + (0b10 << 5) + (s << 4) + 0b1111)
			lo := uint16((imm.ExpImm3 << 12) + (uint32(rd.Number) << 8) + imm.ExpImm8)
			return asm.Code{Halfwords: []uint16{hi, lo}}, nil
		},
	})
	// MOVW Rd, #imm16 (positive, T3)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"MOV", "MOV.W", "MOVW"},
		Args:      []arg.Argument{anyReg(), arg.NewImmPattern(16, true, 0)},
		SizeFixed: 4,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rd := regArg(inst.Args[0])
			imm := uint32(immArg(inst.Args[1]).Value)
			part := func(bits, shift uint32) uint32 { return (imm >> shift) & ((1 << bits) - 1) }
			hi := uint16((0b11110 << 11) + (part(1, 11) << 10) + (0b1001 << 6) + part(4, 12))
			lo := uint16((part(3, 8) << 12) + (uint32(rd.Number) << 8) + part(8, 0))
			return asm.Code{Halfwords: []uint16{hi, lo}}, nil
		},
	})
}

// registerAddSub covers ADD/ADDS and SUB/SUBS (the forms that have a
// genuine Thumb-1 encoding) plus SUB.W (T4 12-bit immediate) and RSB
// (the Rn,#0 negate idiom).
func registerAddSub() {
	// ADD Rdn, Rm (any register, T2 hi-register-capable, never sets flags)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"ADD"},
		Args:      []arg.Argument{anyReg(), anyReg()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rdn := regArg(inst.Args[0])
			rm := regArg(inst.Args[1])
			dn := uint32(rdn.Number>>3) & 1
			rdn3 := uint32(rdn.Number) & 7
			code := uint16((0b01000100 << 8) + (dn << 7) + (uint32(rm.Number) << 3) + rdn3)
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	// ADD/ADDS Rd, Rn, Rm (lo/lo/lo, T1 register form)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"ADD", "ADDS"},
		Args:      []arg.Argument{lo(), lo(), lo()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rd, rn, rm := regArg(inst.Args[0]), regArg(inst.Args[1]), regArg(inst.Args[2])
			code := uint16((0b0001100 << 9) + (uint32(rm.Number) << 6) + (uint32(rn.Number) << 3) + uint32(rd.Number))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	// ADD Rd, SP, #imm8*4 (lo/SP/imm, T1)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"ADD", "ADDS"},
		Args:      []arg.Argument{lo(), arg.NewRegExact(13), arg.NewImmPattern(10, true, 2)},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rd := regArg(inst.Args[0])
			imm := immArg(inst.Args[2])
			code := uint16((0b10101 << 11) + (uint32(rd.Number) << 8) + uint32(imm.Value)/4)
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	// ADD SP, SP, #imm7*4 (SP/SP/imm, T2)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"ADD", "ADDS"},
		Args:      []arg.Argument{arg.NewRegExact(13), arg.NewRegExact(13), arg.NewImmPattern(9, true, 2)},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			imm := immArg(inst.Args[2])
			code := uint16((0b101100000 << 7) + uint32(imm.Value)/4)
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	// ADD/ADDS Rdn, #imm8 (lo/imm8, T2 2-operand)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"ADD", "ADDS"},
		Args:      []arg.Argument{lo(), arg.NewImmPattern(8, true, 0)},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rdn := regArg(inst.Args[0])
			imm := immArg(inst.Args[1])
			code := uint16((0b00110 << 11) + (uint32(rdn.Number) << 8) + uint32(imm.Value))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})

	// SUB/SUBS Rd, Rn, Rm (lo/lo/lo, T1 register form); "lo/lo" is an
	// alias of this with Rd==Rn (Thumb-1 has no dedicated 2-operand SUB).
	subReg := func(inst *asm.Instance) (asm.Code, error) {
		rd, rn, rm := regArg(inst.Args[0]), regArg(inst.Args[1]), regArg(inst.Args[2])
		code := uint16((0b0001101 << 9) + (uint32(rm.Number) << 6) + (uint32(rn.Number) << 3) + uint32(rd.Number))
		return asm.Code{Halfwords: []uint16{code}}, nil
	}
	asm.Register(&asm.Definition{
		Mnemonics: []string{"SUB", "SUBS"},
		Args:      []arg.Argument{lo(), lo(), lo()},
		SizeFixed: 2,
		Encode:    subReg,
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"SUB", "SUBS"},
		Args:      []arg.Argument{lo(), lo()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rdn := regArg(inst.Args[0])
			rm := regArg(inst.Args[1])
			aliased := asm.NewInstance(inst.Def, inst.Mnemonic, []arg.Argument{rdn, rdn, rm}, inst.Pos())
			return subReg(aliased)
		},
	})
	// SUB SP, SP, #imm7*4 (SP/SP/imm, T1)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"SUB", "SUBS"},
		Args:      []arg.Argument{arg.NewRegExact(13), arg.NewRegExact(13), arg.NewImmPattern(9, true, 2)},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			imm := immArg(inst.Args[2])
			code := uint16((0b101100001 << 7) + uint32(imm.Value)/4)
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	// SUB/SUBS Rdn, #imm8 (lo/imm8, T2 2-operand)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"SUB", "SUBS"},
		Args:      []arg.Argument{lo(), arg.NewImmPattern(8, true, 0)},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rdn := regArg(inst.Args[0])
			imm := immArg(inst.Args[1])
			code := uint16((0b00111 << 11) + (uint32(rdn.Number) << 8) + uint32(imm.Value))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	// SUB.W Rd, Rn, #imm12 (T4, plain 12-bit immediate, never sets flags)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"SUB", "SUB.W"},
		Args:      []arg.Argument{anyReg(), anyReg(), arg.NewImmPattern(12, true, 0)},
		SizeFixed: 4,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rd, rn := regArg(inst.Args[0]), regArg(inst.Args[1])
			imm := uint32(immArg(inst.Args[2]).Value)
			part := func(bits, shift uint32) uint32 { return (imm >> shift) & ((1 << bits) - 1) }
			hi := uint16((0b11110 << 11) + (part(1, 11) << 10) + (0b10101 << 5) + uint32(rn.Number))
			lo := uint16((part(3, 8) << 12) + (uint32(rd.Number) << 8) + part(8, 0))
			return asm.Code{Halfwords: []uint16{hi, lo}}, nil
		},
	})
	// RSB Rd, Rn, #0 (negate)
	asm.Register(&asm.Definition{
		Mnemonics: []string{"RSB", "RSBS"},
		Args:      []arg.Argument{lo(), lo(), arg.NewImmValue(0, "0")},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rd, rn := regArg(inst.Args[0]), regArg(inst.Args[1])
			code := uint16((0b0100001001 << 6) + (uint32(rn.Number) << 3) + uint32(rd.Number))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
}

// registerDataProcImm covers AND/ANDS and EOR/EORS, both the 32-bit T2
// ThumbExpandImm form (the only form spec.md requires for them).
func registerDataProcImm() {
	family := func(opcode uint32) func(inst *asm.Instance) (asm.Code, error) {
		return func(inst *asm.Instance) (asm.Code, error) {
			rd, rn := regArg(inst.Args[0]), regArg(inst.Args[1])
			imm := immArg(inst.Args[2])
			s := uint32(0)
			if inst.HasSuffix("S") {
				s = 1
			}
			hi := uint16((0b11110 << 11) + (imm.ExpI << 10) + (opcode << 5) + (s << 4) + uint32(rn.Number))
			lo := uint16((imm.ExpImm3 << 12) + (uint32(rd.Number) << 8) + imm.ExpImm8)
			return asm.Code{Halfwords: []uint16{hi, lo}}, nil
		}
	}
	asm.Register(&asm.Definition{
		Mnemonics: []string{"AND", "ANDS"},
		Args:      []arg.Argument{anyReg(), anyReg(), arg.ThumbExpandablePattern()},
		SizeFixed: 4,
		Encode:    family(0b0000),
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"EOR", "EORS"},
		Args:      []arg.Argument{anyReg(), anyReg(), arg.ThumbExpandablePattern()},
		SizeFixed: 4,
		Encode:    family(0b0100),
	})
}

// registerCompareTest covers CMP (lo/imm8, lo/lo, any/any, T2
// ThumbExpandImm) and TST (lo/lo, T2 ThumbExpandImm).
func registerCompareTest() {
	asm.Register(&asm.Definition{
		Mnemonics: []string{"CMP"},
		Args:      []arg.Argument{lo(), arg.NewImmPattern(8, true, 0)},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rn := regArg(inst.Args[0])
			imm := immArg(inst.Args[1])
			code := uint16((0b00101 << 11) + (uint32(rn.Number) << 8) + uint32(imm.Value))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"CMP"},
		Args:      []arg.Argument{lo(), lo()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rn, rm := regArg(inst.Args[0]), regArg(inst.Args[1])
			code := uint16((0b0100001010 << 6) + (uint32(rm.Number) << 3) + uint32(rn.Number))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"CMP"},
		Args:      []arg.Argument{anyReg(), anyReg()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rn, rm := regArg(inst.Args[0]), regArg(inst.Args[1])
			dn := uint32(rn.Number>>3) & 1
			rn3 := uint32(rn.Number) & 7
			code := uint16((0b0100010100000000) + (dn << 7) + (uint32(rm.Number) << 3) + rn3)
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"CMP"},
		Args:      []arg.Argument{anyReg(), arg.ThumbExpandablePattern()},
		SizeFixed: 4,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rn := regArg(inst.Args[0])
			imm := immArg(inst.Args[1])
			hi := uint16((0b11110 << 11) + (imm.ExpI << 10) + (0b01101 << 5) + (1 << 4) + uint32(rn.Number))
			lo := uint16((imm.ExpImm3 << 12) + (0b1111 << 8) + imm.ExpImm8)
			return asm.Code{Halfwords: []uint16{hi, lo}}, nil
		},
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"TST"},
		Args:      []arg.Argument{lo(), lo()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rn, rm := regArg(inst.Args[0]), regArg(inst.Args[1])
			code := uint16((0b0100001000 << 6) + (uint32(rm.Number) << 3) + uint32(rn.Number))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"TST"},
		Args:      []arg.Argument{anyReg(), arg.ThumbExpandablePattern()},
		SizeFixed: 4,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rn := regArg(inst.Args[0])
			imm := immArg(inst.Args[1])
			hi := uint16((0b11110 << 11) + (imm.ExpI << 10) + (0b0000 << 5) + (1 << 4) + uint32(rn.Number))
			lo := uint16((imm.ExpImm3 << 12) + (0b1111 << 8) + imm.ExpImm8)
			return asm.Code{Halfwords: []uint16{hi, lo}}, nil
		},
	})
}

// registerShifts covers LSL/LSLS and LSR/LSRS, immediate-shift lo-register forms.
func registerShifts() {
	shift := func(op uint32) func(inst *asm.Instance) (asm.Code, error) {
		return func(inst *asm.Instance) (asm.Code, error) {
			rd, rm := regArg(inst.Args[0]), regArg(inst.Args[1])
			imm := immArg(inst.Args[2])
			code := uint16((op << 11) + (uint32(imm.Value) << 6) + (uint32(rm.Number) << 3) + uint32(rd.Number))
			return asm.Code{Halfwords: []uint16{code}}, nil
		}
	}
	asm.Register(&asm.Definition{
		Mnemonics: []string{"LSL", "LSLS"},
		Args:      []arg.Argument{lo(), lo(), arg.NewImmPattern(5, true, 0)},
		SizeFixed: 2,
		Encode:    shift(0b00000),
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"LSR", "LSRS"},
		Args:      []arg.Argument{lo(), lo(), arg.NewImmPattern(5, true, 0)},
		SizeFixed: 2,
		Encode:    shift(0b00001),
	})
}

// registerMulUxtb covers MUL/MULS (2-operand, Rdn = Rdn * Rm) and UXTB.
func registerMulUxtb() {
	asm.Register(&asm.Definition{
		Mnemonics: []string{"MUL", "MULS"},
		Args:      []arg.Argument{lo(), lo()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rdn, rm := regArg(inst.Args[0]), regArg(inst.Args[1])
			code := uint16((0b0100001101 << 6) + (uint32(rm.Number) << 3) + uint32(rdn.Number))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
	asm.Register(&asm.Definition{
		Mnemonics: []string{"UXTB"},
		Args:      []arg.Argument{lo(), lo()},
		SizeFixed: 2,
		Encode: func(inst *asm.Instance) (asm.Code, error) {
			rd, rm := regArg(inst.Args[0]), regArg(inst.Args[1])
			code := uint16((0b1011001011 << 6) + (uint32(rm.Number) << 3) + uint32(rd.Number))
			return asm.Code{Halfwords: []uint16{code}}, nil
		},
	})
}
