// Package encoder registers every supported instruction form into the
// asm registry (via each file's init function) and provides the shared
// PC-relative offset arithmetic that branch- and load-literal-style
// encoders build on.
package encoder

import (
	"github.com/lookbusy1344/thumbpatch/arg"
	"github.com/lookbusy1344/thumbpatch/asm"
)

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// rawOffset resolves lbl against inst's scope chain and returns the
// signed byte distance from the instruction's PC (addr+4) to the
// target (label address plus the label's constant shift).
func rawOffset(inst *asm.Instance, lbl *arg.Label) (int64, error) {
	resolver := inst.Resolver()
	base, ok := resolver.Resolve(lbl.Name)
	if !ok {
		return 0, &LabelError{Name: lbl.Name, Pos: inst.Pos()}
	}
	target := int64(base) + int64(lbl.Shift)
	pc := int64(inst.Addr()) + 4
	return target - pc, nil
}

// Offset resolves lbl and returns an unsigned, bits-wide, right-shifted
// representation of the PC-relative distance, validating range,
// (optional) sign and (optional) alignment. This is the primitive every
// branch-family encoder calls.
func Offset(inst *asm.Instance, lbl *arg.Label, bits int, shift int, positive bool) (uint32, error) {
	ofs, err := rawOffset(inst, lbl)
	if err != nil {
		return 0, err
	}
	if positive && ofs < 0 {
		return 0, &OffsetOutOfRangeError{Label: lbl.Name, Offset: ofs, Bits: bits, Pos: inst.Pos()}
	}
	if absInt64(ofs) >= (int64(1) << uint(bits)) {
		return 0, &OffsetOutOfRangeError{Label: lbl.Name, Offset: ofs, Bits: bits, Pos: inst.Pos()}
	}
	wrapped := uint32(ofs) & ((1 << uint(bits)) - 1)
	if shift > 0 {
		mask := uint32(1<<uint(shift)) - 1
		if wrapped&mask != 0 {
			return 0, &MisalignedOffsetError{Label: lbl.Name, Offset: ofs, Align: 1 << uint(shift), Pos: inst.Pos()}
		}
		wrapped >>= uint(shift)
	}
	return wrapped, nil
}

// OffsetSlice returns bits starting at shift of the full 32-bit
// two's-complement PC-relative distance, with no range or alignment
// validation of its own (the caller validates range separately, e.g.
// via ValidateOffsetBits, before slicing several fields out of one
// offset — as the 19-bit B{cond}.W encoding does).
func OffsetSlice(inst *asm.Instance, lbl *arg.Label, bits int, shift int) (uint32, error) {
	ofs, err := rawOffset(inst, lbl)
	if err != nil {
		return 0, err
	}
	wrapped := uint32(ofs)
	return (wrapped >> uint(shift)) & ((1 << uint(bits)) - 1), nil
}

// ValidateOffsetBits checks that the PC-relative distance to lbl fits
// in a signed bits-wide field, without producing a slice.
func ValidateOffsetBits(inst *asm.Instance, lbl *arg.Label, bits int) error {
	ofs, err := rawOffset(inst, lbl)
	if err != nil {
		return err
	}
	if absInt64(ofs) >= (int64(1) << uint(bits)) {
		return &OffsetOutOfRangeError{Label: lbl.Name, Offset: ofs, Bits: bits, Pos: inst.Pos()}
	}
	return nil
}

// ValidateOffsetRange checks that the raw signed PC-relative distance
// to lbl lies within [lo, hi] inclusive (used by CBZ/CBNZ, whose offset
// must be positive and small).
func ValidateOffsetRange(inst *asm.Instance, lbl *arg.Label, lo, hi int64) error {
	ofs, err := rawOffset(inst, lbl)
	if err != nil {
		return err
	}
	if ofs < lo || ofs > hi {
		return &OffsetOutOfRangeError{Label: lbl.Name, Offset: ofs, Bits: 0, Pos: inst.Pos()}
	}
	return nil
}

func regArg(a arg.Argument) *arg.Reg           { return a.(*arg.Reg) }
func immArg(a arg.Argument) *arg.Imm           { return a.(*arg.Imm) }
func labelArg(a arg.Argument) *arg.Label       { return a.(*arg.Label) }
func regListArg(a arg.Argument) *arg.RegList   { return a.(*arg.RegList) }
func strArg(a arg.Argument) *arg.Str           { return a.(*arg.Str) }
func listArg(a arg.Argument) *arg.List         { return a.(*arg.List) }
