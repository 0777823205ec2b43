package encoder

import (
	"fmt"

	"github.com/lookbusy1344/thumbpatch/srcpos"
)

// LabelError reports a reference to a symbol that could not be resolved
// through the block-local / patch-global / library-global scope chain.
type LabelError struct {
	Name string
	Pos  srcpos.Position
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("%s: undefined label %q", e.Pos, e.Name)
}

// OffsetOutOfRangeError reports a PC-relative offset that does not fit
// the bit width (or sign) an instruction's encoding requires.
type OffsetOutOfRangeError struct {
	Label  string
	Offset int64
	Bits   int
	Pos    srcpos.Position
}

func (e *OffsetOutOfRangeError) Error() string {
	return fmt.Sprintf("%s: offset %d to %q does not fit in %d bits", e.Pos, e.Offset, e.Label, e.Bits)
}

// MisalignedOffsetError reports a PC-relative offset that violates the
// instruction's required alignment (e.g. branch targets must be
// halfword-aligned).
type MisalignedOffsetError struct {
	Label  string
	Offset int64
	Align  int
	Pos    srcpos.Position
}

func (e *MisalignedOffsetError) Error() string {
	return fmt.Sprintf("%s: offset %d to %q is not a multiple of %d", e.Pos, e.Offset, e.Label, e.Align)
}

// EncodingError wraps a lower-level failure with the instruction
// mnemonic that produced it, mirroring the teacher's encoder.EncodingError
// shape so callers can errors.Unwrap to the underlying cause.
type EncodingError struct {
	Instruction string
	Message     string
	Pos         srcpos.Position
	Wrapped     error
}

func (e *EncodingError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Pos, e.Instruction, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Instruction, e.Message)
}

func (e *EncodingError) Unwrap() error { return e.Wrapped }

func NewEncodingError(instr string, pos srcpos.Position, message string) *EncodingError {
	return &EncodingError{Instruction: instr, Message: message, Pos: pos}
}

func WrapEncodingError(instr string, pos srcpos.Position, message string, wrapped error) *EncodingError {
	return &EncodingError{Instruction: instr, Message: message, Pos: pos, Wrapped: wrapped}
}
