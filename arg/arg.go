// Package arg implements the tagged-variant argument model used by
// instruction definitions (patterns) and instruction instances (values):
// immediates, registers, labels, strings, register lists and ordered
// lists of the above. Every concrete type plays two roles: as a pattern
// it is registered once against an instruction definition, and as a
// value it is produced by the parser for a specific instruction line.
// Pattern.Match(value) decides whether a value satisfies a pattern, and
// for the ThumbExpandImm pattern it also records the encoding fields
// (I/Imm3/Imm8) onto the matched value so the encoder can read them back.
package arg

import "fmt"

// Argument is satisfied by every concrete argument type in both its
// pattern and value role.
type Argument interface {
	// Match reports whether other (a value-role argument) satisfies the
	// receiver (a pattern-role argument). Called with a value-role
	// receiver it degenerates to equality.
	Match(other Argument) bool
	String() string
}

// RegisterAliases maps the ARM procedure-call-standard register names
// (and a few conventional aliases) onto their register numbers.
var RegisterAliases = map[string]uint8{
	"A1": 0, "A2": 1, "A3": 2, "A4": 3,
	"V1": 4, "V2": 5, "V3": 6, "V4": 7, "V5": 8, "V6": 9, "V7": 10, "V8": 11,
	"WR": 7, "SB": 9, "SL": 10, "FP": 11, "IP": 12,
	"R0": 0, "R1": 1, "R2": 2, "R3": 3, "R4": 4, "R5": 5, "R6": 6, "R7": 7,
	"R8": 8, "R9": 9, "R10": 10, "R11": 11, "R12": 12,
	"SP": 13, "LR": 14, "PC": 15, "R13": 13, "R14": 14, "R15": 15,
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// ---------------------------------------------------------------------
// Imm

// Imm is a numeric immediate. In pattern role it constrains bit width,
// sign and alignment (or requests ThumbExpandImm matching); in value
// role it carries a concrete 32-bit value plus, after a successful
// Expandable match, the encoder fields for that value.
type Imm struct {
	Value    int64
	Original string // textual form as written in the patch file, value role only

	IsPattern  bool
	AnyBits    bool // pattern accepts any width (still subject to Lsl/Positive)
	Bits       int
	Positive   bool
	Lsl        int // value must be a multiple of 1<<Lsl
	Expandable bool

	// populated on the matched value when Expandable is true
	ExpI    uint32
	ExpImm3 uint32
	ExpImm8 uint32
}

// NewImmValue builds a value-role immediate.
func NewImmValue(v int64, original string) *Imm {
	return &Imm{Value: v, Original: original}
}

// NewImmPattern builds a pattern-role immediate constrained to bits
// bits wide (two's complement unless positive is set).
func NewImmPattern(bits int, positive bool, lsl int) *Imm {
	return &Imm{IsPattern: true, Bits: bits, Positive: positive, Lsl: lsl}
}

// AnyImmPattern builds a pattern that accepts any immediate value.
func AnyImmPattern() *Imm {
	return &Imm{IsPattern: true, AnyBits: true}
}

// ThumbExpandablePattern builds a pattern that only matches values
// representable by the ARMv7-M modified-immediate constant scheme.
func ThumbExpandablePattern() *Imm {
	return &Imm{IsPattern: true, Expandable: true}
}

func (p *Imm) Match(other Argument) bool {
	o, ok := other.(*Imm)
	if !ok {
		return false
	}
	if !p.IsPattern {
		return o.Value == p.Value
	}
	if p.Expandable {
		enc, ok := thumbExpandImm(uint64(uint32(o.Value)))
		if !ok {
			return false
		}
		o.ExpI, o.ExpImm3, o.ExpImm8 = enc.I, enc.Imm3, enc.Imm8
		return true
	}
	if p.Positive && o.Value < 0 {
		return false
	}
	if !p.AnyBits {
		limit := int64(1) << uint(p.Bits)
		if p.Positive {
			if o.Value < 0 || o.Value >= limit {
				return false
			}
		} else if absInt64(o.Value) > limit/2 {
			return false
		}
	}
	if p.Lsl > 0 {
		mod := o.Value % (int64(1) << uint(p.Lsl))
		if mod != 0 {
			return false
		}
	}
	return true
}

func (p *Imm) String() string {
	if p.IsPattern {
		if p.Expandable {
			return "<thumb-expand-imm>"
		}
		return fmt.Sprintf("<imm%d>", p.Bits)
	}
	if p.Original != "" {
		return p.Original
	}
	return fmt.Sprintf("%d", p.Value)
}

// ThumbExpand holds the three encoder fields of the ARMv7-M
// modified-immediate constant scheme (i:imm3:imm8).
type ThumbExpand struct {
	I, Imm3, Imm8 uint32
}

func rol32(v uint32, n uint32) uint32 {
	n &= 31
	if n == 0 {
		return v
	}
	return (v << n) | (v >> (32 - n))
}

// thumbExpandImm implements ARM ARM A5.3.2. It is exported via
// ThumbExpandImm for use by the encoder package.
func thumbExpandImm(v64 uint64) (ThumbExpand, bool) {
	v := uint32(v64)
	if v <= 0xFF {
		return ThumbExpand{I: 0, Imm3: 0, Imm8: v}, true
	}
	b1 := (v >> 24) & 0xFF
	b2 := (v >> 16) & 0xFF
	b3 := (v >> 8) & 0xFF
	b4 := v & 0xFF

	var val uint32
	switch {
	case b1 == b2 && b2 == b3 && b3 == b4:
		val = (0b11 << 8) + b1
	case b1 == 0 && b3 == 0 && b2 == b4:
		val = (0b01 << 8) + b2
	case b2 == 0 && b4 == 0 && b1 == b3:
		val = (0b10 << 8) + b1
	default:
		found := false
		for i := uint32(8); i < 32; i++ {
			w := rol32(v, i)
			if w&0xFFFFFF00 == 0 && (w&0xFF) == 0x80+(w&0x7F) {
				val = ((i << 7) & 0xFFF) + (w & 0x7F)
				found = true
				break
			}
		}
		if !found {
			return ThumbExpand{}, false
		}
	}
	return ThumbExpand{I: val >> 11, Imm3: (val >> 8) & 0x7, Imm8: val & 0xFF}, true
}

// ThumbExpandImm is the exported form used by the encoder package to
// compute encoding fields independent of any matched Imm value (for
// instance when validating a literal inside an encoder function).
func ThumbExpandImm(v uint32) (ThumbExpand, bool) {
	return thumbExpandImm(uint64(v))
}
