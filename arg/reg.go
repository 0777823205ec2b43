package arg

import "fmt"

// RegSet constrains which register numbers a Reg pattern accepts.
type RegSet int

const (
	RegAny      RegSet = iota // r0-r15
	RegLow                    // r0-r7
	RegNotPC                  // r0-r14
	RegSpecific               // a single fixed register number (Number field)
)

// Reg is a register operand. Value role carries Number; pattern role
// carries Set (and Number when Set == RegSpecific).
type Reg struct {
	Number uint8

	IsPattern bool
	Set       RegSet
}

func NewRegValue(n uint8) *Reg { return &Reg{Number: n} }

func NewRegPattern(set RegSet) *Reg { return &Reg{IsPattern: true, Set: set} }

func NewRegExact(n uint8) *Reg { return &Reg{IsPattern: true, Set: RegSpecific, Number: n} }

func (p *Reg) Match(other Argument) bool {
	o, ok := other.(*Reg)
	if !ok {
		return false
	}
	if !p.IsPattern {
		return o.Number == p.Number
	}
	switch p.Set {
	case RegAny:
		return o.Number <= 15
	case RegLow:
		return o.Number <= 7
	case RegNotPC:
		return o.Number <= 14
	case RegSpecific:
		return o.Number == p.Number
	}
	return false
}

func (p *Reg) String() string {
	if !p.IsPattern {
		return regName(p.Number)
	}
	switch p.Set {
	case RegLow:
		return "<lo-reg>"
	case RegNotPC:
		return "<reg-not-pc>"
	case RegSpecific:
		return regName(p.Number)
	default:
		return "<reg>"
	}
}

func regName(n uint8) string {
	switch n {
	case 13:
		return "SP"
	case 14:
		return "LR"
	case 15:
		return "PC"
	default:
		return fmt.Sprintf("R%d", n)
	}
}

// ---------------------------------------------------------------------
// Label

// Label is a symbolic reference, optionally with a constant shift
// ("name+4"); resolved against the three-level symbol scope chain at
// bind time by the encoder package.
type Label struct {
	Name  string
	Shift int32

	IsPattern bool
}

func NewLabelValue(name string, shift int32) *Label { return &Label{Name: name, Shift: shift} }

func NewLabelPattern() *Label { return &Label{IsPattern: true} }

func (p *Label) Match(other Argument) bool {
	o, ok := other.(*Label)
	if !ok {
		return false
	}
	if p.IsPattern {
		return true
	}
	return o.Name == p.Name && o.Shift == p.Shift
}

func (p *Label) String() string {
	if p.IsPattern {
		return "<label>"
	}
	if p.Shift != 0 {
		return fmt.Sprintf("%s+%d", p.Name, p.Shift)
	}
	return p.Name
}

// ---------------------------------------------------------------------
// Str

// Str is a literal byte string, used by DCB and by mask literal tokens.
type Str struct {
	Bytes []byte

	IsPattern bool
}

func NewStrValue(b []byte) *Str { return &Str{Bytes: b} }

func NewStrPattern() *Str { return &Str{IsPattern: true} }

func (p *Str) Match(other Argument) bool {
	o, ok := other.(*Str)
	if !ok {
		return false
	}
	if p.IsPattern {
		return true
	}
	return string(o.Bytes) == string(p.Bytes)
}

func (p *Str) String() string {
	if p.IsPattern {
		return "<str>"
	}
	return fmt.Sprintf("%q", p.Bytes)
}

// ---------------------------------------------------------------------
// List and Alt

// List is an ordered, fixed-length sequence of arguments, used to model
// addressing-mode operands like "[Rn, #imm]" or "[Rn]" that an
// instruction definition expresses as alternative shapes.
type List struct {
	Items []Argument
}

func (p *List) Match(other Argument) bool {
	o, ok := other.(*List)
	if !ok || len(p.Items) != len(o.Items) {
		return false
	}
	for i := range p.Items {
		if !p.Items[i].Match(o.Items[i]) {
			return false
		}
	}
	return true
}

func (p *List) String() string {
	s := "["
	for i, it := range p.Items {
		if i > 0 {
			s += ", "
		}
		s += it.String()
	}
	return s + "]"
}

// Alt is a pattern-only argument that matches if any of its Options
// matches; it lets an instruction definition offer several shapes for
// one operand slot, e.g. "[Rn]" or "[Rn, #imm]".
type Alt struct {
	Options []Argument
}

func (p *Alt) Match(other Argument) bool {
	for _, o := range p.Options {
		if o.Match(other) {
			return true
		}
	}
	return false
}

func (p *Alt) String() string {
	s := ""
	for i, o := range p.Options {
		if i > 0 {
			s += " | "
		}
		s += o.String()
	}
	return s
}
