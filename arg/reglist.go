package arg

import (
	"sort"
	"strings"
)

// TriState expresses a register-list constraint: the register must be
// present, must be absent, or its presence is unconstrained.
type TriState int

const (
	DontCare TriState = iota
	Required
	Forbidden
)

// RegList is a curly-brace register set, as used by PUSH/POP/LDM/STM.
// Value role carries the sorted register numbers; pattern role
// constrains the presence of PC/LR/SP and a low-register cut-off
// (narrow T1 forms only allow r0-r7, wide T2 forms allow r0-r12).
type RegList struct {
	Regs []uint8

	IsPattern bool
	Lo        TriState // constrains every register below LoCutoff as a block
	PCState   TriState
	LRState   TriState
	SPState   TriState
	LoCutoff  uint8 // 0 means 8
}

func NewRegListValue(regs []uint8) *RegList {
	cp := append([]uint8(nil), regs...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	return &RegList{Regs: cp}
}

func (p *RegList) Match(other Argument) bool {
	o, ok := other.(*RegList)
	if !ok {
		return false
	}
	if !p.IsPattern {
		if len(p.Regs) != len(o.Regs) {
			return false
		}
		for i := range p.Regs {
			if p.Regs[i] != o.Regs[i] {
				return false
			}
		}
		return true
	}
	has := func(r uint8) bool {
		for _, x := range o.Regs {
			if x == r {
				return true
			}
		}
		return false
	}
	check := func(state TriState, reg uint8) bool {
		switch state {
		case Required:
			return has(reg)
		case Forbidden:
			return !has(reg)
		default:
			return true
		}
	}
	if !check(p.PCState, 15) || !check(p.LRState, 14) || !check(p.SPState, 13) {
		return false
	}
	cutoff := p.LoCutoff
	if cutoff == 0 {
		cutoff = 8
	}
	if p.Lo == Required || p.Lo == Forbidden {
		for _, r := range o.Regs {
			if r == 13 || r == 14 || r == 15 {
				continue
			}
			if p.Lo == Required && r >= cutoff {
				return false
			}
			if p.Lo == Forbidden && r < cutoff {
				return false
			}
		}
	}
	return true
}

func (p *RegList) String() string {
	if p.IsPattern {
		return "<reglist>"
	}
	names := make([]string, len(p.Regs))
	for i, r := range p.Regs {
		names[i] = regName(r)
	}
	return "{" + strings.Join(names, ",") + "}"
}

// LowMask returns the 13-bit (r0-r12) bitmask used by PUSH.W/POP.W; LR
// and PC are not included (see Has).
func (p *RegList) LowMask() uint16 {
	var m uint16
	for _, r := range p.Regs {
		if r <= 12 {
			m |= 1 << r
		}
	}
	return m
}

func (p *RegList) Has(n uint8) bool {
	for _, r := range p.Regs {
		if r == n {
			return true
		}
	}
	return false
}

func (p *RegList) MaxReg() uint8 {
	max := uint8(0)
	for _, r := range p.Regs {
		if r > max {
			max = r
		}
	}
	return max
}
