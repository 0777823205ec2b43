package asm

import (
	"encoding/binary"
	"fmt"

	"github.com/lookbusy1344/thumbpatch/srcpos"
)

// LabelItem defines a symbol at the address it ends up bound to. Local
// labels register in the enclosing block's scope; global labels
// ("global NAME" / "proc NAME") register in the enclosing patch's scope.
type LabelItem struct {
	Name     string
	Global   bool
	position srcpos.Position

	addr uint32
}

func NewLabelItem(name string, global bool, pos srcpos.Position) *LabelItem {
	return &LabelItem{Name: name, Global: global, position: pos}
}

func (l *LabelItem) SetAddr(addr uint32)  { l.addr = addr }
func (l *LabelItem) Addr() uint32         { return l.addr }
func (l *LabelItem) Size() int            { return 0 }
func (l *LabelItem) Pos() srcpos.Position { return l.position }
func (l *LabelItem) Encode() (Code, error) {
	return Code{Raw: []byte{}}, nil
}

func (l *LabelItem) Bind(ctx BindContext) error {
	if l.Global {
		return ctx.DefineGlobal(l.Name, l.addr, l.position)
	}
	return ctx.DefineLocal(l.Name, l.addr, l.position)
}

// ValItem reads a 32-bit little-endian word from the original firmware
// image at the address it is bound to, and registers it as a constant
// in the enclosing patch's scope (the same scope global labels use, so
// a "val" capture and a label can be referenced interchangeably by
// later instructions).
type ValItem struct {
	Name     string
	position srcpos.Position

	addr uint32
}

func NewValItem(name string, pos srcpos.Position) *ValItem {
	return &ValItem{Name: name, position: pos}
}

func (v *ValItem) SetAddr(addr uint32)  { v.addr = addr }
func (v *ValItem) Addr() uint32         { return v.addr }
func (v *ValItem) Size() int            { return 0 }
func (v *ValItem) Pos() srcpos.Position { return v.position }
func (v *ValItem) Encode() (Code, error) {
	return Code{Raw: []byte{}}, nil
}

func (v *ValItem) Bind(ctx BindContext) error {
	raw, err := ctx.ReadOriginal(v.addr, 4)
	if err != nil {
		return fmt.Errorf("%s: val %s: %w", v.position, v.Name, err)
	}
	value := binary.LittleEndian.Uint32(raw)
	return ctx.DefineGlobal(v.Name, value, v.position)
}
