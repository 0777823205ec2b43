// Package asm holds the instruction registry: definitions (mnemonic +
// argument pattern list + size + encoder function) and instances (a
// definition matched against concrete arguments from one line of a
// patch file). Definitions are registered by the encoder package's
// init functions; parser looks them up by mnemonic and argument shape.
package asm

import (
	"fmt"

	"github.com/lookbusy1344/thumbpatch/arg"
	"github.com/lookbusy1344/thumbpatch/srcpos"
)

// Code is the encoded output of one instruction: either one or two
// 16-bit Thumb halfwords, or a raw byte sequence (DCB/DCW/DCD/string
// data, where "halfword" framing does not apply).
type Code struct {
	Halfwords []uint16
	Raw       []byte
}

// Bytes renders Code in little-endian wire order.
func (c Code) Bytes() []byte {
	if c.Raw != nil {
		return c.Raw
	}
	out := make([]byte, 0, len(c.Halfwords)*2)
	for _, h := range c.Halfwords {
		out = append(out, byte(h), byte(h>>8))
	}
	return out
}

func (c Code) Size() int {
	if c.Raw != nil {
		return len(c.Raw)
	}
	return len(c.Halfwords) * 2
}

// Resolver looks a symbol up across the three-level scope chain
// (block-local, patch-global, library-global). Implemented by
// patchfile's per-block scope (blockScope in applicator.go).
type Resolver interface {
	Resolve(name string) (uint32, bool)
}

// BindContext is handed to every BlockItem during Block.Bind so that
// label- and val-items can register themselves and read the original
// firmware image.
type BindContext interface {
	Resolver() Resolver
	DefineLocal(name string, addr uint32, pos srcpos.Position) error
	DefineGlobal(name string, value uint32, pos srcpos.Position) error
	ReadOriginal(addr uint32, n int) ([]byte, error)
}

// BlockItem is one entry of a Block's instruction list: a real
// instruction, or a pseudo-item (label definition, val capture).
type BlockItem interface {
	SetAddr(addr uint32)
	Addr() uint32
	Size() int
	Bind(ctx BindContext) error
	Encode() (Code, error)
	Pos() srcpos.Position
}

// Definition is one registered instruction form.
type Definition struct {
	Mnemonics []string
	Args      []arg.Argument // pattern role; may contain *arg.Alt
	SizeFixed int            // ignored when SizeFunc is set
	SizeFunc  func(inst *Instance) int
	Encode    func(inst *Instance) (Code, error)
}

func (d *Definition) hasMnemonic(m string) bool {
	for _, x := range d.Mnemonics {
		if x == m {
			return true
		}
	}
	return false
}

func (d *Definition) matchArgs(args []arg.Argument) bool {
	if len(d.Args) != len(args) {
		return false
	}
	for i := range d.Args {
		if !d.Args[i].Match(args[i]) {
			return false
		}
	}
	return true
}

var registry []*Definition

// Register adds a definition to the registry. Definitions are tried in
// registration order, so narrower forms must be registered before wider
// overloads that would also match.
func Register(d *Definition) {
	registry = append(registry, d)
}

// ErrNoMatch is returned by Find when no registered definition matches.
type ErrNoMatch struct {
	Mnemonic string
	Pos      srcpos.Position
}

func (e *ErrNoMatch) Error() string {
	return fmt.Sprintf("%s: no encoding of %q matches the given operands", e.Pos, e.Mnemonic)
}

// Find looks up the first registered definition whose mnemonic set
// contains mnemonic and whose argument patterns match args.
func Find(mnemonic string, args []arg.Argument, pos srcpos.Position) (*Definition, error) {
	for _, d := range registry {
		if d.hasMnemonic(mnemonic) && d.matchArgs(args) {
			return d, nil
		}
	}
	return nil, &ErrNoMatch{Mnemonic: mnemonic, Pos: pos}
}

// Instance is a Definition bound to concrete arguments from one source
// line; it becomes a BlockItem once placed in a Block.
type Instance struct {
	Def      *Definition
	Mnemonic string
	Args     []arg.Argument
	position srcpos.Position

	addr     uint32
	resolver Resolver
}

func NewInstance(def *Definition, mnemonic string, args []arg.Argument, pos srcpos.Position) *Instance {
	return &Instance{Def: def, Mnemonic: mnemonic, Args: args, position: pos}
}

func (i *Instance) SetAddr(addr uint32) { i.addr = addr }
func (i *Instance) Addr() uint32        { return i.addr }
func (i *Instance) Pos() srcpos.Position { return i.position }

func (i *Instance) Size() int {
	if i.Def.SizeFunc != nil {
		return i.Def.SizeFunc(i)
	}
	return i.Def.SizeFixed
}

func (i *Instance) Bind(ctx BindContext) error {
	i.resolver = ctx.Resolver()
	return nil
}

// Resolver exposes the scope chain captured at Bind time, for use by
// encoder functions computing PC-relative offsets.
func (i *Instance) Resolver() Resolver { return i.resolver }

func (i *Instance) Encode() (Code, error) {
	return i.Def.Encode(i)
}

// HasSuffix reports whether the concrete mnemonic used on this line
// carries the given suffix, e.g. "S" for MOVS vs MOV, or ".W" for a
// forced wide encoding.
func (i *Instance) HasSuffix(suffix string) bool {
	m := i.Mnemonic
	for len(m) >= len(suffix) {
		if m[len(m)-len(suffix):] == suffix {
			return true
		}
		break
	}
	return false
}
