package patchfile

import (
	"fmt"

	"github.com/lookbusy1344/thumbpatch/asm"
	"github.com/lookbusy1344/thumbpatch/srcpos"
)

// Applicator drives the two-phase bind-then-emit pipeline: BindAll
// assigns every block an address (via mask match or free-range
// allocation) and resolves val/global labels against the original
// binary; Apply then encodes every block and splices the results into
// a copy of the original binary. Grounded on
// original_source/libpatcher/patch.py's Patch.bindall/apply, split out
// because here label resolution (asm.Resolver) and bind hooks
// (asm.BindContext) are explicit interfaces rather than implicit method
// calls on the instruction.
type Applicator struct {
	Patch    *Patch
	Codebase uint32
	Ranges   *Ranges

	bound bool
}

func NewApplicator(p *Patch, codebase uint32, ranges *Ranges) *Applicator {
	return &Applicator{Patch: p, Codebase: codebase, Ranges: ranges}
}

// allBlocks returns the library's blocks followed by the patch's own
// blocks (the library's are skipped when the patch is its own library, i.e. there were no
// #include directives).
func (a *Applicator) allBlocks() []*Block {
	if a.Patch.library == a.Patch {
		return a.Patch.Blocks
	}
	all := make([]*Block, 0, len(a.Patch.Blocks)+len(a.Patch.library.Blocks))
	all = append(all, a.Patch.library.Blocks...)
	all = append(all, a.Patch.Blocks...)
	return all
}

// blockScope implements both asm.Resolver and asm.BindContext for one
// block, chaining label lookup block-local -> patch-global ->
// library-global, and recording global/val definitions into the
// block's enclosing patch's context.
type blockScope struct {
	app   *Applicator
	block *Block
}

func (s *blockScope) Resolver() asm.Resolver { return s }

func (s *blockScope) Resolve(name string) (uint32, bool) {
	if v, ok := s.block.context[name]; ok {
		return v, true
	}
	if v, ok := s.block.Patch.context[name]; ok {
		return v, true
	}
	if v, ok := s.block.Patch.library.context[name]; ok {
		return v, true
	}
	return 0, false
}

func (s *blockScope) DefineLocal(name string, val uint32, pos srcpos.Position) error {
	if _, dup := s.block.context[name]; dup {
		return fmt.Errorf("%s: duplicate local symbol %q", pos, name)
	}
	s.block.context[name] = val
	return nil
}

func (s *blockScope) DefineGlobal(name string, val uint32, pos srcpos.Position) error {
	if err := s.block.Patch.DefineGlobal(name, val); err != nil {
		return fmt.Errorf("%s: %w", pos, err)
	}
	return nil
}

func (s *blockScope) ReadOriginal(addr uint32, size int) ([]byte, error) {
	offset := int64(addr) - int64(s.app.Codebase)
	if offset < 0 || offset+int64(size) > int64(len(s.block.Patch.Binary)) {
		return nil, fmt.Errorf("patchfile: val read at address 0x%08X (offset %d) out of range", addr, offset)
	}
	return s.block.Patch.Binary[offset : offset+int64(size)], nil
}

// BindAll assigns every block of patch (and its library) a base
// address and runs every item's bind hook, in source order.
func (a *Applicator) BindAll() error {
	if a.bound {
		return fmt.Errorf("patchfile: already bound")
	}
	for _, block := range a.allBlocks() {
		pos, err := block.GetPosition(a.Patch.Binary, a.Ranges)
		if err != nil {
			return err
		}
		scope := &blockScope{app: a, block: block}
		if err := block.Bind(uint32(pos)+a.Codebase, scope); err != nil {
			return err
		}
	}
	a.bound = true
	return nil
}

// BlockOverflowError reports that a block's encoded length exceeds its
// mask's declared size.
type BlockOverflowError struct {
	Encoded, MaskSize, Position int
}

func (e *BlockOverflowError) Error() string {
	return fmt.Sprintf("patchfile: encoded length %d exceeds mask size %d at position %d", e.Encoded, e.MaskSize, e.Position)
}

// Apply binds (if not already bound) and splices every block's encoded
// bytes into a copy of the original binary, returning the patched
// result. ignoreLength suppresses BlockOverflowError when an anchored
// block's encoded bytes run longer than its mask's matched region but
// still fit within the remainder of the binary.
func (a *Applicator) Apply(ignoreLength bool) ([]byte, error) {
	if !a.bound {
		if err := a.BindAll(); err != nil {
			return nil, err
		}
	}
	out := append([]byte(nil), a.Patch.Binary...)
	for _, block := range a.allBlocks() {
		pos, err := block.GetPosition(a.Patch.Binary, a.Ranges)
		if err != nil {
			return nil, err
		}
		code, err := block.GetCode()
		if err != nil {
			return nil, err
		}
		if !block.Mask.Floating() && len(code) > block.Mask.Size() && !ignoreLength {
			return nil, &BlockOverflowError{Encoded: len(code), MaskSize: block.Mask.Size(), Position: pos}
		}
		if end := pos + len(code); end > len(out) {
			// A floating block placed in a free range past the end of the
			// original image grows the binary (§6.4); an anchored block
			// can never legitimately reach past the end of the image it
			// was matched against.
			if !block.Mask.Floating() {
				return nil, fmt.Errorf("patchfile: block at %d, %d bytes, overruns binary of length %d", pos, len(code), len(out))
			}
			out = append(out, make([]byte, end-len(out))...)
		}
		copy(out[pos:pos+len(code)], code)
	}
	return a.Ranges.RestoreTail(out), nil
}
