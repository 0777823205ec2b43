package patchfile

import (
	"fmt"

	"github.com/lookbusy1344/thumbpatch/asm"
	"github.com/lookbusy1344/thumbpatch/mask"
)

// Block is a contiguous run of asm.BlockItem values anchored either by a
// mask match against the original firmware or, for a floating block, by
// the free-range allocator. Grounded on
// original_source/libpatcher/block.py.
type Block struct {
	Patch *Patch
	Mask  *mask.Mask
	Items []asm.BlockItem

	context map[string]uint32

	addr      uint32
	bound     bool
	hasPos    bool
	position  int
}

func NewBlock(patch *Patch, m *mask.Mask, items []asm.BlockItem) *Block {
	return &Block{Patch: patch, Mask: m, Items: items, context: make(map[string]uint32)}
}

func (b *Block) Context() map[string]uint32 { return b.context }

// Size sums every item's size; for an unbound block whose items include
// a Computed size (e.g. ALIGN) this reflects the sizes as of the last
// SetAddr call, matching the Python source's own "will this work before
// binding?" caveat.
func (b *Block) Size() int {
	total := 0
	for _, it := range b.Items {
		total += it.Size()
	}
	return total
}

// GetPosition resolves this block's anchor: a mask match against binary
// for an anchored block, or an allocation from ranges for a floating
// one. The result is cached.
func (b *Block) GetPosition(binary []byte, ranges *Ranges) (int, error) {
	if b.hasPos {
		return b.position, nil
	}
	if b.Mask.Floating() {
		if ranges == nil {
			return 0, fmt.Errorf("patchfile: floating block requires a range pool")
		}
		pos, err := ranges.Find(b.Size())
		if err != nil {
			return 0, err
		}
		b.position = pos
	} else {
		pos, err := b.Mask.Match(binary)
		if err != nil {
			return 0, err
		}
		b.position = pos
	}
	b.hasPos = true
	return b.position, nil
}

// Bind assigns addr as this block's base address, then walks its items
// in order: each item's SetAddr is called before its Bind hook, so a
// val/global label item can read its own freshly-assigned address.
func (b *Block) Bind(addr uint32, ctx asm.BindContext) error {
	if b.Mask.Floating() {
		for _, it := range b.Items {
			if _, ok := it.(*asm.ValItem); ok {
				return fmt.Errorf("patchfile: val instruction at %s is not allowed in a floating block", it.Pos())
			}
		}
	}
	b.addr = addr
	cur := addr
	for _, it := range b.Items {
		it.SetAddr(cur)
		if err := it.Bind(ctx); err != nil {
			return err
		}
		cur += uint32(it.Size())
	}
	b.bound = true
	return nil
}

// GetCode renders this block's full byte sequence; every item's encoded
// length must match the size it reported during Bind.
func (b *Block) GetCode() ([]byte, error) {
	out := make([]byte, 0, b.Size())
	for _, it := range b.Items {
		code, err := it.Encode()
		if err != nil {
			return nil, fmt.Errorf("block %s, item at %s: %w", b.describeMask(), it.Pos(), err)
		}
		bytes := code.Bytes()
		if len(bytes) != it.Size() {
			return nil, fmt.Errorf("block %s: internal check failed: item at %s encoded %d bytes, expected %d",
				b.describeMask(), it.Pos(), len(bytes), it.Size())
		}
		out = append(out, bytes...)
	}
	return out, nil
}

func (b *Block) describeMask() string {
	if b.Mask.Floating() {
		return "floating"
	}
	return b.Mask.Pos.String()
}
