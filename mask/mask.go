// Package mask locates a patch block's anchor position inside the
// original firmware image. Grounded on
// original_source/libpatcher/mask.py: a mask is an alternating sequence
// of literal byte strings and "skip N bytes" gaps; matching scans for
// the first literal part and walks the remaining parts from each
// candidate position, rejecting the match if more than one position in
// the image satisfies the whole sequence.
package mask

import (
	"bytes"
	"fmt"

	"github.com/lookbusy1344/thumbpatch/srcpos"
)

// Part is one element of a mask: either a literal byte sequence to
// match, or a skip of N bytes that is not checked against the data.
type Part struct {
	Literal []byte // nil when this part is a skip
	Skip    int
}

func Literal(b []byte) Part { return Part{Literal: b} }
func Skip(n int) Part       { return Part{Skip: n} }

func (p Part) isSkip() bool { return p.Literal == nil }

// Mask anchors a block to a position in the original firmware by a
// sequence of literal/skip parts, plus an offset applied to the matched
// position (the byte distance from the start of the mask's matched
// region to the block's actual start, e.g. for a leading "?N" skip that
// the parser folds into a negative Offset rather than keeping as a
// leading Part).
type Mask struct {
	Parts  []Part
	Offset int
	Pos    srcpos.Position

	// floatingSize is set only for floating masks (Parts == nil): blocks
	// with no anchor, whose size is declared directly instead of derived
	// from matched literal/skip lengths.
	floatingSize int
	isFloating   bool
}

func New(parts []Part, offset int, pos srcpos.Position) *Mask {
	m := &Mask{Pos: pos}
	if len(parts) > 0 && parts[0].isSkip() {
		offset -= parts[0].Skip
		parts = parts[1:]
	}
	m.Parts = parts
	m.Offset = offset
	return m
}

// NewFloating builds a mask with no anchor: its block is placed by the
// free-range allocator instead of matched against the original image.
func NewFloating(size int, pos srcpos.Position) *Mask {
	return &Mask{isFloating: true, floatingSize: size, Pos: pos}
}

func (m *Mask) Floating() bool { return m.isFloating || len(m.Parts) == 0 }

// MaskNotFoundError reports that a mask's literal/skip sequence never
// occurred in the original image.
type MaskNotFoundError struct {
	Mask *Mask
}

func (e *MaskNotFoundError) Error() string {
	return fmt.Sprintf("mask not found: %s", e.Mask.describe())
}

// AmbiguousMaskError reports that a mask's sequence occurred more than
// once. Unlike the Python source, where AmbiguousMaskError subclasses
// MaskNotFoundError, it is a separate type with no relation to
// MaskNotFoundError, so callers check for each type on its own.
type AmbiguousMaskError struct {
	Mask *Mask
}

func (e *AmbiguousMaskError) Error() string {
	return fmt.Sprintf("ambiguous mask (matched more than once): %s", e.Mask.describe())
}

func (m *Mask) describe() string {
	if m.Floating() {
		return "floating mask"
	}
	s := fmt.Sprintf("mask at %s:", m.Pos)
	for _, p := range m.Parts {
		if p.isSkip() {
			s += fmt.Sprintf(" ?%d", p.Skip)
		} else {
			s += fmt.Sprintf(" % X", p.Literal)
		}
	}
	return fmt.Sprintf("%s @%d", s, m.Offset)
}

// Match scans data for the single position where every part of the
// mask's literal/skip sequence lines up, and returns that position plus
// m.Offset. It returns MaskNotFoundError if the sequence never occurs,
// and AmbiguousMaskError if it occurs more than once.
func (m *Mask) Match(data []byte) (int, error) {
	if m.Floating() {
		return 0, fmt.Errorf("mask: cannot match a floating mask")
	}
	first := m.Parts[0].Literal
	found := -1
	pos1 := bytes.Index(data, first)
	for pos1 != -1 {
		pos := pos1 + len(first)
		matched := true
		for _, p := range m.Parts[1:] {
			if p.isSkip() {
				pos += p.Skip
				continue
			}
			if pos+len(p.Literal) > len(data) || !bytes.Equal(data[pos:pos+len(p.Literal)], p.Literal) {
				matched = false
				break
			}
			pos += len(p.Literal)
		}
		if matched {
			if found != -1 {
				return 0, &AmbiguousMaskError{Mask: m}
			}
			found = pos1
		}
		next := bytes.Index(data[pos1+1:], first)
		if next == -1 {
			pos1 = -1
		} else {
			pos1 = pos1 + 1 + next
		}
	}
	if found == -1 {
		return 0, &MaskNotFoundError{Mask: m}
	}
	return found + m.Offset, nil
}

// Size returns the byte length of the mask's "active" region: the sum
// of every part's length minus the leading-skip offset already folded
// in by New, or the declared size for a floating mask.
func (m *Mask) Size() int {
	if m.Floating() {
		return m.floatingSize
	}
	total := 0
	for _, p := range m.Parts {
		if p.isSkip() {
			total += p.Skip
		} else {
			total += len(p.Literal)
		}
	}
	return total - m.Offset
}

// SetFloatingSize sets the declared size of a floating mask; it panics
// if called on an anchored mask, mirroring the Python source's
// size-setter guard.
func (m *Mask) SetFloatingSize(size int) {
	if !m.Floating() {
		panic("mask: SetFloatingSize on an anchored mask")
	}
	m.floatingSize = size
}
