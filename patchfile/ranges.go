package patchfile

import "fmt"

// RangeError reports that no free range was large enough to hold a
// floating block. Grounded on original_source/libpatcher/ranges.py's
// RangeError, which subclasses MaskNotFoundError there; here it is a
// distinct type callers can distinguish with errors.As.
type RangeError struct {
	Size int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("no suitable free range for %d bytes", e.Size)
}

// span is a half-open byte range [From, To) in the target binary.
type span struct {
	From, To int
}

func (s span) len() int { return s.To - s.From }

// Ranges is the free-range pool floating blocks are allocated from.
// Grounded on original_source/libpatcher/ranges.py's Ranges class.
type Ranges struct {
	spans     []span
	remainder []byte
	used      bool
}

func NewRanges() *Ranges { return &Ranges{} }

// Add registers [from, to) as available. Overlapping or duplicate
// ranges panic, matching the Python source's AssertionError — these
// indicate a programming error in the caller's range configuration,
// not a recoverable runtime condition.
func (r *Ranges) Add(from, to int) {
	if from > to {
		panic(fmt.Sprintf("patchfile: illegal range %d-%d", from, to))
	}
	if from == to {
		return
	}
	kept := r.spans[:0]
	for _, s := range r.spans {
		if s.From == s.To {
			continue
		}
		if s.From == from && s.To == to {
			panic(fmt.Sprintf("patchfile: duplicate range %d-%d", from, to))
		}
		if from < s.To && to > s.From {
			panic(fmt.Sprintf("patchfile: range clash %d-%d vs %d-%d", from, to, s.From, s.To))
		}
		kept = append(kept, s)
	}
	r.spans = kept
	for i := range r.spans {
		if r.spans[i].To == from {
			r.spans[i].To = to
			return
		}
		if r.spans[i].From == to {
			r.spans[i].From = from
			return
		}
	}
	r.spans = append(r.spans, span{From: from, To: to})
}

// AddEOF reserves the trailing `retain` bytes of binary (stashed for
// RestoreTail) and adds the remaining room up to maxSize as a usable
// range, when the binary is not already within `retain` bytes of
// maxSize.
func (r *Ranges) AddEOF(binary []byte, maxSize, retain int) {
	if len(binary) >= maxSize-retain {
		return
	}
	r.remainder = append([]byte(nil), binary[len(binary)-retain:]...)
	r.Add(len(binary), maxSize-retain)
}

// RestoreTail re-appends the bytes reserved by AddEOF, if Find has been
// called at least once (on any range, whether or not it succeeded).
func (r *Ranges) RestoreTail(binary []byte) []byte {
	if r.remainder != nil && r.used {
		return append(binary, r.remainder...)
	}
	return binary
}

// Find returns the start offset of a free range of at least size bytes,
// preferring the smallest range that still fits (best-fit, minimizing
// fragmentation of larger spans), and shrinks that range by size.
func (r *Ranges) Find(size int) (int, error) {
	r.used = true
	best := -1
	for i, s := range r.spans {
		if s.len() < size {
			continue
		}
		if best == -1 || s.len() < r.spans[best].len() {
			best = i
		}
	}
	if best == -1 {
		return 0, &RangeError{Size: size}
	}
	start := r.spans[best].From
	r.spans[best].From += size
	return start, nil
}
