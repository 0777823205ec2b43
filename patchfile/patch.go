package patchfile

import "fmt"

// Patch represents one patch file's worth of blocks and global symbol
// map; it may also be the distinguished "library" patch aggregating
// every block pulled in across the session via #include. Grounded on
// original_source/libpatcher/patch.py.
type Patch struct {
	Name    string
	Binary  []byte
	Blocks  []*Block
	context map[string]uint32
	library *Patch
}

// NewPatch creates a patch. If library is nil, the new patch is its own
// library (the top-level / no-includes case); otherwise binary is taken
// from the library.
func NewPatch(name string, library *Patch, binary []byte) (*Patch, error) {
	if binary == nil && library == nil {
		return nil, fmt.Errorf("patchfile: neither binary nor library provided for patch %q", name)
	}
	p := &Patch{Name: name, context: make(map[string]uint32)}
	if library != nil {
		p.library = library
		p.Binary = library.Binary
	} else {
		p.library = p
		p.Binary = binary
	}
	return p, nil
}

func (p *Patch) Library() *Patch { return p.library }

func (p *Patch) Context() map[string]uint32 { return p.context }

// DefineGlobal registers name in this patch's global symbol map,
// rejecting duplicates (every scope's names must be unique per §3 of
// the symbol-scope rules).
func (p *Patch) DefineGlobal(name string, val uint32) error {
	if _, dup := p.context[name]; dup {
		return fmt.Errorf("patchfile: duplicate global symbol %q in patch %q", name, p.Name)
	}
	p.context[name] = val
	return nil
}

func (p *Patch) AddBlock(b *Block) { p.Blocks = append(p.Blocks, b) }
