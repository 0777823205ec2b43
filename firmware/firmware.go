// Package firmware holds the thin binary-loading and address-conversion
// helpers every patcher run needs before handing bytes to the parser and
// patchfile packages: reading the original image off disk, converting
// between absolute addresses and file offsets given a codebase, and
// writing the spliced result back out. Grounded on the teacher's
// loader/loader.go (the counterpart that turns a parsed program into
// bytes at addresses) but reduced to what a batch splicer needs — this
// system never executes the image, so there is no memory-segment or
// permission model to carry over, only the byte buffer and the codebase
// arithmetic (GLOSSARY: Codebase).
package firmware

import (
	"fmt"
	"os"
)

// Image is the original firmware byte buffer plus the codebase it is
// mapped at.
type Image struct {
	Bytes    []byte
	Codebase uint32
}

// Load reads path into memory and pairs it with codebase.
func Load(path string, codebase uint32) (*Image, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied firmware path
	if err != nil {
		return nil, fmt.Errorf("firmware: failed to read %s: %w", path, err)
	}
	return &Image{Bytes: data, Codebase: codebase}, nil
}

// AddressToOffset converts an absolute address into a byte offset into
// Bytes, failing if the address lies below the codebase.
func (im *Image) AddressToOffset(addr uint32) (int, error) {
	if addr < im.Codebase {
		return 0, fmt.Errorf("firmware: address 0x%08X is below codebase 0x%08X", addr, im.Codebase)
	}
	return int(addr - im.Codebase), nil
}

// OffsetToAddress converts a byte offset into Bytes into an absolute
// address.
func (im *Image) OffsetToAddress(offset int) uint32 {
	return im.Codebase + uint32(offset)
}

// ReadAt reads n bytes from Bytes starting at the given absolute
// address. The "val" pseudo-instruction (asm.ValItem) does not use it;
// it reads through asm.BindContext.ReadOriginal instead.
func (im *Image) ReadAt(addr uint32, n int) ([]byte, error) {
	off, err := im.AddressToOffset(addr)
	if err != nil {
		return nil, err
	}
	if off+n > len(im.Bytes) {
		return nil, fmt.Errorf("firmware: read of %d bytes at 0x%08X runs past end of image (length %d)", n, addr, len(im.Bytes))
	}
	return im.Bytes[off : off+n], nil
}

// Save writes data to path, replacing any existing file.
func Save(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil { // #nosec G306 -- patched firmware is not secret material
		return fmt.Errorf("firmware: failed to write %s: %w", path, err)
	}
	return nil
}
