package firmware

import (
	"path/filepath"
	"testing"
)

func TestLoadAndAddressing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fw.bin")
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	if err := Save(path, data); err != nil {
		t.Fatalf("Save: %v", err)
	}

	im, err := Load(path, 0x08004000)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(im.Bytes) != len(data) {
		t.Fatalf("expected %d bytes, got %d", len(data), len(im.Bytes))
	}

	off, err := im.AddressToOffset(0x08004002)
	if err != nil {
		t.Fatalf("AddressToOffset: %v", err)
	}
	if off != 2 {
		t.Errorf("expected offset 2, got %d", off)
	}
	if addr := im.OffsetToAddress(2); addr != 0x08004002 {
		t.Errorf("expected address 0x08004002, got %#x", addr)
	}

	if _, err := im.AddressToOffset(0x08003FFF); err == nil {
		t.Error("expected error for address below codebase")
	}
}

func TestReadAt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fw.bin")
	data := []byte{0xEF, 0xBE, 0xAD, 0xDE}
	if err := Save(path, data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	im, err := Load(path, 0x08004000)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got, err := im.ReadAt(0x08004000, 4)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("ReadAt returned %x, want %x", got, data)
	}

	if _, err := im.ReadAt(0x08004002, 4); err == nil {
		t.Error("expected error reading past end of image")
	}
}
