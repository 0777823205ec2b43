package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Patch.Codebase != "0x08004000" {
		t.Errorf("expected default codebase 0x08004000, got %s", cfg.Patch.Codebase)
	}
	if cfg.Patch.MaxBinarySize != 0 {
		t.Errorf("expected default max_binary_size 0, got %d", cfg.Patch.MaxBinarySize)
	}
	if cfg.Patch.IgnoreLength {
		t.Error("expected default ignore_length false")
	}
}

func TestParseUint32(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"0x08004000", 0x08004000},
		{"0X1234", 0x1234},
		{"100", 100},
	}
	for _, c := range cases {
		got, err := ParseUint32(c.in)
		if err != nil {
			t.Fatalf("ParseUint32(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseUint32(%q) = %#x, want %#x", c.in, got, c.want)
		}
	}
	if _, err := ParseUint32("not-a-number"); err == nil {
		t.Error("expected error for invalid input")
	}
}

func TestCodebase(t *testing.T) {
	cfg := DefaultConfig()
	v, err := cfg.Codebase()
	if err != nil {
		t.Fatalf("Codebase: %v", err)
	}
	if v != 0x08004000 {
		t.Errorf("Codebase() = %#x, want 0x08004000", v)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()
	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "thumbpatch.toml" {
		t.Errorf("expected path to end with thumbpatch.toml, got %s", path)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Patch.Codebase = "0x08010000"
	cfg.Patch.MaxBinarySize = 0x40000
	cfg.Patch.RetainTail = 16
	cfg.Patch.IgnoreLength = true
	cfg.Patch.FreeRange = []FreeRange{{Start: "0x08020000", End: "0x08022000"}}
	cfg.Defines = map[string]string{"PLATFORM": "v3"}

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.Patch.Codebase != "0x08010000" {
		t.Errorf("expected codebase 0x08010000, got %s", loaded.Patch.Codebase)
	}
	if loaded.Patch.MaxBinarySize != 0x40000 {
		t.Errorf("expected max_binary_size 0x40000, got %#x", loaded.Patch.MaxBinarySize)
	}
	if !loaded.Patch.IgnoreLength {
		t.Error("expected ignore_length true")
	}
	if len(loaded.Patch.FreeRange) != 1 || loaded.Patch.FreeRange[0].Start != "0x08020000" {
		t.Errorf("expected one free_range starting 0x08020000, got %+v", loaded.Patch.FreeRange)
	}
	if loaded.Defines["PLATFORM"] != "v3" {
		t.Errorf("expected define PLATFORM=v3, got %q", loaded.Defines["PLATFORM"])
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}
	if cfg.Patch.Codebase != "0x08004000" {
		t.Error("expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[patch]
max_binary_size = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}
}
