// Package config loads a TOML run configuration for a patcher invocation:
// the codebase address, the growth budget for splicing past end-of-file,
// the caller-supplied free-range pool for floating blocks, and the
// preprocessor #define table a patch file's #ifdef/#ifval directives see.
// Grounded on the teacher's config/config.go (BurntSushi/toml, the same
// Load/LoadFrom/Save/SaveTo/GetConfigPath shape and platform-specific
// config directory resolution), retargeted from emulator settings to
// patcher settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// FreeRange is one caller-declared half-open byte range of the original
// firmware image that floating blocks may be allocated into (GLOSSARY:
// Floating block).
type FreeRange struct {
	Start string `toml:"start"` // hex or decimal, parsed by ParseUint32
	End   string `toml:"end"`
}

// Config is a patcher run's configuration.
type Config struct {
	Patch struct {
		Codebase      string      `toml:"codebase"` // GLOSSARY: Codebase
		MaxBinarySize uint32      `toml:"max_binary_size"`
		RetainTail    uint32      `toml:"retain_tail"`
		IgnoreLength  bool        `toml:"ignore_length"`
		FreeRange     []FreeRange `toml:"free_range"`
	} `toml:"patch"`

	Defines map[string]string `toml:"defines"`
}

// DefaultConfig returns a configuration with the v3.x firmware codebase
// and no EOF growth budget or free ranges.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Patch.Codebase = "0x08004000"
	cfg.Patch.MaxBinarySize = 0
	cfg.Patch.RetainTail = 0
	cfg.Patch.IgnoreLength = false
	cfg.Defines = map[string]string{}
	return cfg
}

// ParseUint32 parses a hex ("0x...") or decimal address/size string.
func ParseUint32(s string) (uint32, error) {
	var v uint64
	var err error
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		_, err = fmt.Sscanf(s[2:], "%x", &v)
	} else {
		_, err = fmt.Sscanf(s, "%d", &v)
	}
	if err != nil {
		return 0, fmt.Errorf("config: invalid address/size %q: %w", s, err)
	}
	return uint32(v), nil
}

// Codebase parses the configured codebase string.
func (c *Config) Codebase() (uint32, error) {
	return ParseUint32(c.Patch.Codebase)
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "thumbpatch")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "thumbpatch.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "thumbpatch")

	default:
		return "thumbpatch.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "thumbpatch.toml"
	}

	return filepath.Join(configDir, "thumbpatch.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// is not an error: the caller gets DefaultConfig().
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse config file: %w", err)
	}
	if cfg.Defines == nil {
		cfg.Defines = map[string]string{}
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("config: failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return fmt.Errorf("config: failed to create config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: failed to encode config: %w", err)
	}

	return nil
}
