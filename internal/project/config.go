package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"modresolve/internal/registry"
	"modresolve/internal/resolver"
)

// ErrInvalidConfig marks validation failures in modresolve.toml.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the decoded form of modresolve.toml.
type Config struct {
	Scan    ScanConfig    `toml:"scan"`
	Resolve ResolveConfig `toml:"resolve"`
	Core    []CoreModule  `toml:"core"`

	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`
}

// ScanConfig controls which files the registry builder lists.
type ScanConfig struct {
	// Extensions are matched without the leading dot.
	Extensions []string `toml:"extensions"`
}

// ResolveConfig controls extension probing.
type ResolveConfig struct {
	// Extensions are probed in order and carry the leading dot.
	Extensions []string `toml:"extensions"`
}

// CoreModule is one [[core]] table.
type CoreModule struct {
	ID   string `toml:"id"`
	Path string `toml:"path"`
}

// Default returns the configuration used when no modresolve.toml exists.
func Default() Config {
	return Config{
		Scan:    ScanConfig{Extensions: append([]string(nil), registry.DefaultExtensions...)},
		Resolve: ResolveConfig{Extensions: append([]string(nil), resolver.DefaultExtensions...)},
	}
}

// CoreEntries converts [[core]] tables into registry entries.
func (c Config) CoreEntries() []registry.Entry {
	if len(c.Core) == 0 {
		return nil
	}
	out := make([]registry.Entry, len(c.Core))
	for i, m := range c.Core {
		out[i] = registry.Entry{ID: m.ID, Path: m.Path}
	}
	return out
}

// LoadConfig decodes and validates path. Sections that are absent keep their
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q: %w", path, undecoded[0].String(), ErrInvalidConfig)
	}
	if meta.IsDefined("scan", "extensions") {
		cfg.Scan.Extensions = raw.Scan.Extensions
	}
	if meta.IsDefined("resolve", "extensions") {
		cfg.Resolve.Extensions = raw.Resolve.Extensions
	}
	cfg.Core = raw.Core
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load finds modresolve.toml above startDir and loads it. When explicit is
// non-empty it is loaded directly and must exist.
func Load(startDir, explicit string) (Config, error) {
	if explicit != "" {
		return LoadConfig(explicit)
	}
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return LoadConfig(path)
}

// Validate checks extension lists and core tables.
func (c Config) Validate() error {
	for _, ext := range c.Scan.Extensions {
		if strings.TrimSpace(ext) == "" {
			return fmt.Errorf("[scan].extensions: empty extension: %w", ErrInvalidConfig)
		}
		if strings.Contains(ext, ".") {
			return fmt.Errorf("[scan].extensions: %q must not contain a dot: %w", ext, ErrInvalidConfig)
		}
	}
	for _, ext := range c.Resolve.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("[resolve].extensions: %q must start with a dot: %w", ext, ErrInvalidConfig)
		}
	}
	seen := make(map[string]struct{}, len(c.Core))
	for i, m := range c.Core {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("[[core]] #%d: missing id: %w", i+1, ErrInvalidConfig)
		}
		if strings.TrimSpace(m.Path) == "" {
			return fmt.Errorf("[[core]] %q: missing path: %w", m.ID, ErrInvalidConfig)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("[[core]] %q: duplicate id: %w", m.ID, ErrInvalidConfig)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}
