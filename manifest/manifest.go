// Package manifest handles tern.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest represents a tern.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Build   Build       `toml:"build"`
	Cache   CacheConfig `toml:"cache"`

	// Dir is the directory containing the tern.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Build configures compilation: the entry source file, the compiled
// output path, and whether a debug sidecar is written.
type Build struct {
	Entry  string `toml:"entry"`
	Output string `toml:"output"`
	Debug  bool   `toml:"debug"`
}

// CacheConfig configures the compiled-script cache. The cache is off
// unless a manifest enables it.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load parses a tern.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "tern.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Build.Entry == "" {
		m.Build.Entry = "main.tern"
	}
	if m.Build.Output == "" {
		m.Build.Output = scriptName(m.Build.Entry)
	}
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".tern", "cache.db")
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a tern.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "tern.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the entry source file.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Dir, m.Build.Entry)
}

// OutputPath returns the absolute path of the compiled script.
func (m *Manifest) OutputPath() string {
	return filepath.Join(m.Dir, m.Build.Output)
}

// CachePath returns the absolute path of the cache database.
func (m *Manifest) CachePath() string {
	return filepath.Join(m.Dir, m.Cache.Path)
}

// scriptName maps a source file name to its compiled script name:
// main.tern becomes main.ternc.
func scriptName(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".ternc"
}
