// Package project locates and loads the asngen.toml manifest that marks the
// root of a generation project and carries its configuration.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultSuffix is the filename suffix of generated files.
const DefaultSuffix = "_asn1.gen.go"

// Manifest pairs a parsed configuration with its location on disk.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the asngen.toml layout.
type Config struct {
	Package  PackageConfig  `toml:"package"`
	Generate GenerateConfig `toml:"generate"`
	Cache    CacheConfig    `toml:"cache"`
}

// PackageConfig names the project.
type PackageConfig struct {
	Name string `toml:"name"`
}

// GenerateConfig selects what gets generated and where.
type GenerateConfig struct {
	// Families lists the encoding-rule families to generate, by name.
	Families []string `toml:"families"`
	// Inputs lists files or directories with annotated source, relative to
	// the manifest root.
	Inputs []string `toml:"inputs"`
	// Suffix overrides the generated-file suffix.
	Suffix string `toml:"suffix"`
}

// CacheConfig controls the generation disk cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// FindManifestPath walks up from startDir to locate asngen.toml.
func FindManifestPath(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "asngen.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindRoot returns the directory containing asngen.toml, if any.
func FindRoot(startDir string) (root string, ok bool, err error) {
	manifestPath, ok, err := FindManifestPath(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}

// Load locates the manifest starting at startDir and parses it.
func Load(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifestPath(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig parses and validates one manifest file. [package].name is
// required; [generate] and [cache] get defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if len(cfg.Generate.Families) == 0 {
		cfg.Generate.Families = []string{"ber", "der"}
	}
	if len(cfg.Generate.Inputs) == 0 {
		cfg.Generate.Inputs = []string{"."}
	}
	if strings.TrimSpace(cfg.Generate.Suffix) == "" {
		cfg.Generate.Suffix = DefaultSuffix
	}
	if !meta.IsDefined("cache", "enabled") {
		cfg.Cache.Enabled = true
	}
	return cfg, nil
}

// DefaultManifest renders a starter asngen.toml for `asngen init`.
func DefaultManifest(name string) string {
	return fmt.Sprintf(`# asngen project manifest
[package]
name = "%s"

[generate]
families = ["ber", "der"]
inputs = ["."]

[cache]
enabled = true
`, name)
}
