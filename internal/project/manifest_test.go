package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "asngen.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "[package]\nname = \"pdu\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Package.Name != "pdu" {
		t.Errorf("name = %q, want pdu", cfg.Package.Name)
	}
	if len(cfg.Generate.Families) != 2 || cfg.Generate.Families[0] != "ber" {
		t.Errorf("families = %v, want default [ber der]", cfg.Generate.Families)
	}
	if cfg.Generate.Suffix != DefaultSuffix {
		t.Errorf("suffix = %q, want %q", cfg.Generate.Suffix, DefaultSuffix)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should default to enabled")
	}
}

func TestLoadConfigExplicit(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `[package]
name = "pdu"

[generate]
families = ["uper", "xer"]
inputs = ["schema"]
suffix = "_gen.go"

[cache]
enabled = false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Generate.Families) != 2 || cfg.Generate.Families[0] != "uper" {
		t.Errorf("families = %v", cfg.Generate.Families)
	}
	if cfg.Generate.Suffix != "_gen.go" {
		t.Errorf("suffix = %q", cfg.Generate.Suffix)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled")
	}
}

func TestLoadConfigMissingName(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "[generate]\nfamilies = [\"ber\"]\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for missing [package].name")
	}
}

func TestFindManifestWalksParents(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"pdu\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, ok, err := FindManifestPath(nested)
	if err != nil {
		t.Fatalf("FindManifestPath: %v", err)
	}
	if !ok {
		t.Fatal("manifest not found from nested dir")
	}
	if filepath.Dir(path) != root {
		t.Errorf("found %q, want under %q", path, root)
	}

	gotRoot, ok, err := FindRoot(nested)
	if err != nil || !ok {
		t.Fatalf("FindRoot: ok=%v err=%v", ok, err)
	}
	if gotRoot != root {
		t.Errorf("root = %q, want %q", gotRoot, root)
	}
}

func TestFindManifestAbsent(t *testing.T) {
	dir := t.TempDir()
	_, ok, err := FindManifestPath(dir)
	if err != nil {
		t.Fatalf("FindManifestPath: %v", err)
	}
	if ok {
		t.Fatal("unexpectedly found a manifest in an empty temp dir")
	}
}

func TestHashPartsBoundaries(t *testing.T) {
	a := HashParts([]byte("ab"), []byte("c"))
	b := HashParts([]byte("a"), []byte("bc"))
	if a == b {
		t.Fatal("part boundaries must affect the digest")
	}
	if a != HashParts([]byte("ab"), []byte("c")) {
		t.Fatal("digest must be deterministic")
	}
}
