package project

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFull(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[scan]
extensions = ["js", "json", "coffee"]

[resolve]
extensions = [".coffee", ".js"]

[[core]]
id = "alloy"
path = "/alloy.js"

[[core]]
id = "alloy/backbone"
path = "/alloy/backbone.js"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(cfg.Scan.Extensions, []string{"js", "json", "coffee"}) {
		t.Fatalf("scan extensions = %v", cfg.Scan.Extensions)
	}
	if !reflect.DeepEqual(cfg.Resolve.Extensions, []string{".coffee", ".js"}) {
		t.Fatalf("resolve extensions = %v", cfg.Resolve.Extensions)
	}
	entries := cfg.CoreEntries()
	if len(entries) != 2 || entries[1].ID != "alloy/backbone" || entries[1].Path != "/alloy/backbone.js" {
		t.Fatalf("core entries = %+v", entries)
	}
	if cfg.Path != path {
		t.Fatalf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[[core]]\nid = \"ui\"\npath = \"/ui.js\"\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	def := Default()
	if !reflect.DeepEqual(cfg.Scan, def.Scan) || !reflect.DeepEqual(cfg.Resolve, def.Resolve) {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing core id", "[[core]]\npath = \"/a.js\"\n", "missing id"},
		{"missing core path", "[[core]]\nid = \"a\"\n", "missing path"},
		{"duplicate core", "[[core]]\nid = \"a\"\npath = \"/a.js\"\n[[core]]\nid = \"a\"\npath = \"/b.js\"\n", "duplicate id"},
		{"dotted scan ext", "[scan]\nextensions = [\".js\"]\n", "must not contain a dot"},
		{"empty scan ext", "[scan]\nextensions = [\"\"]\n", "empty extension"},
		{"undotted probe ext", "[resolve]\nextensions = [\"js\"]\n", "must start with a dot"},
		{"unknown key", "[scan]\nexts = [\"js\"]\n", "unknown key"},
	}
	for _, tc := range cases {
		path := writeConfig(t, t.TempDir(), tc.body)
		_, err := LoadConfig(path)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: error %v does not wrap ErrInvalidConfig", tc.name, err)
		}
		if !strings.Contains(err.Error(), tc.want) || !strings.HasPrefix(err.Error(), path) {
			t.Fatalf("%s: error %q, want prefix %q and %q", tc.name, err, path, tc.want)
		}
	}
}

func TestLoadConfigSyntaxError(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[scan\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse TOML") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[scan]\nextensions = [\"js\"]\n")
	nested := filepath.Join(root, "src", "lib")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nested, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Scan.Extensions, []string{"js"}) {
		t.Fatalf("scan extensions = %v", cfg.Scan.Extensions)
	}
	want, _ := filepath.Abs(filepath.Join(root, ConfigFileName))
	if cfg.Path != want {
		t.Fatalf("config path = %q, want %q", cfg.Path, want)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}
