package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modresolve/internal/resolver"
	"modresolve/internal/ui"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// execute runs the root command. Subcommand flags keep their values between
// runs, so callers pass every flag they depend on.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--color=off", "--config="}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func sampleTree(t *testing.T) string {
	return writeFiles(t, map[string]string{
		"modresolve.toml":             "[[core]]\nid = \"alloy\"\npath = \"/vendor/alloy.js\"\n",
		"app.js":                      "",
		"lib/index.js":                "",
		"node_modules/x/package.json": `{"main": "dist/x.js"}`,
		"node_modules/x/dist/x.js":    "",
		"node_modules/alloy/index.js": "",
	})
}

func TestReadColorMode(t *testing.T) {
	cases := []struct {
		in      string
		want    colorMode
		wantErr bool
	}{
		{"", colorModeAuto, false},
		{"auto", colorModeAuto, false},
		{"on", colorModeOn, false},
		{"off", colorModeOff, false},
		{"always", "", true},
	}
	for _, tc := range cases {
		got, err := readColorMode(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("readColorMode(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	results := []resolver.Result{
		{Request: "./a", Path: "/a", Rule: resolver.RuleFile, RuleName: "file"},
		{Request: "nope", Path: "nope", Rule: resolver.RuleFallback, RuleName: "fallback"},
	}
	if err := printResults(&buf, ui.Palette{}, results); err != nil {
		t.Fatal(err)
	}
	want := "./a -> /a  (file)\nnope -> nope\n"
	if buf.String() != want {
		t.Fatalf("printResults = %q, want %q", buf.String(), want)
	}
}

func TestResolveCommand(t *testing.T) {
	root := sampleTree(t)
	out, _, err := execute(t, "resolve", "--from=/", "--snapshot=", "--format=text",
		root, "./lib", "x", "alloy", "./app", "nope")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []string{
		"./lib -> /lib/index  (directory)",
		"x -> /node_modules/x/dist/x  (package-directory)",
		"alloy -> /vendor/alloy  (core)",
		"./app -> /app  (file)",
		"nope -> nope",
	}
	if got := strings.Split(strings.TrimRight(out, "\n"), "\n"); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("resolve output:\n%s\nwant:\n%s", out, strings.Join(want, "\n"))
	}
}

func TestScanCommand(t *testing.T) {
	root := sampleTree(t)
	out, _, err := execute(t, "scan", root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "4 files, 3 directories, 1 core modules (generation 1)") {
		t.Fatalf("scan output = %q", out)
	}
}

func TestScanCommandMissingRoot(t *testing.T) {
	_, _, err := execute(t, "scan", filepath.Join(t.TempDir(), "missing"))
	if err == nil || !strings.Contains(err.Error(), "scan root") {
		t.Fatalf("err = %v", err)
	}
}

func TestExportSnapshotThenResolve(t *testing.T) {
	root := sampleTree(t)
	snapPath := filepath.Join(t.TempDir(), "registry.msgpack")

	if _, _, err := execute(t, "export", "--format=msgpack", "--output="+snapPath, root); err != nil {
		t.Fatalf("export: %v", err)
	}
	// the tree changes after the snapshot; resolution must follow the snapshot
	if err := os.Remove(filepath.Join(root, "app.js")); err != nil {
		t.Fatal(err)
	}
	// the configured core table wins over the one saved in the snapshot
	config := "[[core]]\nid = \"alloy\"\npath = \"/vendor/alloy-next.js\"\n"
	if err := os.WriteFile(filepath.Join(root, "modresolve.toml"), []byte(config), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "resolve", "--from=/", "--snapshot="+snapPath, "--format=json", root, "./app", "x", "alloy")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var results []resolver.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(results) != 3 || results[0].Path != "/app" || results[1].Path != "/node_modules/x/dist/x" {
		t.Fatalf("results = %+v", results)
	}
	if results[2].Path != "/vendor/alloy-next" {
		t.Fatalf("alloy = %q, want /vendor/alloy-next", results[2].Path)
	}
	if results[0].RuleName != "file" {
		t.Fatalf("rule = %q", results[0].RuleName)
	}
}

func TestExportJSON(t *testing.T) {
	root := sampleTree(t)
	out, _, err := execute(t, "export", "--format=json", "--output=", root)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var snap struct {
		Files       []string `json:"files"`
		Directories []struct {
			ID   string `json:"id"`
			Path string `json:"path"`
		} `json:"directories"`
		Generation uint64 `json:"generation"`
	}
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Files) != 4 || len(snap.Directories) != 3 || snap.Generation != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestExportMsgpackNeedsOutput(t *testing.T) {
	_, _, err := execute(t, "export", "--format=msgpack", "--output=", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "requires --output") {
		t.Fatalf("err = %v", err)
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format=json", "--full=false")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var info versionInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version == "" || info.GoVersion == "" {
		t.Fatalf("info = %+v", info)
	}
}
