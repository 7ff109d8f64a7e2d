package registry

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestToPosix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`lib\util.js`, "lib/util.js"},
		{"lib/util.js", "lib/util.js"},
		{`\\?\C:\very\long\path.js`, `\\?\C:\very\long\path.js`},
		{`lib\модуль.js`, `lib\модуль.js`},
		{`a\b\c`, "a/b/c"},
	}
	for _, tc := range cases {
		if got := toPosix(tc.in); got != tc.want {
			t.Fatalf("toPosix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMainEntry(t *testing.T) {
	cases := []struct {
		name    string
		fields  map[string]any
		want    string
		ok      bool
		wantErr bool
	}{
		{"absent", map[string]any{}, "", false, false},
		{"string", map[string]any{"main": "lib/a.js"}, "lib/a.js", true, false},
		{"empty", map[string]any{"main": ""}, "", false, false},
		{"null", map[string]any{"main": nil}, "", false, false},
		{"false", map[string]any{"main": false}, "", false, false},
		{"number", map[string]any{"main": float64(3)}, "", false, true},
		{"object", map[string]any{"main": map[string]any{}}, "", false, true},
	}
	for _, tc := range cases {
		got, ok, err := mainEntry(tc.fields)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: err = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%s: mainEntry = %q, %v; want %q, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestJSONManifestParser(t *testing.T) {
	p := JSONManifestParser{}
	if m, err := p.Parse([]byte(`[1, 2]`)); err != nil || len(m) != 0 {
		t.Fatalf("array manifest: %v, %v; want empty mapping", m, err)
	}
	if _, err := p.Parse([]byte(`{"main": "a.js"} {}`)); err == nil {
		t.Fatal("expected error on trailing document")
	}
	if _, err := p.Parse([]byte(``)); err == nil {
		t.Fatal("expected error on empty manifest")
	}
	if _, err := p.Parse([]byte(" null ")); err == nil {
		t.Fatal("expected error on null manifest")
	}
	if m, err := p.Parse([]byte(`"main.js"`)); err != nil || len(m) != 0 {
		t.Fatalf("string manifest: %v, %v; want empty mapping", m, err)
	}
}

func TestSnapshotFile(t *testing.T) {
	snap := Snapshot{
		Files:       []string{"/a.js", "/node_modules/x/index.js"},
		Directories: []Entry{{ID: "/node_modules/x", Path: "/node_modules/x/index.js"}},
		Core:        []Entry{{ID: "alloy", Path: "/alloy.js"}},
		Generation:  7,
	}
	path := filepath.Join(t.TempDir(), "cache", "registry.mp")
	if err := WriteSnapshot(path, "/work/app", snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, root, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if root != "/work/app" {
		t.Fatalf("root = %q, want /work/app", root)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Fatalf("snapshot = %+v, want %+v", got, snap)
	}
}

func TestReadSnapshotMissing(t *testing.T) {
	_, _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.mp"))
	if err == nil || IsSnapshotError(err) {
		t.Fatalf("err = %v, want plain IO error", err)
	}
	if errors.Is(err, ErrSnapshotSchema) {
		t.Fatal("missing file reported as schema mismatch")
	}
}
