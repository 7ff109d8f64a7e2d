package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"off", LevelOff, false},
		{"", LevelOff, false},
		{"PHASE", LevelPhase, false},
		{"detail", LevelDetail, false},
		{" debug ", LevelDebug, false},
		{"loud", LevelOff, true},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLevelShouldEmit(t *testing.T) {
	if LevelPhase.ShouldEmit(ScopeResolve) {
		t.Fatal("phase level must drop resolve scope")
	}
	if !LevelPhase.ShouldEmit(ScopeScan) {
		t.Fatal("phase level must keep scan scope")
	}
	if !LevelDetail.ShouldEmit(ScopeResolve) || LevelDetail.ShouldEmit(ScopeProbe) {
		t.Fatal("detail level must keep resolve and drop probe")
	}
	if !LevelDebug.ShouldEmit(ScopeProbe) {
		t.Fatal("debug level must keep probe")
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)

	Point(tr, ScopeResolve, "file found", "/lib/util.js")
	Point(tr, ScopeProbe, "cache miss", "dropped")

	out := buf.String()
	if !strings.Contains(out, "resolve:file found (/lib/util.js)") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Contains(out, "dropped") {
		t.Fatalf("probe scope leaked at detail level: %q", out)
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)

	span := Begin(tr, ScopeScan, "scan", 0)
	span.WithExtra("files", "3").End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"kind":"begin"`) || !strings.Contains(lines[1], `"files":"3"`) {
		t.Fatalf("unexpected ndjson %q", buf.String())
	}
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(r, ScopeProbe, name, "")
	}
	events := r.Snapshot()
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("events = %q,%q, want b,c", events[0].Name, events[1].Name)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Enabled() {
		t.Fatal("expected disabled tracer")
	}
	// must not panic
	Begin(tr, ScopeDriver, "noop", 0).End("")
}
