package observ

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func fakeClock(step time.Duration) func() time.Time {
	cur := time.Unix(0, 0)
	return func() time.Time {
		cur = cur.Add(step)
		return cur
	}
}

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(2 * time.Millisecond)

	scan := tm.Begin("scan")
	tm.End(scan, "12 files")
	err := tm.Measure("resolve", func() (string, error) { return "", errors.New("boom") })
	if err == nil {
		t.Fatalf("Measure swallowed the error")
	}
	tm.End(99, "ignored")

	r := tm.Report()
	if len(r.Stages) != 2 {
		t.Fatalf("stages = %d, want 2", len(r.Stages))
	}
	if r.Stages[0].DurationMS != 2 || r.Stages[0].Note != "12 files" {
		t.Fatalf("scan stage = %+v", r.Stages[0])
	}
	if r.Stages[1].Note != "failed" {
		t.Fatalf("resolve note = %q", r.Stages[1].Note)
	}
	if r.TotalMS != 4 {
		t.Fatalf("total = %v, want 4", r.TotalMS)
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTimer().WriteSummary(&buf); err != nil || buf.Len() != 0 {
		t.Fatalf("empty timer wrote %q (%v)", buf.String(), err)
	}

	tm := NewTimer()
	tm.now = fakeClock(time.Millisecond)
	tm.End(tm.Begin("scan"), "3 files")
	if err := tm.WriteSummary(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"timings:", "scan", "// 3 files", "total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary %q missing %q", out, want)
		}
	}
}
