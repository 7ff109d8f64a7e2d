// Package observ measures the stages of a CLI invocation.
package observ

import (
	"fmt"
	"io"
	"time"
)

// Stage is one measured step, such as a scan or a batch of lookups.
type Stage struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer records stages in the order they begin.
type Timer struct {
	stages []Stage
	now    func() time.Time
}

// NewTimer creates an empty Timer.
func NewTimer() *Timer { return &Timer{stages: make([]Stage, 0, 4), now: time.Now} }

// Begin starts a stage and returns its index for End.
func (t *Timer) Begin(name string) int {
	t.stages = append(t.stages, Stage{Name: name, Start: t.now()})
	return len(t.stages) - 1
}

// End closes the stage at idx. Unknown indices are ignored.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.stages) {
		return
	}
	s := &t.stages[idx]
	s.Dur = t.now().Sub(s.Start)
	s.Note = note
}

// Measure runs fn as a single stage and returns its error.
func (t *Timer) Measure(name string, fn func() (note string, err error)) error {
	idx := t.Begin(name)
	note, err := fn()
	if err != nil && note == "" {
		note = "failed"
	}
	t.End(idx, note)
	return err
}

// StageReport is the serialisable form of a stage.
type StageReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report aggregates all stages.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Stages  []StageReport `json:"stages"`
}

// Report returns the stages and their summed duration in milliseconds.
func (t *Timer) Report() Report {
	if len(t.stages) == 0 {
		return Report{}
	}
	report := Report{Stages: make([]StageReport, len(t.stages))}
	var total time.Duration
	for i, s := range t.stages {
		total += s.Dur
		report.Stages[i] = StageReport{
			Name:       s.Name,
			DurationMS: millis(s.Dur),
			Note:       s.Note,
		}
	}
	report.TotalMS = millis(total)
	return report
}

// WriteSummary prints one aligned line per stage followed by the total.
func (t *Timer) WriteSummary(w io.Writer) error {
	report := t.Report()
	if len(report.Stages) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "timings:"); err != nil {
		return err
	}
	for _, s := range report.Stages {
		line := fmt.Sprintf("  %-16s %8.2f ms", s.Name, s.DurationMS)
		if s.Note != "" {
			line += "  // " + s.Note
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "  %-16s %8.2f ms\n", "total", report.TotalMS)
	return err
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
