// Package observ records phase timings for --timings.
package observ

import (
	"fmt"
	"strings"
	"time"
)

// Timer collects the durations of sequential run phases. A nil Timer still
// runs measured functions but records nothing. Not safe for concurrent use.
type Timer struct {
	phases []PhaseReport
	total  time.Duration
}

// NewTimer returns an empty Timer.
func NewTimer() *Timer { return &Timer{} }

// Measure runs fn as phase name and keeps the note fn returns.
func (t *Timer) Measure(name string, fn func() string) {
	if t == nil {
		fn()
		return
	}
	start := time.Now()
	note := fn()
	d := time.Since(start)
	t.total += d
	t.phases = append(t.phases, PhaseReport{Name: name, DurationMS: millis(d), Note: note})
}

// PhaseReport is one measured phase.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report is a snapshot of a Timer.
type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

// Report snapshots the phases measured so far.
func (t *Timer) Report() Report {
	if t == nil || len(t.phases) == 0 {
		return Report{}
	}
	return Report{TotalMS: millis(t.total), Phases: append([]PhaseReport(nil), t.phases...)}
}

// Summary renders the report as an aligned table for stderr.
func (r Report) Summary() string {
	var b strings.Builder
	b.WriteString("timings:\n")
	row := func(name string, ms float64, note string) {
		fmt.Fprintf(&b, "  %-20s %7.2f ms", name, ms)
		if note != "" {
			fmt.Fprintf(&b, "  // %s", note)
		}
		b.WriteByte('\n')
	}
	for _, p := range r.Phases {
		row(p.Name, p.DurationMS, p.Note)
	}
	row("total", r.TotalMS, "")
	return b.String()
}

func millis(d time.Duration) float64 {
	return d.Seconds() * 1000
}
