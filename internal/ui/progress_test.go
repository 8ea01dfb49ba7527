package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"greenlens/internal/driver"
)

func TestProgressModelTracksFiles(t *testing.T) {
	files := []string{"a.html", "pages/b.html", "c.html"}
	m := NewProgressModel("greenlens check site", files, nil).(*progressModel)

	events := []driver.Event{
		{File: "a.html", Stage: driver.StageLoad, Status: driver.StatusDone},
		{File: "a.html", Stage: driver.StageCheck, Status: driver.StatusWorking},
		{File: "a.html", Stage: driver.StageCheck, Status: driver.StatusDone, Findings: 2},
		{File: "pages/b.html", Stage: driver.StageCheck, Status: driver.StatusDone, Cached: true},
		{File: "c.html", Stage: driver.StageLoad, Status: driver.StatusError},
		{File: "unknown.html", Stage: driver.StageCheck, Status: driver.StatusDone, Findings: 9},
	}
	for _, ev := range events {
		m.applyEvent(ev)
	}

	if m.finished() != 3 {
		t.Fatalf("expected 3 finished files, got %d", m.finished())
	}
	if m.findings != 2 {
		t.Fatalf("expected 2 findings, got %d", m.findings)
	}

	view := m.View()
	for _, want := range []string{"(3/3 files, 2 findings)", "2 findings", "clean*", "error", "pages/b.html"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}

	m.applyEvent(driver.Event{Stage: driver.StageCheck, Status: driver.StatusDone, Findings: 5})
	if m.findings != 5 {
		t.Fatalf("run summary must set the total, got %d", m.findings)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("pages/very/long/path.html", 10); got != "pages/v..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("한글한글한글", 7); got != "한글..." {
		t.Fatalf("wide runes must count double, got %q", got)
	}
}

func TestFindingsLabel(t *testing.T) {
	cases := []struct {
		n      int
		cached bool
		want   string
	}{
		{0, false, "clean"},
		{1, false, "1 finding"},
		{4, true, "4 findings*"},
	}
	for _, tc := range cases {
		if got := findingsLabel(tc.n, tc.cached); got != tc.want {
			t.Fatalf("findingsLabel(%d, %v) = %q, want %q", tc.n, tc.cached, got, tc.want)
		}
	}
}

func TestInterruptedBeforeDone(t *testing.T) {
	m := NewProgressModel("check", []string{"a.html"}, nil)
	if Interrupted(m) {
		t.Fatal("fresh model must not be interrupted")
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !Interrupted(next) {
		t.Fatal("ctrl+c before the stream ended must count as an interrupt")
	}
	next, _ = next.Update(doneMsg{})
	if Interrupted(next) {
		t.Fatal("a finished run is not interrupted")
	}
}
