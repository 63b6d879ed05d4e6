package observ

import (
	"strings"
	"testing"
)

func TestTimerPhasesInOrder(t *testing.T) {
	timer := NewTimer()
	p1 := timer.Begin("parse")
	timer.End(p1, "2 files")
	p2 := timer.Begin("emit")
	timer.End(p2, "")

	report := timer.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(report.Phases))
	}
	if report.Phases[0].Name != "parse" || report.Phases[1].Name != "emit" {
		t.Fatalf("phase order = %v", report.Phases)
	}
	if report.Phases[0].Note != "2 files" {
		t.Fatalf("note = %q", report.Phases[0].Note)
	}
}

func TestTimerEndIgnoresBadIndex(t *testing.T) {
	timer := NewTimer()
	timer.End(-1, "")
	timer.End(5, "")
	if got := len(timer.Report().Phases); got != 0 {
		t.Fatalf("phases = %d, want 0", got)
	}
}

func TestSummaryListsTotal(t *testing.T) {
	timer := NewTimer()
	idx := timer.Begin("schema")
	timer.End(idx, "1 type")

	s := timer.Summary()
	if !strings.Contains(s, "schema") || !strings.Contains(s, "total") {
		t.Fatalf("summary missing lines:\n%s", s)
	}
	if !strings.Contains(s, "// 1 type") {
		t.Fatalf("summary missing note:\n%s", s)
	}
}
