package reporter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/display-toggle/display-toggle/internal/models"
	"github.com/pkg/errors"
)

type stubSource struct {
	events []*models.SwitchEvent
	logs   []*models.ErrorLog
	err    error
}

func (s *stubSource) Recent(limit int) ([]*models.SwitchEvent, error) {
	return s.events, s.err
}

func (s *stubSource) RecentErrors(limit int) ([]*models.ErrorLog, error) {
	return s.logs, nil
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

func newTestReporter(src Source) *Reporter {
	r := New(src, 10)
	r.now = func() time.Time { return now }
	return r
}

func TestGenerateReportGroupsRuns(t *testing.T) {
	src := &stubSource{
		events: []*models.SwitchEvent{
			{RunID: "b", Timestamp: now.Add(-5 * time.Minute), Position: 2, Model: "U2723QX", Target: 27, Direction: "primary"},
			{RunID: "b", Timestamp: now.Add(-5 * time.Minute), Position: 3, Model: "P3223QE", Target: 27, Direction: "primary"},
			{RunID: "a", Timestamp: now.Add(-2 * time.Hour), Position: 2, Model: "U2723QX", Target: 0x0F, Direction: "alternate", DryRun: true},
		},
	}

	report, err := newTestReporter(src).GenerateReport()
	if err != nil {
		t.Fatalf("GenerateReport() error: %v", err)
	}
	if len(report.Runs) != 2 {
		t.Fatalf("len(Runs) = %d, want 2", len(report.Runs))
	}
	if report.Runs[0].RunID != "b" || len(report.Runs[0].Switches) != 2 {
		t.Errorf("Runs[0] = %+v", report.Runs[0])
	}
	if report.Runs[1].RunID != "a" || !report.Runs[1].DryRun {
		t.Errorf("Runs[1] = %+v", report.Runs[1])
	}
	if !report.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v, want %v", report.GeneratedAt, now)
	}
}

func TestGenerateReportError(t *testing.T) {
	src := &stubSource{err: errors.New("database is locked")}
	if _, err := newTestReporter(src).GenerateReport(); err == nil {
		t.Error("GenerateReport() error = nil, want error")
	}
}

func TestFormatReportText(t *testing.T) {
	src := &stubSource{
		events: []*models.SwitchEvent{
			{RunID: "a", Timestamp: now.Add(-5 * time.Minute), Position: 2, Model: "U2723QX", Target: 0x0F, Direction: "alternate", DryRun: true},
			{RunID: "a", Timestamp: now.Add(-5 * time.Minute), Position: 3, Model: "", Target: 27, Direction: "alternate", DryRun: true},
		},
		logs: []*models.ErrorLog{
			{Timestamp: now.Add(-3 * time.Hour), ErrorMsg: "display 1: i2c timeout"},
		},
	}
	r := newTestReporter(src)
	report, err := r.GenerateReport()
	if err != nil {
		t.Fatal(err)
	}

	text := r.FormatReportText(report)
	for _, want := range []string{
		"Recent switches",
		"2026-03-01 11:55",
		"5m ago",
		"to alternate (dry run)",
		"#2 U2723QX",
		"DP1",
		"#3 (unknown)",
		"27",
		"Recent errors",
		"3h ago",
		"display 1: i2c timeout",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report text missing %q:\n%s", want, text)
		}
	}
}

func TestFormatReportTextEmpty(t *testing.T) {
	r := newTestReporter(&stubSource{})
	report, err := r.GenerateReport()
	if err != nil {
		t.Fatal(err)
	}
	if got := r.FormatReportText(report); got != "No switches recorded.\n" {
		t.Errorf("FormatReportText() = %q", got)
	}
}

func TestFormatReportJSON(t *testing.T) {
	r := newTestReporter(&stubSource{})
	report := &models.Report{
		Runs:        []models.RunSummary{{RunID: "a", Direction: "primary"}},
		GeneratedAt: now,
	}

	out, err := r.FormatReportJSON(report)
	if err != nil {
		t.Fatalf("FormatReportJSON() error: %v", err)
	}
	var decoded models.Report
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(decoded.Runs) != 1 || decoded.Runs[0].RunID != "a" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %s", got)
	}
	if got := truncate("averyveryverylongmodelname", 10); got != "averyve..." {
		t.Errorf("truncate(long) = %s", got)
	}
}
