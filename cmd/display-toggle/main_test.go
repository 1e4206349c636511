package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/display-toggle/display-toggle/internal/config"
	"github.com/display-toggle/display-toggle/internal/history"
	"github.com/display-toggle/display-toggle/internal/models"
	"github.com/display-toggle/display-toggle/internal/toggle"
	"github.com/display-toggle/display-toggle/pkg/monitor"
	"github.com/pkg/errors"
)

func historyConfig(dir string) config.HistoryConfig {
	return config.HistoryConfig{
		Enabled:   true,
		Path:      filepath.Join(dir, "history.db"),
		Limit:     10,
		Retention: 24 * time.Hour,
	}
}

func oneSwitch() *toggle.Result {
	return &toggle.Result{
		Direction: toggle.ToAlternate,
		Switches: []toggle.Switch{
			{Position: 2, Model: "U2723QX", Direction: toggle.ToAlternate, Target: monitor.DP1},
		},
	}
}

// isolate points every state file of a run into a temporary directory
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DISPLAY_TOGGLE_CACHE_PATH", filepath.Join(dir, "display.json"))
	t.Setenv("DISPLAY_TOGGLE_SOURCES", filepath.Join(dir, "sources.yaml"))
	t.Setenv("DISPLAY_TOGGLE_HISTORY_PATH", filepath.Join(dir, "history.db"))
	t.Setenv("DISPLAY_TOGGLE_LOCK_FILE", filepath.Join(dir, "display-toggle.pid"))
	t.Setenv("DISPLAY_TOGGLE_DDCUTIL", "nonexistent_ddcutil_xyz")
	t.Setenv("DISPLAY_TOGGLE_NOTIFY", "false")
	return dir
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Success", nil, exitOK},
		{"Invalid target", errors.Wrap(toggle.ErrInvalidTarget, "bad"), exitInvalidTarget},
		{"Hardware failure", errors.New("i2c timeout"), exitFailure},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("%s: exitCode() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestInvalidTarget(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{{"xyz"}, {""}, {"usb", "alt"}} {
		var stdout, stderr bytes.Buffer
		if code := execute(args, &stdout, &stderr); code != exitInvalidTarget {
			t.Errorf("execute(%q) = %d, want %d", args, code, exitInvalidTarget)
		}
		if !strings.Contains(stderr.String(), "invalid target") {
			t.Errorf("stderr = %q, want invalid target message", stderr.String())
		}
	}
}

func TestMissingBackend(t *testing.T) {
	isolate(t)

	var stdout, stderr bytes.Buffer
	if code := execute(nil, &stdout, &stderr); code != exitFailure {
		t.Errorf("execute() = %d, want %d", code, exitFailure)
	}
}

func TestUnknownFlag(t *testing.T) {
	isolate(t)

	var stdout, stderr bytes.Buffer
	if code := execute([]string{"--bogus"}, &stdout, &stderr); code != exitFailure {
		t.Errorf("execute(--bogus) = %d, want %d", code, exitFailure)
	}
}

func TestHistory(t *testing.T) {
	dir := isolate(t)

	var stdout, stderr bytes.Buffer
	if code := execute([]string{"--history"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("execute(--history) = %d, stderr %q", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "No switches recorded.") {
		t.Errorf("stdout = %q", stdout.String())
	}

	result := &toggle.Result{
		Direction: toggle.ToAlternate,
		Switches: []toggle.Switch{
			{Position: 2, Model: "U2723QX", Direction: toggle.ToAlternate, Target: monitor.DP1},
		},
	}
	if err := recordHistory(historyConfig(dir), time.Now(), result, nil); err != nil {
		t.Fatalf("recordHistory() error: %v", err)
	}

	stdout.Reset()
	if code := execute([]string{"--history"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("execute(--history) = %d, stderr %q", code, stderr.String())
	}
	for _, want := range []string{"to alternate", "#2 U2723QX", "DP1"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("history output missing %q:\n%s", want, stdout.String())
		}
	}
}

func TestRecordHistoryFailure(t *testing.T) {
	cfg := historyConfig(t.TempDir())
	path := cfg.Path

	if err := recordHistory(cfg, time.Now(), nil, errors.New("failed to enumerate displays")); err != nil {
		t.Fatalf("recordHistory() error: %v", err)
	}

	db, err := history.Connect(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	logs, err := history.NewRepository(db).RecentErrors(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].ErrorMsg != "failed to enumerate displays" {
		t.Errorf("RecentErrors() = %+v", logs)
	}
}

func TestVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := execute([]string{"--version"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("execute(--version) = %d", code)
	}
	if !strings.Contains(stdout.String(), version) {
		t.Errorf("stdout = %q, want version %s", stdout.String(), version)
	}
}

func TestRecordHistoryPrunesOldRuns(t *testing.T) {
	cfg := historyConfig(t.TempDir())
	now := time.Now()

	if err := recordHistory(cfg, now.Add(-48*time.Hour), oneSwitch(), nil); err != nil {
		t.Fatal(err)
	}
	if err := recordHistory(cfg, now, oneSwitch(), nil); err != nil {
		t.Fatal(err)
	}

	repo, closeDB, err := openHistory(cfg.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer closeDB()

	events, err := repo.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("Recent() = %d events, want only the latest run", len(events))
	}
}

func TestHistoryJSONAndClear(t *testing.T) {
	dir := isolate(t)
	if err := recordHistory(historyConfig(dir), time.Now(), oneSwitch(), nil); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := execute([]string{"--history", "--json"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("execute(--history --json) = %d, stderr %q", code, stderr.String())
	}
	var report models.Report
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if len(report.Runs) != 1 || report.Runs[0].Switches[0].Model != "U2723QX" {
		t.Errorf("report = %+v", report)
	}

	stdout.Reset()
	if code := execute([]string{"--clear-history"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("execute(--clear-history) = %d, stderr %q", code, stderr.String())
	}
	stdout.Reset()
	if code := execute([]string{"--history"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("execute(--history) = %d", code)
	}
	if !strings.Contains(stdout.String(), "No switches recorded.") {
		t.Errorf("history after clear = %q", stdout.String())
	}
}

func TestFlagErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"JSON without history", []string{"--json"}, "--json requires --history"},
		{"Timeout too long", []string{"--timeout", "10m"}, "invalid --timeout"},
		{"Timeout too short", []string{"--timeout", "10ms"}, "invalid --timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := execute(tt.args, &stdout, &stderr); code != exitFailure {
				t.Errorf("execute(%v) = %d, want %d", tt.args, code, exitFailure)
			}
			if !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantErr)
			}
		})
	}
}
