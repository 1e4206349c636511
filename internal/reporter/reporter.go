package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/display-toggle/display-toggle/internal/models"
	"github.com/display-toggle/display-toggle/pkg/monitor"
	"github.com/display-toggle/display-toggle/pkg/utils"
	"github.com/pkg/errors"
)

// Source provides the rows a report is built from
type Source interface {
	Recent(limit int) ([]*models.SwitchEvent, error)
	RecentErrors(limit int) ([]*models.ErrorLog, error)
}

// Reporter handles report generation
type Reporter struct {
	source Source
	limit  int
	now    func() time.Time
}

// New creates a reporter covering the last limit runs
func New(source Source, limit int) *Reporter {
	return &Reporter{
		source: source,
		limit:  limit,
		now:    time.Now,
	}
}

// GenerateReport collects the recent runs and errors
func (r *Reporter) GenerateReport() (*models.Report, error) {
	events, err := r.source.Recent(r.limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recent switches")
	}
	logs, err := r.source.RecentErrors(r.limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recent errors")
	}

	report := &models.Report{
		Runs:        groupRuns(events),
		GeneratedAt: r.now(),
	}
	for _, l := range logs {
		report.Errors = append(report.Errors, *l)
	}
	return report, nil
}

// groupRuns groups events by run, keeping the order runs first appear in
func groupRuns(events []*models.SwitchEvent) []models.RunSummary {
	var runs []models.RunSummary
	index := make(map[string]int)
	for _, e := range events {
		i, ok := index[e.RunID]
		if !ok {
			i = len(runs)
			index[e.RunID] = i
			runs = append(runs, models.RunSummary{
				RunID:     e.RunID,
				Timestamp: e.Timestamp,
				Direction: e.Direction,
				DryRun:    e.DryRun,
			})
		}
		runs[i].Switches = append(runs[i].Switches, *e)
	}
	return runs
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder

	if len(report.Runs) == 0 {
		b.WriteString("No switches recorded.\n")
	} else {
		b.WriteString("Recent switches\n")
		b.WriteString(strings.Repeat("-", 60) + "\n")
	}

	for _, run := range report.Runs {
		header := fmt.Sprintf("%s  %-8s  to %s",
			run.Timestamp.Local().Format("2006-01-02 15:04"),
			utils.FormatAge(run.Timestamp, report.GeneratedAt),
			run.Direction)
		if run.DryRun {
			header += " (dry run)"
		}
		b.WriteString(header + "\n")

		for _, s := range run.Switches {
			fmt.Fprintf(&b, "  #%d %-20s %s\n", s.Position, truncate(displayModel(s.Model), 20), monitor.InputSource(s.Target))
		}
	}

	if len(report.Errors) > 0 {
		b.WriteString("\nRecent errors\n")
		b.WriteString(strings.Repeat("-", 60) + "\n")
		for _, l := range report.Errors {
			fmt.Fprintf(&b, "%s  %-8s  %s\n",
				l.Timestamp.Local().Format("2006-01-02 15:04"),
				utils.FormatAge(l.Timestamp, report.GeneratedAt),
				l.ErrorMsg)
		}
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal JSON")
	}
	return string(data), nil
}

func displayModel(model string) string {
	if model == "" {
		return "(unknown)"
	}
	return model
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
