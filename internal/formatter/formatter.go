// package formatter exports run history and reconciliation stats to files (CSV, JSON, Markdown)
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/rates"
	"github.com/desertthunder/unanetx/internal/shared"
	"github.com/desertthunder/unanetx/internal/table"
)

// Format is an export file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts csv, json, md or markdown, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

var runColumns = []string{"sequence", "id", "job", "status", "started_at", "finished_at", "duration_ms", "baseline_rows", "override_rows", "updated_rows", "changed_rows", "message"}

// MarshalJSON encodes v, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// RunsToTable converts runs to a [table.Table] with one row per run.
func RunsToTable(runs []*models.Run) *table.Table {
	t := table.New(runColumns...)
	for _, run := range runs {
		finished := ""
		if run.FinishedAt != nil {
			finished = run.FinishedAt.Format(time.RFC3339)
		}
		t.Append(
			strconv.Itoa(run.Sequence),
			run.ID,
			string(run.Job),
			string(run.Status),
			run.StartedAt.Format(time.RFC3339),
			finished,
			strconv.FormatInt(run.Duration().Milliseconds(), 10),
			strconv.Itoa(run.BaselineRows),
			strconv.Itoa(run.OverrideRows),
			strconv.Itoa(run.UpdatedRows),
			strconv.Itoa(run.ChangedRows),
			run.Message,
		)
	}
	return t
}

// RunsToCSV converts runs to comma separated CSV with a header row.
func RunsToCSV(runs []*models.Run) ([]byte, error) {
	data, err := RunsToTable(runs).Bytes(',')
	if err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return data, nil
}

// RunsToMarkdown converts runs to a Markdown document with a summary line and a table.
func RunsToMarkdown(runs []*models.Run) []byte {
	var buf bytes.Buffer

	succeeded, failed := 0, 0
	for _, run := range runs {
		switch run.Status {
		case models.StatusSucceeded:
			succeeded++
		case models.StatusFailed:
			failed++
		}
	}

	buf.WriteString("# Run history\n\n")
	buf.WriteString(fmt.Sprintf("**Runs**: %d (%d succeeded, %d failed)\n\n", len(runs), succeeded, failed))
	if len(runs) == 0 {
		return buf.Bytes()
	}

	buf.WriteString("| # | Job | Status | Started | Rows | Message |\n")
	buf.WriteString("|---|---|---|---|---|---|\n")
	for _, run := range runs {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %d | %s |\n",
			run.Sequence, run.Job, run.Status, run.StartedAt.Format(time.RFC3339), run.UpdatedRows, escapeCell(run.Message)))
	}
	return buf.Bytes()
}

// StatsToMarkdown renders reconciliation stats as a Markdown list.
func StatsToMarkdown(stats rates.Stats) []byte {
	var buf bytes.Buffer
	buf.WriteString("## Bill rate reconciliation\n\n")
	buf.WriteString(fmt.Sprintf("- Baseline rows: %d\n", stats.BaselineRows))
	buf.WriteString(fmt.Sprintf("- Override rows: %d (%d discarded, %d keys)\n", stats.OverrideRows, stats.DiscardedOverrides, stats.CollapsedKeys))
	buf.WriteString(fmt.Sprintf("- Matched rows: %d\n", stats.MatchedRows))
	buf.WriteString(fmt.Sprintf("- Changed rows: %d\n", stats.ChangedRows))
	buf.WriteString(fmt.Sprintf("- Updated rows: %d\n", stats.UpdatedRows))
	return buf.Bytes()
}

// ExportRuns encodes runs in format.
func ExportRuns(runs []*models.Run, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return RunsToCSV(runs)
	case FormatJSON:
		if runs == nil {
			runs = []*models.Run{}
		}
		return MarshalJSON(runs, true)
	case FormatMarkdown:
		return RunsToMarkdown(runs), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteRunsExport writes runs to path in format.
//
// Defaults to runs.{format} in the working directory.
func WriteRunsExport(runs []*models.Run, format Format, path string) (string, error) {
	if path == "" {
		path = "runs." + string(format)
	}

	data, err := ExportRuns(runs, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
