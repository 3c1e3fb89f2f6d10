package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/rates"
	"github.com/desertthunder/unanetx/internal/storage"
	"github.com/desertthunder/unanetx/internal/tasks"
	"github.com/docker/go-units"
)

// Title renders s as a section heading.
func Title(s string) string { return styles.title.Render(s) }

// Success renders s as a success line.
func Success(s string) string { return styles.success.Render("✓ " + s) }

// Failure renders s as an error line.
func Failure(s string) string { return styles.error.Render("✗ " + s) }

// Warning renders s as a warning.
func Warning(s string) string { return styles.warning.Render(s) }

// Help renders s as a hint.
func Help(s string) string { return styles.help.Render(s) }

// RenderStats renders reconciliation counters as a two column table.
func RenderStats(stats rates.Stats) string {
	rows := [][]string{
		{"Baseline rows", strconv.Itoa(stats.BaselineRows)},
		{"Override rows", strconv.Itoa(stats.OverrideRows)},
		{"Discarded overrides", strconv.Itoa(stats.DiscardedOverrides)},
		{"Override keys", strconv.Itoa(stats.CollapsedKeys)},
		{"Matched rows", strconv.Itoa(stats.MatchedRows)},
		{"Changed rows", strconv.Itoa(stats.ChangedRows)},
		{"Updated rows", strconv.Itoa(stats.UpdatedRows)},
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.help).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return styles.header
			}
			return styles.cell
		}).
		Rows(rows...)
	return t.String()
}

// RenderResult renders a finished job: its message, the blobs it wrote and, for the bill rate update, its stats.
func RenderResult(res *tasks.Result) string {
	if res == nil {
		return Warning("no result")
	}

	var b strings.Builder
	b.WriteString(Success(res.Message))
	b.WriteString("\n")
	for _, name := range res.Uploaded {
		fmt.Fprintf(&b, "  %s %s (%d rows)\n", Help("wrote"), name, res.Rows)
	}
	if res.Stats != nil {
		b.WriteString(RenderStats(*res.Stats))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderRuns renders run history, newest first as given.
func RenderRuns(runs []*models.Run) string {
	if len(runs) == 0 {
		return Help("No runs recorded yet.")
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			strconv.Itoa(run.Sequence),
			string(run.Job),
			string(run.Status),
			run.StartedAt.Local().Format(time.DateTime),
			run.Duration().Round(time.Millisecond).String(),
			strconv.Itoa(run.UpdatedRows),
			truncate(run.Message, 60),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.help).
		Headers("#", "JOB", "STATUS", "STARTED", "DURATION", "ROWS", "MESSAGE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header
			}
			if col == 2 && row >= 0 && row < len(runs) && runs[row].Status == models.StatusFailed {
				return styles.cell.Foreground(styles.error.GetForeground())
			}
			return styles.cell
		}).
		Rows(rows...)
	return t.String()
}

// RenderBlobs lists stored blobs with human readable sizes.
func RenderBlobs(blobs []storage.BlobInfo) string {
	if len(blobs) == 0 {
		return Help("No blobs stored.")
	}

	rows := make([][]string, 0, len(blobs))
	for _, b := range blobs {
		updated := "-"
		if !b.UpdatedAt.IsZero() {
			updated = units.HumanDuration(time.Since(b.UpdatedAt)) + " ago"
		}
		rows = append(rows, []string{b.Name, units.HumanSize(float64(b.Size)), updated})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.help).
		Headers("NAME", "SIZE", "UPDATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header
			}
			return styles.cell
		}).
		Rows(rows...)
	return t.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
