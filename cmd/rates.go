package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/unanetx/internal/formatter"
	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/rates"
	"github.com/desertthunder/unanetx/internal/table"
	"github.com/desertthunder/unanetx/internal/ui"
	"github.com/urfave/cli/v3"
)

// RatesReconcile reconciles local CSV files without touching the blob store or the database.
func (r *Runner) RatesReconcile(ctx context.Context, cmd *cli.Command) error {
	baseline, err := readCSVFile(cmd.String("baseline"), table.CSVOptions{})
	if err != nil {
		return fmt.Errorf("failed to read baseline: %w", err)
	}
	overrides, err := readCSVFile(cmd.String("overrides"), table.CSVOptions{SkipFirstLine: cmd.Bool("skip-first-line")})
	if err != nil {
		return fmt.Errorf("failed to read overrides: %w", err)
	}

	r.logger.Debug("reconciling", "baseline_rows", baseline.Len(), "override_rows", overrides.Len())

	updated, stats, err := rates.Update(baseline, overrides)
	if err != nil {
		return fmt.Errorf("failed to reconcile bill rates: %w", err)
	}

	if path := cmd.String("output"); path != "" {
		data, err := updated.Bytes(',')
		if err != nil {
			return fmt.Errorf("failed to encode updated matrix: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		r.logger.Info("updated planned matrix written", "path", path, "rows", updated.Len())
	}

	if path := cmd.String("report"); path != "" {
		if err := os.WriteFile(path, formatter.StatsToMarkdown(stats), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.logger.Info("report written", "path", path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}
	return r.writePlainln("%s", ui.RenderStats(stats))
}

// RatesUpdate runs the bill rate update job.
func (r *Runner) RatesUpdate(ctx context.Context, cmd *cli.Command) error {
	return r.runJob(ctx, models.JobUpdateBillRates, cmd.Bool("json"))
}

func readCSVFile(path string, opts table.CSVOptions) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return table.ReadCSV(f, opts)
}
