package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/unanetx/internal/formatter"
	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/shared"
	"github.com/desertthunder/unanetx/internal/ui"
	"github.com/urfave/cli/v3"
)

// RunsList shows recorded runs, newest first.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	criteria, err := runCriteria(cmd)
	if err != nil {
		return err
	}

	repo, err := r.runRepository()
	if err != nil {
		return err
	}
	runs, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if cmd.Bool("json") {
		if runs == nil {
			runs = []*models.Run{}
		}
		return r.writeJSON(runs, true)
	}
	return r.writePlainln("%s", ui.RenderRuns(runs))
}

// RunsExport writes run history to a file.
func (r *Runner) RunsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, err := r.runRepository()
	if err != nil {
		return err
	}
	runs, err := repo.List(map[string]any{"limit": int(cmd.Int("limit"))})
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	path, err := formatter.WriteRunsExport(runs, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("exported runs", "path", path, "count", len(runs))
	return r.writePlainln("%s", ui.Success(fmt.Sprintf("Exported %d runs to %s", len(runs), path)))
}

func runCriteria(cmd *cli.Command) (map[string]any, error) {
	criteria := map[string]any{"limit": int(cmd.Int("limit"))}

	if job := cmd.String("job"); job != "" {
		if !models.Job(job).Valid() {
			return nil, fmt.Errorf("%w: unknown job %q", shared.ErrInvalidArgument, job)
		}
		criteria["job"] = job
	}

	if status := cmd.String("status"); status != "" {
		switch models.RunStatus(status) {
		case models.StatusRunning, models.StatusSucceeded, models.StatusFailed:
			criteria["status"] = status
		default:
			return nil, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, status)
		}
	}

	return criteria, nil
}
