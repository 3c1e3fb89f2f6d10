package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/tasks"
	"github.com/desertthunder/unanetx/internal/ui"
	"github.com/urfave/cli/v3"
)

func (r *Runner) runJobAction(job models.Job) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return r.runJob(ctx, job, cmd.Bool("json"))
	}
}

// runJob runs job on the engine, logging progress as it arrives.
func (r *Runner) runJob(ctx context.Context, job models.Job, useJSON bool) error {
	engine, err := r.jobEngine()
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logProgress(update)
		}
	}()

	res, err := engine.Run(ctx, job, progress)
	close(progress)
	wg.Wait()

	if err != nil {
		return fmt.Errorf("%s failed: %w", job, err)
	}

	if useJSON {
		return r.writeJSON(res, true)
	}
	return r.writePlain("%s", ui.RenderResult(res))
}

func (r *Runner) logProgress(update tasks.ProgressUpdate) {
	kv := []any{"job", update.Job, "phase", update.Phase}
	if update.Total > 0 {
		kv = append(kv, "step", fmt.Sprintf("%d/%d", update.Step, update.Total))
	}

	switch update.Phase {
	case tasks.Scan, tasks.FetchItems:
		r.logger.Debug(update.Message, kv...)
	default:
		r.logger.Info(update.Message, kv...)
	}
}
