// package tasks runs the bill rate update and the Unanet refresh jobs.
package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/rates"
	"github.com/desertthunder/unanetx/internal/shared"
	"github.com/desertthunder/unanetx/internal/storage"
	"github.com/desertthunder/unanetx/internal/unanet"
)

// UnanetAPI is the part of [unanet.Client] the refresh jobs use.
type UnanetAPI interface {
	Authenticate(ctx context.Context) error
	Project(ctx context.Context, id int) (unanet.Record, error)
	PlannedTime(ctx context.Context, projectID int) (unanet.Record, error)
	Invoice(ctx context.Context, id int) (unanet.Record, error)
	FixedPriceItems(ctx context.Context, projectID int) ([]unanet.Record, error)
	LeaveRequests(ctx context.Context, query string) ([]unanet.Record, error)
	People(ctx context.Context, query string) ([]unanet.Record, error)
}

// RunRecorder persists run history. repositories.RunRepository implements it.
type RunRecorder interface {
	Create(run *models.Run) error
	Update(run *models.Run) error
}

// Result summarizes a finished job.
type Result struct {
	Job      models.Job   `json:"job"`
	Message  string       `json:"message"`
	Rows     int          `json:"rows"`
	Uploaded []string     `json:"uploaded,omitempty"` // Blob names written
	Stats    *rates.Stats `json:"stats,omitempty"`    // Set by the bill rate update only
	Run      *models.Run  `json:"run,omitempty"`
}

// Engine runs jobs against a blob store and, for the refresh jobs, the Unanet API.
//
// Engine holds no per-job state, so one Engine may run jobs concurrently.
type Engine struct {
	store      storage.BlobStore
	api        UnanetAPI
	runs       RunRecorder
	reconciler *rates.Reconciler
	blobs      shared.BlobsConfig
	fetch      shared.FetchConfig
	logger     *log.Logger
}

// Option configures an [Engine].
type Option func(*Engine)

// WithUnanet sets the API client used by the refresh jobs.
func WithUnanet(api UnanetAPI) Option {
	return func(e *Engine) { e.api = api }
}

// WithRecorder records every job as a [models.Run].
func WithRecorder(r RunRecorder) Option {
	return func(e *Engine) { e.runs = r }
}

// WithReconciler replaces the default [rates.Reconciler].
func WithReconciler(r *rates.Reconciler) Option {
	return func(e *Engine) {
		if r != nil {
			e.reconciler = r
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an [Engine] that reads and writes blobs named by blobs, scanning with fetch.
func NewEngine(store storage.BlobStore, blobs shared.BlobsConfig, fetch shared.FetchConfig, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: blob store", shared.ErrMissingArgument)
	}

	e := &Engine{
		store:      store,
		reconciler: rates.New(),
		blobs:      blobs,
		fetch:      fetch,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run dispatches job by name.
func (e *Engine) Run(ctx context.Context, job models.Job, progress chan<- ProgressUpdate) (*Result, error) {
	switch job {
	case models.JobUpdateBillRates:
		return e.UpdateBillRates(ctx, progress)
	case models.JobPlannedTime:
		return e.RefreshPlannedTime(ctx, progress)
	case models.JobProjects:
		return e.RefreshProjects(ctx, progress)
	case models.JobInvoices:
		return e.RefreshInvoices(ctx, progress)
	case models.JobFixedPriceSchedule:
		return e.RefreshFixedPriceSchedule(ctx, progress)
	case models.JobLeaveCalendar:
		return e.RefreshLeaveCalendar(ctx, progress)
	default:
		return nil, fmt.Errorf("%w: unknown job %q", shared.ErrInvalidArgument, job)
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// record wraps fn in a [models.Run]. Recorder failures are logged, never returned.
func (e *Engine) record(job models.Job, fn func(run *models.Run) (*Result, error)) (*Result, error) {
	logger := shared.WithLogger(e.logger, "job", job)
	run := models.NewRun(job)

	if e.runs != nil {
		if err := e.runs.Create(run); err != nil {
			logger.Warn("failed to record run start", "error", err)
		}
	}

	res, err := fn(run)

	message := ""
	if res != nil {
		message = res.Message
	}
	run.Finish(message, err)

	if e.runs != nil && run.ID != "" {
		if uerr := e.runs.Update(run); uerr != nil {
			logger.Warn("failed to record run result", "error", uerr)
		}
	}

	if err != nil {
		logger.Error("job failed", "error", err, "duration", run.Duration())
		return nil, err
	}

	res.Job = job
	res.Run = run
	logger.Info("job finished", "rows", res.Rows, "duration", run.Duration())
	return res, nil
}
