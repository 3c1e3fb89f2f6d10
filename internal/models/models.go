// package models defines the persisted records of the rate reconciliation service
package models

import (
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for data access operations.
type Repository[T any] interface {
	Create(model T) error                      // Create inserts a new model and assigns its ID
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model
	List(criteria map[string]any) ([]T, error) // List retrieves models matching the given criteria, newest first
}

// Job names a unit of work the engine can run.
type Job string

const (
	JobUpdateBillRates    Job = "update-bill-rate"
	JobPlannedTime        Job = "planned-time"
	JobProjects           Job = "projects"
	JobInvoices           Job = "invoices"
	JobFixedPriceSchedule Job = "fixed-price-schedule"
	JobLeaveCalendar      Job = "leave-calendar"
)

// Jobs lists every known job in display order.
var Jobs = []Job{
	JobUpdateBillRates,
	JobPlannedTime,
	JobProjects,
	JobInvoices,
	JobFixedPriceSchedule,
	JobLeaveCalendar,
}

// Valid reports whether j is a known job.
func (j Job) Valid() bool {
	for _, k := range Jobs {
		if j == k {
			return true
		}
	}
	return false
}

// RunStatus is the lifecycle state of a [Run].
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// Run records one execution of a job.
//
// For the bill rate update the row counts describe the reconciliation; refresh jobs only set UpdatedRows.
type Run struct {
	ID           string     `json:"id"`
	Sequence     int        `json:"sequence"`
	Job          Job        `json:"job"`
	Status       RunStatus  `json:"status"`
	BaselineRows int        `json:"baseline_rows"`
	OverrideRows int        `json:"override_rows"`
	UpdatedRows  int        `json:"updated_rows"`
	ChangedRows  int        `json:"changed_rows"`
	Message      string     `json:"message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// NewRun creates a running [Run] started now.
func NewRun(job Job) *Run {
	return &Run{Job: job, Status: StatusRunning, StartedAt: time.Now().UTC()}
}

// Finish marks the run succeeded, or failed with err's message when err is non-nil.
func (r *Run) Finish(message string, err error) {
	now := time.Now().UTC()
	r.FinishedAt = &now
	if err != nil {
		r.Status = StatusFailed
		r.Message = err.Error()
		return
	}
	r.Status = StatusSucceeded
	r.Message = message
}

// Duration returns how long the run took, or has taken so far.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Validate checks the run can be stored.
func (r *Run) Validate() error {
	if !r.Job.Valid() {
		return fmt.Errorf("unknown job %q", r.Job)
	}
	switch r.Status {
	case StatusRunning, StatusSucceeded, StatusFailed:
	default:
		return fmt.Errorf("unknown status %q", r.Status)
	}
	if r.StartedAt.IsZero() {
		return errors.New("started_at is required")
	}
	if r.FinishedAt != nil && r.FinishedAt.Before(r.StartedAt) {
		return errors.New("finished_at is before started_at")
	}
	return nil
}
