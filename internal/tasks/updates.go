package tasks

import (
	"fmt"

	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/rates"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or server logs for display.
type ProgressUpdate struct {
	Job     models.Job // Job reporting progress
	Phase   Phase      // Operation phase
	Step    int        // Current step number within phase
	Total   int        // Total steps in this phase, zero when unknown
	Message string     // Human-readable message for display
	Data    any        // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	LoadBlobs Phase = iota
	Reconcile
	Authenticate
	Scan
	FetchItems
	Upload
	Done
)

func (p Phase) String() string {
	switch p {
	case LoadBlobs:
		return "load_blobs"
	case Reconcile:
		return "reconcile"
	case Authenticate:
		return "authenticate"
	case Scan:
		return "scan"
	case FetchItems:
		return "fetch_items"
	case Upload:
		return "upload"
	case Done:
		return "done"
	default:
		return ""
	}
}

func loadBlobUpdate(job models.Job, step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Job:     job,
		Phase:   LoadBlobs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Loading %s...", name),
	}
}

func reconcileUpdate(job models.Job, stats rates.Stats) ProgressUpdate {
	return ProgressUpdate{
		Job:     job,
		Phase:   Reconcile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Reconciled %d rows (%d matched, %d changed)", stats.UpdatedRows, stats.MatchedRows, stats.ChangedRows),
		Data:    stats,
	}
}

func authenticateUpdate(job models.Job) ProgressUpdate {
	return ProgressUpdate{
		Job:     job,
		Phase:   Authenticate,
		Step:    1,
		Total:   1,
		Message: "Requesting token from Unanet...",
	}
}

func scanUpdate(job models.Job, id, found, misses int) ProgressUpdate {
	return ProgressUpdate{
		Job:     job,
		Phase:   Scan,
		Step:    found,
		Message: fmt.Sprintf("Fetched id %d (%d found, %d consecutive misses)", id, found, misses),
	}
}

func fetchItemsUpdate(job models.Job, step, total int, what string) ProgressUpdate {
	return ProgressUpdate{
		Job:     job,
		Phase:   FetchItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s...", step, total, what),
	}
}

func uploadUpdate(job models.Job, name string, rows int) ProgressUpdate {
	return ProgressUpdate{
		Job:     job,
		Phase:   Upload,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Uploading %d rows to %s...", rows, name),
	}
}

func doneUpdate(job models.Job, message string) ProgressUpdate {
	return ProgressUpdate{
		Job:     job,
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: message,
	}
}
