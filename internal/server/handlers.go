package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/tasks"
	"golang.org/x/sync/singleflight"
)

// JobRoutes maps each HTTP path to the job it triggers. The paths match the function names of the
// deployment this service replaces, so existing schedulers keep working.
var JobRoutes = map[string]models.Job{
	"/api/update-bill-rate":              models.JobUpdateBillRates,
	"/api/unanet-fetch-planned-time":     models.JobPlannedTime,
	"/api/unanet-fetch-projects":         models.JobProjects,
	"/api/unanetFetchInvoices":           models.JobInvoices,
	"/api/unanetFetchFixedPriceSchedule": models.JobFixedPriceSchedule,
	"/api/unanetRefreshApp":              models.JobLeaveCalendar,
}

// JobHandler runs a job per request and reports the outcome as plain text, or JSON when the client
// asks for it. Any job error is a 500.
//
// Requests for a job that is already running wait for that run and share its result. Runs are
// detached from the request context so a client hanging up does not abort an upload halfway.
type JobHandler struct {
	runner  JobRunner
	logger  *log.Logger
	metrics *Metrics
	flights singleflight.Group
}

// NewJobHandler creates a [JobHandler]. metrics may be nil.
func NewJobHandler(runner JobRunner, logger *log.Logger, metrics *Metrics) *JobHandler {
	return &JobHandler{runner: runner, logger: logger, metrics: metrics}
}

// Routes returns the HTTP routes this handler serves.
func (h *JobHandler) Routes() []string {
	routes := make([]string, 0, len(JobRoutes))
	for path := range JobRoutes {
		routes = append(routes, path)
	}
	return routes
}

type jobResponse struct {
	Job     models.Job `json:"job"`
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Result  any        `json:"result,omitempty"`
}

func (h *JobHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	job, ok := JobRoutes[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}

	h.logger.Info("processing job request", "job", job)
	v, err, joined := h.flights.Do(string(job), func() (any, error) {
		done := h.metrics.Start(job)
		res, err := h.runner.Run(context.WithoutCancel(r.Context()), job, nil)
		done(err)
		return res, err
	})
	if joined {
		h.logger.Debug("shared result of in-flight job", "job", job)
	}
	res, _ := v.(*tasks.Result)
	if res == nil {
		res = &tasks.Result{Job: job}
	}
	asJSON := wantsJSON(r)

	if err != nil {
		message := fmt.Sprintf("Error processing request: %v", err)
		if asJSON {
			writeJSON(w, http.StatusInternalServerError, jobResponse{Job: job, Status: string(models.StatusFailed), Message: message})
			return
		}
		http.Error(w, message, http.StatusInternalServerError)
		return
	}

	if asJSON {
		writeJSON(w, http.StatusOK, jobResponse{Job: job, Status: string(models.StatusSucceeded), Message: res.Message, Result: res})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, res.Message)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
