package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/shared"
	"github.com/desertthunder/unanetx/internal/table"
	"github.com/desertthunder/unanetx/internal/unanet"
	"golang.org/x/sync/errgroup"
)

const (
	comma = ','
	pipe  = '|'
)

// UpdateBillRates applies the labor category rates to the planned matrix and writes it back.
//
// A table that fails the row count check is never written.
func (e *Engine) UpdateBillRates(ctx context.Context, progress chan<- ProgressUpdate) (*Result, error) {
	job := models.JobUpdateBillRates
	return e.record(job, func(run *models.Run) (*Result, error) {
		e.sendProgress(progress, loadBlobUpdate(job, 1, 2, e.blobs.PlannedMatrix))
		baseline, err := e.loadTable(ctx, e.blobs.PlannedMatrix, table.CSVOptions{})
		if err != nil {
			return nil, err
		}

		e.sendProgress(progress, loadBlobUpdate(job, 2, 2, e.blobs.LaborCategory))
		overrides, err := e.loadTable(ctx, e.blobs.LaborCategory, table.CSVOptions{SkipFirstLine: true})
		if err != nil {
			return nil, err
		}

		updated, stats, err := e.reconciler.Update(baseline, overrides)
		run.BaselineRows = stats.BaselineRows
		run.OverrideRows = stats.OverrideRows
		run.UpdatedRows = stats.UpdatedRows
		run.ChangedRows = stats.ChangedRows
		if err != nil {
			return nil, err
		}
		e.sendProgress(progress, reconcileUpdate(job, stats))

		e.sendProgress(progress, uploadUpdate(job, e.blobs.PlannedMatrix, updated.Len()))
		if err := e.putTable(ctx, e.blobs.PlannedMatrix, updated, comma); err != nil {
			return nil, err
		}

		message := "CSV file updated and uploaded successfully."
		e.sendProgress(progress, doneUpdate(job, message))
		return &Result{
			Message:  message,
			Rows:     updated.Len(),
			Uploaded: []string{e.blobs.PlannedMatrix},
			Stats:    &stats,
		}, nil
	})
}

// RefreshPlannedTime scans planned time from PlannedTimeStart until PlannedTimeMaxMisses consecutive
// ids fail. Any failure counts as a miss.
func (e *Engine) RefreshPlannedTime(ctx context.Context, progress chan<- ProgressUpdate) (*Result, error) {
	job := models.JobPlannedTime
	return e.record(job, func(run *models.Run) (*Result, error) {
		api, err := e.authenticate(ctx, job, progress)
		if err != nil {
			return nil, err
		}

		records, err := e.scan(ctx, job, progress, api.PlannedTime, unanet.ScanOpts{
			Start:       e.fetch.PlannedTimeStart,
			MaxMisses:   e.fetch.PlannedTimeMaxMisses,
			MissOnError: true,
		})
		if err != nil {
			return nil, err
		}

		return e.uploadRecords(ctx, job, run, progress, records, e.blobs.PlannedMatrix, comma,
			"Planned time data fetched and uploaded successfully.")
	})
}

// RefreshProjects fetches projects 1 through ProjectLimit, skipping ids that fail.
func (e *Engine) RefreshProjects(ctx context.Context, progress chan<- ProgressUpdate) (*Result, error) {
	job := models.JobProjects
	return e.record(job, func(run *models.Run) (*Result, error) {
		api, err := e.authenticate(ctx, job, progress)
		if err != nil {
			return nil, err
		}

		records, err := e.scan(ctx, job, progress, api.Project, unanet.ScanOpts{
			Start:       1,
			Stop:        e.fetch.ProjectLimit,
			MissOnError: true,
		})
		if err != nil {
			return nil, err
		}

		return e.uploadRecords(ctx, job, run, progress, records, e.blobs.Projects, pipe,
			"Project details fetched and uploaded successfully.")
	})
}

// RefreshInvoices fetches invoices from id 1 until InvoiceMaxMisses consecutive ids are not found.
//
// Any other API failure ends the scan early; invoices fetched before it are still uploaded.
func (e *Engine) RefreshInvoices(ctx context.Context, progress chan<- ProgressUpdate) (*Result, error) {
	job := models.JobInvoices
	return e.record(job, func(run *models.Run) (*Result, error) {
		api, err := e.authenticate(ctx, job, progress)
		if err != nil {
			return nil, err
		}

		records, err := e.scan(ctx, job, progress, api.Invoice, unanet.ScanOpts{
			Start:     1,
			MaxMisses: e.fetch.InvoiceMaxMisses,
		})
		if err != nil {
			if ctx.Err() != nil || !errors.Is(err, shared.ErrAPIRequest) {
				return nil, err
			}
			e.logger.Warn("invoice scan stopped early", "job", job, "error", err, "fetched", len(records))
		}

		return e.uploadRecords(ctx, job, run, progress, records, e.blobs.Invoices, comma,
			"Invoice data fetched and uploaded successfully.")
	})
}

// RefreshFixedPriceSchedule fetches projects 1 through ProjectLimit with their fixed price items and
// writes one row per item.
func (e *Engine) RefreshFixedPriceSchedule(ctx context.Context, progress chan<- ProgressUpdate) (*Result, error) {
	job := models.JobFixedPriceSchedule
	return e.record(job, func(run *models.Run) (*Result, error) {
		api, err := e.authenticate(ctx, job, progress)
		if err != nil {
			return nil, err
		}

		sc, err := unanet.NewScanner(api.Project, unanet.ScanOpts{
			Start:       1,
			Stop:        e.fetch.ProjectLimit,
			MissOnError: true,
		})
		if err != nil {
			return nil, err
		}

		type projectItems struct {
			id      int
			project unanet.Record
			items   []unanet.Record
		}

		// Items are fetched by a bounded worker group while the scan continues; rows keep project order.
		var found []*projectItems
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.itemWorkers())
		for sc.Next(ctx) {
			p := &projectItems{id: sc.ID(), project: sc.Record()}
			found = append(found, p)
			e.sendProgress(progress, fetchItemsUpdate(job, p.id, e.fetch.ProjectLimit, fmt.Sprintf("fixed price items for project %d", p.id)))

			g.Go(func() error {
				items, err := api.FixedPriceItems(gctx, p.id)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					e.logger.Warn("failed to fetch fixed price items", "job", job, "project", p.id, "error", err)
					return nil
				}
				p.items = items
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}

		var rows []unanet.Record
		for _, p := range found {
			for _, item := range p.items {
				rows = append(rows, unanet.ScheduleRow(p.id, p.project, item))
			}
		}

		if len(rows) == 0 {
			return e.uploadRecords(ctx, job, run, progress, nil, e.blobs.FixedPriceSchedule, comma,
				"Project and item data fetched and uploaded successfully.")
		}

		tbl, err := table.FromRecords(rows)
		if err != nil {
			return nil, err
		}
		tbl = tbl.Select(unanet.ScheduleColumns...)

		e.sendProgress(progress, uploadUpdate(job, e.blobs.FixedPriceSchedule, tbl.Len()))
		if err := e.putTable(ctx, e.blobs.FixedPriceSchedule, tbl, comma); err != nil {
			return nil, err
		}
		run.UpdatedRows = tbl.Len()

		message := "Project and item data fetched and uploaded successfully."
		e.sendProgress(progress, doneUpdate(job, message))
		return &Result{Message: message, Rows: tbl.Len(), Uploaded: []string{e.blobs.FixedPriceSchedule}}, nil
	})
}

// RefreshLeaveCalendar fetches leave requests and the active people list.
func (e *Engine) RefreshLeaveCalendar(ctx context.Context, progress chan<- ProgressUpdate) (*Result, error) {
	job := models.JobLeaveCalendar
	return e.record(job, func(run *models.Run) (*Result, error) {
		api, err := e.authenticate(ctx, job, progress)
		if err != nil {
			return nil, err
		}

		e.sendProgress(progress, fetchItemsUpdate(job, 1, 2, "leave requests"))
		leave, err := api.LeaveRequests(ctx, e.fetch.LeaveRequestsQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch leave requests: %w", err)
		}
		leaveRes, err := e.uploadRecords(ctx, job, run, progress, leave, e.blobs.LeaveRequests, comma, "")
		if err != nil {
			return nil, err
		}

		e.sendProgress(progress, fetchItemsUpdate(job, 2, 2, "people"))
		people, err := api.People(ctx, e.fetch.PeopleQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch people: %w", err)
		}
		peopleRes, err := e.uploadRecords(ctx, job, run, progress, people, e.blobs.People, comma, "")
		if err != nil {
			return nil, err
		}

		run.UpdatedRows = leaveRes.Rows + peopleRes.Rows
		message := "Data fetched and uploaded successfully."
		e.sendProgress(progress, doneUpdate(job, message))
		return &Result{
			Message:  message,
			Rows:     run.UpdatedRows,
			Uploaded: append(leaveRes.Uploaded, peopleRes.Uploaded...),
		}, nil
	})
}

func (e *Engine) authenticate(ctx context.Context, job models.Job, progress chan<- ProgressUpdate) (UnanetAPI, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: unanet client not configured", shared.ErrServiceUnavailable)
	}
	e.sendProgress(progress, authenticateUpdate(job))
	if err := e.api.Authenticate(ctx); err != nil {
		return nil, err
	}
	return e.api, nil
}

// scan collects every record a [unanet.Scanner] yields. On error the records found so far are
// returned with it.
func (e *Engine) scan(ctx context.Context, job models.Job, progress chan<- ProgressUpdate, fetch unanet.FetchFunc, opts unanet.ScanOpts) ([]unanet.Record, error) {
	sc, err := unanet.NewScanner(fetch, opts)
	if err != nil {
		return nil, err
	}

	var records []unanet.Record
	for sc.Next(ctx) {
		records = append(records, sc.Record())
		e.sendProgress(progress, scanUpdate(job, sc.ID(), len(records), sc.Misses()))
	}
	e.logger.Debug("scan finished", "job", job, "last_id", sc.ID(), "found", len(records), "misses", sc.Misses())
	return records, sc.Err()
}

// uploadRecords flattens records and writes them to name. Nothing is written when records is empty.
//
// An empty message means the caller reports its own completion.
func (e *Engine) uploadRecords(
	ctx context.Context,
	job models.Job,
	run *models.Run,
	progress chan<- ProgressUpdate,
	records []unanet.Record,
	name string,
	sep rune,
	message string,
) (*Result, error) {
	if len(records) == 0 {
		e.logger.Warn("no records fetched, skipping upload", "job", job, "blob", name)
		if message != "" {
			message = fmt.Sprintf("No data found for %s; nothing uploaded.", name)
		}
		return &Result{Message: message}, nil
	}

	tbl, err := table.FromRecords(records)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, uploadUpdate(job, name, tbl.Len()))
	if err := e.putTable(ctx, name, tbl, sep); err != nil {
		return nil, err
	}
	run.UpdatedRows += tbl.Len()

	if message != "" {
		e.sendProgress(progress, doneUpdate(job, message))
	}
	return &Result{Message: message, Rows: tbl.Len(), Uploaded: []string{name}}, nil
}

func (e *Engine) loadTable(ctx context.Context, name string, opts table.CSVOptions) (*table.Table, error) {
	data, err := e.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	tbl, err := table.ParseCSV(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", shared.ErrInvalidInput, name, err)
	}
	return tbl, nil
}

func (e *Engine) putTable(ctx context.Context, name string, tbl *table.Table, sep rune) error {
	data, err := tbl.Bytes(sep)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := e.store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return nil
}

func (e *Engine) itemWorkers() int {
	if e.fetch.ItemWorkers < 1 {
		return 1
	}
	return e.fetch.ItemWorkers
}
