// Package tasks runs the jobs that keep the CSV snapshots of a Unanet tenant current.
//
// # Jobs
//
// [Engine] implements one method per job:
//
//  1. [Engine.UpdateBillRates] : load the planned matrix and the labor category sheet, reconcile them
//     with the rates package and overwrite the planned matrix. Nothing is written when reconciliation fails.
//  2. [Engine.RefreshPlannedTime] : scan planned time by project id until too many consecutive misses
//  3. [Engine.RefreshProjects] : fetch a fixed range of project ids, skipping failures
//  4. [Engine.RefreshInvoices] : scan invoices until too many consecutive ids are not found
//  5. [Engine.RefreshFixedPriceSchedule] : projects joined with their fixed price items
//  6. [Engine.RefreshLeaveCalendar] : leave requests and the active people list
//
// Refresh jobs authenticate once per run. Records are flattened into dotted columns with table.FromRecords
// and an empty result never overwrites an existing blob.
//
// # Progress Reporting
//
// All jobs accept an optional channel for [ProgressUpdate] values. Updates use select with default so a
// slow or absent reader never blocks a job.
//
// # Run History
//
// With [WithRecorder] every job is recorded as a models.Run: created when it starts and updated with its
// status, row counts and message when it ends. Recorder failures are logged and never fail the job.
package tasks
