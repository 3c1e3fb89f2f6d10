// Package models defines the run history kept by the service.
//
// A [Run] is created when a job starts and updated once when it finishes. Runs are never deleted;
// the history is the audit trail of every bill rate update and data refresh, including the row counts
// the reconciliation reported.
//
// The [Repository] interface defines the CRUD operations implemented in the repositories package.
package models
