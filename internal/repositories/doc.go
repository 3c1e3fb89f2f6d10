// Package repositories implements SQLite persistence for the run history.
//
// [RunRepository] implements models.Repository for [models.Run]. Each run gets a v4 UUID and a
// sequence number from [NextSequence], which atomically increments a counter in the runs_sequence
// table so runs have a stable order independent of clock skew.
//
// List accepts these criteria:
//   - "job" : a models.Job or string, exact match
//   - "status" : a models.RunStatus or string, exact match
//   - "limit" : an int, maximum number of runs (default 20)
//
// Results are ordered newest first by sequence.
package repositories
