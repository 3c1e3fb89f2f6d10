// Package rates reconciles the planned labor matrix against negotiated labor category bill rates.
//
// # Normalization
//
// [NormalizeBaseline] and [NormalizeOverrides] trim column names and coerce the five join columns
// (person.key, project.key, laborCategory.name, beginDate, endDate) to comparable types. Values that
// cannot be coerced become null, which makes the row unmatchable rather than an error. Override rates
// are currency strings parsed by [ParseRate]; residual garbage fails with [MalformedRateError].
//
// # Reconciliation
//
// [Reconciler.Reconcile] drops incomplete overrides, collapses overrides that share a [Key] to their
// maximum rate ([Collapse]), left joins the baseline onto the collapsed set in baseline order, and
// replaces billRate wherever an override exists. A zero override replaces the baseline rate; only a
// missing override leaves it alone.
//
// Every baseline row appears exactly once in the output. [CheckRowCount] enforces this after the
// join and fails with [RowCountMismatchError]; callers must not persist a table that fails it.
//
// The package performs no I/O and keeps no state, so the same inputs always yield the same table.
package rates
