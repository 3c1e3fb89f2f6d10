package rates

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedRate matches any [MalformedRateError].
	ErrMalformedRate = errors.New("malformed rate")

	// ErrRowCountMismatch matches any [RowCountMismatchError].
	ErrRowCountMismatch = errors.New("row count mismatch")

	// ErrMissingColumn matches any [MissingColumnError].
	ErrMissingColumn = errors.New("missing column")
)

// MalformedRateError reports a rate that is not numeric once currency formatting is removed.
type MalformedRateError struct {
	Value string // Raw cell text
	Row   int    // Zero-based data row, -1 when unknown
}

func (e *MalformedRateError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("malformed rate %q", e.Value)
	}
	return fmt.Sprintf("malformed rate %q in row %d", e.Value, e.Row)
}

// Is implements errors.Is support
func (e *MalformedRateError) Is(target error) bool {
	return target == ErrMalformedRate
}

// RowCountMismatchError reports a reconciled table whose row count differs from its baseline.
type RowCountMismatchError struct {
	Baseline int
	Updated  int
}

func (e *RowCountMismatchError) Error() string {
	return fmt.Sprintf("row count mismatch: original=%d, updated=%d", e.Baseline, e.Updated)
}

// Is implements errors.Is support
func (e *RowCountMismatchError) Is(target error) bool {
	return target == ErrRowCountMismatch
}

// MissingColumnError reports required columns absent from an input table.
type MissingColumnError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s table is missing columns: %s", e.Table, strings.Join(e.Columns, ", "))
}

// Is implements errors.Is support
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// CheckRowCount fails with [RowCountMismatchError] when updated differs from baseline.
func CheckRowCount(baseline, updated int) error {
	if baseline != updated {
		return &RowCountMismatchError{Baseline: baseline, Updated: updated}
	}
	return nil
}
