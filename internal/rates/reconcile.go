package rates

import (
	"database/sql"
	"strings"

	"github.com/desertthunder/unanetx/internal/table"
	"github.com/shopspring/decimal"
)

// Joined pairs a baseline row with the override found for its key, if any.
type Joined struct {
	Row      int // Index into Baseline.Rows
	Override sql.Null[decimal.Decimal]
}

// JoinFunc matches baseline rows against collapsed overrides.
//
// A correct join yields exactly one [Joined] per baseline row, in baseline order.
type JoinFunc func(baseline []PlannedRow, overrides map[Key]decimal.Decimal) []Joined

// LeftJoin is the default [JoinFunc].
func LeftJoin(baseline []PlannedRow, overrides map[Key]decimal.Decimal) []Joined {
	out := make([]Joined, len(baseline))
	for i, row := range baseline {
		out[i] = Joined{Row: i}
		key, ok := row.Key()
		if !ok {
			continue
		}
		if rate, ok := overrides[key]; ok {
			out[i].Override = sql.Null[decimal.Decimal]{V: rate, Valid: true}
		}
	}
	return out
}

// Collapse drops incomplete overrides and keeps the maximum rate for each key.
//
// It returns the collapsed set and the number of discarded rows.
func Collapse(overrides []OverrideRow) (map[Key]decimal.Decimal, int) {
	out := make(map[Key]decimal.Decimal, len(overrides))
	discarded := 0
	for _, o := range overrides {
		if !o.Complete() {
			discarded++
			continue
		}
		key, _ := o.Key()
		if cur, ok := out[key]; !ok || o.NewBillRate.V.GreaterThan(cur) {
			out[key] = o.NewBillRate.V
		}
	}
	return out, discarded
}

type options struct {
	join JoinFunc
}

// Option configures a [Reconciler].
type Option func(*options)

// WithJoin replaces the join step.
func WithJoin(fn JoinFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.join = fn
		}
	}
}

// Reconciler applies rate overrides to a planned matrix. It holds no state between calls.
type Reconciler struct {
	join JoinFunc
}

// New creates a [Reconciler] using [LeftJoin] unless overridden.
func New(opts ...Option) *Reconciler {
	o := &options{join: LeftJoin}
	for _, opt := range opts {
		opt(o)
	}
	return &Reconciler{join: o.join}
}

// Reconcile returns a copy of baseline with billRate replaced wherever an override matches.
//
// Columns other than billRate are copied verbatim. The result fails with [RowCountMismatchError]
// when the join did not produce exactly one row per baseline row; such a table must not be kept.
func (r *Reconciler) Reconcile(baseline *table.Table, overrides []OverrideRow) (*table.Table, Stats, error) {
	base, err := NormalizeBaseline(baseline)
	if err != nil {
		return nil, Stats{}, err
	}

	collapsed, discarded := Collapse(overrides)
	stats := Stats{
		BaselineRows:       base.Len(),
		OverrideRows:       len(overrides),
		DiscardedOverrides: discarded,
		CollapsedKeys:      len(collapsed),
	}

	joined := r.join(base.Rows, collapsed)
	rateCol := base.Table.Index(ColBillRate)
	out := &table.Table{
		Columns: append([]string(nil), base.Table.Columns...),
		Rows:    make([][]string, 0, len(joined)),
	}

	for _, j := range joined {
		if j.Row < 0 || j.Row >= base.Len() {
			continue
		}
		row := append([]string(nil), base.Table.Rows[j.Row]...)
		if j.Override.Valid {
			stats.MatchedRows++
			if rateChanged(base.Rows[j.Row].BillRate, j.Override.V) {
				stats.ChangedRows++
			}
			row[rateCol] = FormatRate(j.Override.V)
		}
		out.Rows = append(out.Rows, row)
	}
	stats.UpdatedRows = out.Len()

	if err := CheckRowCount(stats.BaselineRows, stats.UpdatedRows); err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// Reconcile runs a default [Reconciler].
func Reconcile(baseline *table.Table, overrides []OverrideRow) (*table.Table, Stats, error) {
	return New().Reconcile(baseline, overrides)
}

// Update normalizes a planned matrix and a labor category table and reconciles them.
//
// The labor category table may use either its export headers (see [OverrideColumns]) or the
// canonical names.
func (r *Reconciler) Update(baseline, overrides *table.Table) (*table.Table, Stats, error) {
	rows, err := NormalizeOverrides(overrides.TrimHeaders().Rename(OverrideColumns))
	if err != nil {
		return nil, Stats{}, err
	}
	return r.Reconcile(baseline, rows)
}

// Update runs [Reconciler.Update] with a default [Reconciler].
func Update(baseline, overrides *table.Table) (*table.Table, Stats, error) {
	return New().Update(baseline, overrides)
}

// FormatRate renders d with at least two decimal places, more when d carries them.
func FormatRate(d decimal.Decimal) string {
	s := d.String()
	dot := strings.IndexByte(s, '.')
	if dot < 0 || len(s)-dot-1 < 2 {
		return d.StringFixed(2)
	}
	return s
}

func rateChanged(original string, rate decimal.Decimal) bool {
	cur, err := ParseRate(original)
	if err != nil || !cur.Valid {
		return true
	}
	return !cur.V.Equal(rate)
}
