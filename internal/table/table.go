// package table provides the string table shared by the fetch, storage and reconciliation layers
package table

import (
	"fmt"
	"slices"
	"strings"
)

// Table is a rectangular grid of text cells with named columns.
//
// Cells are kept as text exactly as read so that columns a caller never interprets round-trip unchanged.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Clone returns a deep copy of t. Rows shorter than the header are padded with empty cells.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: slices.Clone(t.Columns),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		if len(row) < len(t.Columns) {
			out.Rows[i] = fit(row, len(t.Columns))
			continue
		}
		out.Rows[i] = slices.Clone(row)
	}
	return out
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Columns, name)
}

// Has reports whether every named column exists.
func (t *Table) Has(names ...string) bool {
	for _, n := range names {
		if t.Index(n) < 0 {
			return false
		}
	}
	return true
}

// Append adds a row, padding or truncating it to the column count.
func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, fit(row, len(t.Columns)))
}

// Get returns the cell at row i of the named column, or "" if the column does not exist.
func (t *Table) Get(i int, column string) string {
	j := t.Index(column)
	if j < 0 || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// Set writes the cell at row i of the named column, padding a short row first.
func (t *Table) Set(i int, column, value string) error {
	j := t.Index(column)
	if j < 0 {
		return fmt.Errorf("unknown column %q", column)
	}
	if i < 0 || i >= len(t.Rows) {
		return fmt.Errorf("row %d out of range", i)
	}
	if j >= len(t.Rows[i]) {
		t.Rows[i] = fit(t.Rows[i], len(t.Columns))
	}
	t.Rows[i][j] = value
	return nil
}

// Column returns a copy of every cell in the named column.
func (t *Table) Column(name string) ([]string, bool) {
	j := t.Index(name)
	if j < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if j < len(row) {
			out[i] = row[j]
		}
	}
	return out, true
}

// TrimHeaders returns a copy of t whose column names have surrounding whitespace removed.
func (t *Table) TrimHeaders() *Table {
	out := t.Clone()
	for i, c := range out.Columns {
		out.Columns[i] = strings.TrimSpace(c)
	}
	return out
}

// Rename returns a copy of t with columns renamed according to names (old → new).
//
// Columns not present in names keep their name; names that match no column are ignored.
func (t *Table) Rename(names map[string]string) *Table {
	out := t.Clone()
	for i, c := range out.Columns {
		if n, ok := names[c]; ok {
			out.Columns[i] = n
		}
	}
	return out
}

// Select returns a copy of t with the named columns moved to the front in the given order.
//
// Names that match no column are ignored; remaining columns keep their relative order.
func (t *Table) Select(columns ...string) *Table {
	var order []int
	used := make(map[int]bool)
	for _, c := range columns {
		if i := t.Index(c); i >= 0 && !used[i] {
			order = append(order, i)
			used[i] = true
		}
	}
	for i := range t.Columns {
		if !used[i] {
			order = append(order, i)
		}
	}

	out := &Table{Columns: make([]string, len(order)), Rows: make([][]string, len(t.Rows))}
	for j, i := range order {
		out.Columns[j] = t.Columns[i]
	}
	for r, row := range t.Rows {
		cells := make([]string, len(order))
		for j, i := range order {
			if i < len(row) {
				cells[j] = row[i]
			}
		}
		out.Rows[r] = cells
	}
	return out
}

// Equal reports whether t and o have the same columns and cells in the same order.
func (t *Table) Equal(o *Table) bool {
	if !slices.Equal(t.Columns, o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Rows {
		if !slices.Equal(t.Rows[i], o.Rows[i]) {
			return false
		}
	}
	return true
}

func fit(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}
