package rates

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/unanetx/internal/table"
	"github.com/shopspring/decimal"
)

// naValues are cell texts read as missing, matching what spreadsheet exports put in empty cells.
var naValues = map[string]bool{
	"": true, "#N/A": true, "N/A": true, "n/a": true, "NA": true, "<NA>": true,
	"NaN": true, "nan": true, "-NaN": true, "-nan": true,
	"NULL": true, "null": true, "None": true,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/06",
}

func missing(s string) bool {
	return naValues[s]
}

// NormalizeBaseline types the join columns of a planned matrix table.
//
// The input is not modified; the returned [Baseline] owns a copy with trimmed column names.
func NormalizeBaseline(t *table.Table) (*Baseline, error) {
	tbl := t.TrimHeaders()
	if err := require(tbl, "planned matrix", append(KeyColumns, ColBillRate)); err != nil {
		return nil, err
	}

	rows := make([]PlannedRow, tbl.Len())
	for i := range tbl.Rows {
		rows[i] = PlannedRow{
			Row:       i,
			KeyFields: keyFields(tbl, i),
			BillRate:  tbl.Get(i, ColBillRate),
		}
	}

	return &Baseline{Table: tbl, Rows: rows}, nil
}

// NormalizeOverrides types a labor category table already renamed onto the canonical columns.
//
// Rows with a missing key field are incomplete and their rate cell is never parsed, so footer and
// note lines do not abort the update. Fails with [MalformedRateError] on the first fully keyed row
// whose rate is present but not numeric.
func NormalizeOverrides(t *table.Table) ([]OverrideRow, error) {
	tbl := t.TrimHeaders()
	if err := require(tbl, "labor category", append(KeyColumns, ColNewBillRate)); err != nil {
		return nil, err
	}

	rows := make([]OverrideRow, tbl.Len())
	for i := range tbl.Rows {
		rows[i] = OverrideRow{Row: i, KeyFields: keyFields(tbl, i)}
		if _, ok := rows[i].Key(); !ok {
			continue
		}

		rate, err := ParseRate(tbl.Get(i, ColNewBillRate))
		if err != nil {
			if mre, ok := err.(*MalformedRateError); ok {
				mre.Row = i
			}
			return nil, err
		}
		rows[i].NewBillRate = rate
	}

	return rows, nil
}

// ParseRate parses a currency string such as "$1,250.00".
//
// Dollar signs and thousands separators are removed before parsing. Missing values yield a null
// rate; anything else that is not a number yields [MalformedRateError].
func ParseRate(s string) (sql.Null[decimal.Decimal], error) {
	raw := s
	s = strings.TrimSpace(s)
	if missing(s) {
		return sql.Null[decimal.Decimal]{}, nil
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return sql.Null[decimal.Decimal]{}, &MalformedRateError{Value: raw, Row: -1}
	}
	return sql.Null[decimal.Decimal]{V: d, Valid: true}, nil
}

// ParseKey parses an integer identifier. Integral floats ("12.0") are accepted; anything else is null.
func ParseKey(s string) sql.Null[int64] {
	s = strings.TrimSpace(s)
	if missing(s) {
		return sql.Null[int64]{}
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sql.Null[int64]{V: n, Valid: true}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return sql.Null[int64]{}
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return sql.Null[int64]{}
	}
	return sql.Null[int64]{V: int64(f), Valid: true}
}

// ParseDate parses a calendar date. Any time of day is dropped, so "2024-01-01 08:00:00" and
// "2024-01-01" yield the same key date. Unrecognized text is null.
func ParseDate(s string) sql.Null[Date] {
	s = strings.TrimSpace(s)
	if missing(s) {
		return sql.Null[Date]{}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.Null[Date]{V: DateOf(t), Valid: true}
		}
	}
	return sql.Null[Date]{}
}

// ParseCategory trims a labor category name. Empty names are null.
func ParseCategory(s string) sql.Null[string] {
	s = strings.TrimSpace(s)
	if missing(s) {
		return sql.Null[string]{}
	}
	return sql.Null[string]{V: s, Valid: true}
}

func keyFields(t *table.Table, i int) KeyFields {
	return KeyFields{
		Person:        ParseKey(t.Get(i, ColPerson)),
		Project:       ParseKey(t.Get(i, ColProject)),
		LaborCategory: ParseCategory(t.Get(i, ColLaborCategory)),
		Begin:         ParseDate(t.Get(i, ColBeginDate)),
		End:           ParseDate(t.Get(i, ColEndDate)),
	}
}

func require(t *table.Table, name string, columns []string) error {
	var absent []string
	for _, c := range columns {
		if t.Index(c) < 0 {
			absent = append(absent, c)
		}
	}
	if len(absent) > 0 {
		return &MissingColumnError{Table: name, Columns: absent}
	}
	return nil
}
