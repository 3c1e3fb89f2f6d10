package rates

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/unanetx/internal/table"
	"github.com/shopspring/decimal"
)

// Canonical column names shared by the planned matrix and the renamed labor category table.
const (
	ColPerson        = "person.key"
	ColProject       = "project.key"
	ColLaborCategory = "laborCategory.name"
	ColBeginDate     = "beginDate"
	ColEndDate       = "endDate"
	ColBillRate      = "billRate"
	ColNewBillRate   = "new_billRate"
)

// KeyColumns are the five columns of the composite join key.
var KeyColumns = []string{ColPerson, ColProject, ColLaborCategory, ColBeginDate, ColEndDate}

// OverrideColumns maps the labor category export headers onto the canonical names.
var OverrideColumns = map[string]string{
	"Person Key":     ColPerson,
	"Project Key":    ColProject,
	"Labor Category": ColLaborCategory,
	"Bill Rate":      ColNewBillRate,
	"Begin Date":     ColBeginDate,
	"End Date":       ColEndDate,
}

// Date is a calendar date without time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Key is the composite join key. It can only be built from rows whose five fields are all present.
type Key struct {
	Person        int64
	Project       int64
	LaborCategory string
	Begin         Date
	End           Date
}

// KeyFields holds the nullable key columns of a normalized row.
type KeyFields struct {
	Person        sql.Null[int64]
	Project       sql.Null[int64]
	LaborCategory sql.Null[string]
	Begin         sql.Null[Date]
	End           sql.Null[Date]
}

// Key returns the composite key and false when any field is null.
func (f KeyFields) Key() (Key, bool) {
	if !f.Person.Valid || !f.Project.Valid || !f.LaborCategory.Valid || !f.Begin.Valid || !f.End.Valid {
		return Key{}, false
	}
	return Key{
		Person:        f.Person.V,
		Project:       f.Project.V,
		LaborCategory: f.LaborCategory.V,
		Begin:         f.Begin.V,
		End:           f.End.V,
	}, true
}

// PlannedRow is one normalized planned assignment of the baseline table.
type PlannedRow struct {
	Row int // Position in Baseline.Table
	KeyFields
	BillRate string // Original cell text, kept verbatim
}

// OverrideRow is one normalized proposed rate.
type OverrideRow struct {
	Row int // Position in the source override table
	KeyFields
	NewBillRate sql.Null[decimal.Decimal]
}

// Complete reports whether every key field and the rate are present.
func (o OverrideRow) Complete() bool {
	_, ok := o.Key()
	return ok && o.NewBillRate.Valid
}

// Baseline is a normalized planned matrix. Table is a private copy; passthrough columns live only there.
type Baseline struct {
	Table *table.Table
	Rows  []PlannedRow
}

// Len returns the number of baseline rows.
func (b *Baseline) Len() int {
	return len(b.Rows)
}

// Stats summarizes one reconciliation.
type Stats struct {
	BaselineRows       int `json:"baseline_rows"`
	OverrideRows       int `json:"override_rows"`
	DiscardedOverrides int `json:"discarded_overrides"`
	CollapsedKeys      int `json:"collapsed_keys"`
	MatchedRows        int `json:"matched_rows"`
	ChangedRows        int `json:"changed_rows"`
	UpdatedRows        int `json:"updated_rows"`
}
