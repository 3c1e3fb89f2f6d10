package rates

import (
	"strconv"
	"testing"

	"github.com/desertthunder/unanetx/internal/table"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

var (
	genPerson   = rapid.SampledFrom([]int64{1, 2, 3})
	genProject  = rapid.SampledFrom([]int64{10, 11})
	genCategory = rapid.SampledFrom([]string{"Engineer II", "Analyst"})
	genPeriod   = rapid.SampledFrom([][2]Date{
		{jan1, dec31},
		{{Year: 2025, Month: 1, Day: 1}, {Year: 2025, Month: 6, Day: 30}},
	})
	genRateText = rapid.SampledFrom([]string{"100.0", "90", "$125.00", "#N/A", "", "87.125"})
)

func genBaseline(t *rapid.T) *table.Table {
	tbl := table.New(baselineColumns...)
	n := rapid.IntRange(0, 12).Draw(t, "rows")
	for i := 0; i < n; i++ {
		period := genPeriod.Draw(t, "period")
		tbl.Append(
			strconv.FormatInt(genPerson.Draw(t, "person"), 10),
			strconv.FormatInt(genProject.Draw(t, "project"), 10),
			genCategory.Draw(t, "category"),
			period[0].String(),
			period[1].String(),
			genRateText.Draw(t, "billRate"),
			rapid.SampledFrom([]string{"40", "20", "NA"}).Draw(t, "hours"),
		)
	}
	return tbl
}

var genOverride = rapid.Custom(func(t *rapid.T) OverrideRow {
	period := genPeriod.Draw(t, "period")
	cents := rapid.Int64Range(0, 50000).Draw(t, "cents")
	o := override(genPerson.Draw(t, "person"), genProject.Draw(t, "project"), genCategory.Draw(t, "category"),
		period[0], period[1], decimal.New(cents, -2).String())
	if rapid.IntRange(0, 9).Draw(t, "incomplete") == 0 {
		o.NewBillRate.Valid = false
	}
	return o
})

func withoutRates(t *testing.T, tbl *table.Table) [][]string {
	t.Helper()
	col := tbl.Index(ColBillRate)
	out := make([][]string, len(tbl.Rows))
	for i, row := range tbl.Rows {
		out[i] = append(append([]string{}, row[:col]...), row[col+1:]...)
	}
	return out
}

func TestReconcileProperties(t *testing.T) {
	t.Run("one output row per baseline row and passthrough columns untouched", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			base := genBaseline(rt)
			overrides := rapid.SliceOfN(genOverride, 0, 8).Draw(rt, "overrides")

			out, stats, err := Reconcile(base, overrides)
			if err != nil {
				rt.Fatalf("Reconcile failed: %v", err)
			}
			if out.Len() != base.Len() || stats.UpdatedRows != base.Len() {
				rt.Fatalf("expected %d rows, got %d (stats %+v)", base.Len(), out.Len(), stats)
			}
			if diff := cmp.Diff(withoutRates(t, base), withoutRates(t, out)); diff != "" {
				rt.Fatalf("passthrough columns changed (-want +got):\n%s", diff)
			}
			if stats.MatchedRows > stats.BaselineRows || stats.ChangedRows > stats.MatchedRows {
				rt.Fatalf("inconsistent stats: %+v", stats)
			}
		})
	})

	t.Run("matched rows carry the largest override", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			base := genBaseline(rt)
			overrides := rapid.SliceOfN(genOverride, 0, 8).Draw(rt, "overrides")

			out, _, err := Reconcile(base, overrides)
			if err != nil {
				rt.Fatalf("Reconcile failed: %v", err)
			}
			normalized, err := NormalizeBaseline(base)
			if err != nil {
				rt.Fatalf("NormalizeBaseline failed: %v", err)
			}
			collapsed, _ := Collapse(overrides)
			for i, row := range normalized.Rows {
				want := row.BillRate
				if key, ok := row.Key(); ok {
					if rate, ok := collapsed[key]; ok {
						want = FormatRate(rate)
					}
				}
				if got := out.Get(i, ColBillRate); got != want {
					rt.Fatalf("row %d: expected billRate %q, got %q", i, want, got)
				}
			}
		})
	})

	t.Run("reconciling twice changes nothing more", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			base := genBaseline(rt)
			overrides := rapid.SliceOfN(genOverride, 0, 8).Draw(rt, "overrides")

			once, _, err := Reconcile(base, overrides)
			if err != nil {
				rt.Fatalf("first Reconcile failed: %v", err)
			}
			twice, stats, err := Reconcile(once, overrides)
			if err != nil {
				rt.Fatalf("second Reconcile failed: %v", err)
			}
			if !once.Equal(twice) {
				rt.Fatalf("second pass changed the table:\n%v\n%v", once.Rows, twice.Rows)
			}
			if stats.ChangedRows != 0 {
				rt.Fatalf("expected no changed rows on the second pass, got %d", stats.ChangedRows)
			}
		})
	})

	t.Run("no overrides is the identity", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			base := genBaseline(rt)

			out, stats, err := Reconcile(base, nil)
			if err != nil {
				rt.Fatalf("Reconcile failed: %v", err)
			}
			if !base.Equal(out) {
				rt.Fatalf("expected baseline back unchanged")
			}
			if stats.MatchedRows != 0 {
				rt.Fatalf("expected no matches, got %d", stats.MatchedRows)
			}
		})
	})
}
