package rates

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/unanetx/internal/table"
	"github.com/google/go-cmp/cmp"
)

func TestParseRate(t *testing.T) {
	t.Run("currency formatting", func(t *testing.T) {
		tests := []struct {
			in   string
			want string
		}{
			{"125", "125"},
			{"$125.00", "125"},
			{" $1,250.50 ", "1250.5"},
			{"0", "0"},
			{"$ 95.125", "95.125"},
		}
		for _, tt := range tests {
			got, err := ParseRate(tt.in)
			if err != nil {
				t.Fatalf("ParseRate(%q) failed: %v", tt.in, err)
			}
			if !got.Valid {
				t.Fatalf("ParseRate(%q) returned null", tt.in)
			}
			if got.V.String() != tt.want {
				t.Errorf("ParseRate(%q) = %s, want %s", tt.in, got.V.String(), tt.want)
			}
		}
	})

	t.Run("missing values are null", func(t *testing.T) {
		for _, in := range []string{"", "  ", "NaN", "N/A", "null"} {
			got, err := ParseRate(in)
			if err != nil {
				t.Fatalf("ParseRate(%q) failed: %v", in, err)
			}
			if got.Valid {
				t.Errorf("expected null for %q, got %s", in, got.V)
			}
		}
	})

	t.Run("garbage is malformed", func(t *testing.T) {
		_, err := ParseRate("$12O.00")
		if !errors.Is(err, ErrMalformedRate) {
			t.Fatalf("expected ErrMalformedRate, got %v", err)
		}

		var mre *MalformedRateError
		if !errors.As(err, &mre) {
			t.Fatalf("expected *MalformedRateError, got %T", err)
		}
		if mre.Value != "$12O.00" || mre.Row != -1 {
			t.Errorf("unexpected error fields: %+v", mre)
		}
	})
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in    string
		want  int64
		valid bool
	}{
		{"12", 12, true},
		{" 12 ", 12, true},
		{"12.0", 12, true},
		{"12.5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"nan", 0, false},
	}
	for _, tt := range tests {
		got := ParseKey(tt.in)
		if got.Valid != tt.valid || got.V != tt.want {
			t.Errorf("ParseKey(%q) = %+v, want {%d %t}", tt.in, got, tt.want, tt.valid)
		}
	}
}

func TestParseDate(t *testing.T) {
	want := Date{Year: 2024, Month: time.January, Day: 1}
	for _, in := range []string{
		"2024-01-01",
		"2024-01-01 00:00:00",
		"2024-01-01 08:00:00",
		"2024-01-01T13:45:00",
		"2024-01-01T13:45:00Z",
		"1/1/2024",
		"1/1/24",
	} {
		got := ParseDate(in)
		if !got.Valid || got.V != want {
			t.Errorf("ParseDate(%q) = %+v, want %v", in, got, want)
		}
	}

	for _, in := range []string{"", "yesterday", "2024-13-01"} {
		if got := ParseDate(in); got.Valid {
			t.Errorf("expected null for %q, got %v", in, got.V)
		}
	}

	if s := want.String(); s != "2024-01-01" {
		t.Errorf("expected 2024-01-01, got %s", s)
	}
}

func TestNormalizeBaseline(t *testing.T) {
	t.Run("trims headers and types keys", func(t *testing.T) {
		tbl := table.New(" person.key", "project.key ", "laborCategory.name", "beginDate", "endDate", "billRate", "note")
		tbl.Append("1", "10.0", " Engineer II ", "2024-01-01", "2024-12-31", "100.0", "x")
		tbl.Append("", "10", "Engineer II", "bad", "2024-12-31", "", "y")

		base, err := NormalizeBaseline(tbl)
		if err != nil {
			t.Fatalf("NormalizeBaseline failed: %v", err)
		}

		if tbl.Columns[0] != " person.key" {
			t.Error("input table was mutated")
		}
		if base.Table.Columns[0] != ColPerson || base.Table.Columns[1] != ColProject {
			t.Errorf("headers not trimmed: %v", base.Table.Columns)
		}

		key, ok := base.Rows[0].Key()
		if !ok {
			t.Fatal("expected a complete key for row 0")
		}
		want := Key{
			Person:        1,
			Project:       10,
			LaborCategory: "Engineer II",
			Begin:         Date{2024, time.January, 1},
			End:           Date{2024, time.December, 31},
		}
		if diff := cmp.Diff(want, key); diff != "" {
			t.Errorf("key mismatch (-want +got):\n%s", diff)
		}
		if base.Rows[0].BillRate != "100.0" {
			t.Errorf("expected raw bill rate 100.0, got %s", base.Rows[0].BillRate)
		}

		if _, ok := base.Rows[1].Key(); ok {
			t.Error("expected row 1 to have an incomplete key")
		}
	})

	t.Run("missing column", func(t *testing.T) {
		tbl := table.New("person.key", "project.key", "billRate")
		_, err := NormalizeBaseline(tbl)
		if !errors.Is(err, ErrMissingColumn) {
			t.Fatalf("expected ErrMissingColumn, got %v", err)
		}

		var mce *MissingColumnError
		if !errors.As(err, &mce) {
			t.Fatalf("expected *MissingColumnError, got %T", err)
		}
		if diff := cmp.Diff([]string{ColLaborCategory, ColBeginDate, ColEndDate}, mce.Columns); diff != "" {
			t.Errorf("columns mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestNormalizeOverrides(t *testing.T) {
	t.Run("parses rates", func(t *testing.T) {
		tbl := table.New(KeyColumns...)
		tbl.Columns = append(tbl.Columns, ColNewBillRate)
		tbl.Append("1", "10", "Engineer II", "2024-01-01", "2024-12-31", "$1,125.00")
		tbl.Append("2", "10", "Engineer II", "2024-01-01", "2024-12-31", "")

		rows, err := NormalizeOverrides(tbl)
		if err != nil {
			t.Fatalf("NormalizeOverrides failed: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if !rows[0].Complete() || rows[0].NewBillRate.V.String() != "1125" {
			t.Errorf("unexpected first row: %+v", rows[0])
		}
		if rows[1].Complete() {
			t.Error("expected row without a rate to be incomplete")
		}
	})

	t.Run("rows without keys skip rate parsing", func(t *testing.T) {
		tbl := table.New(KeyColumns...)
		tbl.Columns = append(tbl.Columns, ColNewBillRate)
		tbl.Append("1", "10", "Engineer II", "2024-01-01", "2024-12-31", "$125.00")
		tbl.Append("", "", "", "", "", "see notes")
		tbl.Append("2", "", "Engineer II", "2024-01-01", "2024-12-31", "TBD")

		rows, err := NormalizeOverrides(tbl)
		if err != nil {
			t.Fatalf("NormalizeOverrides failed: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}
		if !rows[0].Complete() {
			t.Errorf("expected first row to be complete: %+v", rows[0])
		}
		for _, r := range rows[1:] {
			if r.Complete() || r.NewBillRate.Valid {
				t.Errorf("expected row %d to be incomplete without a rate: %+v", r.Row, r)
			}
		}
	})

	t.Run("malformed rate carries its row", func(t *testing.T) {
		tbl := table.New(KeyColumns...)
		tbl.Columns = append(tbl.Columns, ColNewBillRate)
		tbl.Append("1", "10", "Engineer II", "2024-01-01", "2024-12-31", "100")
		tbl.Append("1", "10", "Engineer II", "2024-01-01", "2024-12-31", "TBD")

		_, err := NormalizeOverrides(tbl)
		var mre *MalformedRateError
		if !errors.As(err, &mre) {
			t.Fatalf("expected *MalformedRateError, got %v", err)
		}
		if mre.Row != 1 || mre.Value != "TBD" {
			t.Errorf("unexpected error fields: %+v", mre)
		}
	})
}
