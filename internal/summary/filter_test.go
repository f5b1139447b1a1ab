package summary

import (
	"testing"
	"time"

	"propledger/internal/core"
)

func TestDateRangeWindows(t *testing.T) {
	cases := []struct {
		name     string
		now      time.Time
		r        DateRange
		from, to string
	}{
		{"this month", fixedNow, ThisMonth, "2025-04-01", "2025-04-15"},
		{"last month", fixedNow, LastMonth, "2025-03-01", "2025-03-31"},
		{"last month january", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), LastMonth, "2024-12-01", "2024-12-31"},
		{"last month leap", time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC), LastMonth, "2024-02-01", "2024-02-29"},
		{"this year", fixedNow, ThisYear, "2025-01-01", "2025-04-15"},
		{"last 30 days", fixedNow, Last30Days, "2025-03-16", "2025-04-15"},
		{"last 90 days", fixedNow, Last90Days, "2025-01-15", "2025-04-15"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, ok := tc.r.Window(tc.now)
			if !ok {
				t.Fatalf("expected a window")
			}
			if w.From.String() != tc.from || w.To.String() != tc.to {
				t.Fatalf("window = %s..%s, want %s..%s", w.From, w.To, tc.from, tc.to)
			}
		})
	}

	if _, ok := AllTime.Window(fixedNow); ok {
		t.Fatalf("AllTime must not produce a window")
	}
}

func TestWindowContains(t *testing.T) {
	w := MonthWindow(2025, 3)
	cases := []struct {
		d    core.Date
		want bool
	}{
		{core.NewDate(2025, 3, 1), true},
		{core.NewDate(2025, 3, 31), true},
		{core.NewDate(2025, 2, 28), false},
		{core.NewDate(2025, 4, 1), false},
		{core.Date{}, false},
	}
	for _, tc := range cases {
		if got := w.Contains(tc.d); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.d, got, tc.want)
		}
	}
}

func TestThisMonthIncludesLateToday(t *testing.T) {
	now := time.Date(2025, 4, 15, 23, 59, 0, 0, time.UTC)
	s := Summarize([]core.Transaction{tx(5, core.Income, "Rent", "2025-04-15T22:00:00Z")}, now, Options{Filter: Filter{DateRange: ThisMonth}})
	if s.TotalIncome.Cents != 500 {
		t.Fatalf("transaction dated today must be included")
	}
}

func TestParseDateRange(t *testing.T) {
	cases := []struct {
		in   string
		want DateRange
		ok   bool
	}{
		{"", AllTime, true},
		{"all", AllTime, true},
		{"thisMonth", ThisMonth, true},
		{"lastmonth", LastMonth, true},
		{"THISYEAR", ThisYear, true},
		{"last30Days", Last30Days, true},
		{"last90days", Last90Days, true},
		{"yesterday", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDateRange(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("%q: got %q, %v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%q: expected error", tc.in)
		}
	}
}

func TestDisplayName(t *testing.T) {
	names := PropertyNames{"p1": "Oak Street", "p3": "  "}
	cases := []struct {
		ref  *core.Ref
		want string
	}{
		{nil, core.Unassigned},
		{&core.Ref{}, core.Unassigned},
		{&core.Ref{ID: "p1", Name: "Custom"}, "Custom"},
		{&core.Ref{ID: "p1"}, "Oak Street"},
		{&core.Ref{ID: "p2"}, "p2"},
		{&core.Ref{ID: "p3"}, "p3"},
		{&core.Ref{Name: "Orphan"}, "Orphan"},
	}
	for _, tc := range cases {
		if got := DisplayName(tc.ref, names); got != tc.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestSearchOnlyMatchesRealPropertyNames(t *testing.T) {
	bare := core.Transaction{Type: core.Expense, Property: &core.Ref{ID: "p9"}}
	listed := core.Transaction{Type: core.Expense, Property: &core.Ref{ID: "p1"}}
	none := core.Transaction{Type: core.Income}
	txs := []core.Transaction{bare, listed, none}
	names := PropertyNames{"p1": "Oak Street"}

	cases := []struct {
		search string
		want   int
	}{
		{"unassigned", 0},
		{"p9", 0},
		{"oak", 1},
	}
	for _, tc := range cases {
		got := Apply(txs, fixedNow, Filter{Search: tc.search}, names)
		if len(got) != tc.want {
			t.Errorf("search %q matched %d records, want %d", tc.search, len(got), tc.want)
		}
	}
}

func TestCalendarYear(t *testing.T) {
	txs := []core.Transaction{
		tx(100, core.Income, "Rent", "2025-01-05"),
		tx(40, core.Expense, "Utilities", "2025-01-20"),
		tx(300, core.Income, "Rent", "2025-12-01"),
		tx(999, core.Income, "Rent", "2024-12-01"),
		tx(999, core.Income, "Rent", "bad"),
	}
	chart := CalendarYear(txs, 2025)
	if len(chart) != 12 {
		t.Fatalf("expected 12 months, got %d", len(chart))
	}
	if chart[0].Profit.Cents != 6000 || chart[11].Income.Cents != 30000 {
		t.Fatalf("chart = %+v", chart)
	}
	for i, b := range chart {
		if b.Year != 2025 || b.Month != i+1 {
			t.Fatalf("bucket %d is %d-%d", i, b.Year, b.Month)
		}
	}
}

func TestTrailingMonths(t *testing.T) {
	b := TrailingMonths(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 3)
	if b[0].Year != 2024 || b[0].Month != 11 || b[2].Year != 2025 || b[2].Month != 1 {
		t.Fatalf("buckets = %+v", b)
	}
}
