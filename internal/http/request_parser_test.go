package http

import (
	"net/url"
	"testing"
	"time"

	"propledger/internal/core"
	"propledger/internal/summary"
)

func TestFilterParams(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    summary.Filter
		wantErr bool
	}{
		{
			name:  "empty query matches everything",
			query: url.Values{},
			want:  summary.Filter{DateRange: summary.AllTime},
		},
		{
			name:  "all values provided",
			query: url.Values{"search": {"  rent "}, "type": {"Income"}, "propertyId": {"p1"}, "dateRange": {"lastMonth"}},
			want:  summary.Filter{Search: "rent", Type: core.Income, PropertyID: "p1", DateRange: summary.LastMonth},
		},
		{
			name:  "type all is no filter",
			query: url.Values{"type": {"all"}, "dateRange": {"ALL"}},
			want:  summary.Filter{DateRange: summary.AllTime},
		},
		{
			name:    "unknown type",
			query:   url.Values{"type": {"transfer"}},
			wantErr: true,
		},
		{
			name:    "unknown date range",
			query:   url.Values{"dateRange": {"lastWeek"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterParamsFromQuery(tt.query).Filter()
			if tt.wantErr {
				if !core.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Filter() error = %v", err)
			}
			if got.Search != tt.want.Search || got.Type != tt.want.Type || got.PropertyID != tt.want.PropertyID || got.DateRange != tt.want.DateRange {
				t.Errorf("Filter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMonths(t *testing.T) {
	if n, err := ParseMonths(url.Values{}); err != nil || n != 0 {
		t.Fatalf("missing months = %d, %v", n, err)
	}
	if n, err := ParseMonths(url.Values{"months": {"6"}}); err != nil || n != 6 {
		t.Fatalf("months=6 gave %d, %v", n, err)
	}
	if _, err := ParseMonths(url.Values{"months": {"six"}}); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseYear(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	if y, _ := ParseYear(url.Values{}, now); y != 2025 {
		t.Errorf("default year = %d", y)
	}
	if y, _ := ParseYear(url.Values{"year": {"2023"}}, now); y != 2023 {
		t.Errorf("year = %d", y)
	}
	if _, err := ParseYear(url.Values{"year": {"20x3"}}, now); !core.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestParseNow(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "", want: time.Time{}},
		{in: "2025-03-15", want: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{in: "2025-03-15T10:30:00Z", want: time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)},
		{in: "15/03/2025", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNow(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNow(%q) error = %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseNow(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReportRequestPeriod(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		req       ReportRequest
		wantYear  int
		wantMonth int
	}{
		{"empty defaults to last month across the year boundary", ReportRequest{}, 2024, 12},
		{"explicit month", ReportRequest{Year: 2024, Month: 6}, 2024, 6},
		{"month without year uses current year", ReportRequest{Month: 1}, 2025, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, m := tt.req.Period(now)
			if y != tt.wantYear || m != tt.wantMonth {
				t.Errorf("Period() = %d-%02d, want %d-%02d", y, m, tt.wantYear, tt.wantMonth)
			}
		})
	}
}
