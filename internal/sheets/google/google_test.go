package google

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"propledger/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"}, nil)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet", CredentialsFile: "/non/existent.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExportReport_Guards(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetBase: "Cash Flow"}

	if _, err := c.ExportReport(context.Background(), core.Report{Year: 2025, Month: 13}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if _, err := c.ExportReport(context.Background(), core.Report{Year: 2025, Month: 3}); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Cash Flow", 2025, "2025 Cash Flow"},
		{"  Cash Flow ", 2024, "2024 Cash Flow"},
		{"2023 Cash Flow", 2025, "2023 Cash Flow"},
		{"", 2025, ""},
		{"12345", 2025, "2025 12345"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestOwnerSheetName(t *testing.T) {
	if got := ownerSheetName("Cash Flow", 2025, "0123456789abcdef", true); got != "2025 Cash Flow 01234567" {
		t.Fatalf("got %q", got)
	}
	if got := ownerSheetName("Cash Flow", 2025, "o1", false); got != "2025 Cash Flow" {
		t.Fatalf("got %q", got)
	}
}

func TestRanges(t *testing.T) {
	if got := monthRange("2025 Cash Flow", 1); got != "'2025 Cash Flow'!A2:G2" {
		t.Fatalf("monthRange = %q", got)
	}
	if got := monthRange("Flow", 12); got != "Flow!A13:G13" {
		t.Fatalf("monthRange = %q", got)
	}
	if got := headerRange("O'Brien Flow"); got != "'O''Brien Flow'!A1:G1" {
		t.Fatalf("headerRange = %q", got)
	}
}

func TestReportRow(t *testing.T) {
	r := core.Report{
		Year:        2025,
		Month:       3,
		GeneratedAt: time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC),
		Summary: core.Summary{
			TotalIncome:   core.Money{Cents: 150000},
			TotalExpenses: core.Money{Cents: 42050},
			NetCashFlow:   core.Money{Cents: 107950},
			Count:         4,
			ByCategory: core.CategoryBreakdown{
				Expense: map[string]core.Money{"Utilities": {Cents: 2050}, "Mortgage": {Cents: 40000}},
			},
		},
	}
	row := reportRow(r)
	if len(row) != len(reportHeader) {
		t.Fatalf("row has %d cells, header %d", len(row), len(reportHeader))
	}
	if row[0] != "March" || row[1] != 1500.0 || row[2] != 420.5 || row[3] != 1079.5 || row[4] != 4 {
		t.Fatalf("row = %v", row)
	}
	if row[5] != "Mortgage (400.00)" || row[6] != "2025-04-01T08:00:00Z" {
		t.Fatalf("row = %v", row)
	}
}
