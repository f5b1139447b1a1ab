package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"propledger/internal/core"
)

// reportHeader is written to row 1 of every yearly sheet.
var reportHeader = []any{"Month", "Income", "Expenses", "Net Cash Flow", "Transactions", "Top Expense", "Generated At"}

const lastColumn = "G"

// reportRow renders one monthly report as a sheet row.
func reportRow(r core.Report) []any {
	topExpense := ""
	if cats := r.Summary.ByCategory.SortedCategories(core.Expense); len(cats) > 0 {
		topExpense = fmt.Sprintf("%s (%s)", cats[0].Name, cats[0].Amount.String())
	}
	return []any{
		time.Month(r.Month).String(),
		r.Summary.TotalIncome.Float(),
		r.Summary.TotalExpenses.Float(),
		r.Summary.NetCashFlow.Float(),
		r.Summary.Count,
		topExpense,
		r.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// monthRange addresses the row reserved for month (row 2 is January).
func monthRange(sheet string, month int) string {
	row := month + 1
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), row, lastColumn, row)
}

func headerRange(sheet string) string {
	return fmt.Sprintf("%s!A1:%s1", quoteSheet(sheet), lastColumn)
}

// quoteSheet quotes sheet names containing spaces for A1 notation.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

// ownerSheetName returns "<year> <base>", with the owner id appended when
// the spreadsheet is shared between owners.
func ownerSheetName(base string, year int, ownerID string, perOwner bool) string {
	name := yearPrefixedName(base, year)
	if perOwner && ownerID != "" {
		short := ownerID
		if len(short) > 8 {
			short = short[:8]
		}
		name += " " + short
	}
	return name
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
