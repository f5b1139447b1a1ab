package core

import (
	"sort"
	"strconv"
	"time"
)

// Fallback bucket names used by the aggregator.
const (
	Unassigned    = "Unassigned"
	Uncategorized = "Uncategorized"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// CategoryBreakdown keeps income and expense categories apart.
type CategoryBreakdown struct {
	Income  map[string]Money `json:"income"`
	Expense map[string]Money `json:"expense"`
}

// PropertyTotals is the per-property slice of a summary.
type PropertyTotals struct {
	Name       string `json:"name"`
	PropertyID string `json:"propertyId,omitempty"`
	Income     Money  `json:"income"`
	Expense    Money  `json:"expense"`
	Net        Money  `json:"net"`
}

// MonthBucket holds the totals for one calendar month.
type MonthBucket struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"` // 1-12
	Label    string `json:"label"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
	Profit   Money  `json:"profit"`
}

// Summary is the result of aggregating a set of transactions.
type Summary struct {
	TotalIncome   Money                     `json:"totalIncome"`
	TotalExpenses Money                     `json:"totalExpenses"`
	NetCashFlow   Money                     `json:"netCashFlow"`
	ByCategory    CategoryBreakdown         `json:"byCategory"`
	ByProperty    map[string]PropertyTotals `json:"byProperty"`
	ByMonth       []MonthBucket             `json:"byMonth"`
	Count         int                       `json:"count"`
}

// SortedCategories returns the breakdown for one type ordered by amount,
// largest first, then by name.
func (b CategoryBreakdown) SortedCategories(t TransactionType) []CategoryAmount {
	src := b.Income
	if t == Expense {
		src = b.Expense
	}
	out := make([]CategoryAmount, 0, len(src))
	for name, amount := range src {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sortCategoryAmounts(out)
	return out
}

func sortCategoryAmounts(items []CategoryAmount) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Amount.Cents != items[j].Amount.Cents {
			return items[i].Amount.Cents > items[j].Amount.Cents
		}
		return items[i].Name < items[j].Name
	})
}

const ReportMonthlyCashFlow = "monthly_cash_flow"

// Report is a persisted, generated summary for one owner and period.
type Report struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Summary     Summary   `json:"summary"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// MonthlyCashFlowTitle returns e.g. "Monthly Cash Flow - March 2025".
func MonthlyCashFlowTitle(year, month int) string {
	return "Monthly Cash Flow - " + time.Month(month).String() + " " + strconv.Itoa(year)
}
