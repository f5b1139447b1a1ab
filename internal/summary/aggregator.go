// Package summary derives income, expense and net cash flow figures from a
// flat list of transactions, grouped by category, property and month.
//
// Every function here is pure: the caller passes "now" explicitly and the
// result depends only on the arguments.
package summary

import (
	"time"

	"propledger/internal/core"
)

const (
	DashboardMonths = 6
	DefaultMonths   = 12
	MaxMonths       = 24
)

// Options parameterise a summary run.
type Options struct {
	Filter Filter
	// Months is the number of trailing month buckets; 0 means DefaultMonths.
	Months int
	// Names resolves property ids that arrive without a name.
	Names PropertyNames
}

func (o Options) months() int {
	switch {
	case o.Months <= 0:
		return DefaultMonths
	case o.Months > MaxMonths:
		return MaxMonths
	default:
		return o.Months
	}
}

// Summarize aggregates txs in a single pass. Records failing the filter are
// skipped entirely; records with a malformed date still count towards the
// totals, categories and properties but never land in a month bucket.
func Summarize(txs []core.Transaction, now time.Time, opts Options) core.Summary {
	s := core.Summary{
		ByCategory: core.CategoryBreakdown{
			Income:  make(map[string]core.Money),
			Expense: make(map[string]core.Money),
		},
		ByProperty: make(map[string]core.PropertyTotals),
		ByMonth:    TrailingMonths(now, opts.months()),
	}
	months := monthIndex(s.ByMonth)
	m := opts.Filter.compile(now, opts.Names)
	names := resolveNames(txs, opts.Names)

	for _, tx := range txs {
		if !tx.Type.Valid() || !m.match(tx) {
			continue
		}
		s.Count++

		name := DisplayName(bareRef(tx.Property), names)
		pt := s.ByProperty[name]
		pt.Name = name
		if pt.PropertyID == "" {
			pt.PropertyID = tx.Property.RefID()
		}
		category := categoryName(tx.Category)
		amount := tx.Amount.Abs()

		switch tx.Type {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(amount)
			s.ByCategory.Income[category] = s.ByCategory.Income[category].Add(amount)
			pt.Income = pt.Income.Add(amount)
		case core.Expense:
			s.TotalExpenses = s.TotalExpenses.Add(amount)
			s.ByCategory.Expense[category] = s.ByCategory.Expense[category].Add(amount)
			pt.Expense = pt.Expense.Add(amount)
		}
		pt.Net = pt.Income.Sub(pt.Expense)
		s.ByProperty[name] = pt

		if tx.Date.Valid() {
			if i, ok := months[tx.Date.Year()*12+tx.Date.Month()]; ok {
				addToBucket(&s.ByMonth[i], tx)
			}
		}
	}

	s.NetCashFlow = s.TotalIncome.Sub(s.TotalExpenses)
	finishBuckets(s.ByMonth)
	return s
}

// Apply returns the transactions matching filter, in input order.
func Apply(txs []core.Transaction, now time.Time, filter Filter, names PropertyNames) []core.Transaction {
	m := filter.compile(now, names)
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if m.match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// ForMonth summarises a single calendar month, the scope of a monthly
// cash-flow report.
func ForMonth(txs []core.Transaction, year, month int, names PropertyNames) core.Summary {
	w := MonthWindow(year, month)
	anchor := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Summarize(txs, anchor, Options{
		Filter: Filter{Window: &w},
		Months: 1,
		Names:  names,
	})
}
