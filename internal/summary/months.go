package summary

import (
	"time"

	"propledger/internal/core"
)

// TrailingMonths returns n empty buckets ending with the month of now,
// oldest first.
func TrailingMonths(now time.Time, n int) []core.MonthBucket {
	buckets := make([]core.MonthBucket, n)
	year, month := now.Year(), int(now.Month())
	for i := n - 1; i >= 0; i-- {
		buckets[i] = newBucket(year, month)
		month--
		if month == 0 {
			month = 12
			year--
		}
	}
	return buckets
}

// CalendarYear returns the January to December chart for year.
// Transactions outside the year or with malformed dates are ignored.
func CalendarYear(txs []core.Transaction, year int) []core.MonthBucket {
	buckets := make([]core.MonthBucket, 12)
	for i := range buckets {
		buckets[i] = newBucket(year, i+1)
	}
	for _, tx := range txs {
		if !tx.Date.Valid() || tx.Date.Year() != year {
			continue
		}
		addToBucket(&buckets[tx.Date.Month()-1], tx)
	}
	finishBuckets(buckets)
	return buckets
}

func newBucket(year, month int) core.MonthBucket {
	return core.MonthBucket{
		Year:  year,
		Month: month,
		Label: time.Month(month).String()[:3],
	}
}

func addToBucket(b *core.MonthBucket, tx core.Transaction) {
	amount := tx.Amount.Abs()
	switch tx.Type {
	case core.Income:
		b.Income = b.Income.Add(amount)
	case core.Expense:
		b.Expenses = b.Expenses.Add(amount)
	}
}

func finishBuckets(buckets []core.MonthBucket) {
	for i := range buckets {
		buckets[i].Profit = buckets[i].Income.Sub(buckets[i].Expenses)
	}
}

// monthIndex maps year*12+month to the position of its bucket.
func monthIndex(buckets []core.MonthBucket) map[int]int {
	idx := make(map[int]int, len(buckets))
	for i, b := range buckets {
		idx[b.Year*12+b.Month] = i
	}
	return idx
}
