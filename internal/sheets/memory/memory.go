// Package memory provides a ReportExporter that keeps exported rows in
// process. It is used when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"propledger/internal/core"
)

// Row is one exported monthly report.
type Row struct {
	OwnerID     string
	Year        int
	Month       int
	Income      core.Money
	Expenses    core.Money
	NetCashFlow core.Money
	Count       int
}

type rowKey struct {
	owner string
	year  int
	month int
}

type Exporter struct {
	mu     sync.Mutex
	rows   map[rowKey]Row
	writes int
}

func New() *Exporter {
	return &Exporter{rows: make(map[rowKey]Row)}
}

// ExportReport stores the report row, replacing any earlier row for the
// same owner and month, and returns a synthetic row reference.
func (e *Exporter) ExportReport(ctx context.Context, r core.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.Month < 1 || r.Month > 12 {
		return "", fmt.Errorf("%w: %d", core.ErrInvalidMonth, r.Month)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows[rowKey{r.OwnerID, r.Year, r.Month}] = Row{
		OwnerID:     r.OwnerID,
		Year:        r.Year,
		Month:       r.Month,
		Income:      r.Summary.TotalIncome,
		Expenses:    r.Summary.TotalExpenses,
		NetCashFlow: r.Summary.NetCashFlow,
		Count:       r.Summary.Count,
	}
	e.writes++
	return fmt.Sprintf("mem:%d-%02d:%d", r.Year, r.Month, e.writes), nil
}

// Rows returns the owner's rows ordered by year and month.
func (e *Exporter) Rows(ownerID string) []Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Row
	for k, row := range e.rows {
		if k.owner == ownerID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
