package sheets

import (
	"context"

	"propledger/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportExporter writes a generated report to an external spreadsheet.
	// Exporting the same owner and month twice overwrites the earlier row.
	ReportExporter interface {
		ExportReport(ctx context.Context, r core.Report) (rowRef string, err error)
	}
)
