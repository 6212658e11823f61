package sheets

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportWriter appends one closed period report to the archive
	// spreadsheet, one row per category leftover.
	ReportWriter interface {
		AppendReport(ctx context.Context, report core.PeriodReport) (rowRef string, err error)
	}
)
