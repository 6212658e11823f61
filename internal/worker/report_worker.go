package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/ledger"
	"bilancio/internal/sheets"
)

// ReportWorker exports closed period reports from the ledger to the
// spreadsheet archive.
type ReportWorker struct {
	store     ledger.Store
	writer    sheets.ReportWriter
	batchSize int
}

func NewReportWorker(store ledger.Store, writer sheets.ReportWriter, batchSize int) *ReportWorker {
	return &ReportWorker{
		store:     store,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleReportMessage processes a single report sync message from AMQP.
// Returning an error makes the consumer requeue the delivery.
func (w *ReportWorker) HandleReportMessage(ctx context.Context, msg *amqp.ReportSyncMessage) error {
	slog.InfoContext(ctx, "Processing report sync message",
		"report_id", msg.ReportID,
		"period", msg.Period)

	return w.exportReport(ctx, msg.ReportID)
}

func (w *ReportWorker) exportReport(ctx context.Context, reportID int64) error {
	report, err := w.store.GetReport(ctx, reportID)
	if err != nil {
		return fmt.Errorf("get report from storage: %w", err)
	}

	ref, err := w.writer.AppendReport(ctx, report)
	if err != nil {
		if markErr := w.store.MarkReportFailed(ctx, reportID, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark report as failed",
				"report_id", reportID, "error", markErr)
		}
		return fmt.Errorf("append report to archive: %w", err)
	}

	if err := w.store.MarkReportSynced(ctx, reportID); err != nil {
		return fmt.Errorf("mark report synced: %w", err)
	}

	slog.InfoContext(ctx, "Report exported",
		"report_id", reportID,
		"period", report.Period,
		"row_ref", ref)

	return nil
}

// ProcessPendingReports sweeps reports the message path missed, oldest
// first. It keeps going past individual failures and returns how many
// reports were exported.
func (w *ReportWorker) ProcessPendingReports(ctx context.Context) (int, error) {
	pending, err := w.store.ListPendingReports(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending reports: %w", err)
	}

	exported := 0
	for _, report := range pending {
		if err := w.exportReport(ctx, report.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending report",
				"report_id", report.ID, "error", err)
			continue
		}
		exported++
	}

	if len(pending) > 0 {
		slog.InfoContext(ctx, "Pending report sweep completed",
			"pending", len(pending),
			"exported", exported)
	}

	return exported, nil
}
