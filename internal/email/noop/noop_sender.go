package noop

import (
	"context"
	"log"

	"finsync/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a ReportNotifier that only logs the download URL.
func NewNoopSender() port.ReportNotifier {
	return &noopSender{}
}

func (s *noopSender) SendReportReady(_ context.Context, n port.ReportNotice) error {
	log.Printf("[NOOP EMAIL] Report ready for batch %s (%d documents, %d invoices): %s",
		n.BatchID, n.DocumentCount, n.InvoicesCount, n.DownloadURL)
	return nil
}
