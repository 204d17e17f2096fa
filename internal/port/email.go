package port

import (
	"context"

	"github.com/google/uuid"
)

// ReportNotice describes a compiled report ready for download.
type ReportNotice struct {
	BatchID       uuid.UUID
	InvoicesCount int
	DocumentCount int
	DownloadURL   string
}

// ReportNotifier announces finished reports.
type ReportNotifier interface {
	SendReportReady(ctx context.Context, notice ReportNotice) error
}
