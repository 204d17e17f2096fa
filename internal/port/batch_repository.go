package port

import (
	"context"

	"github.com/google/uuid"

	"finsync/internal/domain"
)

// BatchRepository persists batch runs, their per-document outcomes and
// artifact downloads.
type BatchRepository interface {
	Create(ctx context.Context, run *domain.BatchRun, docs []domain.BatchDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BatchRun, error)
	List(ctx context.Context, offset, limit int) ([]domain.BatchRun, int, error)
	ListDocuments(ctx context.Context, batchID uuid.UUID) ([]domain.BatchDocument, error)
	RecordDownload(ctx context.Context, event *domain.DownloadEvent) error
	Ping(ctx context.Context) error
}
