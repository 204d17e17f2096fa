package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"finsync/internal/domain"
	"finsync/internal/port"
)

const batchRunColumns = `id, status, documents_count, invoices_count, xlsx_key, csv_key, message, created_at`

type batchRunRepo struct {
	db *sqlx.DB
}

// NewBatchRunRepo creates a new PostgreSQL-backed BatchRepository.
func NewBatchRunRepo(db *sqlx.DB) port.BatchRepository {
	return &batchRunRepo{db: db}
}

// Create stores the run and its documents in one transaction.
func (r *batchRunRepo) Create(ctx context.Context, run *domain.BatchRun, docs []domain.BatchDocument) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("batchRunRepo.Create begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batch_runs (`+batchRunColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.Status, run.DocumentsCount, run.InvoicesCount,
		run.XLSXKey, run.CSVKey, run.Message, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("batchRunRepo.Create: %w", err)
	}

	for i := range docs {
		docs[i].BatchID = run.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO batch_documents (batch_id, position, file_name, invoices_count, validated, issues)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			run.ID, docs[i].Position, docs[i].FileName, docs[i].InvoicesCount, docs[i].Validated, docs[i].Issues)
		if err != nil {
			return fmt.Errorf("batchRunRepo.Create document %d: %w", docs[i].Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("batchRunRepo.Create commit: %w", err)
	}
	return nil
}

func (r *batchRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BatchRun, error) {
	var run domain.BatchRun
	err := r.db.GetContext(ctx, &run,
		`SELECT `+batchRunColumns+` FROM batch_runs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("batchRunRepo.GetByID: %w", err)
	}
	return &run, nil
}

func (r *batchRunRepo) List(ctx context.Context, offset, limit int) ([]domain.BatchRun, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM batch_runs`); err != nil {
		return nil, 0, fmt.Errorf("batchRunRepo.List count: %w", err)
	}

	var runs []domain.BatchRun
	err := r.db.SelectContext(ctx, &runs,
		`SELECT `+batchRunColumns+` FROM batch_runs
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("batchRunRepo.List: %w", err)
	}
	return runs, total, nil
}

func (r *batchRunRepo) ListDocuments(ctx context.Context, batchID uuid.UUID) ([]domain.BatchDocument, error) {
	var docs []domain.BatchDocument
	err := r.db.SelectContext(ctx, &docs,
		`SELECT batch_id, position, file_name, invoices_count, validated, issues
		 FROM batch_documents WHERE batch_id = $1 ORDER BY position`,
		batchID)
	if err != nil {
		return nil, fmt.Errorf("batchRunRepo.ListDocuments: %w", err)
	}
	return docs, nil
}

func (r *batchRunRepo) RecordDownload(ctx context.Context, event *domain.DownloadEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO download_events (id, batch_id, format, size_bytes, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.BatchID, event.Format, event.SizeBytes, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("batchRunRepo.RecordDownload: %w", err)
	}
	return nil
}

func (r *batchRunRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
