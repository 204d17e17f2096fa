package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "pgx"), mock
}

func TestBatchRunRepo_CreateCommitsRunAndDocuments(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRunRepo(db)

	run := &domain.BatchRun{Status: domain.BatchStatusCompleted, DocumentsCount: 2, InvoicesCount: 3, XLSXKey: "k.xlsx", CSVKey: "k.csv"}
	docs := []domain.BatchDocument{
		{Position: 0, FileName: "a.pdf", InvoicesCount: 3, Validated: true},
		{Position: 1, FileName: "b.png", Issues: "ocr: timeout"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO batch_runs")).
		WithArgs(sqlmock.AnyArg(), domain.BatchStatusCompleted, 2, 3, "k.xlsx", "k.csv", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO batch_documents")).
		WithArgs(sqlmock.AnyArg(), 0, "a.pdf", 3, true, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO batch_documents")).
		WithArgs(sqlmock.AnyArg(), 1, "b.png", 0, false, "ocr: timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), run, docs))
	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Equal(t, run.ID, docs[1].BatchID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRunRepo_CreateRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRunRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO batch_runs")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO batch_documents")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &domain.BatchRun{}, []domain.BatchDocument{{FileName: "a.pdf"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint violation")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRunRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRunRepo(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM batch_runs WHERE id = $1")).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrReportNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRunRepo_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRunRepo(db)
	id := uuid.New()
	created := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM batch_runs")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $1 OFFSET $2")).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "status", "documents_count", "invoices_count", "xlsx_key", "csv_key", "message", "created_at",
		}).AddRow(id.String(), "completed", 2, 5, "x", "c", "", created))

	runs, total, err := repo.List(context.Background(), 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, domain.BatchStatusCompleted, runs[0].Status)
	assert.Equal(t, 5, runs[0].InvoicesCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRunRepo_RecordDownload(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBatchRunRepo(db)
	batchID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO download_events")).
		WithArgs(sqlmock.AnyArg(), batchID, domain.ArtifactCSV, int64(128), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := &domain.DownloadEvent{BatchID: batchID, Format: domain.ArtifactCSV, SizeBytes: 128}
	require.NoError(t, repo.RecordDownload(context.Background(), event))
	assert.NotEqual(t, uuid.Nil, event.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHSNRepo_LoadAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHSNRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM hsn_codes")).
		WillReturnRows(sqlmock.NewRows([]string{"code", "description", "gst_rate"}).
			AddRow("6201", "Men's overcoats", 12.0).
			AddRow("6202", "Women's overcoats", 12.0))

	entries, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "6201", entries[0].Code)
	assert.Equal(t, "Women's overcoats", entries[1].Description)
	require.NoError(t, mock.ExpectationsWereMet())
}
