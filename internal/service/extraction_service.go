package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"finsync/internal/csvexport"
	"finsync/internal/domain"
	"finsync/internal/metrics"
	"finsync/internal/pipeline"
	"finsync/internal/port"
	"finsync/internal/report"
	"finsync/internal/report/xlsx"
	"finsync/internal/token"
)

// ReportTitle names downloaded artifacts.
const ReportTitle = "GST Invoices Extract"

// BatchSummary is the outcome of one upload batch.
type BatchSummary struct {
	BatchID        uuid.UUID                  `json:"batch_id"`
	Message        string                     `json:"message"`
	InvoicesCount  int                        `json:"invoices_count"`
	DocumentsCount int                        `json:"documents_count"`
	DownloadURL    string                     `json:"download_url,omitempty"`
	ExpiresAt      *time.Time                 `json:"expires_at,omitempty"`
	Documents      []pipeline.DocumentOutcome `json:"documents"`
}

// Artifact is a stored report rendering ready to stream.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExtractionService defines the batch extraction contract.
type ExtractionService interface {
	ProcessBatch(ctx context.Context, files []UploadedFile) (*BatchSummary, error)
	Download(ctx context.Context, tokenString string, format domain.ArtifactFormat) (*Artifact, error)
	ListRuns(ctx context.Context, offset, limit int) ([]domain.BatchRun, int, error)
	GetRun(ctx context.Context, id uuid.UUID) (*RunDetail, error)
	Ready(ctx context.Context) error
}

// RunDetail is a recorded batch run with its per-document outcomes.
type RunDetail struct {
	domain.BatchRun
	Documents []domain.BatchDocument `json:"documents"`
}

// ExtractionConfig holds intake and link settings.
type ExtractionConfig struct {
	UploadDir     string
	MaxFileSizeMB int64
	BaseURL       string
}

type extractionService struct {
	runner   *pipeline.Runner
	compiler *report.Compiler
	storage  port.ObjectStorage
	repo     port.BatchRepository
	notifier port.ReportNotifier
	tokens   *token.Issuer
	metrics  *metrics.Metrics
	cfg      ExtractionConfig
}

// NewExtractionService creates a new ExtractionService implementation.
func NewExtractionService(
	runner *pipeline.Runner,
	compiler *report.Compiler,
	storage port.ObjectStorage,
	repo port.BatchRepository,
	notifier port.ReportNotifier,
	tokens *token.Issuer,
	m *metrics.Metrics,
	cfg ExtractionConfig,
) ExtractionService {
	return &extractionService{
		runner:   runner,
		compiler: compiler,
		storage:  storage,
		repo:     repo,
		notifier: notifier,
		tokens:   tokens,
		metrics:  m,
		cfg:      cfg,
	}
}

func (s *extractionService) ProcessBatch(ctx context.Context, files []UploadedFile) (*BatchSummary, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoFiles
	}
	start := time.Now()

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	dir, err := os.MkdirTemp(s.cfg.UploadDir, "batch-*")
	if err != nil {
		return nil, fmt.Errorf("creating batch dir: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(dir); rerr != nil {
			log.Printf("extractionService.ProcessBatch: cleaning %s: %v", dir, rerr)
		}
	}()

	docs, err := stageFiles(dir, files, s.cfg.MaxFileSizeMB*1024*1024)
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()
	log.Printf("extractionService.ProcessBatch: batch %s started with %d document(s)", batchID, len(docs))

	result := s.runner.RunBatch(ctx, docs, "")
	summary := &BatchSummary{
		BatchID:        batchID,
		InvoicesCount:  len(result.Records),
		DocumentsCount: len(docs),
		Documents:      result.Outcomes,
	}
	run := &domain.BatchRun{
		ID:             batchID,
		DocumentsCount: len(docs),
		InvoicesCount:  len(result.Records),
		CreatedAt:      time.Now().UTC(),
	}
	outcomes := batchDocuments(result.Outcomes)

	if len(result.Records) == 0 {
		run.Status = domain.BatchStatusEmpty
		run.Message = domain.ErrNothingExtracted.Error()
		summary.Message = run.Message
		s.record(ctx, run, outcomes)
		s.metrics.ObserveBatch(string(run.Status), time.Since(start))
		return summary, domain.ErrNothingExtracted
	}

	artifact := s.compiler.Compile(result.Records)
	if err := s.storeArtifacts(ctx, run, artifact); err != nil {
		log.Printf("extractionService.ProcessBatch: batch %s: %v", batchID, err)
		run.Status = domain.BatchStatusFailed
		run.Message = err.Error()
		s.record(ctx, run, outcomes)
		s.metrics.ObserveBatch(string(run.Status), time.Since(start))
		return nil, fmt.Errorf("%w: %v", domain.ErrArtifactWrite, err)
	}

	run.Status = domain.BatchStatusCompleted
	run.Message = fmt.Sprintf("Extracted %d invoice(s) from %d document(s)", run.InvoicesCount, run.DocumentsCount)
	if err := s.repo.Create(ctx, run, outcomes); err != nil {
		return nil, fmt.Errorf("recording batch run: %w", err)
	}
	summary.Message = run.Message

	tok, exp, err := s.tokens.Issue(batchID)
	if err != nil {
		return nil, err
	}
	summary.DownloadURL = s.downloadURL(tok, domain.ArtifactXLSX)
	summary.ExpiresAt = &exp

	if err := s.notifier.SendReportReady(ctx, port.ReportNotice{
		BatchID:       batchID,
		InvoicesCount: run.InvoicesCount,
		DocumentCount: run.DocumentsCount,
		DownloadURL:   summary.DownloadURL,
	}); err != nil {
		log.Printf("extractionService.ProcessBatch: notification for %s failed: %v", batchID, err)
	}

	s.metrics.ObserveBatch(string(run.Status), time.Since(start))
	log.Printf("extractionService.ProcessBatch: batch %s completed: %s", batchID, run.Message)
	return summary, nil
}

// storeArtifacts renders the workbook and the invoice sheet CSV and uploads
// both under the batch prefix.
func (s *extractionService) storeArtifacts(ctx context.Context, run *domain.BatchRun, artifact *domain.ReportArtifact) error {
	var book bytes.Buffer
	if err := xlsx.Render(artifact, &book); err != nil {
		return err
	}

	sheet, ok := artifact.Sheet(report.SheetInvoices)
	if !ok {
		return errors.New("invoice sheet missing from artifact")
	}
	var csvBuf bytes.Buffer
	if err := csvexport.WriteSheet(&csvBuf, sheet); err != nil {
		return err
	}

	prefix := "batches/" + run.ID.String() + "/"
	uploads := []struct {
		key         *string
		data        *bytes.Buffer
		contentType string
		ext         string
	}{
		{&run.XLSXKey, &book, xlsx.ContentType, "xlsx"},
		{&run.CSVKey, &csvBuf, csvexport.ContentType, "csv"},
	}
	var stored []string
	for _, u := range uploads {
		key := prefix + "report." + u.ext
		size := int64(u.data.Len())
		if _, err := s.storage.Upload(ctx, port.UploadInput{
			Key:         key,
			Body:        u.data,
			ContentType: u.contentType,
			Size:        size,
		}); err != nil {
			s.discard(ctx, stored)
			run.XLSXKey, run.CSVKey = "", ""
			return fmt.Errorf("uploading %s: %w", key, err)
		}
		*u.key = key
		stored = append(stored, key)
	}
	return nil
}

// discard removes artifacts of a batch that could not be stored completely.
func (s *extractionService) discard(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Printf("extractionService.discard: %s: %v", key, err)
		}
	}
}

func (s *extractionService) record(ctx context.Context, run *domain.BatchRun, docs []domain.BatchDocument) {
	if err := s.repo.Create(ctx, run, docs); err != nil {
		log.Printf("extractionService.record: batch %s (%s): %v", run.ID, run.Status, err)
	}
}

func (s *extractionService) downloadURL(tok string, format domain.ArtifactFormat) string {
	q := url.Values{}
	q.Set("token", tok)
	q.Set("format", string(format))
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/api/v1/reports/download?" + q.Encode()
}

func (s *extractionService) Download(ctx context.Context, tokenString string, format domain.ArtifactFormat) (*Artifact, error) {
	if format == "" {
		format = domain.ArtifactXLSX
	}
	if format != domain.ArtifactXLSX && format != domain.ArtifactCSV {
		return nil, domain.ErrUnknownFormat
	}

	batchID, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	run, err := s.repo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	key, contentType := run.XLSXKey, xlsx.ContentType
	if format == domain.ArtifactCSV {
		key, contentType = run.CSVKey, csvexport.ContentType
	}
	if key == "" {
		return nil, domain.ErrReportNotFound
	}

	data, err := s.storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RecordDownload(ctx, &domain.DownloadEvent{
		BatchID:   batchID,
		Format:    format,
		SizeBytes: int64(len(data)),
	}); err != nil {
		log.Printf("extractionService.Download: recording download of %s: %v", batchID, err)
	}

	return &Artifact{
		FileName:    csvexport.BuildFilename(ReportTitle, string(format), run.CreatedAt),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (s *extractionService) ListRuns(ctx context.Context, offset, limit int) ([]domain.BatchRun, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *extractionService) GetRun(ctx context.Context, id uuid.UUID) (*RunDetail, error) {
	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListDocuments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RunDetail{BatchRun: *run, Documents: docs}, nil
}

func (s *extractionService) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func batchDocuments(outcomes []pipeline.DocumentOutcome) []domain.BatchDocument {
	docs := make([]domain.BatchDocument, len(outcomes))
	for i, o := range outcomes {
		docs[i] = domain.BatchDocument{
			Position:      i,
			FileName:      o.Name,
			InvoicesCount: o.Invoices,
			Validated:     o.Validated,
			Issues:        strings.Join(o.Issues, "; "),
		}
	}
	return docs
}
