// Package pipeline runs the per-document extraction stages and the batch
// driver that fans documents out over them.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"finsync/internal/domain"
	"finsync/internal/extractor"
	"finsync/internal/metrics"
	"finsync/internal/port"
)

// Loader reads the bytes of a source document.
type Loader func(ctx context.Context, path string) ([]byte, error)

// StageFunc is one pipeline step. It returns a new state and never clears a
// field set by an earlier step.
type StageFunc func(ctx context.Context, state domain.ExtractionState) domain.ExtractionState

// Orchestrator drives one document through Intake, OCR, Parse, Validate and
// Persist. Collaborator failures are contained in the returned state.
type Orchestrator struct {
	extractor port.TextExtractor
	textLayer port.DocumentTextReader
	load      Loader
	checker   RecordChecker
	metrics   *metrics.Metrics
}

// RecordChecker runs local checks over parsed records and returns one issue
// line per problem found.
type RecordChecker interface {
	CheckRecords(records []domain.InvoiceRecord) []string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTextLayer enables the local PDF text layer when OCR comes back empty.
func WithTextLayer(r port.DocumentTextReader) Option {
	return func(o *Orchestrator) { o.textLayer = r }
}

// WithLoader replaces the default file system loader.
func WithLoader(l Loader) Option {
	return func(o *Orchestrator) { o.load = l }
}

// WithRecordChecker adds local record checks to the Validate stage. Their
// findings become document issues and do not affect the verdict.
func WithRecordChecker(c RecordChecker) Option {
	return func(o *Orchestrator) { o.checker = c }
}

// WithMetrics records stage outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator creates an Orchestrator around the extraction collaborator.
func NewOrchestrator(ext port.TextExtractor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extractor: ext,
		load: func(_ context.Context, path string) ([]byte, error) {
			return os.ReadFile(path)
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stages returns the steps in execution order.
func (o *Orchestrator) Stages() []StageFunc {
	return []StageFunc{o.Intake, o.OCR, o.Parse, o.Validate, o.Persist}
}

// Run processes one document and returns its final state.
func (o *Orchestrator) Run(ctx context.Context, src domain.SourceDocument, outputPath string) domain.ExtractionState {
	state := domain.NewExtractionState(src, outputPath)
	for _, stage := range o.Stages() {
		state = stage(ctx, state)
	}
	return state
}

// Intake checks that the source document can be handed to OCR. Problems are
// recorded as issues; the document still flows through the later stages.
func (o *Orchestrator) Intake(_ context.Context, state domain.ExtractionState) domain.ExtractionState {
	name := state.Source.Name
	state = state.WithStage(domain.StageIntake)
	switch {
	case state.Source.Path == "":
		log.Printf("pipeline.Intake: no source path for %q", name)
		o.observe(domain.StageIntake, false)
		return state.WithIssue("intake: missing source path")
	case !supported(contentType(state.Source)):
		log.Printf("pipeline.Intake: unsupported content type for %q", name)
		o.observe(domain.StageIntake, false)
		return state.WithIssue(fmt.Sprintf("intake: unsupported content type %s", contentType(state.Source)))
	}
	o.observe(domain.StageIntake, true)
	return state
}

// OCR asks the collaborator for the raw text of the source document. Any
// failure leaves an empty raw text and the pipeline continues.
func (o *Orchestrator) OCR(ctx context.Context, state domain.ExtractionState) domain.ExtractionState {
	name := state.Source.Name
	if state.Source.Path == "" {
		log.Printf("pipeline.OCR: no source path for %q", name)
		o.observe(domain.StageOCR, false)
		return state.WithRawText("").WithIssue("ocr: missing source document")
	}

	data, err := o.load(ctx, state.Source.Path)
	if err != nil {
		log.Printf("pipeline.OCR: reading %q: %v", name, err)
		o.observe(domain.StageOCR, false)
		return state.WithRawText("").WithIssue(fmt.Sprintf("ocr: read source: %v", err))
	}

	mimeType := contentType(state.Source)
	text, err := o.extractor.Extract(ctx, port.ExtractInput{
		Prompt:   extractor.OCRPrompt,
		Document: data,
		MimeType: mimeType,
	})
	if err != nil {
		log.Printf("pipeline.OCR: collaborator failed for %q: %v", name, err)
		state = state.WithIssue(fmt.Sprintf("ocr: %v", err))
		text = ""
	}
	text = strings.TrimSpace(text)

	if text == "" && o.textLayer != nil && mimeType == domain.AllowedFileTypes[domain.FileTypePDF] {
		layer, lerr := o.textLayer.ReadText(ctx, data)
		if lerr != nil {
			log.Printf("pipeline.OCR: text layer unavailable for %q: %v", name, lerr)
		} else if layer = strings.TrimSpace(layer); layer != "" {
			log.Printf("pipeline.OCR: using embedded text layer for %q", name)
			text = layer
		}
	}

	o.observe(domain.StageOCR, text != "")
	return state.WithRawText(text)
}

// Parse turns raw text into invoice records. A missing text or an
// undecodable reply yields an empty record list.
func (o *Orchestrator) Parse(ctx context.Context, state domain.ExtractionState) domain.ExtractionState {
	name := state.Source.Name
	raw := state.Text()
	if raw == "" || state.Source.Path == "" {
		log.Printf("pipeline.Parse: no raw text for %q, skipping", name)
		o.observe(domain.StageParse, false)
		return state.WithInvoices(nil).WithIssue("parse: no raw text")
	}

	reply, err := o.extractor.Extract(ctx, port.ExtractInput{Prompt: extractor.ParsePrompt(raw)})
	if err != nil {
		log.Printf("pipeline.Parse: collaborator failed for %q: %v", name, err)
		o.observe(domain.StageParse, false)
		return state.WithInvoices(nil).WithIssue(fmt.Sprintf("parse: %v", err))
	}

	records, err := extractor.DecodeRecords(reply)
	if err != nil {
		log.Printf("pipeline.Parse: decoding reply for %q: %v", name, err)
		o.observe(domain.StageParse, false)
		return state.WithInvoices(nil).WithIssue(fmt.Sprintf("parse: %v", err))
	}

	log.Printf("pipeline.Parse: %d invoice(s) from %q", len(records), name)
	o.observe(domain.StageParse, true)
	return state.WithInvoices(records)
}

// Validate asks for an advisory verdict. It never removes records.
func (o *Orchestrator) Validate(ctx context.Context, state domain.ExtractionState) domain.ExtractionState {
	name := state.Source.Name
	if len(state.Invoices) == 0 {
		o.observe(domain.StageValidate, false)
		return state.WithValidated(false)
	}

	if o.checker != nil {
		issues := o.checker.CheckRecords(state.Invoices)
		if len(issues) > 0 {
			log.Printf("pipeline.Validate: %d local finding(s) for %q", len(issues), name)
		}
		for _, issue := range issues {
			state = state.WithIssue("check: " + issue)
		}
	}

	prompt, err := extractor.ValidatePrompt(state.Invoices)
	if err != nil {
		log.Printf("pipeline.Validate: %q: %v", name, err)
		o.observe(domain.StageValidate, false)
		return state.WithValidated(false).WithIssue(fmt.Sprintf("validate: %v", err))
	}

	reply, err := o.extractor.Extract(ctx, port.ExtractInput{Prompt: prompt})
	if err != nil {
		log.Printf("pipeline.Validate: collaborator failed for %q: %v", name, err)
		o.observe(domain.StageValidate, false)
		return state.WithValidated(false).WithIssue(fmt.Sprintf("validate: %v", err))
	}

	ok := extractor.IsValidVerdict(reply)
	if !ok {
		log.Printf("pipeline.Validate: %q flagged as not valid (advisory)", name)
	}
	o.observe(domain.StageValidate, ok)
	return state.WithValidated(ok)
}

// Persist marks the document done. Records are collected by the batch
// driver and compiled once per batch.
func (o *Orchestrator) Persist(_ context.Context, state domain.ExtractionState) domain.ExtractionState {
	o.observe(domain.StagePersist, true)
	return state.WithStage(domain.StagePersist)
}

func (o *Orchestrator) observe(stage domain.Stage, ok bool) {
	o.metrics.ObserveStage(string(stage), ok)
}

func supported(mimeType string) bool {
	_, ok := domain.AllowedContentTypes[mimeType]
	return ok
}

func contentType(src domain.SourceDocument) string {
	if src.ContentType != "" {
		return src.ContentType
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(src.Name)), ".")
	if ext == "" {
		ext = strings.TrimPrefix(strings.ToLower(filepath.Ext(src.Path)), ".")
	}
	if ft, ok := domain.AllowedExtensions[ext]; ok {
		return domain.AllowedFileTypes[ft]
	}
	return "application/octet-stream"
}
