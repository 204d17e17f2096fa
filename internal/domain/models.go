package domain

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field is a nullable scalar taken verbatim from extractor output.
// JSON strings keep their text, numbers and booleans keep their literal form.
type Field struct {
	Value string
	Valid bool
}

// NewField returns a present field holding v.
func NewField(v string) Field {
	return Field{Value: v, Valid: true}
}

// UnmarshalJSON accepts null, strings, numbers, booleans and nested JSON.
func (f *Field) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = Field{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = NewField(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return err
		}
		*f = NewField(buf.String())
	default:
		*f = NewField(string(trimmed))
	}
	return nil
}

// MarshalJSON writes null for an absent field and a string otherwise.
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// LineItem is one line of an invoice. HSNCode is "0" when the extractor
// could not determine a code and empty when the key was absent.
type LineItem struct {
	HSNCode string `json:"HSN Code"`
}

// LineItems decodes the "Items" array. An item whose code is a list expands
// into one LineItem per code, preserving order.
type LineItems []LineItem

// UnmarshalJSON implements json.Unmarshaler.
func (l *LineItems) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	items := make(LineItems, 0, len(raw))
	for _, elem := range raw {
		elem = bytes.TrimSpace(elem)
		if len(elem) > 0 && elem[0] == '{' {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(elem, &obj); err != nil {
				return err
			}
			codes, err := decodeCodes(obj["HSN Code"])
			if err != nil {
				return err
			}
			for _, c := range codes {
				items = append(items, LineItem{HSNCode: c})
			}
			continue
		}
		codes, err := decodeCodes(elem)
		if err != nil {
			return err
		}
		for _, c := range codes {
			items = append(items, LineItem{HSNCode: c})
		}
	}
	*l = items
	return nil
}

func decodeCodes(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []string{""}, nil
	}
	if raw[0] == '[' {
		var list []Field
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		codes := make([]string, 0, len(list))
		for _, f := range list {
			codes = append(codes, f.Value)
		}
		return codes, nil
	}
	var f Field
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return []string{f.Value}, nil
}

// InvoiceRecord is one invoice as returned by the structured extraction step.
// Every scalar is optional and must be normalized before display.
type InvoiceRecord struct {
	ShopName      Field     `json:"Shop Name"`
	GSTIN         Field     `json:"GSTIN"`
	InvoiceNumber Field     `json:"Invoice Number"`
	InvoiceDate   Field     `json:"Invoice Date"`
	TotalAmount   Field     `json:"Total Amount"`
	TaxAmount     Field     `json:"Tax Amount"`
	CGST          Field     `json:"CGST"`
	SGST          Field     `json:"SGST"`
	IGST          Field     `json:"IGST"`
	Items         LineItems `json:"Items"`
}

// SourceDocument references an uploaded invoice file.
type SourceDocument struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
}

// ExtractionState is the per-document pipeline state. Each stage returns a
// copy extended with its own output; fields set by earlier stages are kept.
// Invoices is nil until the parse stage has run.
type ExtractionState struct {
	Source     SourceDocument
	OutputPath string
	Stage      Stage
	RawText    *string
	Invoices   []InvoiceRecord
	Validated  *bool
	Issues     []string
}

// NewExtractionState returns the intake state for a document.
func NewExtractionState(src SourceDocument, outputPath string) ExtractionState {
	return ExtractionState{Source: src, OutputPath: outputPath, Stage: StageIntake}
}

// WithRawText records the OCR output.
func (s ExtractionState) WithRawText(text string) ExtractionState {
	s.RawText = &text
	s.Stage = StageOCR
	return s
}

// WithInvoices records the parse output. A nil list is stored as empty.
func (s ExtractionState) WithInvoices(records []InvoiceRecord) ExtractionState {
	if records == nil {
		records = []InvoiceRecord{}
	}
	s.Invoices = records
	s.Stage = StageParse
	return s
}

// WithValidated records the advisory validation verdict.
func (s ExtractionState) WithValidated(ok bool) ExtractionState {
	s.Validated = &ok
	s.Stage = StageValidate
	return s
}

// WithStage advances the stage marker without touching stage outputs.
func (s ExtractionState) WithStage(stage Stage) ExtractionState {
	s.Stage = stage
	return s
}

// WithIssue appends a recoverable per-document problem.
func (s ExtractionState) WithIssue(issue string) ExtractionState {
	s.Issues = append(slices.Clone(s.Issues), issue)
	return s
}

// Text returns the raw text or "" when OCR has not produced any.
func (s ExtractionState) Text() string {
	if s.RawText == nil {
		return ""
	}
	return *s.RawText
}

// IsValidated reports the validation verdict, false when unset.
func (s ExtractionState) IsValidated() bool {
	return s.Validated != nil && *s.Validated
}

// HSNSummaryEntry accumulates batch totals for one HSN code.
type HSNSummaryEntry struct {
	Code  string
	Total decimal.Decimal
	CGST  decimal.Decimal
	SGST  decimal.Decimal
	IGST  decimal.Decimal
}

// Column is one header cell of a report sheet with its width hint.
type Column struct {
	Label string
	Width float64
}

// CellKind tells renderers how to write a cell value.
type CellKind int

const (
	CellText CellKind = iota
	CellInteger
	// CellAmount holds a decimal string rendered with two decimal places.
	CellAmount
)

// Cell is a rendered report value. Text is always the display form.
type Cell struct {
	Text string
	Kind CellKind
}

// TextCell returns a text cell.
func TextCell(s string) Cell { return Cell{Text: s} }

// Row is one rendered report row.
type Row struct {
	Cells  []Cell
	Height float64
}

// ReportSheet is an ordered table inside a report artifact.
type ReportSheet struct {
	Name         string
	Columns      []Column
	HeaderHeight float64
	Rows         []Row
	Totals       *Row
}

// Header returns the column labels in order.
func (s *ReportSheet) Header() []string {
	labels := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		labels[i] = c.Label
	}
	return labels
}

// ReportArtifact is the compiled multi-sheet report. GeneratedAt is metadata
// and never appears in sheet rows.
type ReportArtifact struct {
	Sheets       []ReportSheet
	InvoiceCount int
	GeneratedAt  time.Time
}

// Sheet returns the sheet with the given name.
func (a *ReportArtifact) Sheet(name string) (*ReportSheet, bool) {
	for i := range a.Sheets {
		if a.Sheets[i].Name == name {
			return &a.Sheets[i], true
		}
	}
	return nil, false
}

// BatchRun records one upload batch and where its report was stored.
type BatchRun struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	Status         BatchStatus `db:"status" json:"status"`
	DocumentsCount int         `db:"documents_count" json:"documents_count"`
	InvoicesCount  int         `db:"invoices_count" json:"invoices_count"`
	XLSXKey        string      `db:"xlsx_key" json:"-"`
	CSVKey         string      `db:"csv_key" json:"-"`
	Message        string      `db:"message" json:"message"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// BatchDocument records the outcome of one document inside a batch.
type BatchDocument struct {
	BatchID       uuid.UUID `db:"batch_id" json:"-"`
	Position      int       `db:"position" json:"position"`
	FileName      string    `db:"file_name" json:"file_name"`
	InvoicesCount int       `db:"invoices_count" json:"invoices_count"`
	Validated     bool      `db:"validated" json:"validated"`
	Issues        string    `db:"issues" json:"issues,omitempty"`
}

// DownloadEvent records one artifact download.
type DownloadEvent struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	BatchID   uuid.UUID      `db:"batch_id" json:"batch_id"`
	Format    ArtifactFormat `db:"format" json:"format"`
	SizeBytes int64          `db:"size_bytes" json:"size_bytes"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
