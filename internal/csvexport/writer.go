package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"finsync/internal/domain"
)

// ContentType is the MIME type of CSV exports.
const ContentType = "text/csv; charset=utf-8"

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer wraps csv.Writer for exporting report sheets as CSV.
type Writer struct {
	out io.Writer
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w, csv: csv.NewWriter(w)}
}

// WriteBOM writes the UTF-8 byte order mark. Call it before any row.
func (w *Writer) WriteBOM() error {
	_, err := w.out.Write(BOM)
	return err
}

// WriteHeader writes the sheet's column labels.
func (w *Writer) WriteHeader(sheet *domain.ReportSheet) error {
	return w.csv.Write(sheet.Header())
}

// WriteRows writes the data rows followed by the totals row, if any.
// Multi-line cells are kept; csv quoting preserves the line breaks.
func (w *Writer) WriteRows(sheet *domain.ReportSheet) error {
	for _, row := range sheet.Rows {
		if err := w.csv.Write(rowToRecord(row)); err != nil {
			return err
		}
	}
	if sheet.Totals != nil {
		return w.csv.Write(rowToRecord(*sheet.Totals))
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteSheet renders one sheet as UTF-8 CSV with BOM.
func WriteSheet(out io.Writer, sheet *domain.ReportSheet) error {
	w := NewWriter(out)
	if err := w.WriteBOM(); err != nil {
		return fmt.Errorf("csvexport.WriteSheet: bom: %w", err)
	}
	if err := w.WriteHeader(sheet); err != nil {
		return fmt.Errorf("csvexport.WriteSheet: header: %w", err)
	}
	if err := w.WriteRows(sheet); err != nil {
		return fmt.Errorf("csvexport.WriteSheet: rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csvexport.WriteSheet: flush: %w", err)
	}
	return nil
}

func rowToRecord(row domain.Row) []string {
	rec := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		rec[i] = c.Text
	}
	return rec
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string, at time.Time) string {
	sanitized := SanitizeFilename(name)
	if sanitized == "" {
		sanitized = "report"
	}
	return fmt.Sprintf("%s_%s.%s", sanitized, at.Format("2006-01-02"), ext)
}
