// Package pdftext reads the embedded text layer of PDF invoices.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Reader implements port.DocumentTextReader for PDF documents.
type Reader struct {
	// MaxPages bounds how many pages are read. 0 reads all pages.
	MaxPages int
}

// NewReader creates a Reader.
func NewReader(maxPages int) *Reader {
	return &Reader{MaxPages: maxPages}
}

// ReadText returns the text of every page, one line per text row. Scanned
// PDFs without a text layer yield an empty string.
func (r *Reader) ReadText(ctx context.Context, document []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := pdfReader.NumPage()
	if r.MaxPages > 0 && pages > r.MaxPages {
		pages = r.MaxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String()), nil
}
