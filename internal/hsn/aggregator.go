// Package hsn groups HSN codes for display and accumulates batch totals per code.
package hsn

import (
	"strings"

	"github.com/shopspring/decimal"

	"finsync/internal/domain"
	"finsync/internal/normalize"
)

const (
	// SingleLineMax is the largest code count rendered on one line.
	SingleLineMax = 2
	// PairedMax is the largest code count rendered two per line.
	PairedMax = 6
	// PairedChunk and TripleChunk are the codes per line in each band.
	PairedChunk = 2
	TripleChunk = 3

	codeSeparator = ", "
	lineSeparator = "\n"
)

// Grouping holds the display thresholds.
type Grouping struct {
	SingleLineMax int
	PairedMax     int
}

// DefaultGrouping returns the standard thresholds.
func DefaultGrouping() Grouping {
	return Grouping{SingleLineMax: SingleLineMax, PairedMax: PairedMax}
}

// Chunks splits codes into display lines.
func (g Grouping) Chunks(codes []string) [][]string {
	n := len(codes)
	if n == 0 {
		return nil
	}
	if n <= g.SingleLineMax {
		return [][]string{codes}
	}
	size := TripleChunk
	if n <= g.PairedMax {
		size = PairedChunk
	}
	var out [][]string
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		out = append(out, codes[start:end])
	}
	return out
}

// Format renders codes as comma-joined chunks separated by line breaks.
// It returns marker when there are no codes.
func (g Grouping) Format(codes []string, marker string) string {
	chunks := g.Chunks(codes)
	if len(chunks) == 0 {
		return marker
	}
	lines := make([]string, len(chunks))
	for i, c := range chunks {
		lines[i] = strings.Join(c, codeSeparator)
	}
	return strings.Join(lines, lineSeparator)
}

// IsUndetermined reports whether a code is blank or a "not determined" sentinel.
func IsUndetermined(code string) bool {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "", "0", "null", "none", "n/a":
		return true
	}
	return false
}

// UniqueCodes returns the determined codes of an invoice, deduplicated in
// first-seen order.
func UniqueCodes(items []domain.LineItem) []string {
	seen := make(map[string]struct{}, len(items))
	var codes []string
	for _, it := range items {
		code := strings.TrimSpace(it.HSNCode)
		if IsUndetermined(code) {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

// ParseAmount coerces an amount field to a decimal. Missing or malformed
// values yield zero and ok=false for malformed input.
func ParseAmount(f domain.Field) (d decimal.Decimal, ok bool) {
	if normalize.IsMissing(f) {
		return decimal.Zero, true
	}
	s, parsed := normalize.CanonicalAmount(f.Value)
	if !parsed {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func amount(f domain.Field) decimal.Decimal {
	d, _ := ParseAmount(f)
	return d
}

// Aggregator computes per-invoice code displays and the batch summary.
type Aggregator struct {
	grouping Grouping
	marker   string
}

// NewAggregator creates an Aggregator. Zero thresholds fall back to defaults.
func NewAggregator(g Grouping, marker string) *Aggregator {
	def := DefaultGrouping()
	if g.SingleLineMax <= 0 {
		g.SingleLineMax = def.SingleLineMax
	}
	if g.PairedMax < g.SingleLineMax {
		g.PairedMax = max(def.PairedMax, g.SingleLineMax)
	}
	return &Aggregator{grouping: g, marker: marker}
}

// Display renders the HSN cell for one invoice.
func (a *Aggregator) Display(items []domain.LineItem) string {
	return a.grouping.Format(UniqueCodes(items), a.marker)
}

// Aggregate returns the display string per record, in input order, and the
// batch summary in first-seen code order. Each code of an invoice is counted
// once against that invoice's amounts.
func (a *Aggregator) Aggregate(records []domain.InvoiceRecord) ([]string, []domain.HSNSummaryEntry) {
	display := make([]string, len(records))
	index := make(map[string]int)
	var summary []domain.HSNSummaryEntry

	for i, rec := range records {
		codes := UniqueCodes(rec.Items)
		display[i] = a.grouping.Format(codes, a.marker)
		if len(codes) == 0 {
			continue
		}

		total, cgst, sgst, igst := amount(rec.TotalAmount), amount(rec.CGST), amount(rec.SGST), amount(rec.IGST)
		for _, code := range codes {
			pos, ok := index[code]
			if !ok {
				pos = len(summary)
				index[code] = pos
				summary = append(summary, domain.HSNSummaryEntry{
					Code:  code,
					Total: decimal.Zero,
					CGST:  decimal.Zero,
					SGST:  decimal.Zero,
					IGST:  decimal.Zero,
				})
			}
			e := &summary[pos]
			e.Total = e.Total.Add(total)
			e.CGST = e.CGST.Add(cgst)
			e.SGST = e.SGST.Add(sgst)
			e.IGST = e.IGST.Add(igst)
		}
	}
	return display, summary
}
