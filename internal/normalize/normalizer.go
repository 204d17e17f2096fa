// Package normalize turns raw extracted invoice records into display-safe values.
package normalize

import (
	"strings"

	"github.com/shopspring/decimal"

	"finsync/internal/domain"
)

// Options configures missing-value rendering and supplier name display.
type Options struct {
	Missing       domain.MissingPolicy
	NameMode      domain.NameMode
	NameSeparator string
}

// DefaultOptions returns the sentinel policy with multi-line names.
func DefaultOptions() Options {
	return Options{
		Missing:       domain.MissingSentinel,
		NameMode:      domain.NamePreserve,
		NameSeparator: ", ",
	}
}

// DisplayRecord is an InvoiceRecord with every scalar resolved to display text.
type DisplayRecord struct {
	ShopName      string
	GSTIN         string
	InvoiceNumber string
	InvoiceDate   string
	TotalAmount   string
	TaxAmount     string
	CGST          string
	SGST          string
	IGST          string
	Items         []domain.LineItem
}

// Record converts the display values back into a record so it can be
// normalized again.
func (d DisplayRecord) Record() domain.InvoiceRecord {
	return domain.InvoiceRecord{
		ShopName:      domain.NewField(d.ShopName),
		GSTIN:         domain.NewField(d.GSTIN),
		InvoiceNumber: domain.NewField(d.InvoiceNumber),
		InvoiceDate:   domain.NewField(d.InvoiceDate),
		TotalAmount:   domain.NewField(d.TotalAmount),
		TaxAmount:     domain.NewField(d.TaxAmount),
		CGST:          domain.NewField(d.CGST),
		SGST:          domain.NewField(d.SGST),
		IGST:          domain.NewField(d.IGST),
		Items:         append(domain.LineItems(nil), d.Items...),
	}
}

// Amounts returns the taxable value, total tax, CGST, SGST and IGST in
// report column order.
func (d DisplayRecord) Amounts() []string {
	return []string{d.TotalAmount, d.TaxAmount, d.CGST, d.SGST, d.IGST}
}

// Normalizer applies the configured display policy. It is safe for
// concurrent use.
type Normalizer struct {
	opts Options
}

// New creates a Normalizer. Unknown option values fall back to defaults.
func New(opts Options) *Normalizer {
	def := DefaultOptions()
	if opts.Missing != domain.MissingBlank {
		opts.Missing = def.Missing
	}
	if opts.NameMode != domain.NameCollapse {
		opts.NameMode = def.NameMode
	}
	if opts.NameMode == domain.NameCollapse && opts.NameSeparator == "" {
		opts.NameSeparator = def.NameSeparator
	}
	return &Normalizer{opts: opts}
}

// Marker returns the display string used for missing values.
func (n *Normalizer) Marker() string {
	return n.opts.Missing.Marker()
}

// Normalize resolves every field of r. It never fails and is idempotent
// through DisplayRecord.Record.
func (n *Normalizer) Normalize(r domain.InvoiceRecord) DisplayRecord {
	return DisplayRecord{
		ShopName:      n.name(r.ShopName),
		GSTIN:         n.gstin(r.GSTIN),
		InvoiceNumber: n.text(r.InvoiceNumber),
		InvoiceDate:   n.text(r.InvoiceDate),
		TotalAmount:   n.Amount(r.TotalAmount),
		TaxAmount:     n.Amount(r.TaxAmount),
		CGST:          n.Amount(r.CGST),
		SGST:          n.Amount(r.SGST),
		IGST:          n.Amount(r.IGST),
		Items:         append([]domain.LineItem(nil), r.Items...),
	}
}

// IsMissing reports whether a raw value counts as absent: null, blank,
// a null-like literal or numeric zero.
func IsMissing(f domain.Field) bool {
	if !f.Valid {
		return true
	}
	v := strings.TrimSpace(f.Value)
	switch strings.ToLower(v) {
	case "", "null", "none", "n/a", "nil":
		return true
	}
	if d, err := decimal.NewFromString(v); err == nil && d.IsZero() {
		return true
	}
	return false
}

func (n *Normalizer) text(f domain.Field) string {
	if IsMissing(f) {
		return n.Marker()
	}
	return strings.TrimSpace(f.Value)
}

// gstin drops inner whitespace and upper-cases before the missing check so
// that "n/ a" and "0 0" resolve to the marker on the first pass.
func (n *Normalizer) gstin(f domain.Field) string {
	if !f.Valid {
		return n.Marker()
	}
	cleaned := domain.NewField(strings.ToUpper(strings.Join(strings.Fields(f.Value), "")))
	if IsMissing(cleaned) {
		return n.Marker()
	}
	return cleaned.Value
}

func (n *Normalizer) name(f domain.Field) string {
	if IsMissing(f) {
		return n.Marker()
	}
	raw := strings.ReplaceAll(f.Value, "\r\n", "\n")
	var segments []string
	for _, seg := range strings.Split(raw, "\n") {
		if seg = strings.TrimSpace(seg); seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return n.Marker()
	}
	if n.opts.NameMode == domain.NameCollapse {
		return strings.Join(segments, n.opts.NameSeparator)
	}
	return strings.Join(segments, "\n")
}

// Amount resolves a monetary field. Currency symbols, thousands separators
// and spaces are dropped when the remainder is a decimal; otherwise the
// trimmed text is kept.
func (n *Normalizer) Amount(f domain.Field) string {
	if !f.Valid {
		return n.Marker()
	}
	v := strings.TrimSpace(f.Value)
	if stripped, ok := CanonicalAmount(v); ok {
		v = stripped
	}
	if IsMissing(domain.NewField(v)) {
		return n.Marker()
	}
	return v
}

var currencyPrefixes = []string{"₹", "rs.", "rs", "inr"}

// CanonicalAmount strips currency decoration from s and reports whether the
// result parses as a decimal.
func CanonicalAmount(s string) (string, bool) {
	v := strings.TrimSpace(s)
	for _, p := range currencyPrefixes {
		if len(v) >= len(p) && strings.EqualFold(v[:len(p)], p) {
			v = v[len(p):]
			break
		}
	}
	v = strings.NewReplacer(",", "", " ", "", " ", "").Replace(v)
	if v == "" {
		return s, false
	}
	if _, err := decimal.NewFromString(v); err != nil {
		return s, false
	}
	return v, true
}
