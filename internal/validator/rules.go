package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsync/internal/domain"
	"finsync/internal/hsn"
	"finsync/internal/normalize"
)

var (
	gstinPattern = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	hsnPattern   = regexp.MustCompile(`^\d{4,8}$`)
)

// mathTolerance absorbs rounding on printed invoices.
var mathTolerance = decimal.NewFromInt(1)

// funcRule adapts a check function to Rule.
type funcRule struct {
	key      string
	name     string
	severity Severity
	check    func(domain.InvoiceRecord) []Finding
}

func (f *funcRule) Key() string                            { return f.key }
func (f *funcRule) Name() string                           { return f.name }
func (f *funcRule) Severity() Severity                     { return f.severity }
func (f *funcRule) Check(r domain.InvoiceRecord) []Finding { return f.check(r) }

func (f *funcRule) finding(field, format string, args ...any) Finding {
	return Finding{
		RuleKey:  f.key,
		Field:    field,
		Severity: f.severity,
		Message:  fmt.Sprintf("%s: %s", f.name, fmt.Sprintf(format, args...)),
	}
}

func newRule(key, name string, sev Severity, check func(*funcRule, domain.InvoiceRecord) []Finding) *funcRule {
	r := &funcRule{key: key, name: name, severity: sev}
	r.check = func(rec domain.InvoiceRecord) []Finding { return check(r, rec) }
	return r
}

// FormatRules check the shape of individual fields. Missing fields are
// skipped; absence is not a format error.
func FormatRules() []Rule {
	return []Rule{
		newRule("fmt.gstin", "Format: GSTIN", SeverityError, func(r *funcRule, rec domain.InvoiceRecord) []Finding {
			v, ok := present(rec.GSTIN)
			if !ok {
				return nil
			}
			v = strings.ToUpper(strings.ReplaceAll(v, " ", ""))
			if !gstinPattern.MatchString(v) {
				return []Finding{r.finding("GSTIN", "%q is not a 15-character GSTIN", v)}
			}
			if code, _ := strconv.Atoi(v[:2]); code < 1 || code > 38 {
				return []Finding{r.finding("GSTIN", "state code %s is outside 01-38", v[:2])}
			}
			return nil
		}),
		newRule("fmt.invoice_date", "Format: Invoice Date", SeverityWarning, func(r *funcRule, rec domain.InvoiceRecord) []Finding {
			v, ok := present(rec.InvoiceDate)
			if !ok {
				return nil
			}
			if _, err := parseDate(v); err != nil {
				return []Finding{r.finding("Invoice Date", "%q is not a recognised date", v)}
			}
			return nil
		}),
		newRule("fmt.hsn", "Format: HSN/SAC Code", SeverityWarning, func(r *funcRule, rec domain.InvoiceRecord) []Finding {
			var out []Finding
			for i, item := range rec.Items {
				code := strings.TrimSpace(item.HSNCode)
				if code == "" || code == "0" {
					continue
				}
				if !hsnPattern.MatchString(code) {
					out = append(out, r.finding(fmt.Sprintf("Items[%d]", i), "%q is not a 4-8 digit code", code))
				}
			}
			return out
		}),
	}
}

// MathRules check arithmetic between the tax fields. A rule is skipped when
// any operand is missing or not a number.
func MathRules() []Rule {
	return []Rule{
		newRule("math.tax_amount", "Math: Tax Amount", SeverityError, func(r *funcRule, rec domain.InvoiceRecord) []Finding {
			tax, ok := amount(rec.TaxAmount)
			if !ok {
				return nil
			}
			sum := decimal.Zero
			seen := false
			for _, f := range []domain.Field{rec.CGST, rec.SGST, rec.IGST} {
				if !f.Valid || normalize.IsMissing(f) {
					continue
				}
				v, ok := amount(f)
				if !ok {
					return nil
				}
				sum = sum.Add(v)
				seen = true
			}
			if seen && !approxEqual(sum, tax) {
				return []Finding{r.finding("Tax Amount", "CGST+SGST+IGST is %s, invoice states %s", sum.StringFixed(2), tax.StringFixed(2))}
			}
			return nil
		}),
		newRule("math.cgst_sgst", "Math: CGST/SGST Split", SeverityWarning, func(r *funcRule, rec domain.InvoiceRecord) []Finding {
			cgst, ok1 := amount(rec.CGST)
			sgst, ok2 := amount(rec.SGST)
			if !ok1 || !ok2 || approxEqual(cgst, sgst) {
				return nil
			}
			return []Finding{r.finding("CGST", "CGST %s and SGST %s should be equal", cgst.StringFixed(2), sgst.StringFixed(2))}
		}),
		newRule("math.total_amount", "Math: Total Amount", SeverityError, func(r *funcRule, rec domain.InvoiceRecord) []Finding {
			total, ok1 := amount(rec.TotalAmount)
			tax, ok2 := amount(rec.TaxAmount)
			if !ok1 || !ok2 || tax.LessThanOrEqual(total) {
				return nil
			}
			return []Finding{r.finding("Total Amount", "tax %s exceeds total %s", tax.StringFixed(2), total.StringFixed(2))}
		}),
	}
}

// CrossFieldRules check relationships between fields.
func CrossFieldRules() []Rule {
	return []Rule{
		newRule("xf.tax_type", "Cross-field: Tax Type", SeverityError, func(r *funcRule, rec domain.InvoiceRecord) []Finding {
			igst, _ := amount(rec.IGST)
			cgst, _ := amount(rec.CGST)
			sgst, _ := amount(rec.SGST)
			if igst.IsPositive() && (cgst.IsPositive() || sgst.IsPositive()) {
				return []Finding{r.finding("IGST", "IGST is charged together with CGST/SGST")}
			}
			return nil
		}),
	}
}

// HSNRules check line-item codes against the HSN master. Without a catalog
// no rule is returned.
func HSNRules(catalog hsn.Catalog) []Rule {
	if catalog == nil {
		return nil
	}
	return []Rule{
		newRule("hsn.exists", "HSN: Code Exists", SeverityWarning, func(r *funcRule, rec domain.InvoiceRecord) []Finding {
			var out []Finding
			for i, item := range rec.Items {
				code := strings.TrimSpace(item.HSNCode)
				if !hsnPattern.MatchString(code) {
					continue
				}
				if _, ok := catalog.Describe(code); !ok {
					out = append(out, r.finding(fmt.Sprintf("Items[%d]", i), "%s is not in the HSN master", code))
				}
			}
			return out
		}),
	}
}

func present(f domain.Field) (string, bool) {
	if !f.Valid || normalize.IsMissing(f) {
		return "", false
	}
	return strings.TrimSpace(f.Value), true
}

func amount(f domain.Field) (decimal.Decimal, bool) {
	v, ok := present(f)
	if !ok {
		return decimal.Zero, false
	}
	canon, ok := normalize.CanonicalAmount(v)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(canon)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func approxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(mathTolerance)
}

// parseDate tries the date layouts seen on Indian invoices.
func parseDate(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"02-01-2006",
		"02/01/2006",
		"02.01.2006",
		"2/1/2006",
		"2006/01/02",
		"02 Jan 2006",
		"2 Jan 2006",
		"02-Jan-2006",
		"02-Jan-06",
		"Jan 02, 2006",
		"January 02, 2006",
		"02-01-2006 15:04:05",
		"2006-01-02T15:04:05Z07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %s", s)
}
