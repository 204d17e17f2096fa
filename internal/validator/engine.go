package validator

import (
	"fmt"

	"finsync/internal/domain"
	"finsync/internal/hsn"
)

// Engine runs a set of rules over invoice records.
type Engine struct {
	registry *Registry
}

// NewEngine creates an Engine with the given rules.
func NewEngine(rules ...Rule) *Engine {
	reg := NewRegistry()
	for _, r := range rules {
		reg.Register(r)
	}
	return &Engine{registry: reg}
}

// Builtin returns an Engine with every built-in rule. catalog enables the
// HSN master check and may be nil.
func Builtin(catalog hsn.Catalog) *Engine {
	var rules []Rule
	rules = append(rules, FormatRules()...)
	rules = append(rules, MathRules()...)
	rules = append(rules, CrossFieldRules()...)
	rules = append(rules, HSNRules(catalog)...)
	return NewEngine(rules...)
}

// Validate returns the findings for one record.
func (e *Engine) Validate(r domain.InvoiceRecord) []Finding {
	var out []Finding
	for _, rule := range e.registry.All() {
		out = append(out, rule.Check(r)...)
	}
	return out
}

// CheckRecords returns one issue line per finding, prefixed with the
// 1-based invoice position inside the document.
func (e *Engine) CheckRecords(records []domain.InvoiceRecord) []string {
	var issues []string
	for i, rec := range records {
		for _, f := range e.Validate(rec) {
			issues = append(issues, fmt.Sprintf("invoice %d: %s [%s]", i+1, f.Message, f.Severity))
		}
	}
	return issues
}
