// Package validator runs deterministic local checks over extracted invoice
// records. Findings are advisory: they are attached to the document as issues
// and never change the extracted values or the validation verdict.
package validator

import "finsync/internal/domain"

// Severity grades a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one failed check.
type Finding struct {
	RuleKey  string
	Field    string
	Severity Severity
	Message  string
}

// Rule checks one aspect of an invoice record.
type Rule interface {
	Key() string
	Name() string
	Severity() Severity
	Check(r domain.InvoiceRecord) []Finding
}
