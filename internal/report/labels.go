package report

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Labels overrides column labels per sheet, keyed by column key.
//
//	B2B Invoices:
//	  supplier_name: Name of Supplier
//	HSN Summary:
//	  total_value: Value
type Labels map[string]map[string]string

func (l Labels) lookup(sheet, key string) (string, bool) {
	if l == nil {
		return "", false
	}
	v, ok := l[sheet][key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// LoadLabels reads a YAML label override file. Unknown sheets or column keys
// are rejected so a typo cannot silently leave a default label in place.
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels file: %w", err)
	}
	return ParseLabels(data)
}

// ParseLabels decodes and checks label overrides.
func ParseLabels(data []byte) (Labels, error) {
	var labels Labels
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	for sheet, cols := range labels {
		specs := Schema(sheet)
		if specs == nil {
			return nil, fmt.Errorf("labels: unknown sheet %q", sheet)
		}
		for key := range cols {
			if !hasKey(specs, key) {
				return nil, fmt.Errorf("labels: unknown column %q on sheet %q", key, sheet)
			}
		}
	}
	return labels, nil
}

func hasKey(specs []ColumnSpec, key string) bool {
	for _, s := range specs {
		if s.Key == key {
			return true
		}
	}
	return false
}
