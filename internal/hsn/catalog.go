package hsn

import (
	"context"
	"fmt"
	"strings"

	"finsync/internal/port"
)

// Catalog resolves HSN codes to descriptions for the summary sheet.
type Catalog interface {
	Describe(code string) (string, bool)
}

// StaticCatalog is an in-memory code to description map.
type StaticCatalog map[string]string

// Describe returns the description of code, falling back to its 4-digit
// heading when the full code is unknown.
func (c StaticCatalog) Describe(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if d, ok := c[code]; ok {
		return d, true
	}
	if len(code) > 4 {
		if d, ok := c[code[:4]]; ok {
			return d, true
		}
	}
	return "", false
}

// LoadCatalog builds a StaticCatalog from the HSN repository.
func LoadCatalog(ctx context.Context, repo port.HSNRepository) (StaticCatalog, error) {
	entries, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load hsn catalog: %w", err)
	}
	return NewCatalog(entries), nil
}
