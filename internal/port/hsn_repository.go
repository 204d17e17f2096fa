package port

import "context"

// HSNEntry is one row of the HSN/SAC code master.
type HSNEntry struct {
	Code        string  `db:"code"`
	Description string  `db:"description"`
	GSTRate     float64 `db:"gst_rate"`
}

// HSNRepository defines the contract for HSN code master access.
type HSNRepository interface {
	LoadAll(ctx context.Context) ([]HSNEntry, error)
}
