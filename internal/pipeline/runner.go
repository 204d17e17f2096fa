package pipeline

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"finsync/internal/domain"
	"finsync/internal/metrics"
)

// DocumentOutcome summarises one document of a batch.
type DocumentOutcome struct {
	Name         string   `json:"name"`
	Invoices     int      `json:"invoices"`
	Validated    bool     `json:"validated"`
	RawTextChars int      `json:"raw_text_chars"`
	Issues       []string `json:"issues,omitempty"`
}

// BatchResult holds the merged records of a batch in input order.
type BatchResult struct {
	Records  []domain.InvoiceRecord
	Outcomes []DocumentOutcome
	Duration time.Duration
}

// Runner runs the orchestrator over a batch of documents.
type Runner struct {
	orchestrator *Orchestrator
	maxInFlight  int
	metrics      *metrics.Metrics
}

// NewRunner creates a Runner. maxInFlight below 1 runs documents one at a time.
func NewRunner(o *Orchestrator, maxInFlight int, m *metrics.Metrics) *Runner {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Runner{orchestrator: o, maxInFlight: maxInFlight, metrics: m}
}

// RunBatch processes docs and merges their records after all of them finish.
// Per-document failures never abort the batch.
func (r *Runner) RunBatch(ctx context.Context, docs []domain.SourceDocument, outputPath string) BatchResult {
	start := time.Now()
	states := make([]domain.ExtractionState, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxInFlight)
	for i, doc := range docs {
		g.Go(func() error {
			r.metrics.StartDocument()
			states[i] = r.orchestrator.Run(gctx, doc, outputPath)
			r.metrics.FinishDocument(len(states[i].Invoices))
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{Outcomes: make([]DocumentOutcome, 0, len(docs))}
	for _, st := range states {
		result.Records = append(result.Records, st.Invoices...)
		result.Outcomes = append(result.Outcomes, DocumentOutcome{
			Name:         st.Source.Name,
			Invoices:     len(st.Invoices),
			Validated:    st.IsValidated(),
			RawTextChars: len(st.Text()),
			Issues:       st.Issues,
		})
	}
	result.Duration = time.Since(start)

	log.Printf("pipeline.Runner.RunBatch: %d document(s), %d invoice(s) in %s",
		len(docs), len(result.Records), result.Duration.Round(time.Millisecond))
	return result
}
