// Package app assembles the extraction pipeline and report compiler from
// configuration. It is shared by the server and the batch CLI.
package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"finsync/internal/config"
	"finsync/internal/domain"
	"finsync/internal/extractor"
	"finsync/internal/extractor/pdftext"
	"finsync/internal/hsn"
	"finsync/internal/metrics"
	"finsync/internal/pipeline"
	"finsync/internal/port"
	"finsync/internal/report"
	"finsync/internal/resilience"
	"finsync/internal/validator"

	// Register collaborator providers.
	_ "finsync/internal/extractor/claude"
	_ "finsync/internal/extractor/gemini"
	_ "finsync/internal/extractor/openai"
)

// pdfTextMaxPages bounds the local text layer read.
const pdfTextMaxPages = 50

// NewExtractor builds the provider chain wrapped with rate limiting,
// per-call timeouts, retries and the circuit breaker. A missing credential
// fails here, before any document is processed.
func NewExtractor(cfg *config.ExtractorConfig) (port.TextExtractor, error) {
	chain, err := extractor.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return extractor.NewResilient(chain, extractor.ResilientOptions{
		CallTimeout:   cfg.CallTimeout,
		RatePerMinute: cfg.RatePerMinute,
		Policy:        Policy(cfg),
	}), nil
}

// Policy maps extractor settings onto the resilience policy.
func Policy(cfg *config.ExtractorConfig) resilience.Config {
	p := resilience.DefaultConfig()
	p.RetryMaxAttempts = cfg.RetryMaxAttempts
	p.RetryInitialBackoff = cfg.RetryInitialBackoff
	p.RetryMaxBackoff = cfg.RetryMaxBackoff
	p.BreakerEnabled = cfg.BreakerEnabled
	p.BreakerMinRequests = cfg.BreakerMinRequests
	p.BreakerFailureRatio = cfg.BreakerFailureRatio
	p.BreakerOpenTimeout = cfg.BreakerOpenTimeout
	return p
}

// NewRunner builds the batch driver around ext. catalog feeds the HSN master
// check and may be nil.
func NewRunner(cfg *config.ExtractorConfig, ext port.TextExtractor, m *metrics.Metrics, catalog hsn.Catalog) *pipeline.Runner {
	opts := []pipeline.Option{pipeline.WithMetrics(m)}
	if cfg.PDFTextFallback {
		opts = append(opts, pipeline.WithTextLayer(pdftext.NewReader(pdfTextMaxPages)))
	}
	if cfg.LocalChecks {
		opts = append(opts, pipeline.WithRecordChecker(validator.Builtin(catalog)))
	}
	return pipeline.NewRunner(pipeline.NewOrchestrator(ext, opts...), cfg.MaxInFlight, m)
}

// ReportOptions translates report settings into compiler options. catalog
// may be nil.
func ReportOptions(cfg *config.ReportConfig, catalog hsn.Catalog) (report.Options, error) {
	opts := report.DefaultOptions()

	switch p := domain.MissingPolicy(cfg.MissingPolicy); p {
	case domain.MissingSentinel, domain.MissingBlank:
		opts.Normalize.Missing = p
	case "":
	default:
		return opts, fmt.Errorf("unknown missing policy %q", cfg.MissingPolicy)
	}

	switch m := domain.NameMode(cfg.NameMode); m {
	case domain.NameCollapse, domain.NamePreserve:
		opts.Normalize.NameMode = m
	case "":
	default:
		return opts, fmt.Errorf("unknown name mode %q", cfg.NameMode)
	}
	if cfg.NameSeparator != "" {
		opts.Normalize.NameSeparator = cfg.NameSeparator
	}

	if cfg.SingleLineMax > 0 {
		opts.Grouping.SingleLineMax = cfg.SingleLineMax
	}
	if cfg.PairedMax > 0 {
		opts.Grouping.PairedMax = cfg.PairedMax
	}
	if opts.Grouping.PairedMax < opts.Grouping.SingleLineMax {
		return opts, fmt.Errorf("paired_max %d is below single_line_max %d",
			opts.Grouping.PairedMax, opts.Grouping.SingleLineMax)
	}

	if cfg.BaseRowHeight > 0 {
		opts.Layout.BaseRowHeight = cfg.BaseRowHeight
	}
	if cfg.LineHeightStep > 0 {
		opts.Layout.LineHeightStep = cfg.LineHeightStep
	}
	if cfg.HeaderRowHeight > 0 {
		opts.Layout.HeaderRowHeight = cfg.HeaderRowHeight
	}
	opts.DocumentsSheet = cfg.DocumentsSheet

	if cfg.LabelsFile != "" {
		labels, err := report.LoadLabels(cfg.LabelsFile)
		if err != nil {
			return opts, err
		}
		opts.Labels = labels
	}
	if catalog != nil {
		opts.Catalog = catalog
	}
	return opts, nil
}

// LoadCatalog returns the HSN description catalog. The master workbook wins
// when configured; otherwise repo is used when non-nil. A repository failure
// only disables descriptions. A source without entries yields no catalog so
// an unseeded table does not flag every code as unknown.
func LoadCatalog(ctx context.Context, cfg *config.ReportConfig, repo port.HSNRepository) (hsn.Catalog, error) {
	if cfg.HSNMasterFile != "" {
		f, err := os.Open(cfg.HSNMasterFile)
		if err != nil {
			return nil, fmt.Errorf("open hsn master: %w", err)
		}
		defer f.Close()
		entries, err := hsn.ReadMaster(f)
		if err != nil {
			return nil, err
		}
		return nonEmpty(hsn.NewCatalog(entries), cfg.HSNMasterFile), nil
	}
	if repo == nil {
		return nil, nil
	}
	cat, err := hsn.LoadCatalog(ctx, repo)
	if err != nil {
		log.Printf("app.LoadCatalog: HSN descriptions disabled: %v", err)
		return nil, nil
	}
	return nonEmpty(cat, "database"), nil
}

func nonEmpty(cat hsn.StaticCatalog, source string) hsn.Catalog {
	if len(cat) == 0 {
		log.Printf("app.LoadCatalog: no HSN entries in %s, descriptions disabled", source)
		return nil
	}
	log.Printf("app.LoadCatalog: %d HSN codes from %s", len(cat), source)
	return cat
}
