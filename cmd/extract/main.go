// Command extract runs the invoice pipeline over local files and writes one
// consolidated workbook.
//
//	extract [-o output.xlsx] file...
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"finsync/internal/app"
	"finsync/internal/config"
	"finsync/internal/domain"
	"finsync/internal/metrics"
	"finsync/internal/pipeline"
	"finsync/internal/report"
	"finsync/internal/report/xlsx"
)

// summary is printed to stdout as JSON when the command finishes.
type summary struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	InvoicesCount int     `json:"invoices_count"`
	OutputFile    *string `json:"output_file"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		return fail(stdout, fmt.Sprintf("failed to load config: %v", err))
	}
	app.ConfigureLogging(&cfg.Log)

	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	output := fs.String("o", cfg.Report.OutputPath, "output workbook path")
	if err := fs.Parse(args); err != nil {
		return fail(stdout, err.Error())
	}
	if fs.NArg() == 0 {
		return fail(stdout, "usage: extract [-o output.xlsx] file...")
	}

	ext, err := app.NewExtractor(&cfg.Extractor)
	if err != nil {
		return fail(stdout, fmt.Sprintf("failed to initialize extractor: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := app.LoadCatalog(ctx, &cfg.Report, nil)
	if err != nil {
		return fail(stdout, fmt.Sprintf("failed to load HSN catalog: %v", err))
	}
	opts, err := app.ReportOptions(&cfg.Report, catalog)
	if err != nil {
		return fail(stdout, fmt.Sprintf("invalid report config: %v", err))
	}

	runner := app.NewRunner(&cfg.Extractor, ext, metrics.New(), catalog)
	s, err := execute(ctx, runner, report.NewCompiler(opts), fs.Args(), *output)
	if err != nil {
		return fail(stdout, err.Error())
	}
	writeSummary(stdout, s)
	return 0
}

// execute runs the batch and writes the workbook. Only a write failure is
// returned as an error; an empty batch is reported through the summary.
func execute(ctx context.Context, runner *pipeline.Runner, compiler *report.Compiler, paths []string, output string) (summary, error) {
	docs := sourceDocuments(paths)
	if len(docs) == 0 {
		return summary{Message: "no supported files given"}, nil
	}

	result := runner.RunBatch(ctx, docs, output)
	for _, o := range result.Outcomes {
		for _, issue := range o.Issues {
			log.Printf("extract: %s: %s", o.Name, issue)
		}
	}
	if len(result.Records) == 0 {
		return summary{Message: "no invoices were extracted"}, nil
	}

	if err := xlsx.WriteFile(compiler.Compile(result.Records), output); err != nil {
		return summary{}, fmt.Errorf("%w: %v", domain.ErrArtifactWrite, err)
	}
	return summary{
		Success:       true,
		Message:       fmt.Sprintf("extracted %d invoices from %d documents", len(result.Records), len(docs)),
		InvoicesCount: len(result.Records),
		OutputFile:    &output,
	}, nil
}

// sourceDocuments keeps files with a supported extension. Others are logged
// and skipped.
func sourceDocuments(paths []string) []domain.SourceDocument {
	docs := make([]domain.SourceDocument, 0, len(paths))
	for _, p := range paths {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), ".")
		ft, ok := domain.AllowedExtensions[ext]
		if !ok {
			log.Printf("extract: skipping %s: %v", p, domain.ErrUnsupportedFileType)
			continue
		}
		docs = append(docs, domain.SourceDocument{
			Name:        filepath.Base(p),
			Path:        p,
			ContentType: domain.AllowedFileTypes[ft],
		})
	}
	return docs
}

func fail(w io.Writer, msg string) int {
	writeSummary(w, summary{Message: msg})
	return 1
}

func writeSummary(w io.Writer, s summary) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		log.Printf("extract: write summary: %v", err)
	}
}
