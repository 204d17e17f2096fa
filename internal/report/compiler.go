// Package report compiles normalized invoice records into a multi-sheet
// report artifact.
package report

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"finsync/internal/domain"
	"finsync/internal/hsn"
	"finsync/internal/normalize"
)

const (
	totalsLabel     = "Total"
	documentsNature = "Invoices for inward supply"
	amountPlaces    = 2
)

// Options configures a Compiler.
type Options struct {
	Normalize      normalize.Options
	Grouping       hsn.Grouping
	Layout         Layout
	Labels         Labels
	DocumentsSheet bool
	// Catalog fills HSN descriptions when set.
	Catalog hsn.Catalog
}

// DefaultOptions returns the standard report policy.
func DefaultOptions() Options {
	return Options{
		Normalize:      normalize.DefaultOptions(),
		Grouping:       hsn.DefaultGrouping(),
		Layout:         DefaultLayout(),
		DocumentsSheet: true,
	}
}

// Compiler builds report artifacts. It holds no per-call state and is safe
// for concurrent use.
type Compiler struct {
	normalizer *normalize.Normalizer
	aggregator *hsn.Aggregator
	layout     Layout
	labels     Labels
	documents  bool
	catalog    hsn.Catalog
	now        func() time.Time
}

// NewCompiler creates a Compiler from opts.
func NewCompiler(opts Options) *Compiler {
	n := normalize.New(opts.Normalize)
	return &Compiler{
		normalizer: n,
		aggregator: hsn.NewAggregator(opts.Grouping, n.Marker()),
		layout:     opts.Layout.withDefaults(),
		labels:     opts.Labels,
		documents:  opts.DocumentsSheet,
		catalog:    opts.Catalog,
		now:        time.Now,
	}
}

// SetClock overrides the generation timestamp source.
func (c *Compiler) SetClock(now func() time.Time) {
	c.now = now
}

// Compile builds the artifact for the whole batch, rows in input order.
// It never fails; an empty batch yields header-only sheets.
func (c *Compiler) Compile(records []domain.InvoiceRecord) *domain.ReportArtifact {
	display := make([]normalize.DisplayRecord, len(records))
	for i, r := range records {
		display[i] = c.normalizer.Normalize(r)
	}
	hsnCells, summary := c.aggregator.Aggregate(records)

	sheets := []domain.ReportSheet{
		c.invoiceSheet(display, hsnCells),
		c.hsnSheet(summary),
	}
	if c.documents {
		sheets = append(sheets, c.documentsSheet(display))
	}

	return &domain.ReportArtifact{
		Sheets:       sheets,
		InvoiceCount: len(records),
		GeneratedAt:  c.now().UTC(),
	}
}

func (c *Compiler) newSheet(name string) domain.ReportSheet {
	return domain.ReportSheet{
		Name:         name,
		Columns:      columns(name, c.labels),
		HeaderHeight: c.layout.HeaderRowHeight,
		Rows:         []domain.Row{},
	}
}

func (c *Compiler) invoiceSheet(records []normalize.DisplayRecord, hsnCells []string) domain.ReportSheet {
	sheet := c.newSheet(SheetInvoices)
	for i, d := range records {
		cells := []domain.Cell{
			serial(i + 1),
			domain.TextCell(d.ShopName),
			domain.TextCell(d.GSTIN),
			domain.TextCell(d.InvoiceNumber),
			domain.TextCell(d.InvoiceDate),
		}
		for _, a := range d.Amounts() {
			cells = append(cells, c.amountCell(a))
		}
		cells = append(cells, domain.TextCell(hsnCells[i]))

		geo := c.layout.Row(d.ShopName, hsnCells[i])
		sheet.Rows = append(sheet.Rows, domain.Row{Cells: cells, Height: geo.Height})
	}
	if len(records) > 0 {
		sheet.Totals = c.totals(records, len(sheet.Columns))
	}
	return sheet
}

// totals sums each amount column. Missing values count as zero; a malformed
// value turns its column total into the sentinel.
func (c *Compiler) totals(records []normalize.DisplayRecord, width int) *domain.Row {
	cells := make([]domain.Cell, width)
	for i := range cells {
		cells[i] = domain.TextCell("")
	}
	cells[1] = domain.TextCell(totalsLabel)

	marker := c.normalizer.Marker()
	for col := colTaxable; col <= colIGST; col++ {
		sum := decimal.Zero
		malformed := false
		for _, d := range records {
			v := d.Amounts()[col-colTaxable]
			if v == marker {
				continue
			}
			n, err := decimal.NewFromString(v)
			if err != nil {
				malformed = true
				break
			}
			sum = sum.Add(n)
		}
		if malformed {
			cells[col] = domain.TextCell(domain.NotAvailable)
			continue
		}
		cells[col] = domain.Cell{Text: sum.StringFixed(amountPlaces), Kind: domain.CellAmount}
	}
	return &domain.Row{Cells: cells, Height: c.layout.BaseRowHeight}
}

func (c *Compiler) hsnSheet(summary []domain.HSNSummaryEntry) domain.ReportSheet {
	sheet := c.newSheet(SheetHSN)
	for i, e := range summary {
		desc := ""
		if c.catalog != nil {
			desc, _ = c.catalog.Describe(e.Code)
		}
		sheet.Rows = append(sheet.Rows, domain.Row{
			Cells: []domain.Cell{
				serial(i + 1),
				domain.TextCell(e.Code),
				domain.TextCell(desc),
				fixed(e.Total),
				fixed(e.CGST),
				fixed(e.SGST),
				fixed(e.IGST),
			},
			Height: c.layout.Height(LineCount(desc)),
		})
	}
	return sheet
}

type documentRange struct {
	gstin       string
	first, last string
	count       int
}

// documentsSheet lists the invoice number range per supplier GSTIN in
// first-seen order.
func (c *Compiler) documentsSheet(records []normalize.DisplayRecord) domain.ReportSheet {
	sheet := c.newSheet(SheetDocuments)

	index := make(map[string]int)
	var ranges []documentRange
	for _, d := range records {
		pos, ok := index[d.GSTIN]
		if !ok {
			pos = len(ranges)
			index[d.GSTIN] = pos
			ranges = append(ranges, documentRange{gstin: d.GSTIN, first: d.InvoiceNumber})
		}
		ranges[pos].last = d.InvoiceNumber
		ranges[pos].count++
	}

	for i, r := range ranges {
		sheet.Rows = append(sheet.Rows, domain.Row{
			Cells: []domain.Cell{
				serial(i + 1),
				domain.TextCell(documentsNature),
				domain.TextCell(r.gstin),
				domain.TextCell(r.first),
				domain.TextCell(r.last),
				{Text: strconv.Itoa(r.count), Kind: domain.CellInteger},
				{Text: "0", Kind: domain.CellInteger},
			},
			Height: c.layout.BaseRowHeight,
		})
	}
	return sheet
}

// amountCell marks a normalized amount numeric when it parses as a decimal.
func (c *Compiler) amountCell(v string) domain.Cell {
	if _, err := decimal.NewFromString(v); err != nil {
		return domain.TextCell(v)
	}
	return domain.Cell{Text: v, Kind: domain.CellAmount}
}

func serial(n int) domain.Cell {
	return domain.Cell{Text: strconv.Itoa(n), Kind: domain.CellInteger}
}

func fixed(d decimal.Decimal) domain.Cell {
	return domain.Cell{Text: d.StringFixed(amountPlaces), Kind: domain.CellAmount}
}
