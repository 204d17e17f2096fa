package report

import "finsync/internal/domain"

// Sheet names.
const (
	SheetInvoices  = "B2B Invoices"
	SheetHSN       = "HSN Summary"
	SheetDocuments = "Documents Issued"
)

// ColumnSpec is one fixed column of a sheet type. Key identifies the column
// in label override files; position and meaning never change.
type ColumnSpec struct {
	Key   string
	Label string
	Width float64
}

// Invoice sheet column keys, in position order.
var invoiceColumns = []ColumnSpec{
	{Key: "serial", Label: "S.No.", Width: 6},
	{Key: "supplier_name", Label: "Supplier Name", Width: 30},
	{Key: "supplier_gstin", Label: "Supplier GSTIN", Width: 18},
	{Key: "invoice_number", Label: "Invoice Number", Width: 20},
	{Key: "invoice_date", Label: "Invoice Date", Width: 14},
	{Key: "taxable_value", Label: "Taxable Value", Width: 15},
	{Key: "total_tax", Label: "Total Tax", Width: 12},
	{Key: "cgst", Label: "CGST Amount", Width: 12},
	{Key: "sgst", Label: "SGST Amount", Width: 12},
	{Key: "igst", Label: "IGST Amount", Width: 12},
	{Key: "hsn_codes", Label: "HSN Codes", Width: 24},
}

var hsnColumns = []ColumnSpec{
	{Key: "serial", Label: "S.No.", Width: 6},
	{Key: "hsn_code", Label: "HSN Code", Width: 12},
	{Key: "description", Label: "Description", Width: 30},
	{Key: "total_value", Label: "Total Value", Width: 15},
	{Key: "cgst", Label: "CGST Amount", Width: 12},
	{Key: "sgst", Label: "SGST Amount", Width: 12},
	{Key: "igst", Label: "IGST Amount", Width: 12},
}

var documentColumns = []ColumnSpec{
	{Key: "serial", Label: "S.No.", Width: 6},
	{Key: "nature", Label: "Nature of Document", Width: 28},
	{Key: "supplier_gstin", Label: "Supplier GSTIN", Width: 18},
	{Key: "number_from", Label: "Sr. No. From", Width: 18},
	{Key: "number_to", Label: "Sr. No. To", Width: 18},
	{Key: "total", Label: "Total Number", Width: 12},
	{Key: "cancelled", Label: "Cancelled", Width: 10},
}

// Indexes of the amount columns on the invoice sheet.
const (
	colTaxable = 5
	colIGST    = 9
)

// Schema returns the column specs for a sheet name.
func Schema(sheet string) []ColumnSpec {
	switch sheet {
	case SheetInvoices:
		return invoiceColumns
	case SheetHSN:
		return hsnColumns
	case SheetDocuments:
		return documentColumns
	}
	return nil
}

// columns resolves a schema into header cells, applying label overrides.
func columns(sheet string, labels Labels) []domain.Column {
	specs := Schema(sheet)
	out := make([]domain.Column, len(specs))
	for i, s := range specs {
		label := s.Label
		if override, ok := labels.lookup(sheet, s.Key); ok {
			label = override
		}
		out[i] = domain.Column{Label: label, Width: s.Width}
	}
	return out
}
