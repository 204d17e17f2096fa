package xlsx_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"finsync/internal/domain"
	"finsync/internal/report"
	"finsync/internal/report/xlsx"
)

func compileAcme(t *testing.T) *domain.ReportArtifact {
	t.Helper()
	c := report.NewCompiler(report.DefaultOptions())
	c.SetClock(func() time.Time { return time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC) })
	return c.Compile([]domain.InvoiceRecord{{
		ShopName:    domain.NewField("ACME\nStore"),
		GSTIN:       domain.NewField("29AAACL1838J1ZC"),
		TotalAmount: domain.NewField("100.00"),
		CGST:        domain.NewField("9.00"),
		SGST:        domain.NewField("9.00"),
		Items:       domain.LineItems{{HSNCode: "620520"}, {HSNCode: "620520"}, {HSNCode: "0"}},
	}})
}

func open(t *testing.T, artifact *domain.ReportArtifact) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, xlsx.Render(artifact, &buf))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestRender_SheetsInOrder(t *testing.T) {
	f := open(t, compileAcme(t))
	assert.Equal(t, []string{report.SheetInvoices, report.SheetHSN, report.SheetDocuments}, f.GetSheetList())
}

func TestRender_InvoiceSheet(t *testing.T) {
	f := open(t, compileAcme(t))

	rows, err := f.GetRows(report.SheetInvoices)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "S.No.", rows[0][0])
	assert.Equal(t, "HSN Codes", rows[0][10])
	assert.Equal(t, "ACME\nStore", rows[1][1])
	assert.Equal(t, "620520", rows[1][10])
	assert.Equal(t, "N/A", rows[1][9])
	assert.Equal(t, "Total", rows[2][1])

	raw, err := f.GetCellValue(report.SheetInvoices, "F2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "100", raw)

	h, err := f.GetRowHeight(report.SheetInvoices, 1)
	require.NoError(t, err)
	assert.Equal(t, report.DefaultHeaderRowHeight, h)

	h, err = f.GetRowHeight(report.SheetInvoices, 2)
	require.NoError(t, err)
	assert.Equal(t, 35.0, h)

	w, err := f.GetColWidth(report.SheetInvoices, "B")
	require.NoError(t, err)
	assert.Equal(t, 30.0, w)
}

func TestRender_HSNSheet(t *testing.T) {
	f := open(t, compileAcme(t))

	rows, err := f.GetRows(report.SheetHSN)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "620520", rows[1][1])

	raw, err := f.GetCellValue(report.SheetHSN, "E2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "9", raw)
}

func TestRender_EmptyArtifact(t *testing.T) {
	f := open(t, report.NewCompiler(report.DefaultOptions()).Compile(nil))

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		require.NoError(t, err)
		assert.Len(t, rows, 1, name)
	}
}

func TestRender_DocProps(t *testing.T) {
	f := open(t, compileAcme(t))

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01T09:30:00Z", props.Created)
	assert.Equal(t, "finsync", props.Creator)
}

func TestWriteFile_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "Consolidated_Invoices_Output.xlsx")
	require.NoError(t, xlsx.WriteFile(compileAcme(t), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "B2B Invoices", f.GetSheetName(0))
}
