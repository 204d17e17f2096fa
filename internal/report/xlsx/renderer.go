// Package xlsx writes report artifacts as Excel workbooks.
package xlsx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"finsync/internal/domain"
)

// ContentType is the MIME type of rendered workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// numFmtAmount is the built-in "0.00" number format.
const numFmtAmount = 2

type styles struct {
	header  int
	text    int
	integer int
	amount  int
	total   int
	totalAm int
}

// Render writes the artifact as an xlsx workbook to w.
func Render(artifact *domain.ReportArtifact, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("xlsx.Render: styles: %w", err)
	}

	for i := range artifact.Sheets {
		sheet := &artifact.Sheets[i]
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("xlsx.Render: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("xlsx.Render: new sheet %q: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet, st); err != nil {
			return fmt.Errorf("xlsx.Render: sheet %q: %w", sheet.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "GST Invoice Extract",
		Creator:     "finsync",
		Description: fmt.Sprintf("%d invoices", artifact.InvoiceCount),
		Created:     artifact.GeneratedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("xlsx.Render: doc props: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx.Render: write: %w", err)
	}
	return nil
}

// WriteFile renders the artifact to path, creating parent directories.
func WriteFile(artifact *domain.ReportArtifact, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("xlsx.WriteFile: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("xlsx.WriteFile: %w", err)
	}
	if err := Render(artifact, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("xlsx.WriteFile: close: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "BFBFBF", Style: 1},
		{Type: "right", Color: "BFBFBF", Style: 1},
		{Type: "top", Color: "BFBFBF", Style: 1},
		{Type: "bottom", Color: "BFBFBF", Style: 1},
	}
	wrapTop := &excelize.Alignment{WrapText: true, Vertical: "top"}

	defs := []*excelize.Style{
		{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
			Alignment: &excelize.Alignment{WrapText: true, Horizontal: "center", Vertical: "center"},
			Border:    border,
		},
		{Alignment: wrapTop, Border: border},
		{Alignment: wrapTop, Border: border, NumFmt: 1},
		{Alignment: wrapTop, Border: border, NumFmt: numFmtAmount},
		{Font: &excelize.Font{Bold: true}, Alignment: wrapTop, Border: border},
		{Font: &excelize.Font{Bold: true}, Alignment: wrapTop, Border: border, NumFmt: numFmtAmount},
	}
	ids := make([]int, len(defs))
	for i, d := range defs {
		id, err := f.NewStyle(d)
		if err != nil {
			return styles{}, err
		}
		ids[i] = id
	}
	return styles{header: ids[0], text: ids[1], integer: ids[2], amount: ids[3], total: ids[4], totalAm: ids[5]}, nil
}

func writeSheet(f *excelize.File, sheet *domain.ReportSheet, st styles) error {
	name := sheet.Name
	for i, col := range sheet.Columns {
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, colName, colName, col.Width); err != nil {
			return err
		}
		if err := setCell(f, name, i+1, 1, domain.TextCell(col.Label), st.header); err != nil {
			return err
		}
	}
	if err := f.SetRowHeight(name, 1, sheet.HeaderHeight); err != nil {
		return err
	}

	rowNum := 2
	for _, row := range sheet.Rows {
		if err := writeRow(f, name, rowNum, row, st.text, st.integer, st.amount); err != nil {
			return err
		}
		rowNum++
	}
	if sheet.Totals != nil {
		if err := writeRow(f, name, rowNum, *sheet.Totals, st.total, st.total, st.totalAm); err != nil {
			return err
		}
	}

	if len(sheet.Columns) > 0 {
		return f.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, row domain.Row, text, integer, amount int) error {
	for i, cell := range row.Cells {
		style := text
		switch cell.Kind {
		case domain.CellInteger:
			style = integer
		case domain.CellAmount:
			style = amount
		}
		if err := setCell(f, sheet, i+1, rowNum, cell, style); err != nil {
			return err
		}
	}
	if row.Height > 0 {
		return f.SetRowHeight(sheet, rowNum, row.Height)
	}
	return nil
}

// setCell writes numeric kinds as numbers when their text parses and falls
// back to the display text otherwise.
func setCell(f *excelize.File, sheet string, col, row int, cell domain.Cell, style int) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}

	var value any = cell.Text
	switch cell.Kind {
	case domain.CellInteger:
		if n, err := strconv.Atoi(cell.Text); err == nil {
			value = n
		}
	case domain.CellAmount:
		if d, err := decimal.NewFromString(cell.Text); err == nil {
			value = d.InexactFloat64()
		}
	}
	if err := f.SetCellValue(sheet, ref, value); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, ref, ref, style)
}
