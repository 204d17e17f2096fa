package hsn

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"finsync/internal/port"
)

// SACSheet is the services sheet of the GST HSN/SAC master workbook.
const SACSheet = "SAC_Master"

// Goods sheet layout (first sheet): 4, 6 and 8 digit codes with their
// descriptions and a percentage rate. Data starts on the sixth row.
const (
	goodsFirstRow = 5
	goodsCode4    = 5
	goodsDesc4    = 7
	goodsCode6    = 8
	goodsDesc6    = 9
	goodsCode8    = 10
	goodsDesc8    = 12
	goodsRate     = 13
)

// Services sheet layout. Data starts on the fourth row.
const (
	sacFirstRow = 3
	sacCode4    = 0
	sacDesc4    = 1
	sacCode6    = 2
	sacDesc6    = 3
	sacRate     = 4
)

// ReadMaster parses the HSN/SAC master workbook into entries. Each code and
// rate pair appears once; the most specific code of a row is listed first.
func ReadMaster(r io.Reader) ([]port.HSNEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open hsn master: %w", err)
	}
	defer func() { _ = f.Close() }()

	m := &masterReader{seen: make(map[string]bool)}

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read goods sheet: %w", err)
	}
	m.goods(rows)

	if idx, _ := f.GetSheetIndex(SACSheet); idx >= 0 {
		rows, err := f.GetRows(SACSheet)
		if err != nil {
			return nil, fmt.Errorf("read services sheet: %w", err)
		}
		m.services(rows)
	}
	return m.entries, nil
}

type masterReader struct {
	seen    map[string]bool
	entries []port.HSNEntry
}

func (m *masterReader) goods(rows [][]string) {
	for i := goodsFirstRow; i < len(rows); i++ {
		row := rows[i]
		raw := strings.TrimSuffix(cell(row, goodsRate), "%")
		rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			continue
		}
		m.add(cell(row, goodsCode8), cell(row, goodsDesc8), rate)
		m.add(cell(row, goodsCode6), cell(row, goodsDesc6), rate)
		m.add(cell(row, goodsCode4), cell(row, goodsDesc4), rate)
	}
}

func (m *masterReader) services(rows [][]string) {
	for i := sacFirstRow; i < len(rows); i++ {
		row := rows[i]
		for _, rate := range ParseRate(cell(row, sacRate)) {
			m.add(cell(row, sacCode6), cell(row, sacDesc6), rate)
			m.add(cell(row, sacCode4), cell(row, sacDesc4), rate)
		}
	}
}

func (m *masterReader) add(code, description string, rate float64) {
	if !isDigits(code) {
		return
	}
	key := fmt.Sprintf("%s|%.2f", code, rate)
	if m.seen[key] {
		return
	}
	m.seen[key] = true
	m.entries = append(m.entries, port.HSNEntry{Code: code, Description: description, GSTRate: rate})
}

var ratePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// ParseRate extracts the GST rates from a free-text rate cell such as
// "18%", "Exempt" or "5% (without ITC) or 18%".
func ParseRate(s string) []float64 {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return nil
	case "exempt", "nil":
		return []float64{0}
	}

	seen := make(map[float64]bool)
	var rates []float64
	for _, match := range ratePattern.FindAllStringSubmatch(s, -1) {
		rate, err := strconv.ParseFloat(match[1], 64)
		if err == nil && !seen[rate] {
			seen[rate] = true
			rates = append(rates, rate)
		}
	}
	return rates
}

// NewCatalog builds a StaticCatalog from entries. The first non-empty
// description per code wins.
func NewCatalog(entries []port.HSNEntry) StaticCatalog {
	cat := make(StaticCatalog, len(entries))
	for _, e := range entries {
		if _, ok := cat[e.Code]; ok || strings.TrimSpace(e.Description) == "" {
			continue
		}
		cat[e.Code] = e.Description
	}
	return cat
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
