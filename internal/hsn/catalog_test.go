package hsn_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"finsync/internal/hsn"
	"finsync/internal/port"
	"finsync/mocks"
)

func TestStaticCatalog_HeadingFallback(t *testing.T) {
	cat := hsn.StaticCatalog{"6201": "Men's overcoats", "62034200": "Cotton trousers"}

	d, ok := cat.Describe("62034200")
	assert.True(t, ok)
	assert.Equal(t, "Cotton trousers", d)

	d, ok = cat.Describe(" 62011100 ")
	assert.True(t, ok)
	assert.Equal(t, "Men's overcoats", d)

	_, ok = cat.Describe("9999")
	assert.False(t, ok)
}

func TestLoadCatalog(t *testing.T) {
	repo := new(mocks.MockHSNRepo)
	repo.On("LoadAll", mock.Anything).Return([]port.HSNEntry{
		{Code: "6201", Description: "", GSTRate: 5},
		{Code: "6201", Description: "Men's overcoats", GSTRate: 12},
		{Code: "6201", Description: "Ignored duplicate", GSTRate: 18},
	}, nil)

	cat, err := hsn.LoadCatalog(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, hsn.StaticCatalog{"6201": "Men's overcoats"}, cat)
}

func TestLoadCatalog_Error(t *testing.T) {
	repo := new(mocks.MockHSNRepo)
	repo.On("LoadAll", mock.Anything).Return(nil, errors.New("db down"))

	_, err := hsn.LoadCatalog(context.Background(), repo)
	assert.ErrorContains(t, err, "db down")
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want []float64
	}{
		{"18%", []float64{18}},
		{"Exempt", []float64{0}},
		{"12%-18%", []float64{12, 18}},
		{"1% (without ITC) or 5% (without ITC)", []float64{1, 5}},
		{"2.5%", []float64{2.5}},
		{"", nil},
		{"see notes", nil},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, hsn.ParseRate(tc.in))
		})
	}
}

func buildMaster(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	goods := f.GetSheetName(0)
	// Row 6 is the first data row.
	require.NoError(t, f.SetSheetRow(goods, "A6", &[]interface{}{
		"", "", "", "", "", "6201", "", "Overcoats", "620111", "Of wool", "62011100", "", "Wool overcoats", "12%",
	}))
	require.NoError(t, f.SetSheetRow(goods, "A7", &[]interface{}{
		"", "", "", "", "", "6201", "", "Overcoats", "", "", "", "", "", "bad",
	}))

	_, err := f.NewSheet(hsn.SACSheet)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(hsn.SACSheet, "A4", &[]interface{}{
		"9954", "Construction services", "995411", "Residential buildings", "12%-18%",
	}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadMaster(t *testing.T) {
	entries, err := hsn.ReadMaster(buildMaster(t))
	require.NoError(t, err)

	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []string{"62011100", "620111", "6201", "995411", "9954", "995411", "9954"}, codes)
	assert.Equal(t, 12.0, entries[0].GSTRate)
	assert.Equal(t, 18.0, entries[5].GSTRate)

	cat := hsn.NewCatalog(entries)
	d, ok := cat.Describe("62011100")
	require.True(t, ok)
	assert.Equal(t, "Wool overcoats", d)
	d, _ = cat.Describe("9954")
	assert.Equal(t, "Construction services", d)
}

func TestReadMaster_NotAWorkbook(t *testing.T) {
	_, err := hsn.ReadMaster(bytes.NewBufferString("not xlsx"))
	assert.Error(t, err)
}
