package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/extractor"
)

func TestExtractBracketedArray(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain array", `[{"a":1}]`, `[{"a":1}]`, true},
		{"chatty wrapper", "Here you go:\n[{\"a\":1}]\nHope this helps", `[{"a":1}]`, true},
		{"nested brackets", `x [[1,2],[3]] y`, `[[1,2],[3]]`, true},
		{"bracket inside string", `[{"Shop Name":"A [B] C"}] done`, `[{"Shop Name":"A [B] C"}]`, true},
		{"trailing bracket in commentary", `[{"a":1}] see [note]`, `[{"a":1}] see [note]`, true},
		{"no brackets", `{"a":1}`, "", false},
		{"reversed", `] nothing [`, "", false},
		{"empty", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractor.ExtractBracketedArray(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeRecords(t *testing.T) {
	reply := "```json\n[{\"Shop Name\":\"ACME\\nStore\",\"GSTIN\":\"29AAACL1838J1ZC\",\"Total Amount\":100.00," +
		"\"CGST\":\"9.00\",\"IGST\":null,\"Items\":[{\"HSN Code\":\"620520\"},{\"HSN Code\":[\"620520\",\"0\"]}]}]\n```"

	records, err := extractor.DecodeRecords(reply)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "ACME\nStore", r.ShopName.Value)
	assert.Equal(t, "100.00", r.TotalAmount.Value)
	assert.False(t, r.IGST.Valid)
	require.Len(t, r.Items, 3)
	assert.Equal(t, "0", r.Items[2].HSNCode)
}

func TestDecodeRecords_SingleObject(t *testing.T) {
	records, err := extractor.DecodeRecords("```json\n{\"GSTIN\": \"29ABC\"}\n```")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "29ABC", records[0].GSTIN.Value)
}

func TestDecodeRecords_Failures(t *testing.T) {
	_, err := extractor.DecodeRecords("   ")
	assert.ErrorIs(t, err, extractor.ErrEmptyReply)

	_, err = extractor.DecodeRecords("[not json]")
	assert.Error(t, err)

	_, err = extractor.DecodeRecords("I could not read this invoice.")
	assert.Error(t, err)
}

func TestDecodeRecords_EmptyArray(t *testing.T) {
	records, err := extractor.DecodeRecords("[]")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestIsValidVerdict(t *testing.T) {
	assert.True(t, extractor.IsValidVerdict("Valid"))
	assert.True(t, extractor.IsValidVerdict(" valid.\n"))
	assert.False(t, extractor.IsValidVerdict("Invalid"))
	assert.False(t, extractor.IsValidVerdict(""))
	assert.False(t, extractor.IsValidVerdict("Looks wrong"))
	assert.True(t, extractor.IsValidVerdict("'Valid'"))
	assert.True(t, extractor.IsValidVerdict("The data is valid. No issues found."))
	assert.False(t, extractor.IsValidVerdict("The data is not valid"))
	assert.False(t, extractor.IsValidVerdict("This isn't valid GST data."))
	assert.False(t, extractor.IsValidVerdict("INVALID"))
	assert.False(t, extractor.IsValidVerdict("validation skipped"))
}
