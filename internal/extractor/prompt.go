package extractor

import (
	"encoding/json"
	"fmt"
)

// OCRPrompt asks the collaborator for the raw text of an invoice document.
const OCRPrompt = "Extract raw readable text from this GST invoice for further parsing."

const parsePromptTemplate = `You are a GST invoice data extractor. From the invoice text below, extract every invoice.

Return ONLY a JSON array, one object per invoice, with exactly these keys:
[
  {
    "Shop Name": "supplier or shop name as printed",
    "GSTIN": "15-character supplier GSTIN",
    "Invoice Number": "invoice number",
    "Invoice Date": "invoice date as printed",
    "Total Amount": "taxable or total invoice value as a number string",
    "Tax Amount": "total tax as a number string",
    "CGST": "CGST amount as a number string",
    "SGST": "SGST amount as a number string",
    "IGST": "IGST amount as a number string, or \"N/A\" if not charged",
    "Items": [
      {"HSN Code": "6 to 8 digit HSN code, or \"0\" if none is printed"}
    ]
  }
]

Rules:
- Never guess an HSN code. Use "0" when the line has none.
- Use null for any field that is not present.
- Do not add commentary before or after the JSON.

Invoice text:
%s`

// ParsePrompt embeds raw OCR text in the structured extraction prompt.
func ParsePrompt(rawText string) string {
	return fmt.Sprintf(parsePromptTemplate, rawText)
}

const validatePromptTemplate = `Check if this GST data is valid JSON and looks like plausible GST invoice data:
%s

Reply with only one word: 'Valid' or 'Invalid'.`

// ValidatePrompt asks for an advisory verdict on parsed records.
func ValidatePrompt(records any) (string, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("marshal records for validation: %w", err)
	}
	return fmt.Sprintf(validatePromptTemplate, data), nil
}
