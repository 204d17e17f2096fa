package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"finsync/internal/domain"
)

// ErrEmptyReply is returned when there is nothing to decode.
var ErrEmptyReply = errors.New("empty extractor reply")

// DecodeRecords pulls the invoice list out of a structured extraction reply.
// The outermost bracketed array wins; without one the trimmed reply is
// decoded as-is, and a lone object counts as one record.
func DecodeRecords(reply string) ([]domain.InvoiceRecord, error) {
	payload, ok := ExtractBracketedArray(reply)
	if !ok {
		payload = stripCodeFence(strings.TrimSpace(reply))
	}
	if payload == "" {
		return nil, ErrEmptyReply
	}

	if strings.HasPrefix(payload, "{") {
		var rec domain.InvoiceRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode invoice object: %w", err)
		}
		return []domain.InvoiceRecord{rec}, nil
	}

	var records []domain.InvoiceRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, fmt.Errorf("decode invoice list: %w", err)
	}
	if records == nil {
		records = []domain.InvoiceRecord{}
	}
	return records, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// negations are the words that turn a following "valid" into a rejection.
var negations = map[string]bool{
	"not": true, "isn't": true, "isnt": true, "aren't": true, "arent": true,
	"never": true, "no": true,
}

// IsValidVerdict interprets the validation reply. The reply must say
// "valid" without saying "invalid" or negating it ("not valid").
func IsValidVerdict(reply string) bool {
	words := strings.FieldsFunc(strings.ToLower(reply), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	verdict := false
	for i := range words {
		words[i] = strings.Trim(words[i], "'")
	}
	for i, w := range words {
		switch w {
		case "invalid":
			return false
		case "valid":
			if i > 0 && negations[words[i-1]] {
				return false
			}
			verdict = true
		}
	}
	return verdict
}
