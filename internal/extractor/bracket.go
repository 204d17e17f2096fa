package extractor

import "strings"

// ExtractBracketedArray returns the text from the first '[' to the last ']'
// inclusive. It does not balance brackets or look inside string literals;
// chatty replies usually wrap a single array and the decoder rejects the rest.
func ExtractBracketedArray(text string) (string, bool) {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}
