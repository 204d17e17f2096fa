package port

import "context"

// ExtractInput carries one request to the text-extraction collaborator.
// Document is nil for text-only prompts.
type ExtractInput struct {
	Prompt   string
	Document []byte
	MimeType string
}

// TextExtractor abstracts the external AI text-extraction service. Replies
// are untrusted free text and may be empty.
type TextExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (string, error)
}

// DocumentTextReader reads the embedded text layer of a document without
// calling the collaborator.
type DocumentTextReader interface {
	ReadText(ctx context.Context, document []byte) (string, error)
}
