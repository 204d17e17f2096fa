package extractor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsync/internal/extractor"
	"finsync/internal/port"
	"finsync/mocks"
)

var ocrInput = port.ExtractInput{Prompt: extractor.OCRPrompt, Document: []byte("pdf"), MimeType: "application/pdf"}

func TestFallbackExtractor_FirstSucceeds(t *testing.T) {
	e1 := new(mocks.MockTextExtractor)
	e2 := new(mocks.MockTextExtractor)
	e1.On("Extract", mock.Anything, ocrInput).Return("invoice text", nil)

	fe := extractor.NewFallbackExtractor([]port.TextExtractor{e1, e2}, []string{"gemini", "claude"})
	out, err := fe.Extract(context.Background(), ocrInput)

	require.NoError(t, err)
	assert.Equal(t, "invoice text", out)
	e2.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestFallbackExtractor_FirstFails_SecondSucceeds(t *testing.T) {
	e1 := new(mocks.MockTextExtractor)
	e2 := new(mocks.MockTextExtractor)
	e1.On("Extract", mock.Anything, ocrInput).Return("", errors.New("generic error"))
	e2.On("Extract", mock.Anything, ocrInput).Return("from claude", nil)

	fe := extractor.NewFallbackExtractor([]port.TextExtractor{e1, e2}, []string{"gemini", "claude"})
	out, err := fe.Extract(context.Background(), ocrInput)

	require.NoError(t, err)
	assert.Equal(t, "from claude", out)
}

func TestFallbackExtractor_RateLimitedSkippedOnNextCall(t *testing.T) {
	e1 := new(mocks.MockTextExtractor)
	e2 := new(mocks.MockTextExtractor)
	e1.On("Extract", mock.Anything, ocrInput).Return("", extractor.NewRateLimitError("gemini", errors.New("429"), 60)).Once()
	e2.On("Extract", mock.Anything, ocrInput).Return("ok", nil).Twice()

	fe := extractor.NewFallbackExtractor([]port.TextExtractor{e1, e2}, []string{"gemini", "claude"})

	_, err := fe.Extract(context.Background(), ocrInput)
	require.NoError(t, err)
	_, err = fe.Extract(context.Background(), ocrInput)
	require.NoError(t, err)

	e1.AssertNumberOfCalls(t, "Extract", 1)
	e2.AssertNumberOfCalls(t, "Extract", 2)
}

func TestFallbackExtractor_AllRateLimited(t *testing.T) {
	e1 := new(mocks.MockTextExtractor)
	e2 := new(mocks.MockTextExtractor)
	e1.On("Extract", mock.Anything, ocrInput).Return("", extractor.NewRateLimitError("gemini", errors.New("429"), 30))
	e2.On("Extract", mock.Anything, ocrInput).Return("", extractor.NewRateLimitError("claude", errors.New("429"), 60))

	fe := extractor.NewFallbackExtractor([]port.TextExtractor{e1, e2}, []string{"gemini", "claude"})
	_, err := fe.Extract(context.Background(), ocrInput)

	var rlErr *extractor.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "all", rlErr.Provider)
}

func TestFallbackExtractor_AllFail(t *testing.T) {
	e1 := new(mocks.MockTextExtractor)
	e2 := new(mocks.MockTextExtractor)
	e1.On("Extract", mock.Anything, ocrInput).Return("", errors.New("first"))
	e2.On("Extract", mock.Anything, ocrInput).Return("", errors.New("second"))

	fe := extractor.NewFallbackExtractor([]port.TextExtractor{e1, e2}, []string{"gemini", "claude"})
	_, err := fe.Extract(context.Background(), ocrInput)

	assert.ErrorContains(t, err, "all extractors failed")
	assert.ErrorContains(t, err, "second")
}
