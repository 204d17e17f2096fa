package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/config"
	"finsync/internal/extractor"
	"finsync/internal/extractor/openai"
	"finsync/internal/port"
)

func newTestExtractor(serverURL string) *openai.Extractor {
	return openai.NewExtractorWithEndpoint(&config.ProviderConfig{
		Provider: "openai",
		APIKey:   "test-openai-key",
	}, serverURL)
}

func TestOpenAIExtractor_PDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-openai-key", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o", reqBody["model"])
		blocks := reqBody["messages"].([]interface{})[0].(map[string]interface{})["content"].([]interface{})
		require.Len(t, blocks, 2)
		assert.Equal(t, "file", blocks[0].(map[string]interface{})["type"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Valid"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	out, err := newTestExtractor(server.URL).Extract(context.Background(), port.ExtractInput{
		Prompt: extractor.OCRPrompt, Document: []byte("%PDF"), MimeType: "application/pdf",
	})

	require.NoError(t, err)
	assert.Equal(t, "Valid", out)
}

func TestOpenAIExtractor_LengthFinish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[{"},"finish_reason":"length"}]}`))
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), port.ExtractInput{Prompt: "x"})
	assert.ErrorContains(t, err, "truncated")
}

func TestOpenAIExtractor_BadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad"}}`))
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), port.ExtractInput{Prompt: "x"})

	var stErr *extractor.StatusError
	require.ErrorAs(t, err, &stErr)
	assert.Equal(t, http.StatusBadRequest, stErr.StatusCode)
	assert.False(t, stErr.Temporary())
}
