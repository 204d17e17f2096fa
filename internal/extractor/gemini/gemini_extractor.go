package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finsync/internal/config"
	"finsync/internal/extractor"
	"finsync/internal/port"
)

const (
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	providerName = "gemini"
)

func init() {
	extractor.RegisterProvider(providerName, func(cfg *config.ProviderConfig) (port.TextExtractor, error) {
		return NewExtractor(cfg), nil
	})
}

// Extractor implements port.TextExtractor using Google's Gemini API.
type Extractor struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewExtractor creates a Gemini-based text extractor.
func NewExtractor(cfg *config.ProviderConfig) *Extractor {
	return newExtractor(cfg, cfg.Endpoint)
}

// NewExtractorWithEndpoint creates an extractor pointing at a custom API endpoint (for testing).
func NewExtractorWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Extractor {
	return newExtractor(cfg, endpoint)
}

func newExtractor(cfg *config.ProviderConfig, endpoint string) *Extractor {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Extractor{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (string, error) {
	var parts []map[string]interface{}
	if len(input.Document) > 0 {
		mimeType, err := toGeminiMimeType(input.MimeType)
		if err != nil {
			return "", err
		}
		parts = append(parts, map[string]interface{}{
			"inline_data": map[string]interface{}{
				"mime_type": mimeType,
				"data":      base64.StdEncoding.EncodeToString(input.Document),
			},
		})
	}
	parts = append(parts, map[string]interface{}{"text": input.Prompt})

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": parts,
			},
		},
		"generationConfig": map[string]interface{}{
			"maxOutputTokens": 16384,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := &extractor.StatusError{Provider: providerName, StatusCode: resp.StatusCode, Body: extractor.Truncate(string(respBody), 500)}
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := extractor.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", extractor.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return "", baseErr
	}

	return parseResponse(respBody)
}

func toGeminiMimeType(contentType string) (string, error) {
	switch contentType {
	case "application/pdf", "image/jpeg", "image/png":
		return contentType, nil
	default:
		return "", fmt.Errorf("unsupported content type for extraction: %s", contentType)
	}
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// parseResponse joins the text parts of the first candidate. No candidates
// is an empty reply, not an error.
func parseResponse(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
