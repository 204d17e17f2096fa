package claude

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
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	providerName = "claude"
)

func init() {
	extractor.RegisterProvider(providerName, func(cfg *config.ProviderConfig) (port.TextExtractor, error) {
		return NewExtractor(cfg), nil
	})
}

// Extractor implements port.TextExtractor using the Anthropic Messages API.
type Extractor struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewExtractor creates a Claude-based text extractor from a provider config.
func NewExtractor(cfg *config.ProviderConfig) *Extractor {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	return newExtractor(cfg, endpoint)
}

// NewExtractorWithEndpoint creates an extractor pointing at a custom API endpoint (for testing).
func NewExtractorWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Extractor {
	return newExtractor(cfg, endpoint)
}

func newExtractor(cfg *config.ProviderConfig, endpoint string) *Extractor {
	model := cfg.DefaultModel
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Extractor{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (string, error) {
	contentBlocks, err := buildContentBlocks(input)
	if err != nil {
		return "", fmt.Errorf("building content blocks: %w", err)
	}

	reqBody := map[string]interface{}{
		"model":      e.model,
		"max_tokens": 16384,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": contentBlocks,
			},
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
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling anthropic API: %w", err)
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

func buildContentBlocks(input port.ExtractInput) ([]map[string]interface{}, error) {
	var blocks []map[string]interface{}

	if len(input.Document) > 0 {
		encoded := base64.StdEncoding.EncodeToString(input.Document)
		switch input.MimeType {
		case "application/pdf":
			blocks = append(blocks, map[string]interface{}{
				"type": "document",
				"source": map[string]interface{}{
					"type":       "base64",
					"media_type": "application/pdf",
					"data":       encoded,
				},
			})
		case "image/jpeg", "image/png":
			blocks = append(blocks, map[string]interface{}{
				"type": "image",
				"source": map[string]interface{}{
					"type":       "base64",
					"media_type": input.MimeType,
					"data":       encoded,
				},
			})
		default:
			return nil, fmt.Errorf("unsupported content type for extraction: %s", input.MimeType)
		}
	}

	blocks = append(blocks, map[string]interface{}{
		"type": "text",
		"text": input.Prompt,
	})

	return blocks, nil
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if resp.StopReason == "max_tokens" {
		return "", fmt.Errorf("output truncated (stop_reason: max_tokens): response exceeded output token limit")
	}

	var b strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	return b.String(), nil
}
