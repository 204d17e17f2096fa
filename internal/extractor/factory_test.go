package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/config"
	"finsync/internal/domain"
	"finsync/internal/extractor"
	"finsync/internal/port"
	"finsync/mocks"
)

func registerTestProvider(name string) {
	extractor.RegisterProvider(name, func(cfg *config.ProviderConfig) (port.TextExtractor, error) {
		return new(mocks.MockTextExtractor), nil
	})
}

func TestNewExtractor_RegisteredProvider(t *testing.T) {
	registerTestProvider("test-provider")

	ex, err := extractor.NewExtractor(&config.ProviderConfig{Provider: "test-provider", APIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, ex)
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	_, err := extractor.NewExtractor(&config.ProviderConfig{Provider: "nope", APIKey: "k"})
	assert.ErrorContains(t, err, "unknown extractor provider")
}

func TestNewExtractor_MissingCredentialFailsFast(t *testing.T) {
	registerTestProvider("test-provider")

	_, err := extractor.NewExtractor(&config.ProviderConfig{Provider: "test-provider"})
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestNewFromConfig(t *testing.T) {
	registerTestProvider("test-a")
	registerTestProvider("test-b")

	single, err := extractor.NewFromConfig(&config.ExtractorConfig{
		Primary: config.ProviderConfig{Provider: "test-a", APIKey: "k"},
	})
	require.NoError(t, err)
	assert.IsType(t, &mocks.MockTextExtractor{}, single)

	chain, err := extractor.NewFromConfig(&config.ExtractorConfig{
		Primary:   config.ProviderConfig{Provider: "test-a", APIKey: "k"},
		Secondary: config.ProviderConfig{Provider: "test-b", APIKey: "k"},
	})
	require.NoError(t, err)
	assert.IsType(t, &extractor.FallbackExtractor{}, chain)

	_, err = extractor.NewFromConfig(&config.ExtractorConfig{
		Primary: config.ProviderConfig{Provider: "test-a"},
	})
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}
