package extractor

import (
	"fmt"
	"strings"
	"sync"

	"finsync/internal/config"
	"finsync/internal/domain"
	"finsync/internal/port"
)

// ProviderFactory creates a TextExtractor from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.TextExtractor, error)

// registry of provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var (
	mu        sync.RWMutex
	providers = map[string]ProviderFactory{}
)

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// NewExtractor creates a TextExtractor from a provider config using the
// registered factory. A missing API key fails here, at construction.
func NewExtractor(cfg *config.ProviderConfig) (port.TextExtractor, error) {
	mu.RLock()
	factory, ok := providers[cfg.Provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown extractor provider: %s", cfg.Provider)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, domain.ErrMissingCredential)
	}
	return factory(cfg)
}

// NewFromConfig builds the configured provider chain. A single provider is
// returned as-is; several are wrapped in a FallbackExtractor in order.
func NewFromConfig(cfg *config.ExtractorConfig) (port.TextExtractor, error) {
	chain := []*config.ProviderConfig{cfg.PrimaryConfig()}
	if sc := cfg.SecondaryConfig(); sc != nil {
		chain = append(chain, sc)
	}
	if tc := cfg.TertiaryConfig(); tc != nil {
		chain = append(chain, tc)
	}

	extractors := make([]port.TextExtractor, 0, len(chain))
	names := make([]string, 0, len(chain))
	for i, pc := range chain {
		ex, err := NewExtractor(pc)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("primary extractor: %w", err)
			}
			return nil, fmt.Errorf("fallback extractor %d: %w", i, err)
		}
		extractors = append(extractors, ex)
		names = append(names, pc.Provider)
	}

	if len(extractors) == 1 {
		return extractors[0], nil
	}
	return NewFallbackExtractor(extractors, names), nil
}
