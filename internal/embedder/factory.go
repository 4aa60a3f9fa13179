package embedder

import (
	"fmt"
	"strings"
	"time"
)

// Default embedding models per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"

	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	defaultOllamaDimensions = 768
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536

	defaultOllamaHost      = "http://localhost:11434"
	defaultAzureAPIVersion = "2025-04-01-preview"
)

// Config selects and configures an embedding backend. It is filled from
// config.Settings by the CLI wiring and never read from the environment here.
type Config struct {
	// Provider is the backend name: "openai", "azure" or "ollama".
	Provider string
	// Model is the embedding model (or Azure deployment) name. Empty selects
	// the backend default.
	Model string
	// Dimensions is the vector length. 0 selects the backend default.
	Dimensions int
	// APIKey authenticates against OpenAI or Azure.
	APIKey string
	// Endpoint overrides the base URL (OpenAI), resource endpoint (Azure) or
	// server host (Ollama).
	Endpoint string
	// APIVersion is the Azure OpenAI API version.
	APIVersion string
	// Timeout bounds each provider request.
	Timeout time.Duration
}

// DefaultDimensions returns the default embedding vector size for the given
// backend name. Callers that need to pre-configure a vector store (e.g.
// Qdrant collection creation) should use this rather than hardcoding a value.
func DefaultDimensions(provider string) int {
	switch provider {
	case "ollama":
		return defaultOllamaDimensions
	default:
		return defaultOpenAIDimensions
	}
}

// Dims returns the configured dimension or the backend default.
func (c Config) Dims() int {
	if c.Dimensions > 0 {
		return c.Dimensions
	}
	return DefaultDimensions(c.Provider)
}

// New constructs the Provider described by cfg.
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "ollama":
		host := cfg.Endpoint
		if host == "" {
			host = defaultOllamaHost
		}
		return NewOllamaEmbedder(&OllamaConfig{
			Host:    strings.TrimRight(host, "/"),
			Model:   orDefault(cfg.Model, defaultOllamaModel),
			Timeout: cfg.Timeout,
		}), nil

	case "openai", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    cfg.Endpoint,
			APIKey:     cfg.APIKey,
			Model:      orDefault(cfg.Model, defaultOpenAIModel),
			Dimensions: cfg.Dims(),
			Timeout:    cfg.Timeout,
		}), nil

	case "azure":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    strings.TrimRight(cfg.Endpoint, "/"),
			APIKey:     cfg.APIKey,
			Model:      orDefault(cfg.Model, defaultOpenAIModel),
			Dimensions: cfg.Dims(),
			Azure:      true,
			APIVersion: orDefault(cfg.APIVersion, defaultAzureAPIVersion),
			Timeout:    cfg.Timeout,
		}), nil

	default:
		return nil, fmt.Errorf("embedder: unknown provider %q (valid values: openai, azure, ollama)", cfg.Provider)
	}
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
