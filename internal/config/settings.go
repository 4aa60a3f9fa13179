package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is the typed, validated configuration read once per process by
// [FromEnv]. Components receive the section they need; nothing below the
// CLI reads the environment.
type Settings struct {
	Embedding EmbeddingSettings
	Store     StoreSettings
	Vector    VectorSettings
	Chunk     ChunkSettings
	Query     QuerySettings
	Source    SourceSettings
	Server    ServerSettings
	Log       LogSettings
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	// Provider is openai, azure or ollama (default openai).
	Provider string
	// Model is the embedding model. Empty selects the provider default.
	Model string
	// Dimensions is the vector size. 0 selects the provider default.
	Dimensions int
	// APIKey is EMBEDDING_API_KEY, falling back to the provider's own key.
	APIKey string
	// Endpoint is EMBEDDING_ENDPOINT, falling back to AZURE_OPENAI_ENDPOINT
	// for azure and OLLAMA_HOST for ollama.
	Endpoint string
	// APIVersion is the Azure OpenAI API version.
	APIVersion string
	// BatchSize is the number of texts per provider call (default 100).
	BatchSize int
	// Timeout bounds each provider call (default 60s).
	Timeout time.Duration
}

// StoreSettings configures the relational store.
type StoreSettings struct {
	// Driver is sqlite (default) or postgres.
	Driver string
	// PostgresURL is required when Driver is postgres.
	PostgresURL string
	// SQLitePath is the database file. Empty selects ~/.leetrag/problems.db.
	SQLitePath string
}

// VectorSettings configures the vector store.
type VectorSettings struct {
	// Backend is qdrant (default) or memory.
	Backend string
	// Host is the Qdrant host (default localhost).
	Host string
	// Port is the Qdrant gRPC port (default 6334).
	Port int
	// Collection is the Qdrant collection (default leetcode).
	Collection string
	// APIKey authenticates against Qdrant Cloud.
	APIKey string
	// TLS enables TLS for the gRPC connection.
	TLS bool
	// ReplaceOnReindex deletes a problem's old points before re-inserting
	// (default true).
	ReplaceOnReindex bool
	// SnippetLength bounds payload text in runes (default 500).
	SnippetLength int
}

// ChunkSettings configures the text splitter.
type ChunkSettings struct {
	// Size is the window length (default 2000).
	Size int
	// Overlap is shared between adjacent windows (default 200).
	Overlap int
}

// QuerySettings configures default result sizes.
type QuerySettings struct {
	// SearchDefaultLimit applies when a search omits limit (default 10).
	SearchDefaultLimit int
	// ListDefaultLimit applies when a listing omits limit (default 50).
	ListDefaultLimit int
}

// SourceSettings configures the problem source.
type SourceSettings struct {
	// Kind is parser (default) or leetcode.
	Kind string
	// ParserBaseURL is the parser service root (default http://localhost:8001).
	ParserBaseURL string
	// LeetCodeURL is the GraphQL endpoint (default https://leetcode.com/graphql).
	LeetCodeURL string
}

// ServerSettings configures the HTTP server.
type ServerSettings struct {
	// Host is the bind address (default 127.0.0.1).
	Host string
	// Port is the TCP port (default 8000).
	Port int
	// RequestTimeout bounds each API request (default 2m).
	RequestTimeout time.Duration
	// RateLimit is the load endpoint's per-IP rate (default 1/s).
	RateLimit float64
	// RateBurst is the load endpoint's per-IP burst (default 5).
	RateBurst int
}

// LogSettings configures structured logging.
type LogSettings struct {
	// Level is debug, info, warn or error (default info).
	Level string
	// Format is json (default) or text.
	Format string
}

// FromEnv reads every key from the environment, applies defaults and
// validates the result. All problems are reported together.
func FromEnv() (Settings, error) {
	r := &envReader{}

	provider := strings.ToLower(r.str("EMBEDDING_PROVIDER", "openai"))
	s := Settings{
		Embedding: EmbeddingSettings{
			Provider:   provider,
			Model:      r.str("EMBEDDING_MODEL", ""),
			Dimensions: r.integer("EMBEDDING_DIMENSIONS", 0),
			APIKey:     r.str("EMBEDDING_API_KEY", providerKey(provider)),
			Endpoint:   r.str("EMBEDDING_ENDPOINT", providerEndpoint(provider)),
			APIVersion: r.str("AZURE_OPENAI_API_VERSION", ""),
			BatchSize:  r.integer("EMBEDDING_BATCH_SIZE", 100),
			Timeout:    r.duration("EMBEDDING_TIMEOUT", 60*time.Second),
		},
		Store: StoreSettings{
			Driver:      strings.ToLower(r.str("STORE_DRIVER", "sqlite")),
			PostgresURL: r.str("POSTGRES_URL", ""),
			SQLitePath:  r.str("SQLITE_PATH", ""),
		},
		Vector: VectorSettings{
			Backend:          strings.ToLower(r.str("VECTOR_BACKEND", "qdrant")),
			Host:             r.str("QDRANT_HOST", "localhost"),
			Port:             r.integer("QDRANT_PORT", 6334),
			Collection:       r.str("QDRANT_COLLECTION", "leetcode"),
			APIKey:           r.str("QDRANT_API_KEY", ""),
			TLS:              r.boolean("QDRANT_TLS", false),
			ReplaceOnReindex: r.boolean("QDRANT_REPLACE_ON_REINDEX", true),
			SnippetLength:    r.integer("SNIPPET_LENGTH", 500),
		},
		Chunk: ChunkSettings{
			Size:    r.integer("CHUNK_SIZE", 2000),
			Overlap: r.integer("CHUNK_OVERLAP", 200),
		},
		Query: QuerySettings{
			SearchDefaultLimit: r.integer("SEARCH_DEFAULT_LIMIT", 10),
			ListDefaultLimit:   r.integer("LIST_DEFAULT_LIMIT", 50),
		},
		Source: SourceSettings{
			Kind:          strings.ToLower(r.str("SOURCE_KIND", "parser")),
			ParserBaseURL: r.str("PARSER_BASE_URL", "http://localhost:8001"),
			LeetCodeURL:   r.str("LEETCODE_GRAPHQL_URL", "https://leetcode.com/graphql"),
		},
		Server: ServerSettings{
			Host:           r.str("LEETRAG_HOST", "127.0.0.1"),
			Port:           r.integer("LEETRAG_PORT", 8000),
			RequestTimeout: r.duration("REQUEST_TIMEOUT", 2*time.Minute),
			RateLimit:      r.number("RATE_LIMIT", 1),
			RateBurst:      r.integer("RATE_BURST", 5),
		},
		Log: LogSettings{
			Level:  strings.ToLower(r.str("LOG_LEVEL", "info")),
			Format: strings.ToLower(r.str("LOG_FORMAT", "json")),
		},
	}

	s.validate(r)
	if len(r.errs) > 0 {
		return Settings{}, fmt.Errorf("config: invalid settings: %w", errors.Join(r.errs...))
	}
	return s, nil
}

// validate appends every semantic problem to r.errs.
func (s Settings) validate(r *envReader) {
	if s.Chunk.Size <= 0 {
		r.fail("CHUNK_SIZE must be positive, got %d", s.Chunk.Size)
	}
	if s.Chunk.Overlap < 0 || s.Chunk.Overlap >= s.Chunk.Size {
		r.fail("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", s.Chunk.Overlap)
	}
	if s.Embedding.BatchSize <= 0 {
		r.fail("EMBEDDING_BATCH_SIZE must be positive, got %d", s.Embedding.BatchSize)
	}
	if s.Embedding.Dimensions < 0 {
		r.fail("EMBEDDING_DIMENSIONS must not be negative, got %d", s.Embedding.Dimensions)
	}
	if s.Vector.SnippetLength <= 0 {
		r.fail("SNIPPET_LENGTH must be positive, got %d", s.Vector.SnippetLength)
	}
	oneOf(r, "EMBEDDING_PROVIDER", s.Embedding.Provider, "openai", "azure", "ollama")
	oneOf(r, "STORE_DRIVER", s.Store.Driver, "sqlite", "postgres")
	oneOf(r, "VECTOR_BACKEND", s.Vector.Backend, "qdrant", "memory")
	oneOf(r, "SOURCE_KIND", s.Source.Kind, "parser", "leetcode")
	oneOf(r, "LOG_LEVEL", s.Log.Level, "debug", "info", "warn", "warning", "error")
	oneOf(r, "LOG_FORMAT", s.Log.Format, "json", "text")
	if s.Store.Driver == "postgres" && s.Store.PostgresURL == "" {
		r.fail("POSTGRES_URL is required when STORE_DRIVER=postgres")
	}
	if s.Server.RateLimit <= 0 || s.Server.RateBurst <= 0 {
		r.fail("RATE_LIMIT and RATE_BURST must be positive")
	}
	if s.Server.RequestTimeout <= 0 {
		r.fail("REQUEST_TIMEOUT must be positive")
	}
}

// providerKey returns the provider-specific API key used when
// EMBEDDING_API_KEY is unset.
func providerKey(provider string) string {
	switch provider {
	case "azure":
		return os.Getenv("AZURE_OPENAI_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

// providerEndpoint returns the provider-specific endpoint used when
// EMBEDDING_ENDPOINT is unset.
func providerEndpoint(provider string) string {
	switch provider {
	case "azure":
		return os.Getenv("AZURE_OPENAI_ENDPOINT")
	case "ollama":
		return os.Getenv("OLLAMA_HOST")
	default:
		return ""
	}
}

func oneOf(r *envReader, key, value string, valid ...string) {
	for _, v := range valid {
		if value == v {
			return
		}
	}
	r.fail("%s=%q is not one of %s", key, value, strings.Join(valid, ", "))
}

// envReader parses env vars and collects every parse failure.
type envReader struct {
	errs []error
}

func (r *envReader) fail(format string, args ...any) {
	r.errs = append(r.errs, fmt.Errorf(format, args...))
}

func (r *envReader) str(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (r *envReader) integer(key string, fallback int) int {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail("%s: %q is not an integer", key, v)
		return fallback
	}
	return n
}

func (r *envReader) number(key string, fallback float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail("%s: %q is not a number", key, v)
		return fallback
	}
	return f
}

func (r *envReader) boolean(key string, fallback bool) bool {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail("%s: %q is not a boolean", key, v)
		return fallback
	}
	return b
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail("%s: %q is not a duration (e.g. 30s, 2m)", key, v)
		return fallback
	}
	return d
}
