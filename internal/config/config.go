// Package config provides layered configuration for leetrag.
// Values are resolved with the precedence: defaults → YAML file → .env files
// → process environment. The environment always wins, so a deployment can
// override any key without editing files.
//
// YAML file search order:
//  1. --config CLI flag (explicit path)
//  2. LEETRAG_CONFIG environment variable
//  3. ~/.leetrag/config.yaml
//  4. ./leetrag.yaml
//
// Every YAML value is applied as its environment variable; [FromEnv] then
// reads the environment once into typed [Settings].
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// dotEnvFiles are read in order; the first file to set a key wins.
var dotEnvFiles = []string{".env", "../.env"}

// File is the YAML configuration structure. Field names mirror the env var
// naming (lowercase, underscored).
type File struct {
	// Embedding configures the embedding provider.
	Embedding EmbeddingFile `yaml:"embedding"`
	// Store configures the relational store.
	Store StoreFile `yaml:"store"`
	// Vector configures the vector store.
	Vector VectorFile `yaml:"vector"`
	// Chunking configures the text splitter.
	Chunking ChunkingFile `yaml:"chunking"`
	// Query configures default result sizes.
	Query QueryFile `yaml:"query"`
	// Source configures the upstream problem source.
	Source SourceFile `yaml:"source"`
	// Server configures the HTTP server.
	Server ServerFile `yaml:"server"`
	// Logging configures structured logging.
	Logging LoggingFile `yaml:"logging"`
}

// EmbeddingFile holds embedding provider settings.
type EmbeddingFile struct {
	// Provider selects the backend: openai, azure, ollama.
	Provider string `yaml:"provider"`
	// Model is the embedding model or Azure deployment name.
	Model string `yaml:"model"`
	// Dimensions overrides the embedding vector size.
	Dimensions int `yaml:"dimensions"`
	// APIKey is the embedding API key. Prefer env var EMBEDDING_API_KEY.
	APIKey string `yaml:"api_key"`
	// Endpoint overrides the provider endpoint.
	Endpoint string `yaml:"endpoint"`
	// APIVersion is the Azure OpenAI API version.
	APIVersion string `yaml:"api_version"`
	// OllamaHost is the Ollama server address.
	OllamaHost string `yaml:"ollama_host"`
	// BatchSize is the number of texts per provider call.
	BatchSize int `yaml:"batch_size"`
	// Timeout is a Go duration string bounding each provider call.
	Timeout string `yaml:"timeout"`
}

// StoreFile holds relational store settings.
type StoreFile struct {
	// Driver is sqlite or postgres.
	Driver string `yaml:"driver"`
	// PostgresURL is the PostgreSQL connection string.
	PostgresURL string `yaml:"postgres_url"`
	// SQLitePath is the SQLite database file.
	SQLitePath string `yaml:"sqlite_path"`
}

// VectorFile holds vector store settings.
type VectorFile struct {
	// Backend is qdrant or memory.
	Backend string `yaml:"backend"`
	// SnippetLength bounds payload text in runes.
	SnippetLength int `yaml:"snippet_length"`
	// ReplaceOnReindex deletes a problem's old points before re-inserting.
	// A pointer so an explicit false survives.
	ReplaceOnReindex *bool `yaml:"replace_on_reindex"`
	// Qdrant holds the Qdrant connection.
	Qdrant QdrantFile `yaml:"qdrant"`
}

// QdrantFile holds Qdrant connection settings.
type QdrantFile struct {
	// Host is the Qdrant server hostname.
	Host string `yaml:"host"`
	// Port is the Qdrant gRPC port.
	Port int `yaml:"port"`
	// Collection is the Qdrant collection name.
	Collection string `yaml:"collection"`
	// APIKey is the Qdrant API key. Prefer env var QDRANT_API_KEY.
	APIKey string `yaml:"api_key"`
	// TLS enables TLS for the Qdrant connection.
	TLS bool `yaml:"tls"`
}

// ChunkingFile holds chunker settings.
type ChunkingFile struct {
	// Size is the window length in characters.
	Size int `yaml:"size"`
	// Overlap is the number of characters shared by adjacent windows.
	Overlap int `yaml:"overlap"`
}

// QueryFile holds default result sizes.
type QueryFile struct {
	// SearchDefaultLimit applies when a search omits limit.
	SearchDefaultLimit int `yaml:"search_default_limit"`
	// ListDefaultLimit applies when a listing omits limit.
	ListDefaultLimit int `yaml:"list_default_limit"`
}

// SourceFile holds problem source settings.
type SourceFile struct {
	// Kind is parser or leetcode.
	Kind string `yaml:"kind"`
	// ParserBaseURL is the parser service root.
	ParserBaseURL string `yaml:"parser_base_url"`
	// LeetCodeURL is the GraphQL endpoint.
	LeetCodeURL string `yaml:"leetcode_graphql_url"`
}

// ServerFile holds HTTP server settings.
type ServerFile struct {
	// Host is the bind address.
	Host string `yaml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port"`
	// RequestTimeout is a Go duration string bounding each API request.
	RequestTimeout string `yaml:"request_timeout"`
	// RateLimit is the load endpoint's per-IP rate in requests/second.
	RateLimit float64 `yaml:"rate_limit"`
	// RateBurst is the load endpoint's per-IP burst.
	RateBurst int `yaml:"rate_burst"`
}

// LoggingFile holds structured logging settings.
type LoggingFile struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// envMapping maps YAML fields to their env var names. Only non-empty YAML
// values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*File) string
}{
	{"EMBEDDING_PROVIDER", func(c *File) string { return c.Embedding.Provider }},
	{"EMBEDDING_MODEL", func(c *File) string { return c.Embedding.Model }},
	{"EMBEDDING_DIMENSIONS", func(c *File) string { return intStr(c.Embedding.Dimensions) }},
	{"EMBEDDING_API_KEY", func(c *File) string { return c.Embedding.APIKey }},
	{"EMBEDDING_ENDPOINT", func(c *File) string { return c.Embedding.Endpoint }},
	{"AZURE_OPENAI_API_VERSION", func(c *File) string { return c.Embedding.APIVersion }},
	{"OLLAMA_HOST", func(c *File) string { return c.Embedding.OllamaHost }},
	{"EMBEDDING_BATCH_SIZE", func(c *File) string { return intStr(c.Embedding.BatchSize) }},
	{"EMBEDDING_TIMEOUT", func(c *File) string { return c.Embedding.Timeout }},
	{"STORE_DRIVER", func(c *File) string { return c.Store.Driver }},
	{"POSTGRES_URL", func(c *File) string { return c.Store.PostgresURL }},
	{"SQLITE_PATH", func(c *File) string { return c.Store.SQLitePath }},
	{"VECTOR_BACKEND", func(c *File) string { return c.Vector.Backend }},
	{"SNIPPET_LENGTH", func(c *File) string { return intStr(c.Vector.SnippetLength) }},
	{"QDRANT_REPLACE_ON_REINDEX", func(c *File) string { return boolPtrStr(c.Vector.ReplaceOnReindex) }},
	{"QDRANT_HOST", func(c *File) string { return c.Vector.Qdrant.Host }},
	{"QDRANT_PORT", func(c *File) string { return intStr(c.Vector.Qdrant.Port) }},
	{"QDRANT_COLLECTION", func(c *File) string { return c.Vector.Qdrant.Collection }},
	{"QDRANT_API_KEY", func(c *File) string { return c.Vector.Qdrant.APIKey }},
	{"QDRANT_TLS", func(c *File) string { return boolStr(c.Vector.Qdrant.TLS) }},
	{"CHUNK_SIZE", func(c *File) string { return intStr(c.Chunking.Size) }},
	{"CHUNK_OVERLAP", func(c *File) string { return intStr(c.Chunking.Overlap) }},
	{"SEARCH_DEFAULT_LIMIT", func(c *File) string { return intStr(c.Query.SearchDefaultLimit) }},
	{"LIST_DEFAULT_LIMIT", func(c *File) string { return intStr(c.Query.ListDefaultLimit) }},
	{"SOURCE_KIND", func(c *File) string { return c.Source.Kind }},
	{"PARSER_BASE_URL", func(c *File) string { return c.Source.ParserBaseURL }},
	{"LEETCODE_GRAPHQL_URL", func(c *File) string { return c.Source.LeetCodeURL }},
	{"LEETRAG_HOST", func(c *File) string { return c.Server.Host }},
	{"LEETRAG_PORT", func(c *File) string { return intStr(c.Server.Port) }},
	{"REQUEST_TIMEOUT", func(c *File) string { return c.Server.RequestTimeout }},
	{"RATE_LIMIT", func(c *File) string { return floatStr(c.Server.RateLimit) }},
	{"RATE_BURST", func(c *File) string { return intStr(c.Server.RateBurst) }},
	{"LOG_LEVEL", func(c *File) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *File) string { return c.Logging.Format }},
}

// Load reads the .env files and the YAML config file and applies their values
// as environment variables. Existing env vars are never overwritten, and
// .env values take precedence over YAML. Returns the YAML path that was
// loaded, or the empty string if no file was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	if err := loadDotEnv(log); err != nil {
		return "", err
	}

	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" {
			continue
		}
		if _, set := os.LookupEnv(m.envKey); set {
			continue
		}
		if err := os.Setenv(m.envKey, yamlVal); err != nil {
			return "", fmt.Errorf("config: set %s: %w", m.envKey, err)
		}
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// loadDotEnv applies every existing .env file without overriding the
// process environment.
func loadDotEnv(log *slog.Logger) error {
	for _, f := range dotEnvFiles {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: failed to read %s: %w", f, err)
		}
		log.Debug("config: loaded dotenv file", slog.String("path", f))
	}
	return nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("LEETRAG_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".leetrag", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("leetrag.yaml"); err == nil {
		return "leetrag.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// floatStr converts a float64 to string, returning "" for zero values.
func floatStr(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// boolStr converts a bool to string, returning "" for false.
func boolStr(v bool) string {
	if !v {
		return ""
	}
	return "true"
}

// boolPtrStr renders an optional bool, returning "" when unset.
func boolPtrStr(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
