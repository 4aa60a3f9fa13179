package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/54b3r/leetrag/internal/domain"
)

// ollamaComponent names the Ollama backend in upstream errors.
const ollamaComponent = "ollama"

// maxOllamaErrorBody caps how much of a failed response is read for the
// error message.
const maxOllamaErrorBody = 4 << 10

// OllamaEmbedder calls a local or remote Ollama server. No API key is
// needed. Safe for concurrent use.
type OllamaEmbedder struct {
	endpoint string
	model    string
	client   *http.Client
}

// OllamaConfig configures [NewOllamaEmbedder].
type OllamaConfig struct {
	// Host is the server root, e.g. http://localhost:11434.
	Host string
	// Model is the embedding model, e.g. nomic-embed-text.
	Model string
	// Timeout bounds each call. Zero means 60s.
	Timeout time.Duration
}

// NewOllamaEmbedder returns an embedder posting to {Host}/api/embed.
func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaEmbedder{
		endpoint: strings.TrimRight(cfg.Host, "/") + "/api/embed",
		model:    cfg.Model,
		client:   &http.Client{Timeout: timeout},
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Embed sends texts as one /api/embed call. Every failure, including a
// vector count that does not match the input, is an upstream error.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.Unavailable(ollamaComponent, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, domain.Unavailable(ollamaComponent, statusError(resp))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.Unavailable(ollamaComponent, fmt.Errorf("decode response: %w", err))
	}
	if out.Error != "" {
		return nil, domain.Unavailable(ollamaComponent, errors.New(out.Error))
	}
	if len(out.Embeddings) != len(texts) {
		return nil, domain.Unavailable(ollamaComponent,
			fmt.Errorf("got %d embeddings for %d texts", len(out.Embeddings), len(texts)))
	}
	return out.Embeddings, nil
}

// statusError builds an error from a non-2xx response, preferring the
// server's own "error" field over the bare status.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxOllamaErrorBody))
	var body ollamaEmbedResponse
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("HTTP %d", resp.StatusCode)
}
