// Package embedder turns text into dense vectors. A Provider talks to one
// embedding backend (OpenAI, Azure OpenAI, Ollama); Client sits in front of a
// Provider and splits large inputs into provider-sized batches.
package embedder

import (
	"context"
	"errors"
	"fmt"

	"github.com/54b3r/leetrag/internal/domain"
)

// DefaultBatchSize is the number of texts sent per provider request.
const DefaultBatchSize = 100

// Provider converts one batch of texts into embeddings.
// Implementations must be safe to call from multiple goroutines.
type Provider interface {
	// Embed returns one vector per input text, parallel to texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Client batches calls to a Provider. It is length- and order-preserving:
// the i-th returned vector always belongs to the i-th input text.
// It is safe for concurrent use.
type Client struct {
	// provider performs the per-batch embedding call.
	provider Provider
	// batchSize is the maximum number of texts per provider call.
	batchSize int
}

// NewClient constructs a Client. batchSize <= 0 selects DefaultBatchSize.
func NewClient(provider Provider, batchSize int) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedder: provider must not be nil")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Client{provider: provider, batchSize: batchSize}, nil
}

// Embed embeds texts in consecutive batches. The first failing batch aborts
// the whole call; no partial result is returned and nothing is retried.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		batch := texts[start:end]

		vectors, err := c.provider.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embedder: batch [%d:%d]: %w", start, end, asUnavailable(err))
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embedder: batch [%d:%d]: %w", start, end,
				domain.Unavailable("embedding", fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vectors))))
		}
		out = append(out, vectors...)
	}

	return out, nil
}

// asUnavailable tags provider errors that were not already classified.
func asUnavailable(err error) error {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return domain.Unavailable("embedding", err)
}
