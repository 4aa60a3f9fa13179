// Package query answers read requests: semantic search over chunk vectors
// and metadata listing and text lookup over the relational store.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/54b3r/leetrag/internal/domain"
	"github.com/54b3r/leetrag/internal/rag"
	"github.com/54b3r/leetrag/internal/store"
)

const (
	// DefaultSearchLimit is applied when a search asks for limit <= 0.
	DefaultSearchLimit = 10
	// MaxSearchLimit caps every search.
	MaxSearchLimit = 200
)

// Embedder converts texts into vectors, one per text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Service combines an Embedder, a VectorStore and a ProblemStore. It holds no
// mutable state and is safe for concurrent use.
type Service struct {
	// embedder converts query text to a vector.
	embedder Embedder

	// vectors performs the similarity search.
	vectors rag.VectorStore

	// problems serves listing and text lookup.
	problems store.ProblemStore

	// defaultLimit is the search limit used when the caller passes <= 0.
	defaultLimit int

	// listLimit is the listing limit used when the caller passes <= 0.
	// Zero defers to the store default.
	listLimit int
}

// NewService constructs a Service. defaultLimit <= 0 selects DefaultSearchLimit.
func NewService(embedder Embedder, vectors rag.VectorStore, problems store.ProblemStore, defaultLimit int) (*Service, error) {
	if embedder == nil {
		return nil, fmt.Errorf("query: embedder must not be nil")
	}
	if vectors == nil {
		return nil, fmt.Errorf("query: vector store must not be nil")
	}
	if problems == nil {
		return nil, fmt.Errorf("query: problem store must not be nil")
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultSearchLimit
	}
	return &Service{embedder: embedder, vectors: vectors, problems: problems, defaultLimit: min(defaultLimit, MaxSearchLimit)}, nil
}

// WithListLimit sets the listing limit applied when callers pass limit <= 0.
// The store cap still applies.
func (s *Service) WithListLimit(n int) *Service {
	s.listLimit = max(n, 0)
	return s
}

// Search embeds text and returns the nearest chunks matching filter, best
// first. The filter is validated before any I/O.
func (s *Service) Search(ctx context.Context, text string, filter domain.SearchFilter, limit int) ([]domain.SearchResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	filter.Difficulty, _ = domain.ParseDifficulty(string(filter.Difficulty))
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query: %w: empty query text", domain.ErrInvalidInput)
	}

	switch {
	case limit <= 0:
		limit = s.defaultLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("query: embedding query failed: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("query: %w", domain.Unavailable("embedding", fmt.Errorf("expected 1 vector, got %d", len(vectors))))
	}

	results, err := s.vectors.Search(ctx, vectors[0], filter, limit)
	if err != nil {
		return nil, fmt.Errorf("query: vector search failed: %w", err)
	}
	return results, nil
}

// ListProblems returns problem metadata ascending by id. limit follows the
// store's default and cap.
func (s *Service) ListProblems(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.ProblemListItem, error) {
	d, err := domain.ParseDifficulty(string(filter.Difficulty))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	filter.Difficulty = d
	if limit <= 0 {
		limit = s.listLimit
	}

	items, err := s.problems.ListProblems(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("query: list problems: %w", err)
	}
	return items, nil
}

// ListSlugs returns every known slug ascending by problem id.
func (s *Service) ListSlugs(ctx context.Context) ([]string, error) {
	slugs, err := s.problems.ListSlugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("query: list slugs: %w", err)
	}
	return slugs, nil
}

// GetProblemText returns one text field of a problem. An unknown field is
// domain.ErrInvalidFilter; an unknown id is domain.ErrNotFound.
func (s *Service) GetProblemText(ctx context.Context, problemID int64, field domain.Field) (domain.ProblemText, error) {
	if !field.Valid() {
		return domain.ProblemText{}, fmt.Errorf("query: %w: unsupported text field %q", domain.ErrInvalidFilter, field)
	}
	txt, err := s.problems.GetText(ctx, problemID, field)
	if err != nil {
		return domain.ProblemText{}, fmt.Errorf("query: get text: %w", err)
	}
	return txt, nil
}
