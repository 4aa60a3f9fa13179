// Package rag stores chunk embeddings and answers filtered nearest-neighbour
// queries over them. Concrete implementations (Qdrant, in-memory) satisfy
// VectorStore so the indexing and query layers never depend on a backend.
package rag

import (
	"context"
	"unicode/utf8"

	"github.com/54b3r/leetrag/internal/domain"
)

// DefaultSnippetLength is the number of characters of chunk text kept in a
// point payload and returned as a search snippet.
const DefaultSnippetLength = 500

// Payload keys shared by every backend.
const (
	keyProblemID  = "problem_id"
	keyTitle      = "title"
	keyDifficulty = "difficulty"
	keyTags       = "tags"
	keyChunkType  = "chunk_type"
	keyText       = "text"
)

// VectorStore is the interface for persisting and searching chunk embeddings.
// Implementations must be safe to call from multiple goroutines and wrap
// backend failures as domain.ErrUpstreamUnavailable.
type VectorStore interface {
	// UpsertChunks stores one point per (chunk, vector) pair under a fresh id.
	// The vectors slice must be parallel to chunks; a length mismatch is
	// domain.ErrInvalidInput and nothing is written.
	UpsertChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// Search returns up to limit hits matching every set field of filter,
	// ordered by descending score.
	Search(ctx context.Context, vector []float32, filter domain.SearchFilter, limit int) ([]domain.SearchResult, error)

	// DeleteProblem removes every point belonging to problemID.
	DeleteProblem(ctx context.Context, problemID int64) error

	// Count returns the number of stored points.
	Count(ctx context.Context) (uint64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// truncateRunes returns at most n runes of s. n <= 0 disables truncation.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
