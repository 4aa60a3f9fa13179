package rag

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/54b3r/leetrag/internal/domain"
)

// memoryPoint is one stored vector with its payload.
type memoryPoint struct {
	id      string
	vector  []float32
	payload domain.Chunk
}

// MemoryStore is a VectorStore held in process memory. It scores by cosine
// similarity with a linear scan and is meant for tests and local runs
// without a Qdrant server. Contents are lost on exit.
type MemoryStore struct {
	mu            sync.RWMutex
	points        []memoryPoint
	snippetLength int
}

// NewMemoryStore returns an empty MemoryStore. snippetLength <= 0 selects
// DefaultSnippetLength.
func NewMemoryStore(snippetLength int) *MemoryStore {
	if snippetLength <= 0 {
		snippetLength = DefaultSnippetLength
	}
	return &MemoryStore{snippetLength: snippetLength}
}

// UpsertChunks stores one point per chunk under a fresh UUID.
func (m *MemoryStore) UpsertChunks(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("memory store: %w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, ch := range chunks {
		ch.Tags = slices.Clone(ch.Tags)
		ch.Text = truncateRunes(ch.Text, m.snippetLength)
		m.points = append(m.points, memoryPoint{
			id:      uuid.NewString(),
			vector:  slices.Clone(vectors[i]),
			payload: ch,
		})
	}
	return nil
}

// Search scores every matching point and returns the top limit hits. Ties
// keep insertion order.
func (m *MemoryStore) Search(_ context.Context, vector []float32, filter domain.SearchFilter, limit int) ([]domain.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := []domain.SearchResult{}
	for _, p := range m.points {
		if !matches(p.payload, filter) {
			continue
		}
		results = append(results, domain.SearchResult{
			ProblemID:  p.payload.ProblemID,
			Title:      p.payload.Title,
			Difficulty: p.payload.Difficulty,
			Tags:       slices.Clone(p.payload.Tags),
			Score:      cosine(vector, p.vector),
			Snippet:    p.payload.Text,
		})
	}
	slices.SortStableFunc(results, func(a, b domain.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if limit < 0 {
		limit = 0
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteProblem removes every point belonging to problemID.
func (m *MemoryStore) DeleteProblem(_ context.Context, problemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = slices.DeleteFunc(m.points, func(p memoryPoint) bool {
		return p.payload.ProblemID == problemID
	})
	return nil
}

// Count returns the number of stored points.
func (m *MemoryStore) Count(context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.points)), nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func matches(ch domain.Chunk, f domain.SearchFilter) bool {
	if f.Difficulty != "" && ch.Difficulty != f.Difficulty {
		return false
	}
	if f.ChunkType != "" && ch.Type != f.ChunkType {
		return false
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, func(t string) bool { return slices.Contains(ch.Tags, t) }) {
		return false
	}
	return true
}

// cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or the dimensions differ.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
