package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/54b3r/leetrag/internal/domain"
)

// memmapThreshold is the segment size (KB) above which Qdrant keeps vectors
// on disk rather than in RAM.
const memmapThreshold uint64 = 1000

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// SnippetLength bounds the chunk text stored in each payload (runes).
	SnippetLength int
}

// QdrantStore implements VectorStore backed by a Qdrant instance.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore creates a new QdrantStore, ensuring the target collection
// and its payload indexes exist, and returns a ready-to-use VectorStore.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name must not be empty")
	}
	if cfg.VectorSize == 0 {
		return nil, fmt.Errorf("qdrant: vector size must be positive")
	}
	if cfg.SnippetLength <= 0 {
		cfg.SnippetLength = DefaultSnippetLength
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, qdrantErr("create client", err)
	}

	store := &QdrantStore{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the Qdrant collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return qdrantErr("check collection", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
		OptimizersConfig: &qdrant.OptimizersConfigDiff{
			MemmapThreshold: qdrant.PtrOf(memmapThreshold),
		},
	})
	if err != nil {
		return qdrantErr(fmt.Sprintf("create collection %q", s.cfg.Collection), err)
	}

	return nil
}

// ensureIndexes creates the payload indexes used by filtered search. Creating
// an index that already exists is a no-op in Qdrant.
func (s *QdrantStore) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		field string
		kind  qdrant.FieldType
	}{
		{keyDifficulty, qdrant.FieldType_FieldTypeKeyword},
		{keyTags, qdrant.FieldType_FieldTypeKeyword},
		{keyChunkType, qdrant.FieldType_FieldTypeKeyword},
		{keyProblemID, qdrant.FieldType_FieldTypeInteger},
	}
	for _, idx := range indexes {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.cfg.Collection,
			FieldName:      idx.field,
			FieldType:      idx.kind.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return qdrantErr(fmt.Sprintf("index %q", idx.field), err)
		}
	}
	return nil
}

// UpsertChunks stores one point per chunk under a fresh UUID.
func (s *QdrantStore) UpsertChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("qdrant: %w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, ch := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.NewString()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: buildPayload(ch, s.cfg.SnippetLength),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return qdrantErr("upsert", err)
	}

	return nil
}

// Search performs a filtered cosine similarity search.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, filter domain.SearchFilter, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 {
		return []domain.SearchResult{}, nil
	}
	n := uint64(limit)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         buildFilter(filter),
		Limit:          &n,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, qdrantErr("search", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, mapPayload(h.GetPayload(), h.GetScore()))
	}
	return results, nil
}

// DeleteProblem removes every point whose payload problem_id matches.
func (s *QdrantStore) DeleteProblem(ctx context.Context, problemID int64) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchInt(keyProblemID, problemID)},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return qdrantErr(fmt.Sprintf("delete problem %d", problemID), err)
	}
	return nil
}

// Count returns the exact number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, qdrantErr("count", err)
	}
	return n, nil
}

// Ping issues a health check against the Qdrant server.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return qdrantErr("health check", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// buildFilter translates a SearchFilter into a Qdrant filter. Set fields are
// ANDed; tags match any. A zero filter yields nil (no constraint).
func buildFilter(f domain.SearchFilter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.Difficulty != "" {
		must = append(must, qdrant.NewMatch(keyDifficulty, string(f.Difficulty)))
	}
	if len(f.Tags) > 0 {
		must = append(must, qdrant.NewMatchKeywords(keyTags, f.Tags...))
	}
	if f.ChunkType != "" {
		must = append(must, qdrant.NewMatch(keyChunkType, string(f.ChunkType)))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// buildPayload renders the point payload for a chunk, truncating its text.
func buildPayload(ch domain.Chunk, snippetLength int) map[string]*qdrant.Value {
	tags := make([]*qdrant.Value, 0, len(ch.Tags))
	for _, t := range ch.Tags {
		tags = append(tags, stringValue(t))
	}
	return map[string]*qdrant.Value{
		keyProblemID:  {Kind: &qdrant.Value_IntegerValue{IntegerValue: ch.ProblemID}},
		keyTitle:      stringValue(ch.Title),
		keyDifficulty: stringValue(string(ch.Difficulty)),
		keyTags:       {Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: tags}}},
		keyChunkType:  stringValue(string(ch.Type)),
		keyText:       stringValue(truncateRunes(ch.Text, snippetLength)),
	}
}

// mapPayload converts a hit payload into a typed SearchResult.
func mapPayload(p map[string]*qdrant.Value, score float32) domain.SearchResult {
	r := domain.SearchResult{
		ProblemID:  p[keyProblemID].GetIntegerValue(),
		Title:      p[keyTitle].GetStringValue(),
		Difficulty: domain.Difficulty(p[keyDifficulty].GetStringValue()),
		Tags:       []string{},
		Score:      score,
		Snippet:    p[keyText].GetStringValue(),
	}
	for _, v := range p[keyTags].GetListValue().GetValues() {
		r.Tags = append(r.Tags, v.GetStringValue())
	}
	return r
}

// qdrantErr reports a failed Qdrant call as an upstream error.
func qdrantErr(action string, err error) error {
	return fmt.Errorf("qdrant: %s: %w", action, domain.Unavailable("qdrant", err))
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}
