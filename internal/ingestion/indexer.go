// Package ingestion implements the problem indexing pipeline. For each
// problem record it writes the canonical row to the relational store, splits
// the text fields into chunks, embeds every chunk and upserts the vectors.
// The pipeline is invoked by `leetrag load` and the load API endpoint.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/leetrag/internal/budget"
	"github.com/54b3r/leetrag/internal/chunker"
	"github.com/54b3r/leetrag/internal/domain"
	"github.com/54b3r/leetrag/internal/logging"
	"github.com/54b3r/leetrag/internal/rag"
	"github.com/54b3r/leetrag/internal/store"
)

// Embedder converts texts into vectors, one per text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Config holds the configuration for the Indexer.
type Config struct {
	// Chunker splits text fields. Defaults to chunker.DefaultSize/DefaultOverlap.
	Chunker *chunker.Chunker

	// ReplaceOnReindex deletes a problem's existing vector points before
	// writing the new ones so re-ingestion leaves no stale chunks.
	ReplaceOnReindex bool

	// MetricsRegistry receives the indexer metrics. Nil disables registration.
	MetricsRegistry prometheus.Registerer
}

// Indexer orchestrates the normalize → upsert → chunk → embed → upsert flow
// for one problem at a time. It is safe for concurrent use.
type Indexer struct {
	// problems persists the canonical record.
	problems store.ProblemStore

	// vectors persists the chunk embeddings.
	vectors rag.VectorStore

	// embedder converts chunk text into vectors.
	embedder Embedder

	// chunker splits text fields into windows.
	chunker *chunker.Chunker

	// replace enables delete-before-insert of vector points.
	replace bool

	// metrics holds the Prometheus instruments.
	metrics *indexerMetrics
}

// NewIndexer constructs an Indexer from the provided dependencies and config.
func NewIndexer(problems store.ProblemStore, vectors rag.VectorStore, embedder Embedder, cfg *Config) (*Indexer, error) {
	if problems == nil {
		return nil, fmt.Errorf("ingestion: problem store must not be nil")
	}
	if vectors == nil {
		return nil, fmt.Errorf("ingestion: vector store must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if cfg == nil {
		cfg = &Config{ReplaceOnReindex: true}
	}
	ch := cfg.Chunker
	if ch == nil {
		var err error
		if ch, err = chunker.New(chunker.DefaultSize, chunker.DefaultOverlap); err != nil {
			return nil, fmt.Errorf("ingestion: %w", err)
		}
	}

	return &Indexer{
		problems: problems,
		vectors:  vectors,
		embedder: embedder,
		chunker:  ch,
		replace:  cfg.ReplaceOnReindex,
		metrics:  newIndexerMetrics(cfg.MetricsRegistry),
	}, nil
}

// IndexProblem ingests one record and returns its problem id. Steps run in
// order and the first failure aborts the rest; earlier writes are not rolled
// back and a retry with the same record converges.
func (ix *Indexer) IndexProblem(ctx context.Context, rec domain.Record) (int64, error) {
	start := time.Now()
	id, err := ix.indexProblem(ctx, rec)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ix.metrics.problemsTotal.WithLabelValues(outcome).Inc()
	ix.metrics.durationSeconds.Observe(time.Since(start).Seconds())
	return id, err
}

func (ix *Indexer) indexProblem(ctx context.Context, rec domain.Record) (int64, error) {
	log := logging.FromContext(ctx).With(slog.Int64("problem_id", rec.ProblemID))

	p := domain.Normalize(rec)
	if p.Slug == "" {
		return 0, fmt.Errorf("ingestion: problem %d: %w: empty slug", rec.ProblemID, domain.ErrInvalidInput)
	}
	if _, err := domain.ParseDifficulty(string(p.Difficulty)); err != nil || p.Difficulty == "" {
		return 0, fmt.Errorf("ingestion: problem %d: %w: difficulty %q", rec.ProblemID, domain.ErrInvalidInput, rec.Difficulty)
	}

	if err := ix.problems.UpsertProblem(ctx, p); err != nil {
		return 0, fmt.Errorf("ingestion: upsert problem %d: %w", p.ProblemID, err)
	}

	chunks := ix.chunker.Chunk(p)
	if len(chunks) == 0 {
		if err := ix.retire(ctx, p.ProblemID); err != nil {
			return 0, err
		}
		log.Info("ingestion: problem has no text, nothing to embed")
		return p.ProblemID, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	tokens, largest := budget.EstimateTexts(texts)
	if budget.Exceeds(texts) {
		log.Warn("ingestion: chunk may exceed the provider input limit; lower CHUNK_SIZE",
			slog.Int("chunk", largest),
			slog.Int("estimated_tokens", budget.Estimate(texts[largest])),
		)
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("ingestion: embed %d chunks of %d: %w", len(chunks), p.ProblemID, err)
	}

	// Old points go only once the replacement vectors are in hand.
	if err := ix.retire(ctx, p.ProblemID); err != nil {
		return 0, err
	}
	if err := ix.vectors.UpsertChunks(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("ingestion: upsert chunks of %d: %w", p.ProblemID, err)
	}

	ix.metrics.embedTokensTotal.Add(float64(tokens))
	for _, c := range chunks {
		ix.metrics.chunksTotal.WithLabelValues(string(c.Type)).Inc()
	}
	log.Info("ingestion: problem indexed", slog.Int("chunks", len(chunks)), slog.Int("estimated_tokens", tokens))
	return p.ProblemID, nil
}

// retire deletes the previous generation of a problem's points when
// replace-on-reindex is enabled.
func (ix *Indexer) retire(ctx context.Context, problemID int64) error {
	if !ix.replace {
		return nil
	}
	if err := ix.vectors.DeleteProblem(ctx, problemID); err != nil {
		return fmt.Errorf("ingestion: delete stale chunks of %d: %w", problemID, err)
	}
	return nil
}
