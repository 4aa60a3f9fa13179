package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/leetrag/internal/chunker"
	"github.com/54b3r/leetrag/internal/config"
	"github.com/54b3r/leetrag/internal/embedder"
	"github.com/54b3r/leetrag/internal/ingestion"
	"github.com/54b3r/leetrag/internal/logging"
	"github.com/54b3r/leetrag/internal/query"
	"github.com/54b3r/leetrag/internal/rag"
	"github.com/54b3r/leetrag/internal/server"
	"github.com/54b3r/leetrag/internal/source"
	"github.com/54b3r/leetrag/internal/store"
)

// deps holds the store handles and clients a command needs. Handles are
// opened explicitly and released together by Close.
type deps struct {
	problems     store.ProblemStore
	problemsName string

	vectors     rag.VectorStore
	vectorsName string

	embedder *embedder.Client

	closers []func() error
}

// Close releases every opened handle in reverse order.
func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

// Pingers returns readiness probes for the opened stores.
func (d *deps) Pingers() []server.Pinger {
	var out []server.Pinger
	if d.problems != nil {
		out = append(out, server.NewDependencyPinger(d.problemsName, d.problems))
	}
	if d.vectors != nil {
		out = append(out, server.NewCountingPinger(d.vectorsName, d.vectors))
	}
	return out
}

// openProblems opens the relational store only. Listing commands need
// nothing else.
func openProblems(ctx context.Context, s config.Settings) (*deps, error) {
	d := &deps{}
	if err := d.openProblemStore(ctx, s.Store); err != nil {
		return nil, err
	}
	return d, nil
}

// openAll opens the relational store, the vector store and the embedding
// client. On failure everything already opened is closed.
func openAll(ctx context.Context, s config.Settings) (*deps, error) {
	log := logging.FromContext(ctx)
	d := &deps{}

	embCfg := embedderConfig(s.Embedding)
	if err := embedder.Validate(embCfg, log); err != nil {
		return nil, err
	}
	provider, err := embedder.New(embCfg)
	if err != nil {
		return nil, err
	}
	if d.embedder, err = embedder.NewClient(provider, s.Embedding.BatchSize); err != nil {
		return nil, err
	}
	log.Info("embedder initialised",
		slog.String("provider", s.Embedding.Provider),
		slog.Int("dimensions", embCfg.Dims()),
	)

	if err := d.openProblemStore(ctx, s.Store); err != nil {
		return nil, err
	}
	if err := d.openVectorStore(ctx, s.Vector, embCfg.Dims()); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *deps) openProblemStore(ctx context.Context, s config.StoreSettings) error {
	log := logging.FromContext(ctx)
	switch s.Driver {
	case "postgres":
		pg, err := store.OpenPostgres(ctx, s.PostgresURL)
		if err != nil {
			return err
		}
		d.problems, d.problemsName = pg, "postgres"
		d.closers = append(d.closers, pg.Close)
		log.Info("problem store ready", slog.String("driver", "postgres"))
	default:
		path := s.SQLitePath
		if path == "" {
			var err error
			if path, err = store.DefaultDBPath(); err != nil {
				return err
			}
		}
		lite, err := store.OpenSQLite(path)
		if err != nil {
			return err
		}
		d.problems, d.problemsName = lite, "sqlite"
		d.closers = append(d.closers, lite.Close)
		log.Info("problem store ready", slog.String("driver", "sqlite"), slog.String("path", path))
	}
	return nil
}

func (d *deps) openVectorStore(ctx context.Context, s config.VectorSettings, dims int) error {
	log := logging.FromContext(ctx)
	switch s.Backend {
	case "memory":
		mem := rag.NewMemoryStore(s.SnippetLength)
		d.vectors, d.vectorsName = mem, "memory"
		d.closers = append(d.closers, mem.Close)
		log.Warn("vector store is in-memory; vectors are lost on exit")
	default:
		qs, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
			Host:          s.Host,
			Port:          s.Port,
			Collection:    s.Collection,
			VectorSize:    uint64(dims), //nolint:gosec // validated non-negative
			APIKey:        s.APIKey,
			UseTLS:        s.TLS,
			SnippetLength: s.SnippetLength,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", s.Host, s.Port, err)
		}
		d.vectors, d.vectorsName = qs, "qdrant"
		d.closers = append(d.closers, qs.Close)
		log.Info("vector store ready",
			slog.String("host", s.Host),
			slog.Int("port", s.Port),
			slog.String("collection", s.Collection),
		)
	}
	return nil
}

// newIndexer builds the indexer over d. reg may be nil.
func newIndexer(d *deps, s config.Settings, reg prometheus.Registerer) (*ingestion.Indexer, error) {
	ch, err := chunker.New(s.Chunk.Size, s.Chunk.Overlap)
	if err != nil {
		return nil, err
	}
	return ingestion.NewIndexer(d.problems, d.vectors, d.embedder, &ingestion.Config{
		Chunker:          ch,
		ReplaceOnReindex: s.Vector.ReplaceOnReindex,
		MetricsRegistry:  reg,
	})
}

// newQueryService builds the read side over d.
func newQueryService(d *deps, s config.Settings) (*query.Service, error) {
	svc, err := query.NewService(d.embedder, d.vectors, d.problems, s.Query.SearchDefaultLimit)
	if err != nil {
		return nil, err
	}
	return svc.WithListLimit(s.Query.ListDefaultLimit), nil
}

// newSource builds the configured problem fetcher.
func newSource(s config.Settings) (source.Fetcher, error) {
	return source.New(source.Config{
		Kind:          s.Source.Kind,
		ParserBaseURL: s.Source.ParserBaseURL,
		LeetCodeURL:   s.Source.LeetCodeURL,
	})
}

func embedderConfig(s config.EmbeddingSettings) embedder.Config {
	return embedder.Config{
		Provider:   s.Provider,
		Model:      s.Model,
		Dimensions: s.Dimensions,
		APIKey:     s.APIKey,
		Endpoint:   s.Endpoint,
		APIVersion: s.APIVersion,
		Timeout:    s.Timeout,
	}
}
