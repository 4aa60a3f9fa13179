package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/54b3r/leetrag/internal/domain"
	"github.com/54b3r/leetrag/internal/logging"
)

// Source fetches a problem record by slug. Implementations distinguish
// domain.ErrNotFound, domain.ErrPaidOnly and domain.ErrUpstreamUnavailable.
type Source interface {
	FetchProblem(ctx context.Context, slug string) (domain.Record, error)
}

// Loaded is the outcome of indexing one slug.
type Loaded struct {
	// ProblemID is the indexed problem id.
	ProblemID int64 `json:"problem_id"`
	// Title is the problem title as fetched.
	Title string `json:"title"`
}

// LoadOne fetches slug from src and indexes it.
func (ix *Indexer) LoadOne(ctx context.Context, src Source, slug string) (Loaded, error) {
	ctx = logging.With(ctx, slog.String("slug", slug))
	rec, err := src.FetchProblem(ctx, slug)
	if err != nil {
		return Loaded{}, fmt.Errorf("ingestion: fetch %q: %w", slug, err)
	}
	id, err := ix.IndexProblem(ctx, rec)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{ProblemID: id, Title: rec.Title}, nil
}

// Load fetches and indexes each slug sequentially and returns the first error
// encountered. Progress is reported via the optional progress callback.
func (ix *Indexer) Load(ctx context.Context, src Source, slugs []string, progress func(msg string)) error {
	if progress == nil {
		progress = func(string) {}
	}

	for i, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("ingestion: load interrupted before %q: %w", slug, err)
		}
		progress(fmt.Sprintf("[%d/%d] fetching %s", i+1, len(slugs), slug))

		res, err := ix.LoadOne(ctx, src, slug)
		if err != nil {
			return err
		}
		progress(fmt.Sprintf("[%d/%d] indexed %d %s", i+1, len(slugs), res.ProblemID, res.Title))
	}

	return nil
}
