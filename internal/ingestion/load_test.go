package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/54b3r/leetrag/internal/domain"
)

// mapSource serves records from a map keyed by slug.
type mapSource map[string]domain.Record

func (m mapSource) FetchProblem(_ context.Context, slug string) (domain.Record, error) {
	rec, ok := m[slug]
	if !ok {
		return domain.Record{}, fmt.Errorf("source: %q: %w", slug, domain.ErrNotFound)
	}
	return rec, nil
}

func TestLoad_IndexesSequentiallyWithProgress(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	src := mapSource{
		"two-sum": twoSum(),
		"valid-parentheses": {
			ProblemID: 20, Slug: "valid-parentheses", Title: "Valid Parentheses",
			Difficulty: "Easy", Tags: []string{"Stack"}, Statement: "brackets",
		},
	}

	var msgs []string
	err := f.ix.Load(ctx, src, []string{"two-sum", "valid-parentheses"}, func(m string) { msgs = append(msgs, m) })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	slugs, _ := f.problems.ListSlugs(ctx)
	if fmt.Sprint(slugs) != "[two-sum valid-parentheses]" {
		t.Errorf("slugs: got %v", slugs)
	}
	if len(msgs) != 4 || !strings.Contains(msgs[3], "Valid Parentheses") {
		t.Errorf("progress: got %q", msgs)
	}
}

func TestLoad_StopsAtFirstError(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	err := f.ix.Load(ctx, mapSource{"two-sum": twoSum()}, []string{"missing", "two-sum"}, nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if slugs, _ := f.problems.ListSlugs(ctx); len(slugs) != 0 {
		t.Errorf("nothing after the failing slug may be indexed, got %v", slugs)
	}
}

func TestLoadOne_ReturnsTitle(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)

	res, err := f.ix.LoadOne(context.Background(), mapSource{"two-sum": twoSum()}, "two-sum")
	if err != nil {
		t.Fatalf("LoadOne: %v", err)
	}
	if res.ProblemID != 1 || res.Title != "Two Sum" {
		t.Errorf("got %+v", res)
	}
}

func TestLoad_CancelledContext(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.ix.Load(ctx, mapSource{"two-sum": twoSum()}, []string{"two-sum"}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
