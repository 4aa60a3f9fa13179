package source

import (
	"context"
	"fmt"
	"time"

	"github.com/54b3r/leetrag/internal/domain"
)

// Fetcher returns the upstream record for a slug.
type Fetcher interface {
	FetchProblem(ctx context.Context, slug string) (domain.Record, error)
}

// Config selects and configures a Fetcher.
type Config struct {
	// Kind is "parser" or "leetcode".
	Kind string
	// ParserBaseURL is the parser service root.
	ParserBaseURL string
	// LeetCodeURL is the GraphQL endpoint.
	LeetCodeURL string
	// Timeout bounds each request.
	Timeout time.Duration
}

// New constructs the Fetcher described by cfg.
func New(cfg Config) (Fetcher, error) {
	switch cfg.Kind {
	case "parser", "":
		if cfg.ParserBaseURL == "" {
			return nil, fmt.Errorf("source: parser requires PARSER_BASE_URL")
		}
		return NewParserClient(cfg.ParserBaseURL, cfg.Timeout), nil
	case "leetcode":
		return NewLeetCodeClient(cfg.LeetCodeURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("source: unknown kind %q (valid values: parser, leetcode)", cfg.Kind)
	}
}
