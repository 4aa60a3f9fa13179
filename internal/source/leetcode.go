package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shurcooL/graphql"

	"github.com/54b3r/leetrag/internal/domain"
)

// DefaultLeetCodeURL is the public LeetCode GraphQL endpoint.
const DefaultLeetCodeURL = "https://leetcode.com/graphql"

// LeetCodeClient fetches problems directly from the LeetCode GraphQL API.
// It is safe for concurrent use.
type LeetCodeClient struct {
	// gql is the GraphQL client bound to the endpoint.
	gql *graphql.Client
}

// refererTransport adds the headers LeetCode requires on GraphQL requests.
type refererTransport struct {
	base    http.RoundTripper
	referer string
}

func (t *refererTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Referer", t.referer)
	req.Header.Set("User-Agent", "leetrag/1.0")
	return t.base.RoundTrip(req)
}

// NewLeetCodeClient constructs a LeetCodeClient for endpoint. An empty
// endpoint selects DefaultLeetCodeURL; timeout <= 0 selects 30s.
func NewLeetCodeClient(endpoint string, timeout time.Duration) *LeetCodeClient {
	if endpoint == "" {
		endpoint = DefaultLeetCodeURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &refererTransport{base: http.DefaultTransport, referer: "https://leetcode.com"},
	}
	return &LeetCodeClient{gql: graphql.NewClient(endpoint, httpClient)}
}

// questionQuery mirrors the question(titleSlug:) selection set.
type questionQuery struct {
	Question *struct {
		QuestionFrontendID string `graphql:"questionFrontendId"`
		Title              string
		TitleSlug          string
		Difficulty         string
		Content            *string
		IsPaidOnly         bool
		TopicTags          []struct {
			Name string
		}
		Solution *struct {
			Content *string
		}
	} `graphql:"question(titleSlug: $titleSlug)"`
}

// FetchProblem queries LeetCode for slug. A null question maps to
// domain.ErrNotFound and a subscriber-only question to domain.ErrPaidOnly.
func (c *LeetCodeClient) FetchProblem(ctx context.Context, slug string) (domain.Record, error) {
	var q questionQuery
	vars := map[string]any{"titleSlug": graphql.String(slug)}
	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return domain.Record{}, fmt.Errorf("leetcode: %q: %w", slug, domain.Unavailable("leetcode", err))
	}

	qq := q.Question
	if qq == nil {
		return domain.Record{}, fmt.Errorf("leetcode: %q: %w", slug, domain.ErrNotFound)
	}
	if qq.IsPaidOnly {
		return domain.Record{}, fmt.Errorf("leetcode: %q: %w", slug, domain.ErrPaidOnly)
	}

	id, err := strconv.ParseInt(qq.QuestionFrontendID, 10, 64)
	if err != nil {
		return domain.Record{}, fmt.Errorf("leetcode: %q: %w", slug,
			domain.Unavailable("leetcode", fmt.Errorf("non-numeric questionFrontendId %q", qq.QuestionFrontendID)))
	}

	rec := domain.Record{
		ProblemID:  id,
		Slug:       qq.TitleSlug,
		Title:      qq.Title,
		Difficulty: qq.Difficulty,
		Tags:       make([]string, 0, len(qq.TopicTags)),
	}
	if qq.Content != nil {
		rec.Statement = *qq.Content
	}
	for _, t := range qq.TopicTags {
		rec.Tags = append(rec.Tags, t.Name)
	}
	if qq.Solution != nil && qq.Solution.Content != nil {
		rec.Editorial = qq.Solution.Content
	}
	return rec, nil
}
