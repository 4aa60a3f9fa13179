package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/leetrag/internal/domain"
	"github.com/54b3r/leetrag/internal/ingestion"
)

// fakeQuerier records the arguments it receives and returns canned results.
type fakeQuerier struct {
	results []domain.SearchResult
	items   []domain.ProblemListItem
	slugs   []string
	text    domain.ProblemText
	err     error

	gotText   string
	gotFilter domain.SearchFilter
	gotList   domain.ListFilter
	gotLimit  int
	gotID     int64
	gotField  domain.Field
}

func (f *fakeQuerier) Search(_ context.Context, text string, filter domain.SearchFilter, limit int) ([]domain.SearchResult, error) {
	f.gotText, f.gotFilter, f.gotLimit = text, filter, limit
	return f.results, f.err
}

func (f *fakeQuerier) ListProblems(_ context.Context, filter domain.ListFilter, limit int) ([]domain.ProblemListItem, error) {
	f.gotList, f.gotLimit = filter, limit
	return f.items, f.err
}

func (f *fakeQuerier) ListSlugs(context.Context) ([]string, error) {
	return f.slugs, f.err
}

func (f *fakeQuerier) GetProblemText(_ context.Context, id int64, field domain.Field) (domain.ProblemText, error) {
	f.gotID, f.gotField = id, field
	return f.text, f.err
}

// noopLoader fails the test if a load reaches it.
func noopLoader(t *testing.T) Loader {
	return LoaderFunc(func(context.Context, string) (ingestion.Loaded, error) {
		t.Error("loader must not be called")
		return ingestion.Loaded{}, nil
	})
}

// newTestServer builds a Server on an isolated registry with a silent logger.
func newTestServer(t *testing.T, q querier, loader Loader, pingers ...Pinger) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s, err := New(q, loader, &Config{
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Pingers:         pingers,
		RateLimit:       1000,
		RateBurst:       1000,
		MetricsRegistry: reg,
		MetricsGatherer: reg,
		Version:         "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s, reg
}

// do sends one request through the full handler chain.
func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, r)
	req.RemoteAddr = "192.0.2.1:4000"
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, noopLoader(t), nil); err == nil {
		t.Error("want error for nil querier")
	}
	if _, err := New(&fakeQuerier{}, nil, nil); err == nil {
		t.Error("want error for nil loader")
	}
}

func TestHandleSearch_PassesFilter(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{results: []domain.SearchResult{{ProblemID: 1, Title: "Two Sum", Score: 0.9}}}
	s, _ := newTestServer(t, q, noopLoader(t))

	w := do(t, s, http.MethodPost, "/api/search", searchRequest{
		Query:      "pair that sums to target",
		Difficulty: "Easy",
		Tags:       []string{" Array ", ""},
		ChunkType:  "Statement",
		Limit:      3,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
	var got []domain.SearchResult
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ProblemID != 1 {
		t.Errorf("unexpected results: %+v", got)
	}
	if q.gotText != "pair that sums to target" || q.gotLimit != 3 {
		t.Errorf("text/limit = %q/%d", q.gotText, q.gotLimit)
	}
	if q.gotFilter.ChunkType != domain.FieldStatement {
		t.Errorf("chunk type = %q", q.gotFilter.ChunkType)
	}
	if !slices.Equal(q.gotFilter.Tags, []string{"Array"}) {
		t.Errorf("tags = %v", q.gotFilter.Tags)
	}
}

func TestHandleSearch_BadBody(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t))
	w := do(t, s, http.MethodPost, "/api/search", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid filter", fmt.Errorf("%w: unsupported difficulty %q", domain.ErrInvalidFilter, "Extreme"), http.StatusBadRequest, "unsupported difficulty"},
		{"not found", fmt.Errorf("problem 999: %w", domain.ErrNotFound), http.StatusNotFound, "not found"},
		{"paid only", domain.ErrPaidOnly, http.StatusForbidden, "subscribers"},
		{"conflict", fmt.Errorf("store: upsert 2: %w: slug %q already belongs to another problem", domain.ErrConflict, "two-sum"), http.StatusConflict, "already belongs"},
		{"upstream", domain.Unavailable("qdrant", errors.New("dial tcp: refused")), http.StatusBadGateway, "qdrant unavailable"},
		{"timeout", domain.Unavailable("openai", context.DeadlineExceeded), http.StatusGatewayTimeout, "timed out"},
		{"internal", errors.New("scan: column mismatch"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newTestServer(t, &fakeQuerier{err: tt.err}, noopLoader(t))
			w := do(t, s, http.MethodPost, "/api/search", searchRequest{Query: "x"})
			if w.Code != tt.status {
				t.Fatalf("want %d, got %d", tt.status, w.Code)
			}
			if msg := decodeError(t, w); !strings.Contains(msg, tt.message) {
				t.Errorf("message %q does not contain %q", msg, tt.message)
			}
		})
	}
}

func TestErrorMapping_DoesNotLeakInternals(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{err: errors.New("password=hunter2")}, noopLoader(t))
	w := do(t, s, http.MethodGet, "/api/problems/slugs", nil)
	if strings.Contains(w.Body.String(), "hunter2") {
		t.Errorf("internal error leaked: %s", w.Body.String())
	}
}

func TestHandleListProblems_QueryParsing(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{items: []domain.ProblemListItem{{ProblemID: 1, Slug: "two-sum"}}}
	s, _ := newTestServer(t, q, noopLoader(t))

	w := do(t, s, http.MethodGet, "/api/problems?difficulty=Easy&tags=Array,Hash%20Table&tags=Math&limit=7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
	if q.gotList.Difficulty != domain.DifficultyEasy {
		t.Errorf("difficulty = %q", q.gotList.Difficulty)
	}
	if want := []string{"Array", "Hash Table", "Math"}; !slices.Equal(q.gotList.Tags, want) {
		t.Errorf("tags = %v, want %v", q.gotList.Tags, want)
	}
	if q.gotLimit != 7 {
		t.Errorf("limit = %d", q.gotLimit)
	}
}

func TestHandleListProblems_BadLimit(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t))
	w := do(t, s, http.MethodGet, "/api/problems?limit=ten", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}

func TestHandleListSlugs(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{slugs: []string{"two-sum", "add-two-numbers"}}, noopLoader(t))
	w := do(t, s, http.MethodGet, "/api/problems/slugs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	var got []string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !slices.Equal(got, []string{"two-sum", "add-two-numbers"}) {
		t.Errorf("slugs = %v", got)
	}
}

func TestHandleProblemText(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{text: domain.ProblemText{ProblemID: 1, Title: "Two Sum", Text: "Given an array"}}
	s, _ := newTestServer(t, q, noopLoader(t))

	w := do(t, s, http.MethodGet, "/api/problems/1/statement", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
	if q.gotID != 1 || q.gotField != domain.FieldStatement {
		t.Errorf("id/field = %d/%q", q.gotID, q.gotField)
	}

	for _, target := range []string{"/api/problems/abc/statement", "/api/problems/1/hints"} {
		if w := do(t, s, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: want 400, got %d", target, w.Code)
		}
	}
}

func TestHandleLoad_NormalizesURL(t *testing.T) {
	t.Parallel()

	var gotSlug string
	loader := LoaderFunc(func(_ context.Context, slug string) (ingestion.Loaded, error) {
		gotSlug = slug
		return ingestion.Loaded{ProblemID: 1, Title: "Two Sum"}, nil
	})
	s, reg := newTestServer(t, &fakeQuerier{}, loader)

	w := do(t, s, http.MethodPost, "/api/problems/load", loadRequest{Slug: "https://leetcode.com/problems/two-sum/description/"})
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotSlug != "two-sum" {
		t.Errorf("slug = %q, want two-sum", gotSlug)
	}
	var got ingestion.Loaded
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ProblemID != 1 || got.Title != "Two Sum" {
		t.Errorf("unexpected body: %+v", got)
	}
	if n := counterValue(t, reg, "leetrag_load_requests_total", "outcome", "ok"); n != 1 {
		t.Errorf("ok loads = %v, want 1", n)
	}
}

func TestHandleLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		slug    string
		err     error
		status  int
		outcome string
	}{
		{"not found", "no-such-problem", domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"paid only", "paid-problem", domain.ErrPaidOnly, http.StatusForbidden, "paid_only"},
		{"slug taken", "two-sum", fmt.Errorf("ingestion: %w", domain.ErrConflict), http.StatusConflict, "conflict"},
		{"source down", "two-sum", domain.Unavailable("parser", errors.New("connection refused")), http.StatusBadGateway, "upstream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			loader := LoaderFunc(func(context.Context, string) (ingestion.Loaded, error) {
				return ingestion.Loaded{}, tt.err
			})
			s, reg := newTestServer(t, &fakeQuerier{}, loader)
			w := do(t, s, http.MethodPost, "/api/problems/load", loadRequest{Slug: tt.slug})
			if w.Code != tt.status {
				t.Fatalf("want %d, got %d", tt.status, w.Code)
			}
			if n := counterValue(t, reg, "leetrag_load_requests_total", "outcome", tt.outcome); n != 1 {
				t.Errorf("%s loads = %v, want 1", tt.outcome, n)
			}
		})
	}
}

func TestHandleLoad_EmptySlug(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t))
	w := do(t, s, http.MethodPost, "/api/problems/load", loadRequest{Slug: "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}

	w = do(t, s, http.MethodGet, "/api/health", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("want a generated X-Request-ID")
	}
}
