package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/54b3r/leetrag/internal/domain"
)

// counterValue returns the value of the counter family name whose label
// matches value, or 0 when the series does not exist.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabel(m, label, value) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func TestMetrics_EndpointExposesRegistry(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t))
	do(t, s, http.MethodGet, "/api/health", nil)

	w := do(t, s, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "leetrag_http_requests_total") {
		t.Error("metrics output is missing leetrag_http_requests_total")
	}
}

func TestMetrics_HTTPRequestsLabelledByPattern(t *testing.T) {
	t.Parallel()

	s, reg := newTestServer(t, &fakeQuerier{text: domain.ProblemText{ProblemID: 7}}, noopLoader(t))
	do(t, s, http.MethodGet, "/api/problems/7/statement", nil)
	do(t, s, http.MethodGet, "/api/problems/8/editorial", nil)
	do(t, s, http.MethodGet, "/nowhere", nil)

	if n := counterValue(t, reg, "leetrag_http_requests_total", labelHandler, "GET /api/problems/{id}/{field}"); n != 2 {
		t.Errorf("text route requests = %v, want 2", n)
	}
	if n := counterValue(t, reg, "leetrag_http_requests_total", labelHandler, "unmatched"); n != 1 {
		t.Errorf("unmatched requests = %v, want 1", n)
	}
}

func TestMetrics_SearchDurationObserved(t *testing.T) {
	t.Parallel()

	s, reg := newTestServer(t, &fakeQuerier{}, noopLoader(t))
	do(t, s, http.MethodPost, "/api/search", searchRequest{Query: "graph"})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "leetrag_search_duration_seconds" {
			if c := mf.GetMetric()[0].GetHistogram().GetSampleCount(); c != 1 {
				t.Errorf("sample count = %d, want 1", c)
			}
			return
		}
	}
	t.Error("leetrag_search_duration_seconds not found")
}

func TestOutcomeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrInvalidInput, "invalid"},
		{domain.ErrNotFound, "not_found"},
		{domain.ErrPaidOnly, "paid_only"},
		{domain.ErrConflict, "conflict"},
		{domain.Unavailable("ollama", http.ErrHandlerTimeout), "upstream"},
		{http.ErrAbortHandler, "error"},
	}
	for _, tt := range tests {
		if got := outcomeOf(tt.err); got != tt.want {
			t.Errorf("outcomeOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
