package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/leetrag/internal/domain"
	"github.com/54b3r/leetrag/internal/ingestion"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8000).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// RequestTimeout bounds the work done for one API request, including
	// every upstream call it makes (default: 2m).
	RequestTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [slog.Default] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on the load
	// endpoint (requests/second). Defaults to 1 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 5 if zero.
	RateBurst int
	// MetricsRegistry receives the server metrics. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer is exposed on GET /metrics. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
	// Version is reported by GET /api/health.
	Version string
}

// querier is the read side used by the search, listing and text handlers.
// *query.Service satisfies it; tests inject a fake.
type querier interface {
	Search(ctx context.Context, text string, filter domain.SearchFilter, limit int) ([]domain.SearchResult, error)
	ListProblems(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.ProblemListItem, error)
	ListSlugs(ctx context.Context) ([]string, error)
	GetProblemText(ctx context.Context, problemID int64, field domain.Field) (domain.ProblemText, error)
}

// Loader fetches and indexes one problem by slug.
type Loader interface {
	Load(ctx context.Context, slug string) (ingestion.Loaded, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, slug string) (ingestion.Loaded, error)

// Load calls f(ctx, slug).
func (f LoaderFunc) Load(ctx context.Context, slug string) (ingestion.Loaded, error) {
	return f(ctx, slug)
}

// Server is the HTTP server exposing the query service and the loader.
type Server struct {
	// querier serves search, listing and text lookups.
	querier querier
	// loader fetches and indexes problems for POST /api/problems/load.
	loader Loader
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// handler is the fully wrapped mux, exposed for tests.
	handler http.Handler
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by the server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// loadRequest is the JSON body for POST /api/problems/load.
type loadRequest struct {
	// Slug is a bare problem slug or a problem URL.
	Slug string `json:"slug"`
}

// searchRequest is the JSON body for POST /api/search.
type searchRequest struct {
	// Query is the natural language search text.
	Query string `json:"query"`
	// Difficulty optionally restricts hits to one difficulty.
	Difficulty string `json:"difficulty,omitempty"`
	// Tags optionally restricts hits to chunks carrying any of these tags.
	Tags []string `json:"tags,omitempty"`
	// ChunkType optionally restricts hits to statement or editorial chunks.
	ChunkType string `json:"chunk_type,omitempty"`
	// Limit is the maximum number of hits (default 10, max 200).
	Limit int `json:"limit,omitempty"`
}

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	// Error is a human-readable message safe to show to clients.
	Error string `json:"error"`
}
