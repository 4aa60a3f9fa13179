package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

// fakePinger is a test double for the Pinger interface.
type fakePinger struct {
	// name is returned by Name().
	name string
	// err is returned by Ping(); nil means healthy.
	err error
}

func (f *fakePinger) Name() string                 { return f.name }
func (f *fakePinger) Ping(_ context.Context) error { return f.err }

// fakeVectors is a pingable dependency that also counts points.
type fakeVectors struct {
	points   uint64
	countErr error
}

func (f *fakeVectors) Ping(context.Context) error { return nil }
func (f *fakeVectors) Count(context.Context) (uint64, error) {
	return f.points, f.countErr
}

func decodeReady(t *testing.T, body []byte) readyResponse {
	t.Helper()
	var resp readyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode ready response: %v", err)
	}
	return resp
}

func TestHandleHealth_OK(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t), &fakePinger{name: "qdrant", err: errors.New("down")})
	w := do(t, s, http.MethodGet, "/api/health", nil)

	// Liveness never consults dependencies.
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: expected application/json, got %q", ct)
	}
	var body healthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Version != "test" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestHandleReady_NoPingers(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t))
	w := do(t, s, http.MethodGet, "/api/ready", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeReady(t, w.Body.Bytes())
	if !resp.Ready {
		t.Error("expected ready=true with no pingers")
	}
	if resp.Checks == nil || len(resp.Checks) != 0 {
		t.Errorf("expected an empty checks array, got %v", resp.Checks)
	}
}

func TestHandleReady_AllHealthy(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t),
		&fakePinger{name: "sqlite"},
		&fakePinger{name: "qdrant"},
	)
	w := do(t, s, http.MethodGet, "/api/ready", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeReady(t, w.Body.Bytes())
	if !resp.Ready || len(resp.Checks) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	for i, want := range []string{"sqlite", "qdrant"} {
		if resp.Checks[i].Name != want || !resp.Checks[i].OK {
			t.Errorf("check %d = %+v, want healthy %s", i, resp.Checks[i], want)
		}
	}
}

func TestHandleReady_OneFailing(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t),
		&fakePinger{name: "postgres"},
		&fakePinger{name: "qdrant", err: errors.New("connection refused")},
	)
	w := do(t, s, http.MethodGet, "/api/ready", nil)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	resp := decodeReady(t, w.Body.Bytes())
	if resp.Ready {
		t.Error("expected ready=false")
	}
	if !resp.Checks[0].OK {
		t.Error("postgres should be healthy")
	}
	if resp.Checks[1].OK || resp.Checks[1].Error != "connection refused" {
		t.Errorf("qdrant check = %+v", resp.Checks[1])
	}
}

func TestDependencyPinger(t *testing.T) {
	t.Parallel()

	want := errors.New("boom")
	p := NewDependencyPinger("embedder", &fakePinger{err: want})
	if p.Name() != "embedder" {
		t.Errorf("Name() = %q", p.Name())
	}
	if err := p.Ping(t.Context()); !errors.Is(err, want) {
		t.Errorf("Ping() = %v, want %v", err, want)
	}
}

func TestHandleReady_ReportsVectorPoints(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t),
		&fakePinger{name: "sqlite"},
		NewCountingPinger("qdrant", &fakeVectors{points: 42}),
	)
	w := do(t, s, http.MethodGet, "/api/ready", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeReady(t, w.Body.Bytes())
	if resp.Checks[0].Points != nil {
		t.Errorf("sqlite check should carry no point count, got %d", *resp.Checks[0].Points)
	}
	if got := resp.Checks[1].Points; got == nil || *got != 42 {
		t.Errorf("qdrant points = %v, want 42", got)
	}
}

func TestHandleReady_EmptyCollectionReportsZero(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t), NewCountingPinger("memory", &fakeVectors{}))
	w := do(t, s, http.MethodGet, "/api/ready", nil)

	if !strings.Contains(w.Body.String(), `"points":0`) {
		t.Errorf("an empty store should report points 0: %s", w.Body.String())
	}
}

func TestHandleReady_CountFailureIsNotReady(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeQuerier{}, noopLoader(t),
		NewCountingPinger("qdrant", &fakeVectors{countErr: errors.New("collection missing")}),
	)
	w := do(t, s, http.MethodGet, "/api/ready", nil)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	resp := decodeReady(t, w.Body.Bytes())
	if c := resp.Checks[0]; c.OK || c.Error != "collection missing" || c.Points != nil {
		t.Errorf("qdrant check = %+v", c)
	}
}
