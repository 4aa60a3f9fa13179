package server

import "context"

// pingFunc is anything with a reachability probe, such as
// store.ProblemStore or rag.VectorStore.
type pingFunc interface {
	Ping(ctx context.Context) error
}

// DependencyPinger labels a dependency's own Ping for readiness responses.
type DependencyPinger struct {
	// name identifies the dependency (e.g. "postgres", "qdrant").
	name string
	// dep is the probed dependency.
	dep pingFunc
}

// NewDependencyPinger constructs a Pinger named name that delegates to dep.
func NewDependencyPinger(name string, dep pingFunc) *DependencyPinger {
	return &DependencyPinger{name: name, dep: dep}
}

// Name returns the dependency label used in readiness responses.
func (p *DependencyPinger) Name() string { return p.name }

// Ping delegates to the dependency.
func (p *DependencyPinger) Ping(ctx context.Context) error { return p.dep.Ping(ctx) }

// countFunc is a pingable dependency that can count its stored vectors,
// such as rag.VectorStore.
type countFunc interface {
	pingFunc
	Count(ctx context.Context) (uint64, error)
}

// CountingPinger is a DependencyPinger that also reports the point count
// on /api/ready.
type CountingPinger struct {
	DependencyPinger
	counter countFunc
}

// NewCountingPinger constructs a Pinger named name whose readiness check
// carries dep's point count.
func NewCountingPinger(name string, dep countFunc) *CountingPinger {
	return &CountingPinger{DependencyPinger: DependencyPinger{name: name, dep: dep}, counter: dep}
}

// Count delegates to the dependency.
func (p *CountingPinger) Count(ctx context.Context) (uint64, error) { return p.counter.Count(ctx) }
