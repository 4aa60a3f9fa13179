// Package store persists canonical problem records and serves metadata
// listing and full-text lookup. Two backends share the ProblemStore contract:
// PostgreSQL for shared deployments and SQLite for single-host use and tests.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/54b3r/leetrag/internal/domain"
)

const (
	// DefaultListLimit is applied when a listing asks for limit <= 0.
	DefaultListLimit = 50
	// MaxListLimit caps every listing.
	MaxListLimit = 200
)

// ProblemStore is the relational store of canonical problems. Implementations
// must be safe for concurrent use and wrap I/O failures as
// domain.ErrUpstreamUnavailable.
type ProblemStore interface {
	// UpsertProblem inserts p or overwrites every mutable field of the
	// existing row with the same ProblemID, atomically.
	// A slug held by another ProblemID is domain.ErrConflict.
	UpsertProblem(ctx context.Context, p domain.Problem) error
	// ListProblems returns matching problems ascending by ProblemID.
	ListProblems(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.ProblemListItem, error)
	// ListSlugs returns every slug ascending by ProblemID.
	ListSlugs(ctx context.Context) ([]string, error)
	// GetText returns one text field. A missing problem is domain.ErrNotFound;
	// a present problem with an empty field yields an empty Text.
	GetText(ctx context.Context, problemID int64, field domain.Field) (domain.ProblemText, error)
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying connections.
	Close() error
}

// ClampLimit applies the listing default and cap.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// slugConflict is the error for an upsert whose slug is held by a different
// problem_id.
func slugConflict(p domain.Problem) error {
	return fmt.Errorf("store: upsert %d: %w: slug %q already belongs to another problem",
		p.ProblemID, domain.ErrConflict, p.Slug)
}

// textColumn maps a field to its column name. Only validated fields reach SQL.
func textColumn(field domain.Field) (string, error) {
	switch field {
	case domain.FieldStatement:
		return "statement", nil
	case domain.FieldEditorial:
		return "editorial", nil
	default:
		return "", fmt.Errorf("store: %w: unsupported text field %q", domain.ErrInvalidFilter, field)
	}
}

// nullable maps an absent text field to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// DefaultDBPath returns the default SQLite database path, ~/.leetrag/problems.db,
// creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".leetrag")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "problems.db"), nil
}
