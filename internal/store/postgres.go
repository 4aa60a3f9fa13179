package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/54b3r/leetrag/internal/domain"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresStore is a ProblemStore backed by PostgreSQL. Tags are a TEXT[]
// column matched with the && overlap operator and served by a GIN index.
type PostgresStore struct {
	// pool is the shared connection pool.
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database at url, verifies it is reachable and
// runs the schema migration.
func OpenPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("store: postgres config: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *PostgresStore) migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS problems (
    problem_id  BIGINT      PRIMARY KEY,
    slug        TEXT        NOT NULL UNIQUE,
    title       TEXT        NOT NULL,
    difficulty  TEXT        NOT NULL,
    tags        TEXT[]      NOT NULL DEFAULT '{}',
    statement   TEXT,
    editorial   TEXT,
    url         TEXT,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_problems_difficulty ON problems (difficulty);
CREATE INDEX IF NOT EXISTS idx_problems_tags ON problems USING GIN (tags);
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", domain.Unavailable("postgres", err))
	}
	return nil
}

// UpsertProblem inserts p or overwrites the existing row in one statement.
func (s *PostgresStore) UpsertProblem(ctx context.Context, p domain.Problem) error {
	const q = `
INSERT INTO problems (problem_id, slug, title, difficulty, tags, statement, editorial, url, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (problem_id) DO UPDATE SET
    slug       = EXCLUDED.slug,
    title      = EXCLUDED.title,
    difficulty = EXCLUDED.difficulty,
    tags       = EXCLUDED.tags,
    statement  = EXCLUDED.statement,
    editorial  = EXCLUDED.editorial,
    url        = EXCLUDED.url,
    updated_at = now()`
	_, err := s.pool.Exec(ctx, q,
		p.ProblemID, p.Slug, p.Title, string(p.Difficulty), nonNilTags(p.Tags),
		nullable(p.Statement), nullable(p.Editorial), nullable(p.URL),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return slugConflict(p)
	}
	if err != nil {
		return fmt.Errorf("store: upsert %d: %w", p.ProblemID, domain.Unavailable("postgres", err))
	}
	return nil
}

// buildListQuery renders the listing statement with positional arguments.
func buildListQuery(filter domain.ListFilter, limit int) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.Difficulty != "" {
		args = append(args, string(filter.Difficulty))
		where = append(where, fmt.Sprintf("difficulty = $%d", len(args)))
	}
	if len(filter.Tags) > 0 {
		args = append(args, filter.Tags)
		where = append(where, fmt.Sprintf("tags && $%d::text[]", len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT problem_id, slug, title, difficulty, tags, COALESCE(url, '') FROM problems")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, ClampLimit(limit))
	fmt.Fprintf(&b, " ORDER BY problem_id ASC LIMIT $%d", len(args))
	return b.String(), args
}

// ListProblems returns matching problems ascending by problem_id.
func (s *PostgresStore) ListProblems(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.ProblemListItem, error) {
	q, args := buildListQuery(filter, limit)
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", domain.Unavailable("postgres", err))
	}
	defer rows.Close()

	items := []domain.ProblemListItem{}
	for rows.Next() {
		var (
			it         domain.ProblemListItem
			difficulty string
		)
		if err := rows.Scan(&it.ProblemID, &it.Slug, &it.Title, &difficulty, &it.Tags, &it.URL); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", domain.Unavailable("postgres", err))
		}
		it.Difficulty = domain.Difficulty(difficulty)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", domain.Unavailable("postgres", err))
	}
	return items, nil
}

// ListSlugs returns every slug ascending by problem_id.
func (s *PostgresStore) ListSlugs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT slug FROM problems ORDER BY problem_id ASC")
	if err != nil {
		return nil, fmt.Errorf("store: slugs: %w", domain.Unavailable("postgres", err))
	}
	slugs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("store: slugs: %w", domain.Unavailable("postgres", err))
	}
	return slugs, nil
}

// GetText returns one text field of the problem.
func (s *PostgresStore) GetText(ctx context.Context, problemID int64, field domain.Field) (domain.ProblemText, error) {
	col, err := textColumn(field)
	if err != nil {
		return domain.ProblemText{}, err
	}

	var (
		out  = domain.ProblemText{ProblemID: problemID}
		text *string
	)
	q := "SELECT title, " + col + " FROM problems WHERE problem_id = $1"
	err = s.pool.QueryRow(ctx, q, problemID).Scan(&out.Title, &text)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ProblemText{}, fmt.Errorf("store: problem %d: %w", problemID, domain.ErrNotFound)
	case err != nil:
		return domain.ProblemText{}, fmt.Errorf("store: get text %d: %w", problemID, domain.Unavailable("postgres", err))
	}
	if text != nil {
		out.Text = *text
	}
	return out, nil
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", domain.Unavailable("postgres", err))
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
