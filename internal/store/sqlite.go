package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/54b3r/leetrag/internal/domain"
)

// SQLiteStore is a ProblemStore backed by a local SQLite database. Tags are
// stored as a JSON array and matched with json_each.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLiteStore at the given path and runs the
// schema migration. Use ":memory:" for an in-memory database in tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	// It also keeps an in-memory database alive on one connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS problems (
    problem_id  INTEGER PRIMARY KEY,
    slug        TEXT    NOT NULL UNIQUE,
    title       TEXT    NOT NULL,
    difficulty  TEXT    NOT NULL,
    tags        TEXT    NOT NULL DEFAULT '[]',  -- JSON array
    statement   TEXT,
    editorial   TEXT,
    url         TEXT,
    updated_at  INTEGER NOT NULL                -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_problems_difficulty ON problems (difficulty);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// UpsertProblem inserts p or overwrites the existing row in one statement.
func (s *SQLiteStore) UpsertProblem(ctx context.Context, p domain.Problem) error {
	tags, err := json.Marshal(nonNilTags(p.Tags))
	if err != nil {
		return fmt.Errorf("store: upsert %d: encode tags: %w", p.ProblemID, err)
	}
	const q = `
INSERT INTO problems (problem_id, slug, title, difficulty, tags, statement, editorial, url, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (problem_id) DO UPDATE SET
    slug       = excluded.slug,
    title      = excluded.title,
    difficulty = excluded.difficulty,
    tags       = excluded.tags,
    statement  = excluded.statement,
    editorial  = excluded.editorial,
    url        = excluded.url,
    updated_at = excluded.updated_at`
	_, err = s.db.ExecContext(ctx, q,
		p.ProblemID, p.Slug, p.Title, string(p.Difficulty), string(tags),
		nullable(p.Statement), nullable(p.Editorial), nullable(p.URL), time.Now().Unix(),
	)
	if sqliteUniqueViolation(err) {
		return slugConflict(p)
	}
	if err != nil {
		return fmt.Errorf("store: upsert %d: %w", p.ProblemID, domain.Unavailable("sqlite", err))
	}
	return nil
}

// sqliteUniqueViolation reports whether err is a UNIQUE constraint failure.
// ON CONFLICT absorbs problem_id, so only the slug can trip it.
func sqliteUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// ListProblems returns matching problems ascending by problem_id.
func (s *SQLiteStore) ListProblems(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.ProblemListItem, error) {
	var (
		where []string
		args  []any
	)
	if filter.Difficulty != "" {
		where = append(where, "difficulty = ?")
		args = append(args, string(filter.Difficulty))
	}
	if len(filter.Tags) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(filter.Tags)), ",")
		where = append(where, "EXISTS (SELECT 1 FROM json_each(problems.tags) WHERE json_each.value IN ("+marks+"))")
		for _, t := range filter.Tags {
			args = append(args, t)
		}
	}

	q := "SELECT problem_id, slug, title, difficulty, tags, COALESCE(url, '') FROM problems"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY problem_id ASC LIMIT ?"
	args = append(args, ClampLimit(limit))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", domain.Unavailable("sqlite", err))
	}
	defer rows.Close()

	items := []domain.ProblemListItem{}
	for rows.Next() {
		var (
			it         domain.ProblemListItem
			difficulty string
			tags       string
		)
		if err := rows.Scan(&it.ProblemID, &it.Slug, &it.Title, &difficulty, &tags, &it.URL); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", domain.Unavailable("sqlite", err))
		}
		it.Difficulty = domain.Difficulty(difficulty)
		if err := json.Unmarshal([]byte(tags), &it.Tags); err != nil {
			return nil, fmt.Errorf("store: list decode tags of %d: %w", it.ProblemID, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", domain.Unavailable("sqlite", err))
	}
	return items, nil
}

// ListSlugs returns every slug ascending by problem_id.
func (s *SQLiteStore) ListSlugs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT slug FROM problems ORDER BY problem_id ASC")
	if err != nil {
		return nil, fmt.Errorf("store: slugs: %w", domain.Unavailable("sqlite", err))
	}
	defer rows.Close()

	slugs := []string{}
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("store: slugs scan: %w", domain.Unavailable("sqlite", err))
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: slugs rows: %w", domain.Unavailable("sqlite", err))
	}
	return slugs, nil
}

// GetText returns one text field of the problem.
func (s *SQLiteStore) GetText(ctx context.Context, problemID int64, field domain.Field) (domain.ProblemText, error) {
	col, err := textColumn(field)
	if err != nil {
		return domain.ProblemText{}, err
	}

	var (
		out  = domain.ProblemText{ProblemID: problemID}
		text sql.NullString
	)
	q := "SELECT title, " + col + " FROM problems WHERE problem_id = ?"
	err = s.db.QueryRowContext(ctx, q, problemID).Scan(&out.Title, &text)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.ProblemText{}, fmt.Errorf("store: problem %d: %w", problemID, domain.ErrNotFound)
	case err != nil:
		return domain.ProblemText{}, fmt.Errorf("store: get text %d: %w", problemID, domain.Unavailable("sqlite", err))
	}
	out.Text = text.String
	return out, nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", domain.Unavailable("sqlite", err))
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
