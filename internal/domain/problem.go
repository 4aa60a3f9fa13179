// Package domain defines the entities shared by every layer of the
// retrieval-indexing pipeline: problems, chunks, search results, the filters
// used to query them, and the error taxonomy surfaced to callers.
package domain

import (
	"fmt"
	"strings"
)

// Difficulty is the closed set of problem difficulty labels.
type Difficulty string

const (
	// DifficultyEasy labels an easy problem.
	DifficultyEasy Difficulty = "Easy"
	// DifficultyMedium labels a medium problem.
	DifficultyMedium Difficulty = "Medium"
	// DifficultyHard labels a hard problem.
	DifficultyHard Difficulty = "Hard"
)

// ParseDifficulty validates s against the known difficulty labels. The empty
// string is accepted and means "no constraint". Matching is case-insensitive
// so "hard" and "Hard" resolve to the same label.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("%w: unknown difficulty %q (valid: Easy, Medium, Hard)", ErrInvalidFilter, s)
	}
}

// Field names one of the long text fields of a problem. It doubles as the
// chunk_type of every chunk produced from that field.
type Field string

const (
	// FieldStatement is the problem statement.
	FieldStatement Field = "statement"
	// FieldEditorial is the official editorial/solution write-up.
	FieldEditorial Field = "editorial"
)

// ParseField validates s as a text field. The empty string is accepted and
// means "no constraint" where a filter is optional.
func ParseField(s string) (Field, error) {
	switch Field(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case FieldStatement:
		return FieldStatement, nil
	case FieldEditorial:
		return FieldEditorial, nil
	default:
		return "", fmt.Errorf("%w: unsupported text field %q (valid: statement, editorial)", ErrInvalidFilter, s)
	}
}

// Valid reports whether f is one of the known text fields.
func (f Field) Valid() bool {
	return f == FieldStatement || f == FieldEditorial
}

// Record is a problem as delivered by an upstream problem source, before
// normalization. Editorial is a pointer because sources distinguish "no
// editorial" from an empty one; the distinction is dropped by Normalize.
type Record struct {
	ProblemID  int64    `json:"problem_id"`
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
	Statement  string   `json:"statement"`
	Editorial  *string  `json:"editorial,omitempty"`
}

// Problem is the canonical record persisted in the relational store.
// An empty Statement or Editorial means the field is absent.
type Problem struct {
	// ProblemID is the stable external identifier and primary key.
	ProblemID int64
	// Slug is the unique human-readable identifier (e.g. "two-sum").
	Slug string
	// Title is the display title.
	Title string
	// Difficulty is Easy, Medium or Hard.
	Difficulty Difficulty
	// Tags is the deduplicated topic tag set.
	Tags []string
	// Statement is the problem statement text (may be empty).
	Statement string
	// Editorial is the editorial text (may be empty).
	Editorial string
	// URL is the public problem page.
	URL string
}

// Text returns the content of the given field.
func (p Problem) Text(f Field) string {
	switch f {
	case FieldStatement:
		return p.Statement
	case FieldEditorial:
		return p.Editorial
	default:
		return ""
	}
}

// ProblemURL returns the public LeetCode page for slug.
func ProblemURL(slug string) string {
	return "https://leetcode.com/problems/" + slug + "/"
}

// Normalize converts an upstream Record into a Problem: whitespace-only text
// fields become absent so they never produce zero-length chunks, tags are
// deduplicated preserving first occurrence, and the URL is derived from the slug.
func Normalize(rec Record) Problem {
	p := Problem{
		ProblemID:  rec.ProblemID,
		Slug:       strings.TrimSpace(rec.Slug),
		Title:      rec.Title,
		Difficulty: Difficulty(rec.Difficulty),
		Tags:       dedupe(rec.Tags),
		Statement:  nonBlank(rec.Statement),
	}
	if rec.Editorial != nil {
		p.Editorial = nonBlank(*rec.Editorial)
	}
	if d, err := ParseDifficulty(rec.Difficulty); err == nil && d != "" {
		p.Difficulty = d
	}
	if p.Slug != "" {
		p.URL = ProblemURL(p.Slug)
	}
	return p
}

// nonBlank returns s unchanged unless it is empty or whitespace-only.
func nonBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ProblemListItem is the metadata-only view returned by listing queries.
type ProblemListItem struct {
	ProblemID  int64      `json:"problem_id"`
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	Tags       []string   `json:"tags"`
	URL        string     `json:"url,omitempty"`
}

// ProblemText is one text field of a problem. Text is empty when the field
// was never populated; that is a valid result, not a lookup failure.
type ProblemText struct {
	ProblemID int64  `json:"problem_id"`
	Title     string `json:"title"`
	Text      string `json:"text"`
}
