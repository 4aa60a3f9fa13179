package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	empty := "   "
	editorial := "Use a hash map."

	tests := []struct {
		name          string
		rec           Record
		wantStatement string
		wantEditorial string
		wantTags      []string
		wantURL       string
	}{
		{
			name:          "empty fields become absent",
			rec:           Record{ProblemID: 1, Slug: "two-sum", Difficulty: "Easy", Statement: "", Editorial: &empty},
			wantStatement: "",
			wantEditorial: "",
			wantTags:      []string{},
			wantURL:       "https://leetcode.com/problems/two-sum/",
		},
		{
			name:          "nil editorial stays absent",
			rec:           Record{ProblemID: 2, Slug: "add-two-numbers", Statement: "Add them."},
			wantStatement: "Add them.",
			wantEditorial: "",
			wantTags:      []string{},
			wantURL:       "https://leetcode.com/problems/add-two-numbers/",
		},
		{
			name:          "tags deduplicated in order",
			rec:           Record{ProblemID: 3, Slug: "x", Tags: []string{"Array", "Hash Table", "Array", " "}, Editorial: &editorial},
			wantEditorial: editorial,
			wantTags:      []string{"Array", "Hash Table"},
			wantURL:       "https://leetcode.com/problems/x/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Normalize(tt.rec)
			if got.Statement != tt.wantStatement {
				t.Errorf("Statement: got %q, want %q", got.Statement, tt.wantStatement)
			}
			if got.Editorial != tt.wantEditorial {
				t.Errorf("Editorial: got %q, want %q", got.Editorial, tt.wantEditorial)
			}
			if fmt.Sprint(got.Tags) != fmt.Sprint(tt.wantTags) {
				t.Errorf("Tags: got %v, want %v", got.Tags, tt.wantTags)
			}
			if got.URL != tt.wantURL {
				t.Errorf("URL: got %q, want %q", got.URL, tt.wantURL)
			}
		})
	}
}

func TestNormalize_CanonicalDifficulty(t *testing.T) {
	t.Parallel()
	if got := Normalize(Record{Difficulty: "hard"}).Difficulty; got != DifficultyHard {
		t.Errorf("got %q, want %q", got, DifficultyHard)
	}
	if got := Normalize(Record{Difficulty: "Legendary"}).Difficulty; got != "Legendary" {
		t.Errorf("unknown difficulty should pass through, got %q", got)
	}
}

func TestParseDifficulty(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"", "", false},
		{"Easy", DifficultyEasy, false},
		{"medium", DifficultyMedium, false},
		{" HARD ", DifficultyHard, false},
		{"trivial", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDifficulty(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDifficulty(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("ParseDifficulty(%q) err should wrap ErrInvalidFilter, got %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseField(t *testing.T) {
	t.Parallel()
	if f, err := ParseField("Statement"); err != nil || f != FieldStatement {
		t.Errorf("ParseField(Statement) = %q, %v", f, err)
	}
	if f, err := ParseField("editorial"); err != nil || f != FieldEditorial {
		t.Errorf("ParseField(editorial) = %q, %v", f, err)
	}
	if _, err := ParseField("hints"); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("ParseField(hints): want ErrInvalidFilter, got %v", err)
	}
}

func TestSearchFilter_Validate(t *testing.T) {
	t.Parallel()
	if err := (SearchFilter{Difficulty: DifficultyHard, ChunkType: FieldEditorial}).Validate(); err != nil {
		t.Errorf("valid filter rejected: %v", err)
	}
	if err := (SearchFilter{ChunkType: "hints"}).Validate(); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("want ErrInvalidFilter for chunk_type, got %v", err)
	}
	if err := (SearchFilter{Difficulty: "Impossible"}).Validate(); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("want ErrInvalidFilter for difficulty, got %v", err)
	}
}

func TestUpstreamError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("store: upsert: %w", Unavailable("postgres", context.DeadlineExceeded))
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Error("expected errors.Is(err, ErrUpstreamUnavailable)")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected the cause to remain reachable")
	}
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Component != "postgres" {
		t.Errorf("expected UpstreamError for postgres, got %v", err)
	}
	if Unavailable("x", nil) != nil {
		t.Error("Unavailable(nil) should be nil")
	}
}
