package domain

import "fmt"

// Chunk is a bounded segment of one problem text field, the unit of vector
// indexing. Title, Difficulty and Tags are snapshots taken when the chunk is
// created; they go stale if the problem changes without reindexing.
type Chunk struct {
	ProblemID  int64
	Title      string
	Difficulty Difficulty
	Tags       []string
	Type       Field
	Text       string
}

// SearchResult is one scored hit of a similarity search. It is rendered
// entirely from the vector-store payload without a relational lookup.
type SearchResult struct {
	ProblemID  int64      `json:"problem_id"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	Tags       []string   `json:"tags"`
	Score      float32    `json:"score"`
	Snippet    string     `json:"snippet"`
}

// ListFilter constrains relational listing. Zero values impose no constraint.
type ListFilter struct {
	// Difficulty is matched exactly.
	Difficulty Difficulty
	// Tags matches a problem carrying at least one of the given tags.
	Tags []string
}

// SearchFilter constrains vector search. Zero values impose no constraint;
// set fields are combined with AND.
type SearchFilter struct {
	// Difficulty is matched exactly.
	Difficulty Difficulty
	// Tags matches a chunk carrying at least one of the given tags.
	Tags []string
	// ChunkType restricts hits to statement or editorial chunks.
	ChunkType Field
}

// Validate checks the enumerated fields of the filter.
func (f SearchFilter) Validate() error {
	if _, err := ParseDifficulty(string(f.Difficulty)); err != nil {
		return err
	}
	if f.ChunkType != "" && !f.ChunkType.Valid() {
		return fmt.Errorf("%w: unsupported chunk_type %q", ErrInvalidFilter, f.ChunkType)
	}
	return nil
}
