// Package chunker splits problem text fields into bounded, overlapping
// windows. It is pure: no I/O, no randomness, the same problem always yields
// the same chunks.
package chunker

import (
	"fmt"

	"github.com/54b3r/leetrag/internal/domain"
)

const (
	// DefaultSize is the maximum window length in characters.
	DefaultSize = 2000
	// DefaultOverlap is the number of characters shared by consecutive windows.
	DefaultOverlap = 200
)

// Chunker holds the window geometry. Lengths are measured in runes so that a
// multi-byte character is never split across windows.
type Chunker struct {
	// size is the maximum window length (L).
	size int
	// overlap is the length shared by consecutive windows (V); always < size.
	overlap int
}

// New constructs a Chunker. It fails when the geometry cannot make forward
// progress (overlap >= size) so the misconfiguration surfaces at startup.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunker: size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunker: overlap must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunker: overlap (%d) must be smaller than size (%d)", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the maximum window length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the window overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits the statement and then the editorial of p. Absent fields
// contribute nothing, so a problem without text yields an empty slice.
func (c *Chunker) Chunk(p domain.Problem) []domain.Chunk {
	var chunks []domain.Chunk
	for _, field := range []domain.Field{domain.FieldStatement, domain.FieldEditorial} {
		text := p.Text(field)
		if text == "" {
			continue
		}
		for _, part := range c.Split(text) {
			chunks = append(chunks, domain.Chunk{
				ProblemID:  p.ProblemID,
				Title:      p.Title,
				Difficulty: p.Difficulty,
				Tags:       p.Tags,
				Type:       field,
				Text:       part,
			})
		}
	}
	return chunks
}

// Split returns the windows of text. Window k covers runes
// [k*(size-overlap), k*(size-overlap)+size), the last one clamped to the text
// length. Splitting stops at the first window that reaches the end, so every
// window but the last has exactly size runes.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.size {
		return []string{text}
	}

	step := c.size - c.overlap
	parts := make([]string, 0, (len(runes)-c.size+step-1)/step+1)
	for start := 0; start < len(runes); start += step {
		end := min(start+c.size, len(runes))
		parts = append(parts, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return parts
}
