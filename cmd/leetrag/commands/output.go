package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/54b3r/leetrag/internal/domain"
)

// defaultWidth is used for snippet wrapping when stdout is not a terminal.
const defaultWidth = 100

var difficultyColors = map[domain.Difficulty]*color.Color{
	domain.DifficultyEasy:   color.New(color.FgGreen),
	domain.DifficultyMedium: color.New(color.FgYellow),
	domain.DifficultyHard:   color.New(color.FgRed),
}

// difficulty renders d in its conventional colour. fatih/color disables
// colour itself when stdout is not a terminal or NO_COLOR is set.
func difficulty(d domain.Difficulty) string {
	if c, ok := difficultyColors[d]; ok {
		return c.Sprint(string(d))
	}
	return string(d)
}

// terminalWidth returns the stdout width, or defaultWidth when unknown.
func terminalWidth() int {
	fd := int(os.Stdout.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResults writes one block per hit: a header line and an indented,
// single-line snippet clipped to width.
func printResults(w io.Writer, results []domain.SearchResult, width int) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	bold := color.New(color.Bold)
	for i, r := range results {
		fmt.Fprintf(w, "%2d. %.3f  #%d %s (%s)", i+1, r.Score, r.ProblemID, bold.Sprint(r.Title), difficulty(r.Difficulty))
		if len(r.Tags) > 0 {
			fmt.Fprintf(w, "  [%s]", strings.Join(r.Tags, ", "))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "    %s\n", clip(strings.Join(strings.Fields(r.Snippet), " "), width-4))
	}
}

// printProblems writes a table of listing rows.
func printProblems(w io.Writer, items []domain.ProblemListItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tTITLE\tDIFFICULTY\tTAGS")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", it.ProblemID, it.Slug, it.Title, difficulty(it.Difficulty), strings.Join(it.Tags, ", "))
	}
	return tw.Flush()
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
