package commands

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/54b3r/leetrag/internal/domain"
	"github.com/54b3r/leetrag/internal/store"
)

func init() {
	color.NoColor = true
}

// run executes the root command with args and an isolated environment,
// returning stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("LEETRAG_CONFIG", "")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func seedSQLite(t *testing.T, path string, problems ...domain.Problem) {
	t.Helper()
	s, err := store.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	for _, p := range problems {
		if err := s.UpsertProblem(context.Background(), p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestVersionCmd_SkipsConfig(t *testing.T) {
	// An invalid setting would fail every configured command.
	t.Setenv("CHUNK_OVERLAP", "999999")

	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "leetrag dev") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestRoot_InvalidSettings(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	root := NewRootCmd()
	root.SetArgs([]string{"slugs"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "STORE_DRIVER") {
		t.Fatalf("want STORE_DRIVER validation error, got %v", err)
	}
}

func TestListSlugsAndText(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "problems.db")
	editorial := "Use a hash map."
	seedSQLite(t, dbPath,
		domain.Normalize(domain.Record{ProblemID: 1, Slug: "two-sum", Title: "Two Sum", Difficulty: "Easy", Tags: []string{"Array", "Hash Table"}, Statement: "Given an array of integers", Editorial: &editorial}),
		domain.Normalize(domain.Record{ProblemID: 42, Slug: "trapping-rain-water", Title: "Trapping Rain Water", Difficulty: "Hard", Tags: []string{"Array", "Stack"}}),
	)
	t.Setenv("SQLITE_PATH", dbPath)

	out, err := run(t, "slugs")
	if err != nil {
		t.Fatalf("slugs: %v", err)
	}
	if out != "two-sum\ntrapping-rain-water\n" {
		t.Errorf("slugs output = %q", out)
	}

	out, err = run(t, "list", "--difficulty", "hard")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "trapping-rain-water") || strings.Contains(out, "two-sum") {
		t.Errorf("list output = %q", out)
	}

	out, err = run(t, "text", "1", "editorial")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if !strings.Contains(out, "Use a hash map.") {
		t.Errorf("text output = %q", out)
	}

	out, err = run(t, "text", "42")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if !strings.Contains(out, "no statement stored") {
		t.Errorf("empty statement output = %q", out)
	}

	if _, err := run(t, "text", "999"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("want ErrNotFound for 999, got %v", err)
	}
	if _, err := run(t, "list", "--difficulty", "extreme"); !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("want ErrInvalidFilter, got %v", err)
	}
}

func TestLoadCmd_RequiresSlugs(t *testing.T) {
	_, err := run(t, "load")
	if err == nil || !strings.Contains(err.Error(), "at least one") {
		t.Fatalf("want missing-slug error, got %v", err)
	}

	_, err = run(t, "load", "https://example.com/problems/two-sum")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput for a non-LeetCode URL, got %v", err)
	}
}

func TestParseSlugList(t *testing.T) {
	t.Parallel()

	in := "# blind 75\ntwo-sum\n\n  https://leetcode.com/problems/3sum/  \n# done\n"
	got, err := parseSlugList(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parseSlugList: %v", err)
	}
	want := []string{"two-sum", "https://leetcode.com/problems/3sum/"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPrintResults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printResults(&buf, []domain.SearchResult{{
		ProblemID:  1,
		Title:      "Two Sum",
		Difficulty: domain.DifficultyEasy,
		Tags:       []string{"Array"},
		Score:      0.91234,
		Snippet:    "Given an array\nof integers nums and an integer target, return indices of the two numbers.",
	}}, 40)

	out := buf.String()
	if !strings.Contains(out, " 1. 0.912  #1 Two Sum (Easy)  [Array]") {
		t.Errorf("header missing: %q", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 || len([]rune(lines[1])) != 40 || !strings.HasSuffix(lines[1], "...") {
		t.Errorf("snippet line not clipped to width: %q", lines)
	}

	buf.Reset()
	printResults(&buf, nil, 80)
	if buf.String() != "no results\n" {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestClip(t *testing.T) {
	t.Parallel()

	if got := clip("héllo wörld", 8); got != "héllo..." {
		t.Errorf("clip = %q", got)
	}
	if got := clip("short", 10); got != "short" {
		t.Errorf("clip = %q", got)
	}
}
