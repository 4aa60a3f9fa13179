package commands

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/leetrag/internal/logging"
	"github.com/54b3r/leetrag/internal/source"
)

// NewLoadCmd constructs the `leetrag load` command, which fetches problems
// from the configured source and indexes them.
func NewLoadCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "load [slug-or-url...]",
		Short: "Fetch and index LeetCode problems",
		Long: `Fetch problems from the configured source (SOURCE_KIND) and index them.

Each argument may be a bare slug or a LeetCode problem URL. With --file,
slugs are read one per line; blank lines and lines starting with # are
skipped. Problems are loaded in order and the first failure stops the run.

Examples:
  leetrag load two-sum
  leetrag load https://leetcode.com/problems/add-two-numbers/description/
  leetrag load --file blind75.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			raw := args
			if file != "" {
				fromFile, err := readSlugFile(file)
				if err != nil {
					return fmt.Errorf("load: %w", err)
				}
				raw = append(raw, fromFile...)
			}
			if len(raw) == 0 {
				return fmt.Errorf("load: at least one slug, URL or --file is required")
			}

			slugs := make([]string, 0, len(raw))
			for _, r := range raw {
				slug, err := source.NormalizeSlug(r)
				if err != nil {
					return fmt.Errorf("load: %w", err)
				}
				slugs = append(slugs, slug)
			}

			d, err := openAll(ctx, settings)
			if err != nil {
				return fmt.Errorf("load: %w", err)
			}
			defer d.Close()

			if d.vectorsName == "memory" {
				log.Warn("load: VECTOR_BACKEND=memory discards vectors when this command exits")
			}

			ix, err := newIndexer(d, settings, nil)
			if err != nil {
				return fmt.Errorf("load: %w", err)
			}
			src, err := newSource(settings)
			if err != nil {
				return fmt.Errorf("load: %w", err)
			}

			out := cmd.ErrOrStderr()
			if err := ix.Load(ctx, src, slugs, func(msg string) {
				fmt.Fprintln(out, msg)
			}); err != nil {
				return fmt.Errorf("load: %w", err)
			}

			log.Info("load complete", slog.Int("problems", len(slugs)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read slugs or URLs from a file, one per line")

	return cmd
}

// readSlugFile reads non-empty, non-comment lines from path.
func readSlugFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseSlugList(f)
}

func parseSlugList(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
