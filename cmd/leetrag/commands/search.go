package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/leetrag/internal/domain"
)

// NewSearchCmd constructs the `leetrag search` command, which runs a
// semantic search over indexed chunks.
func NewSearchCmd() *cobra.Command {
	var (
		difficultyFlag string
		tags           []string
		chunkType      string
		limit          int
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Semantic search over indexed problems",
		Long: `Embed the query and return the most similar statement or editorial chunks.

Filters combine with AND; --tag matches chunks carrying any of the given
tags.

Examples:
  leetrag search "find two numbers that add up to a target"
  leetrag search --difficulty hard --tag "Dynamic Programming" interval scheduling
  leetrag search --chunk-type editorial --limit 3 --json monotonic stack`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			d, err := openAll(ctx, settings)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer d.Close()

			svc, err := newQueryService(d, settings)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			filter := domain.SearchFilter{
				Difficulty: domain.Difficulty(difficultyFlag),
				Tags:       tags,
				ChunkType:  domain.Field(strings.ToLower(chunkType)),
			}
			results, err := svc.Search(ctx, strings.Join(args, " "), filter, limit)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), results)
			}
			printResults(cmd.OutOrStdout(), results, terminalWidth())
			return nil
		},
	}

	cmd.Flags().StringVarP(&difficultyFlag, "difficulty", "d", "", "Restrict to Easy, Medium or Hard")
	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "Restrict to chunks with this tag (repeatable)")
	cmd.Flags().StringVar(&chunkType, "chunk-type", "", "Restrict to statement or editorial chunks")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (default SEARCH_DEFAULT_LIMIT, max 200)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}
