package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/54b3r/leetrag/internal/domain"
)

// NewListCmd constructs the `leetrag list` command, which lists stored
// problem metadata. It reads only the relational store.
func NewListCmd() *cobra.Command {
	var (
		difficultyFlag string
		tags           []string
		limit          int
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored problems",
		Long: `List stored problems in ascending id order.

Examples:
  leetrag list
  leetrag list --difficulty easy --tag Array
  leetrag list --limit 200 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			diff, err := domain.ParseDifficulty(difficultyFlag)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			if limit <= 0 {
				limit = settings.Query.ListDefaultLimit
			}

			d, err := openProblems(ctx, settings)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			defer d.Close()

			items, err := d.problems.ListProblems(ctx, domain.ListFilter{Difficulty: diff, Tags: tags}, limit)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			return printProblems(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().StringVarP(&difficultyFlag, "difficulty", "d", "", "Restrict to Easy, Medium or Hard")
	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "Restrict to problems with this tag (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum rows (default LIST_DEFAULT_LIMIT, max 200)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rows as JSON")

	return cmd
}

// NewSlugsCmd constructs the `leetrag slugs` command, which prints every
// stored slug, one per line.
func NewSlugsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slugs",
		Short: "Print every stored problem slug",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			d, err := openProblems(ctx, settings)
			if err != nil {
				return fmt.Errorf("slugs: %w", err)
			}
			defer d.Close()

			slugs, err := d.problems.ListSlugs(ctx)
			if err != nil {
				return fmt.Errorf("slugs: %w", err)
			}
			for _, s := range slugs {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

// NewTextCmd constructs the `leetrag text` command, which prints the
// statement or editorial of one stored problem.
func NewTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text <problem-id> [statement|editorial]",
		Short: "Print a stored problem's statement or editorial",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("text: %w: problem id must be an integer", domain.ErrInvalidInput)
			}
			field := domain.FieldStatement
			if len(args) == 2 {
				if field, err = domain.ParseField(args[1]); err != nil {
					return fmt.Errorf("text: %w", err)
				}
				if field == "" {
					field = domain.FieldStatement
				}
			}

			d, err := openProblems(ctx, settings)
			if err != nil {
				return fmt.Errorf("text: %w", err)
			}
			defer d.Close()

			txt, err := d.problems.GetText(ctx, id, field)
			if err != nil {
				return fmt.Errorf("text: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "#%d %s (%s)\n\n", txt.ProblemID, txt.Title, field)
			if txt.Text == "" {
				fmt.Fprintf(out, "(no %s stored)\n", field)
				return nil
			}
			fmt.Fprintln(out, txt.Text)
			return nil
		},
	}
}
