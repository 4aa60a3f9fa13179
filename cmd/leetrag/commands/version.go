package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/leetrag/internal/version"
)

// NewVersionCmd constructs the `leetrag version` subcommand. It prints the
// values injected at build time via -ldflags.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the leetrag version, git commit, and build date",
		Annotations: map[string]string{skipConfig: "true"},
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
