// Package commands defines all Cobra CLI commands for the leetrag binary.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/leetrag/internal/audit"
	"github.com/54b3r/leetrag/internal/config"
	"github.com/54b3r/leetrag/internal/logging"
)

// skipConfig marks commands that run without resolved settings.
const skipConfig = "skip-config"

// configPath holds the --config flag value for YAML config file override.
var configPath string

// settings is resolved once in the root PersistentPreRunE.
var settings config.Settings

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "leetrag",
		Short: "Index LeetCode problems for semantic retrieval",
		Long: `leetrag fetches LeetCode problems, stores their metadata in a relational
database and indexes statement and editorial chunks as embedding vectors
for semantic search.

Configuration comes from the environment, .env files and a YAML config
file (~/.leetrag/config.yaml or ./leetrag.yaml), with the environment
taking precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfig] == "true" {
				return nil
			}
			bootLog := logging.FromEnvironment()

			path, err := config.Load(configPath, bootLog)
			if err != nil {
				return err
			}
			if settings, err = config.FromEnv(); err != nil {
				return err
			}

			log := logging.New(settings.Log.Level, settings.Log.Format, cmd.ErrOrStderr())
			slog.SetDefault(log)
			cmd.SetContext(logging.WithLogger(cmd.Context(), log))

			audit.LogCommandStart(cmd.Context(), log, cmd.Name(), path)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.leetrag/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewLoadCmd(),
		NewSearchCmd(),
		NewListCmd(),
		NewSlugsCmd(),
		NewTextCmd(),
		NewVersionCmd(),
	)

	return root
}
