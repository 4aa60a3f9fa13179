package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/54b3r/leetrag/internal/ingestion"
	"github.com/54b3r/leetrag/internal/logging"
	"github.com/54b3r/leetrag/internal/server"
	"github.com/54b3r/leetrag/internal/version"
)

// NewServeCmd constructs the `leetrag serve` command, which starts the HTTP
// API over the configured stores.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the leetrag HTTP API",
		Long: `Start the leetrag HTTP API.

The server loads problems on demand, answers semantic searches and serves
problem metadata. GET /api/ready probes the relational and vector stores;
GET /metrics exposes Prometheus metrics.

Examples:
  leetrag serve
  leetrag serve --port 9090
  STORE_DRIVER=postgres POSTGRES_URL=postgres://... leetrag serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			log := logging.FromContext(ctx)

			if cmd.Flags().Changed("host") {
				settings.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				settings.Server.Port = port
			}

			d, err := openAll(ctx, settings)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() {
				if err := d.Close(); err != nil {
					log.Warn("serve: closing stores", slog.Any("error", err))
				}
			}()

			ix, err := newIndexer(d, settings, prometheus.DefaultRegisterer)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			svc, err := newQueryService(d, settings)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			src, err := newSource(settings)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			loader := server.LoaderFunc(func(ctx context.Context, slug string) (ingestion.Loaded, error) {
				return ix.LoadOne(ctx, src, slug)
			})

			srv, err := server.New(svc, loader, &server.Config{
				Host:           settings.Server.Host,
				Port:           settings.Server.Port,
				RequestTimeout: settings.Server.RequestTimeout,
				RateLimit:      settings.Server.RateLimit,
				RateBurst:      settings.Server.RateBurst,
				Logger:         log,
				Pingers:        d.Pingers(),
				Version:        version.Version,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			log.Info("serve starting",
				slog.String("store", d.problemsName),
				slog.String("vectors", d.vectorsName),
				slog.String("source", settings.Source.Kind),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to (overrides LEETRAG_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8000, "TCP port to listen on (overrides LEETRAG_PORT)")

	return cmd
}
