package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"order-analytics/pkg/report"
	"order-analytics/pkg/server"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics as a JSON HTTP API",
		Long: `Start an HTTP server exposing the analytics under /api:

  GET /api/years
  GET /api/kpis?years=2017,2018
  GET /api/categories?top=10
  GET /api/monthly
  GET /api/rfm?top=10&customers=true
  GET /api/report

With --watch the CSV source is reloaded when it changes.`,
		Example: `  order-analytics serve --data orders.csv --listen :9000 --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, cfg, err := loadDataset(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Config{
				Listen: cfg.Listen,
				Source: sourceFor(cfg),
				Watch:  cfg.Watch,
				Defaults: report.Options{
					TopCategories: cfg.TopCategories,
					TopSegments:   cfg.TopSegments,
					Policy:        cfg.Policy(),
				},
				Logger: getLogger(cmd.Context()),
			}, ds)
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("listen", "", "Listen address (default: :8080)")
	cmd.Flags().Bool("watch", false, "Reload the CSV source when it changes")
	return cmd
}
