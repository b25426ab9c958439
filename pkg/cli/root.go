// Package cli provides the command-line interface for order-analytics.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"order-analytics/pkg/calculator"
	"order-analytics/pkg/config"
)

// Version information (set at build time).
var Version = "0.1.0"

type configKey struct{}

type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "order-analytics",
		Short: "Order analytics - KPIs, category ranking, monthly series and RFM segments",
		Long: `order-analytics reads an e-commerce order line-item export (CSV or SQL table)
and reports summary KPIs, the most ordered product categories, the monthly order
volume and an RFM (Recency, Frequency, Monetary) customer segmentation.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.File != "" {
				logger.Debug("using config file", "file", cfg.File)
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./order-analytics.yaml)")
	pf.String("data", "", "Path to the order line-item CSV export")
	pf.String("dsn", "", "Database DSN (mysql://, mariadb://, postgres://); wins over --data")
	pf.String("table", "", "Line-item table read from the database (default: order_items)")
	pf.String("category-column", "", "Category column read from the database (default: product_category_name)")
	pf.IntSlice("years", nil, "Order years to include (default: every year)")
	pf.Int("top-categories", calculator.DefaultTopN, "Number of categories in the ranking")
	pf.Int("top-segments", calculator.DefaultTopN, "Number of RFM segments in the segment table")
	pf.String("bin-policy", calculator.BinStrict.String(), "Tied quartile handling (strict|rank)")
	pf.StringP("output", "o", "", "Output format (auto|table|json|csv|markdown)")
	pf.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			config.OutputAuto, config.OutputTable, config.OutputJSON, config.OutputCSV, config.OutputMarkdown,
		}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("bin-policy", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{calculator.BinStrict.String(), calculator.BinRankFallback.String()}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand(Version))
	rootCmd.AddCommand(newYearsCommand())
	rootCmd.AddCommand(newKPIsCommand())
	rootCmd.AddCommand(newCategoriesCommand())
	rootCmd.AddCommand(newMonthlyCommand())
	rootCmd.AddCommand(newRFMCommand())
	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		TopCategories: calculator.DefaultTopN,
		TopSegments:   calculator.DefaultTopN,
		Output:        config.DefaultOutput,
		Listen:        config.DefaultListen,
	}
}

func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
