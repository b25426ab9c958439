package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"order-analytics/pkg/calculator"
	"order-analytics/pkg/config"
	"order-analytics/pkg/loader"
	"order-analytics/pkg/models"
	"order-analytics/pkg/render"
	"order-analytics/pkg/report"
)

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display order-analytics version information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "order-analytics v%s\n", version)
		},
	}
}

func newYearsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List the order years present in the data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, cfg, err := loadDataset(cmd)
			if err != nil {
				return err
			}
			return rendererFor(cmd, cfg).Years(ds.Years())
		},
	}
}

func newKPIsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kpis",
		Short: "Show distinct orders, distinct customers and revenue",
		Example: `  order-analytics kpis --data orders.csv
  order-analytics kpis --data orders.csv --years 2017,2018 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, cfg, err := loadDataset(cmd)
			if err != nil {
				return err
			}
			return rendererFor(cmd, cfg).KPIs(calculator.ComputeKPIs(selectYears(ds, cfg)))
		},
	}
}

func newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Rank product categories by distinct orders",
		Example: `  order-analytics categories --data orders.csv --top-categories 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, cfg, err := loadDataset(cmd)
			if err != nil {
				return err
			}
			ranking, err := calculator.RankCategories(selectYears(ds, cfg), cfg.TopCategories)
			if err != nil {
				return err
			}
			return rendererFor(cmd, cfg).Categories(ranking)
		},
	}
}

func newMonthlyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "monthly",
		Short: "Show distinct orders per calendar month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, cfg, err := loadDataset(cmd)
			if err != nil {
				return err
			}
			return rendererFor(cmd, cfg).Monthly(calculator.MonthlyOrderSeries(selectYears(ds, cfg)))
		},
	}
}

func newRFMCommand() *cobra.Command {
	var customers bool

	cmd := &cobra.Command{
		Use:   "rfm",
		Short: "Segment customers by Recency, Frequency and Monetary quartiles",
		Long: `Score every customer 1-4 on Recency, Frequency and Monetary quartiles and
count customers per three-digit segment code (e.g. "444" for the most recent,
most frequent and highest spending customers).

With --bin-policy rank, tied recency or monetary values are binned on their
first-occurrence ranks instead of failing.`,
		Example: `  order-analytics rfm --data orders.csv --top-segments 5
  order-analytics rfm --data orders.csv --customers -o csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, cfg, err := loadDataset(cmd)
			if err != nil {
				return err
			}
			records, segments, err := calculator.ComputeRFM(selectYears(ds, cfg), cfg.TopSegments,
				calculator.WithBinPolicy(cfg.Policy()))
			if err != nil {
				return fmt.Errorf("rfm: %w", err)
			}

			section := models.RFMSection{Customers: len(records), Segments: segments}
			if customers {
				section.Records = records
			}
			return rendererFor(cmd, cfg).RFM(section)
		},
	}

	cmd.Flags().BoolVar(&customers, "customers", false, "Also list every customer with its scores")
	return cmd
}

func newReportCommand() *cobra.Command {
	var (
		exportDir string
		customers bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show every section for the selected years",
		Example: `  order-analytics report --data orders.csv
  order-analytics report --data orders.csv --years 2018 --export reports/`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, cfg, err := loadDataset(cmd)
			if err != nil {
				return err
			}
			logger := getLogger(cmd.Context())

			var years []int
			if len(cfg.Years) > 0 {
				years = cfg.Years
			}
			rep, err := report.Build(ds, years, report.Options{
				TopCategories:  cfg.TopCategories,
				TopSegments:    cfg.TopSegments,
				Policy:         cfg.Policy(),
				IncludeRecords: customers,
			})
			if err != nil {
				return err
			}
			if rep.RFM.Error != "" {
				logger.Warn("rfm segmentation skipped", "reason", rep.RFM.Error)
			}

			if err := rendererFor(cmd, cfg).Report(rep); err != nil {
				return err
			}

			if exportDir != "" {
				path, err := report.ExportJSON(exportDir, rep)
				if err != nil {
					return err
				}
				logger.Info("report exported", "path", path, "id", rep.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportDir, "export", "", "Also write the report as JSON into this directory")
	cmd.Flags().BoolVar(&customers, "customers", false, "Include per-customer RFM records")
	return cmd
}

func loadDataset(cmd *cobra.Command) (*calculator.Dataset, *config.Config, error) {
	cfg := getConfig(cmd.Context())
	if err := cfg.ValidateSource(); err != nil {
		return nil, nil, err
	}
	ds, err := loader.Load(cmd.Context(), sourceFor(cfg), getLogger(cmd.Context()))
	if err != nil {
		return nil, nil, err
	}
	return ds, cfg, nil
}

func sourceFor(cfg *config.Config) loader.Source {
	return loader.Source{
		Path:     cfg.Data,
		DSN:      cfg.DSN,
		Query:    cfg.Query(),
		Progress: cfg.Verbose,
	}
}

// selectYears restricts ds to the configured years; no configured years keeps every row.
func selectYears(ds *calculator.Dataset, cfg *config.Config) *calculator.Dataset {
	if len(cfg.Years) == 0 {
		return ds
	}
	return ds.FilterYears(cfg.Years)
}

func rendererFor(cmd *cobra.Command, cfg *config.Config) *render.Renderer {
	return render.New(cmd.OutOrStdout(), cfg.Output)
}
