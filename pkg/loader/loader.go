// Package loader turns a configured source (CSV file or SQL database) into a read-only
// calculator.Dataset.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"order-analytics/pkg/calculator"
	"order-analytics/pkg/database"
	"order-analytics/pkg/models"
)

// Source points at the order line items. DSN wins over Path.
type Source struct {
	Path     string
	DSN      string
	Query    database.Query
	Progress bool
}

func (s Source) String() string {
	if s.DSN == "" {
		return "csv:" + s.Path
	}
	return database.Redact(s.DSN)
}

// Load reads every line item of src. Loading the same source twice yields identical
// datasets.
func Load(ctx context.Context, src Source, logger *slog.Logger) (*calculator.Dataset, error) {
	start := time.Now()

	var (
		items []models.OrderItem
		err   error
	)
	switch {
	case src.DSN != "":
		items, err = loadDatabase(ctx, src, logger)
	case src.Path != "":
		items, err = LoadCSV(src.Path, src.Progress)
	default:
		return nil, fmt.Errorf("no data source configured (set data or dsn)")
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src, err)
	}

	ds := calculator.NewDataset(items)
	logger.Info("dataset loaded",
		"source", src.String(),
		"rows", ds.Len(),
		"years", ds.Years(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return ds, nil
}

func loadDatabase(ctx context.Context, src Source, logger *slog.Logger) ([]models.OrderItem, error) {
	db, _, err := database.Open(src.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	logger.Debug("connected", "source", src.String())

	return database.LoadOrderItems(ctx, db, src.Query, logger, src.Progress)
}
