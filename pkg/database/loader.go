package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"order-analytics/pkg/models"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DefaultTable is the line-item table read when no table is configured.
const DefaultTable = "order_items"

// DefaultCategoryColumn is the category column read when none is configured.
const DefaultCategoryColumn = "product_category_name"

var identifier = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open DSN mariadb://, mysql:// → MySQL driver; postgres://, postgresql:// → pgx.
// Anything else is handed to the MySQL driver as a native DSN.
func Open(dsn string) (*sql.DB, string, error) {
	driver, driverDSN, err := resolveDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(driver, driverDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, driverDSN, nil
}

func resolveDSN(dsn string) (driver, driverDSN string, err error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx", dsn, nil
	}
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return "", "", err
	}
	return "mysql", mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("incomplete dsn (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}

	// Native DSN: timestamps are scanned into time.Time, so parseTime is required.
	// loc defaults to UTC in the driver.
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.ParseTime {
		return dsn, nil
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// Redact returns dsn with its password masked, for logs and error messages.
func Redact(dsn string) string {
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil {
			return u.Redacted()
		}
		return "dsn"
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "dsn"
	}
	if cfg.Passwd != "" {
		cfg.Passwd = "xxxxx"
	}
	return cfg.FormatDSN()
}

// Query names the table and category column holding order line items.
type Query struct {
	Table          string
	CategoryColumn string
}

func (q Query) sql() (string, error) {
	table := q.Table
	if table == "" {
		table = DefaultTable
	}
	category := q.CategoryColumn
	if category == "" {
		category = DefaultCategoryColumn
	}
	if !identifier.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	if !identifier.MatchString(category) {
		return "", fmt.Errorf("invalid category column %q", category)
	}
	return fmt.Sprintf(`
		SELECT
			oi.order_id,
			oi.customer_unique_id,
			oi.%s,
			oi.price,
			oi.order_purchase_timestamp
		FROM %s oi
	`, category, table), nil
}

// LoadOrderItems reads every line item of the configured table. Missing categories become
// "", timestamps are normalised to UTC and negative prices are rejected.
func LoadOrderItems(ctx context.Context, db *sql.DB, q Query, logger *slog.Logger, progress bool) ([]models.OrderItem, error) {
	query, err := q.sql()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.Default(-1, "loading order items")
	}

	var items []models.OrderItem
	for rows.Next() {
		var (
			it       models.OrderItem
			category sql.NullString
			price    decimal.Decimal
		)
		if err := rows.Scan(&it.OrderID, &it.CustomerUniqueID, &category, &price, &it.PurchasedAt); err != nil {
			return nil, fmt.Errorf("scan order item %d: %w", len(items)+1, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("order %s: negative price %s", it.OrderID, price)
		}
		if category.Valid {
			it.ProductCategoryName = strings.TrimSpace(category.String)
		}
		it.Price = price
		it.PurchasedAt = it.PurchasedAt.UTC()
		it.DeriveCalendar()
		items = append(items, it)

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	logger.Debug("order items loaded", "rows", len(items), "elapsed", time.Since(start).Round(time.Millisecond))
	return items, nil
}
