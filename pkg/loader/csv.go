package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"order-analytics/pkg/models"
)

// Column names of the order line-item export.
const (
	ColOrderID          = "order_id"
	ColCustomerUniqueID = "customer_unique_id"
	ColCategory         = "product_category_name"
	ColCategoryEnglish  = "product_category_name_english"
	ColPrice            = "price"
	ColPurchasedAt      = "order_purchase_timestamp"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ReadCSV parses an order line-item CSV. Columns are matched by header name, extra columns
// are ignored. The English category column wins over the Portuguese one when both exist.
// Timestamps without a zone are read as UTC.
func ReadCSV(r io.Reader) ([]models.OrderItem, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	col := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		col[h] = i
	}
	for _, required := range []string{ColOrderID, ColCustomerUniqueID, ColPrice, ColPurchasedAt} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	catIdx, ok := col[ColCategoryEnglish]
	if !ok {
		if catIdx, ok = col[ColCategory]; !ok {
			return nil, fmt.Errorf("missing column %q or %q", ColCategory, ColCategoryEnglish)
		}
	}

	var items []models.OrderItem
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		it, err := parseRow(row, col, catIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func parseRow(row []string, col map[string]int, catIdx int) (models.OrderItem, error) {
	field := func(name string) string { return strings.TrimSpace(row[col[name]]) }

	it := models.OrderItem{
		OrderID:             field(ColOrderID),
		CustomerUniqueID:    field(ColCustomerUniqueID),
		ProductCategoryName: strings.TrimSpace(row[catIdx]),
	}
	if it.OrderID == "" || it.CustomerUniqueID == "" {
		return it, fmt.Errorf("empty %s or %s", ColOrderID, ColCustomerUniqueID)
	}

	price, err := decimal.NewFromString(field(ColPrice))
	if err != nil {
		return it, fmt.Errorf("price: %w", err)
	}
	if price.IsNegative() {
		return it, fmt.Errorf("negative price %s", price)
	}
	it.Price = price

	it.PurchasedAt, err = parseTimestamp(field(ColPurchasedAt))
	if err != nil {
		return it, err
	}
	it.DeriveCalendar()
	return it, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty %s", ColPurchasedAt)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised %s %q", ColPurchasedAt, s)
}

// LoadCSV reads the CSV file at path, drawing a byte progress bar on stderr when asked.
func LoadCSV(path string, progress bool) ([]models.OrderItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if progress {
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		bar := progressbar.DefaultBytes(info.Size(), "reading "+filepath.Base(path))
		defer func() { _ = bar.Finish() }()
		r = io.TeeReader(f, bar)
	}

	items, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}
