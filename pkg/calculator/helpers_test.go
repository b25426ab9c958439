package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"order-analytics/pkg/models"
)

func item(t *testing.T, orderID, customerID, category, price, ts string) models.OrderItem {
	t.Helper()
	at, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", ts, err)
	}
	return models.OrderItem{
		OrderID:             orderID,
		CustomerUniqueID:    customerID,
		ProductCategoryName: category,
		Price:               decimal.RequireFromString(price),
		PurchasedAt:         at,
	}
}
