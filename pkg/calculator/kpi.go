package calculator

import (
	"github.com/shopspring/decimal"

	"order-analytics/pkg/models"
)

// ComputeKPIs counts distinct orders and customers and sums the price of every line item.
// Multi-item orders contribute one price per item. An empty dataset gives a zero summary.
func ComputeKPIs(ds *Dataset) models.KPISummary {
	orders := make(map[string]struct{})
	customers := make(map[string]struct{})
	revenue := decimal.Zero

	for i := 0; i < ds.Len(); i++ {
		it := ds.At(i)
		orders[it.OrderID] = struct{}{}
		customers[it.CustomerUniqueID] = struct{}{}
		revenue = revenue.Add(it.Price)
	}

	return models.KPISummary{
		DistinctOrderCount:    len(orders),
		DistinctCustomerCount: len(customers),
		TotalRevenue:          revenue,
	}
}
