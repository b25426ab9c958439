package calculator

import (
	"sort"

	"order-analytics/pkg/models"
)

type yearMonth struct {
	year, month int
}

// MonthlyOrderSeries counts distinct orders per (year, month), in chronological order.
// Months without orders are absent rather than reported as zero.
func MonthlyOrderSeries(ds *Dataset) []models.MonthlyPoint {
	orders := make(map[yearMonth]map[string]struct{})
	for i := 0; i < ds.Len(); i++ {
		it := ds.At(i)
		key := yearMonth{it.OrderYear, it.OrderMonth}
		set, ok := orders[key]
		if !ok {
			set = make(map[string]struct{})
			orders[key] = set
		}
		set[it.OrderID] = struct{}{}
	}

	series := make([]models.MonthlyPoint, 0, len(orders))
	for key, set := range orders {
		series = append(series, models.MonthlyPoint{Year: key.year, Month: key.month, Orders: len(set)})
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].Year != series[j].Year {
			return series[i].Year < series[j].Year
		}
		return series[i].Month < series[j].Month
	})
	return series
}
