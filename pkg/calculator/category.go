package calculator

import (
	"sort"

	"order-analytics/pkg/models"
)

const (
	// DefaultTopN is the default length of the category and segment rankings.
	DefaultTopN = 10
	// UnknownCategory labels the rows without a product category. The parentheses keep it
	// apart from a category literally named "unknown".
	UnknownCategory = "(unknown)"
)

// RankCategories counts distinct orders per product category and returns the topN largest,
// descending. Equal counts keep category label order (ascending).
func RankCategories(ds *Dataset, topN int) ([]models.CategoryCount, error) {
	if err := validateTopN("top_n", topN); err != nil {
		return nil, err
	}

	orders := make(map[string]map[string]struct{})
	for i := 0; i < ds.Len(); i++ {
		it := ds.At(i)
		cat := it.ProductCategoryName
		if cat == "" {
			cat = UnknownCategory
		}
		set, ok := orders[cat]
		if !ok {
			set = make(map[string]struct{})
			orders[cat] = set
		}
		set[it.OrderID] = struct{}{}
	}

	labels := make([]string, 0, len(orders))
	for cat := range orders {
		labels = append(labels, cat)
	}
	sort.Strings(labels)

	ranking := make([]models.CategoryCount, 0, len(labels))
	for _, cat := range labels {
		ranking = append(ranking, models.CategoryCount{Category: cat, Orders: len(orders[cat])})
	}
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].Orders > ranking[j].Orders })

	if len(ranking) > topN {
		ranking = ranking[:topN]
	}
	return ranking, nil
}
