package calculator

import (
	"sort"

	"order-analytics/pkg/models"
)

// Dataset is a read-only handle over loaded order items. A filtered Dataset keeps a list
// of indices into its parent, so filtering never copies rows.
//
// A Dataset is never mutated after construction and can be shared by concurrent readers.
type Dataset struct {
	items   []models.OrderItem
	indices []int // nil: every item
}

// NewDataset copies items and derives the calendar fields of each row.
func NewDataset(items []models.OrderItem) *Dataset {
	owned := make([]models.OrderItem, len(items))
	copy(owned, items)
	for i := range owned {
		owned[i].DeriveCalendar()
	}
	return &Dataset{items: owned}
}

// Len returns the number of rows visible through the handle.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	if d.indices == nil {
		return len(d.items)
	}
	return len(d.indices)
}

// At returns the i-th visible row.
func (d *Dataset) At(i int) models.OrderItem {
	if d.indices == nil {
		return d.items[i]
	}
	return d.items[d.indices[i]]
}

// Years returns the distinct order years, ascending.
func (d *Dataset) Years() []int {
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for i := 0; i < d.Len(); i++ {
		y := d.At(i).OrderYear
		if _, ok := seen[y]; !ok {
			seen[y] = struct{}{}
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// FilterYears returns the rows whose order year is in years. An empty selection yields an
// empty dataset.
func (d *Dataset) FilterYears(years []int) *Dataset {
	if d == nil {
		return &Dataset{}
	}
	allowed := make(map[int]struct{}, len(years))
	for _, y := range years {
		allowed[y] = struct{}{}
	}

	n := d.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if _, ok := allowed[d.At(i).OrderYear]; ok {
			indices = append(indices, d.parentIndex(i))
		}
	}
	return &Dataset{items: d.items, indices: indices}
}

func (d *Dataset) parentIndex(i int) int {
	if d.indices == nil {
		return i
	}
	return d.indices[i]
}
