package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

/*
LOAD → one order line item as read from the CSV export or the database.
*/

// OrderItem is one line of an order. An order with several products has several items
// sharing the same OrderID.
type OrderItem struct {
	OrderID             string          `json:"order_id"`
	CustomerUniqueID    string          `json:"customer_unique_id"`
	ProductCategoryName string          `json:"product_category_name"` // "" when the category is missing
	Price               decimal.Decimal `json:"price"`
	PurchasedAt         time.Time       `json:"order_purchase_timestamp"`
	OrderYear           int             `json:"order_year"`
	OrderMonth          int             `json:"order_month"`
}

// DeriveCalendar fills OrderYear and OrderMonth from PurchasedAt (UTC).
func (o *OrderItem) DeriveCalendar() {
	t := o.PurchasedAt.UTC()
	o.OrderYear = t.Year()
	o.OrderMonth = int(t.Month())
}

/*
COMPUTE → derived views, recomputed on every query.
*/

// KPISummary holds the headline figures of a selection.
type KPISummary struct {
	DistinctOrderCount    int             `json:"distinct_order_count"`
	DistinctCustomerCount int             `json:"distinct_customer_count"`
	TotalRevenue          decimal.Decimal `json:"total_revenue"` // sum of item prices, not per-order totals
}

// CategoryCount is one entry of the category ranking.
type CategoryCount struct {
	Category string `json:"category"`
	Orders   int    `json:"orders"`
}

// MonthlyPoint is the distinct order count of one calendar month.
type MonthlyPoint struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Orders int `json:"orders"`
}

// Label renders the period as "YYYY-M", as used on chart axes.
func (p MonthlyPoint) Label() string {
	return fmt.Sprintf("%d-%d", p.Year, p.Month)
}

// RFMRecord contains the Recency/Frequency/Monetary values and scores of one customer.
type RFMRecord struct {
	CustomerUniqueID string          `json:"customer_unique_id"`
	Recency          int             `json:"recency"`   // days between snapshot and last purchase
	Frequency        int             `json:"frequency"` // distinct orders
	Monetary         decimal.Decimal `json:"monetary"`  // sum of item prices
	RScore           int             `json:"r_score"`
	FScore           int             `json:"f_score"`
	MScore           int             `json:"m_score"`
	Segment          string          `json:"rfm_segment"`
}

// SegmentCount is the number of customers sharing an RFM segment code.
type SegmentCount struct {
	Segment   string `json:"segment"`
	Customers int    `json:"customers"`
}

/*
REPORT → every section for one year selection.
*/

// RFMSection groups the RFM output of a report. Error is set instead of the data when the
// segmentation is not meaningful for the selection.
type RFMSection struct {
	Customers int            `json:"customers"`
	Segments  []SegmentCount `json:"segments,omitempty"`
	Records   []RFMRecord    `json:"records,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Report is the full analytics output for one selection of years.
type Report struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Years       []int           `json:"years"`
	Rows        int             `json:"rows"`
	KPIs        KPISummary      `json:"kpis"`
	Categories  []CategoryCount `json:"categories"`
	Monthly     []MonthlyPoint  `json:"monthly"`
	RFM         RFMSection      `json:"rfm"`
}
