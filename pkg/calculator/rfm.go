package calculator

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"order-analytics/pkg/models"
)

const day = 24 * time.Hour

type customerAgg struct {
	last     time.Time
	orders   map[string]struct{}
	monetary decimal.Decimal
}

// ComputeRFM scores every customer of ds on Recency, Frequency and Monetary and tabulates the
// resulting segment codes.
//
// Recency is measured in whole days from a snapshot one day after the latest purchase.
// Recency quartiles are labelled 4..1 (recent customers score high), Frequency is binned on
// first-occurrence ranks and Monetary on its values, both labelled 1..4. Records are ordered by
// customer id; the segment table is ordered by customer count descending, then code, and cut
// to segmentTopN entries.
func ComputeRFM(ds *Dataset, segmentTopN int, opts ...Option) ([]models.RFMRecord, []models.SegmentCount, error) {
	if err := validateTopN("segment_top_n", segmentTopN); err != nil {
		return nil, nil, err
	}
	cfg := applyOptions(opts)

	if ds.Len() == 0 {
		return nil, nil, fmt.Errorf("rfm snapshot: %w", ErrEmptyDataset)
	}

	var latest time.Time
	customers := make(map[string]*customerAgg)
	for i := 0; i < ds.Len(); i++ {
		it := ds.At(i)
		if it.PurchasedAt.After(latest) {
			latest = it.PurchasedAt
		}
		c, ok := customers[it.CustomerUniqueID]
		if !ok {
			c = &customerAgg{orders: make(map[string]struct{}), monetary: decimal.Zero}
			customers[it.CustomerUniqueID] = c
		}
		if it.PurchasedAt.After(c.last) {
			c.last = it.PurchasedAt
		}
		c.orders[it.OrderID] = struct{}{}
		c.monetary = c.monetary.Add(it.Price)
	}

	if len(customers) < 4 {
		return nil, nil, &CardinalityError{
			Field:    "customers",
			Distinct: len(customers),
			Reason:   "rfm scoring needs at least 4 customers",
		}
	}

	ids := make([]string, 0, len(customers))
	for id := range customers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	snapshot := latest.Add(day)
	records := make([]models.RFMRecord, len(ids))
	recency := make([]float64, len(ids))
	frequency := make([]float64, len(ids))
	monetary := make([]float64, len(ids))
	for i, id := range ids {
		c := customers[id]
		records[i] = models.RFMRecord{
			CustomerUniqueID: id,
			Recency:          int(snapshot.Sub(c.last) / day),
			Frequency:        len(c.orders),
			Monetary:         c.monetary,
		}
		recency[i] = float64(records[i].Recency)
		frequency[i] = float64(records[i].Frequency)
		monetary[i] = c.monetary.InexactFloat64()
	}

	rBins, err := binField("recency", recency, cfg.binPolicy)
	if err != nil {
		return nil, nil, err
	}
	fBins, err := binField("frequency", RankFirst(frequency), cfg.binPolicy)
	if err != nil {
		return nil, nil, err
	}
	mBins, err := binField("monetary", monetary, cfg.binPolicy)
	if err != nil {
		return nil, nil, err
	}

	for i := range records {
		records[i].RScore = 5 - rBins[i]
		records[i].FScore = fBins[i]
		records[i].MScore = mBins[i]
		records[i].Segment = fmt.Sprintf("%d%d%d", records[i].RScore, records[i].FScore, records[i].MScore)
	}

	return records, tabulateSegments(records, segmentTopN), nil
}

func tabulateSegments(records []models.RFMRecord, topN int) []models.SegmentCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Segment]++
	}

	segments := make([]models.SegmentCount, 0, len(counts))
	for code, n := range counts {
		segments = append(segments, models.SegmentCount{Segment: code, Customers: n})
	}
	sort.Slice(segments, func(i, j int) bool {
		if segments[i].Customers != segments[j].Customers {
			return segments[i].Customers > segments[j].Customers
		}
		return segments[i].Segment < segments[j].Segment
	})

	if len(segments) > topN {
		segments = segments[:topN]
	}
	return segments
}
