package calculator

import (
	"errors"
	"math"
	"sort"
)

var quartiles = [5]float64{0, 0.25, 0.5, 0.75, 1}

// QuartileEdges returns the 0/25/50/75/100 percentiles of values, interpolating linearly
// between the closest ranks. values must not be empty.
func QuartileEdges(values []float64) [5]float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var edges [5]float64
	last := float64(len(sorted) - 1)
	for k, q := range quartiles {
		pos := q * last
		lo := math.Floor(pos)
		hi := math.Ceil(pos)
		edges[k] = sorted[int(lo)] + (sorted[int(hi)]-sorted[int(lo)])*(pos-lo)
	}
	return edges
}

// QuartileBins assigns every value to an equal-frequency bucket 1..4. Buckets are
// right-closed intervals between consecutive edges; bucket 1 also holds the minimum.
//
// Binning needs at least 4 values and 5 strictly increasing edges, otherwise a
// *CardinalityError is returned. Callers wanting a result for tied distributions bin
// RankFirst(values) instead.
func QuartileBins(values []float64) ([]int, error) {
	if len(values) < 4 {
		return nil, &CardinalityError{
			Distinct: countDistinct(values),
			Reason:   "quartile binning needs at least 4 values",
		}
	}

	edges := QuartileEdges(values)
	for k := 1; k < len(edges); k++ {
		if !(edges[k] > edges[k-1]) {
			return nil, &CardinalityError{
				Distinct: countDistinct(values),
				Reason:   "quartile edges are not distinct",
			}
		}
	}

	bins := make([]int, len(values))
	for i, v := range values {
		b := 1
		for b < 4 && v > edges[b] {
			b++
		}
		bins[i] = b
	}
	return bins, nil
}

// RankFirst ranks values 1..n ascending. Equal values are ranked in input order, so the
// result never contains ties.
func RankFirst(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	ranks := make([]float64, len(values))
	for r, idx := range order {
		ranks[idx] = float64(r + 1)
	}
	return ranks
}

// binField bins one RFM field and names it in the returned error.
func binField(field string, values []float64, policy BinPolicy) ([]int, error) {
	bins, err := QuartileBins(values)
	var cerr *CardinalityError
	if errors.As(err, &cerr) {
		if policy == BinRankFallback && len(values) >= 4 {
			return QuartileBins(RankFirst(values))
		}
		cerr.Field = field
	}
	return bins, err
}

func countDistinct(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
