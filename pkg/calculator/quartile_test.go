package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuartileEdges_Interpolates(t *testing.T) {
	got := QuartileEdges([]float64{4, 1, 3, 2})
	assert.Equal(t, [5]float64{1, 1.75, 2.5, 3.25, 4}, got)
}

func TestQuartileBins(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []int
	}{
		{name: "five values", values: []float64{1, 2, 3, 4, 5}, want: []int{1, 1, 2, 3, 4}},
		{name: "four values", values: []float64{40, 10, 30, 20}, want: []int{4, 1, 3, 2}},
		{name: "eight values", values: []float64{1, 2, 3, 4, 5, 6, 7, 8}, want: []int{1, 1, 2, 2, 3, 3, 4, 4}},
		{name: "value on an edge goes to the lower bucket", values: []float64{0, 10, 20, 30, 40}, want: []int{1, 1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuartileBins(tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuartileBins_TooFewValues(t *testing.T) {
	_, err := QuartileBins([]float64{1, 2, 3})
	require.ErrorIs(t, err, ErrInsufficientCardinality)

	var cerr *CardinalityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 3, cerr.Distinct)
}

func TestQuartileBins_DuplicateEdges(t *testing.T) {
	_, err := QuartileBins([]float64{1, 1, 1, 1, 2})
	require.ErrorIs(t, err, ErrInsufficientCardinality)

	var cerr *CardinalityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, cerr.Distinct)
	assert.Contains(t, cerr.Error(), "not distinct")
}

func TestRankFirst_TiesInInputOrder(t *testing.T) {
	assert.Equal(t, []float64{3, 1, 4, 2}, RankFirst([]float64{3, 1, 3, 2}))
	assert.Equal(t, []float64{1, 2, 3, 4}, RankFirst([]float64{1, 1, 1, 1}))
}

func TestRankFirst_AlwaysBinnable(t *testing.T) {
	bins, err := QuartileBins(RankFirst([]float64{1, 1, 1, 1, 1, 1, 1, 1}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2, 2, 3, 3, 4, 4}, bins)
}

func TestParseBinPolicy(t *testing.T) {
	p, err := ParseBinPolicy("rank")
	require.NoError(t, err)
	assert.Equal(t, BinRankFallback, p)

	p, err = ParseBinPolicy("")
	require.NoError(t, err)
	assert.Equal(t, BinStrict, p)

	_, err = ParseBinPolicy("drop")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
