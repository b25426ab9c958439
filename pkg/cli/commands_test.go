package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-analytics/pkg/calculator"
	"order-analytics/pkg/models"
)

// writeOrders writes five 2017 customers (customer k places k orders of 10k each) and one
// 2018 order without category.
func writeOrders(t *testing.T) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("order_id,customer_unique_id,product_category_name_english,price,order_purchase_timestamp\n")
	for k := 1; k <= 5; k++ {
		for o := 1; o <= k; o++ {
			fmt.Fprintf(&b, "o%d-%d,c%d,toys,%d,2017-03-%02d 12:00:00\n", k, o, k, 10*k, 1+k)
		}
	}
	b.WriteString("late,c9,,99,2018-01-05 00:00:00\n")

	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "order-analytics", cmd.Use)
	for _, flag := range []string{"config", "data", "dsn", "table", "category-column", "years",
		"top-categories", "top-segments", "bin-policy", "output", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"version", "years", "kpis", "categories", "monthly", "rfm", "report", "serve"})
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "order-analytics v"+Version+"\n", out)
}

func TestYearsCommand(t *testing.T) {
	out, _, err := run(t, "years", "--data", writeOrders(t), "-o", "json")
	require.NoError(t, err)

	var years []int
	require.NoError(t, json.Unmarshal([]byte(out), &years))
	assert.Equal(t, []int{2017, 2018}, years)
}

func TestKPIsCommand(t *testing.T) {
	data := writeOrders(t)

	out, _, err := run(t, "kpis", "--data", data, "-o", "json")
	require.NoError(t, err)
	var k models.KPISummary
	require.NoError(t, json.Unmarshal([]byte(out), &k))
	assert.Equal(t, 16, k.DistinctOrderCount)
	assert.Equal(t, 6, k.DistinctCustomerCount)
	assert.Equal(t, "649", k.TotalRevenue.String())

	out, _, err = run(t, "kpis", "--data", data, "--years", "2018", "-o", "csv")
	require.NoError(t, err)
	assert.Equal(t, "Orders,Customers,Revenue\n1,1,$99\n", out)
}

func TestCategoriesCommand(t *testing.T) {
	out, _, err := run(t, "categories", "--data", writeOrders(t), "--top-categories", "5", "-o", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1,toys,15", lines[1])
	assert.Equal(t, "2,"+calculator.UnknownCategory+",1", lines[2])
}

func TestMonthlyCommand(t *testing.T) {
	out, _, err := run(t, "monthly", "--data", writeOrders(t), "-o", "markdown")
	require.NoError(t, err)

	assert.Contains(t, out, "| 2017-3 | 15 |")
	assert.Contains(t, out, "| 2018-1 | 1 |")
}

func TestRFMCommand(t *testing.T) {
	data := writeOrders(t)

	out, _, err := run(t, "rfm", "--data", data, "--years", "2017", "--customers", "-o", "json")
	require.NoError(t, err)

	var section models.RFMSection
	require.NoError(t, json.Unmarshal([]byte(out), &section))
	assert.Equal(t, 5, section.Customers)
	assert.Len(t, section.Segments, 5)
	require.Len(t, section.Records, 5)
	assert.Equal(t, "444", section.Records[4].Segment)

	_, _, err = run(t, "rfm", "--data", data, "--years", "2018")
	assert.ErrorIs(t, err, calculator.ErrInsufficientCardinality)

	_, _, err = run(t, "rfm", "--data", data, "--years", "2016")
	assert.ErrorIs(t, err, calculator.ErrEmptyDataset)
}

func TestReportCommand_Export(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	out, stderr, err := run(t, "report", "--data", writeOrders(t), "--years", "2018", "--export", dir, "-o", "markdown")
	require.NoError(t, err)

	assert.Contains(t, out, "### Summary")
	assert.Contains(t, out, "RFM segmentation unavailable")
	assert.Contains(t, stderr, "rfm segmentation skipped")
	assert.Contains(t, stderr, "report exported")

	files, err := filepath.Glob(filepath.Join(dir, "report_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var rep models.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, []int{2018}, rep.Years)
	assert.Equal(t, 1, rep.KPIs.DistinctOrderCount)
}

func TestCommandErrors(t *testing.T) {
	data := writeOrders(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
		wantIs  error
	}{
		{"missing source", []string{"kpis"}, "no data source", nil},
		{"zero top categories", []string{"categories", "--data", data, "--top-categories", "0"}, "top_categories", calculator.ErrInvalidParameter},
		{"unknown bin policy", []string{"rfm", "--data", data, "--bin-policy", "fuzzy"}, "bin policy", calculator.ErrInvalidParameter},
		{"unknown output", []string{"kpis", "--data", data, "-o", "xml"}, "output format", nil},
		{"missing file", []string{"kpis", "--data", filepath.Join(t.TempDir(), "none.csv")}, "none.csv", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}
