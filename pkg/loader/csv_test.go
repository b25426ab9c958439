package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `order_id,customer_unique_id,product_category_name,product_category_name_english,price,freight_value,order_purchase_timestamp
o1,c1,cama_mesa_banho,bed_bath_table,89.90,12.5,2017-10-02 10:56:33
o1,c1,cama_mesa_banho,bed_bath_table,10.10,12.5,2017-10-02 10:56:33
o2,c2,,,25.00,7.0,2018-07-24 20:41:37
`

func TestReadCSV(t *testing.T) {
	items, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, items, 3)

	first := items[0]
	assert.Equal(t, "o1", first.OrderID)
	assert.Equal(t, "c1", first.CustomerUniqueID)
	assert.Equal(t, "bed_bath_table", first.ProductCategoryName, "english name preferred")
	assert.Equal(t, "89.9", first.Price.String())
	assert.Equal(t, time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC), first.PurchasedAt)
	assert.Equal(t, 2017, first.OrderYear)
	assert.Equal(t, 10, first.OrderMonth)

	assert.Equal(t, "", items[2].ProductCategoryName)
	assert.Equal(t, 2018, items[2].OrderYear)
}

func TestReadCSV_PortugueseCategoryColumn(t *testing.T) {
	in := "order_id,customer_unique_id,product_category_name,price,order_purchase_timestamp\n" +
		"o1,c1,brinquedos,10,2017-01-01T08:00:00Z\n"
	items, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "brinquedos", items[0].ProductCategoryName)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		errPart string
	}{
		{
			name:    "empty input",
			input:   "",
			errPart: "headers",
		},
		{
			name:    "missing price column",
			input:   "order_id,customer_unique_id,product_category_name,order_purchase_timestamp\n",
			errPart: `"price"`,
		},
		{
			name:    "missing category columns",
			input:   "order_id,customer_unique_id,price,order_purchase_timestamp\n",
			errPart: "product_category_name",
		},
		{
			name:    "negative price",
			input:   "order_id,customer_unique_id,product_category_name,price,order_purchase_timestamp\no1,c1,toys,-5,2017-01-01\n",
			errPart: "line 2: negative price",
		},
		{
			name:    "bad price",
			input:   "order_id,customer_unique_id,product_category_name,price,order_purchase_timestamp\no1,c1,toys,abc,2017-01-01\n",
			errPart: "price",
		},
		{
			name:    "missing timestamp",
			input:   "order_id,customer_unique_id,product_category_name,price,order_purchase_timestamp\no1,c1,toys,1,\n",
			errPart: "empty order_purchase_timestamp",
		},
		{
			name:    "bad timestamp",
			input:   "order_id,customer_unique_id,product_category_name,price,order_purchase_timestamp\no1,c1,toys,1,yesterday\n",
			errPart: "unrecognised",
		},
		{
			name:    "empty order id",
			input:   "order_id,customer_unique_id,product_category_name,price,order_purchase_timestamp\n,c1,toys,1,2017-01-01\n",
			errPart: "empty order_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestLoadCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final_df.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	items, err := LoadCSV(path, false)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), false)
	assert.Error(t, err)
}
