package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func sample() []Product {
	return []Product{
		{ID: 1, Title: "banana Bag", Price: decimal.RequireFromString("20"), Description: "yellow", Category: "bags", Rating: Rating{Rate: 4.5}},
		{ID: 2, Title: "Apple Watch", Price: decimal.RequireFromString("199.99"), Description: "smart", Category: "electronics", Rating: Rating{Rate: 3.1}},
		{ID: 3, Title: "cherry Ring", Price: decimal.RequireFromString("9.5"), Description: "Gold BAND", Category: "jewelery", Rating: Rating{Rate: 4.9}},
	}
}

func ids(ps []Product) []int {
	out := make([]int, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	d := func(s string) *decimal.Decimal { v := decimal.RequireFromString(s); return &v }
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		in   Filters
		want []int
	}{
		{"empty matches all", Filters{}, []int{1, 2, 3}},
		{"search title case-insensitive", Filters{Search: "APPLE"}, []int{2}},
		{"search description", Filters{Search: "band"}, []int{3}},
		{"category equality", Filters{Category: "bags"}, []int{1}},
		{"price range inclusive", Filters{MinPrice: d("9.5"), MaxPrice: d("20")}, []int{1, 3}},
		{"min rating", Filters{MinRating: f(4.5)}, []int{1, 3}},
		{"combined", Filters{Search: "a", MinRating: f(4)}, []int{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sample(), tt.in)))
		})
	}
}

func TestSort(t *testing.T) {
	in := sample()

	assert.Equal(t, []int{3, 1, 2}, ids(Sort(in, SortPriceAsc)))
	assert.Equal(t, []int{2, 1, 3}, ids(Sort(in, SortPriceDesc)))
	assert.Equal(t, []int{3, 1, 2}, ids(Sort(in, SortRating)))
	assert.Equal(t, []int{2, 1, 3}, ids(Sort(in, SortName)))
	assert.Equal(t, []int{1, 2, 3}, ids(Sort(in, "bogus")))

	assert.Equal(t, []int{1, 2, 3}, ids(in), "input untouched")
}

func TestParseSortKey(t *testing.T) {
	k, ok := ParseSortKey("price-desc")
	assert.True(t, ok)
	assert.Equal(t, SortPriceDesc, k)

	_, ok = ParseSortKey("cheapest")
	assert.False(t, ok)
}

func TestPaginate(t *testing.T) {
	in := sample()

	page, more := Paginate(in, 1, 2)
	assert.Equal(t, []int{1, 2}, ids(page))
	assert.True(t, more)

	page, more = Paginate(in, 2, 2)
	assert.Equal(t, []int{3}, ids(page))
	assert.False(t, more)

	page, more = Paginate(in, 5, 2)
	assert.Empty(t, page)
	assert.False(t, more)

	page, _ = Paginate(in, 0, 0)
	assert.Len(t, page, 3)
}
