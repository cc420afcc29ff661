package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filters narrows a product list. Nil bounds and empty strings match all.
type Filters struct {
	Search    string
	Category  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *float64
}

// Filter returns the products matching every set criterion, in input order.
func Filter(products []Product, f Filters) []Product {
	search := strings.ToLower(f.Search)

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.MinRating != nil && p.Rating.Rate < *f.MinRating {
			continue
		}
		out = append(out, p)
	}
	return out
}

type SortKey string

const (
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortRating    SortKey = "rating"
	SortName      SortKey = "name"
)

func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(s); k {
	case SortPriceAsc, SortPriceDesc, SortRating, SortName:
		return k, true
	}
	return "", false
}

// Sort returns a sorted copy. Unknown keys keep the input order.
func Sort(products []Product, key SortKey) []Product {
	out := slices.Clone(products)

	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b Product) int { return b.Price.Cmp(a.Price) })
	case SortRating:
		slices.SortStableFunc(out, func(a, b Product) int {
			switch {
			case a.Rating.Rate > b.Rating.Rate:
				return -1
			case a.Rating.Rate < b.Rating.Rate:
				return 1
			}
			return 0
		})
	case SortName:
		// Collator keeps internal buffers; one per call.
		col := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(out, func(a, b Product) int { return col.CompareString(a.Title, b.Title) })
	}
	return out
}

const DefaultPageSize = 8

// Paginate returns the 1-based page of size items and whether more follow.
func Paginate(products []Product, page, size int) ([]Product, bool) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}

	start := (page - 1) * size
	if start >= len(products) {
		return []Product{}, false
	}
	end := min(start+size, len(products))
	return slices.Clone(products[start:end]), end < len(products)
}
