package catalog

import (
	"cmp"
	"slices"

	"github.com/Ami2490/armeria/internal/domain"
	apperrors "github.com/Ami2490/armeria/pkg/errors"
)

// AllCategories is the header selector value that restricts nothing.
const AllCategories = "Todos"

// SortMode orders the visible product list.
type SortMode string

const (
	SortFeatured  SortMode = "featured"
	SortNewest    SortMode = "newest"
	SortPriceLow  SortMode = "price-low"
	SortPriceHigh SortMode = "price-high"
	SortRating    SortMode = "rating"
)

// SortModes lists the accepted modes.
var SortModes = []SortMode{SortFeatured, SortNewest, SortPriceLow, SortPriceHigh, SortRating}

// ParseSortMode accepts "" as SortFeatured.
func ParseSortMode(s string) (SortMode, error) {
	if s == "" {
		return SortFeatured, nil
	}
	m := SortMode(s)
	if !slices.Contains(SortModes, m) {
		return "", apperrors.InvalidInputf("unknown sort mode %q", s)
	}
	return m, nil
}

// Matches reports whether p passes the header selector and every filter.
func Matches(p domain.Product, header string, f FilterState) bool {
	return (header == AllCategories || string(p.Category) == header) &&
		(len(f.Categories) == 0 || slices.Contains(f.Categories, p.Category)) &&
		(len(f.Brands) == 0 || slices.Contains(f.Brands, p.Brand)) &&
		p.Price >= f.PriceRange[0] && p.Price <= f.PriceRange[1] &&
		(!f.InStock || p.InStock) &&
		(!f.OnSale || p.OnSale()) &&
		(!f.NewArrivals || p.IsNew) &&
		p.Rating >= f.Rating
}

// Filter returns the products passing Matches, in their original order.
// An empty header selector is treated as AllCategories.
func Filter(products []domain.Product, header string, f FilterState) ([]domain.Product, error) {
	if header == "" {
		header = AllCategories
	}
	if header != AllCategories && !domain.Category(header).Valid() {
		return nil, apperrors.InvalidInputf("unknown category %q", header)
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if Matches(p, header, f) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Sort returns a stably sorted copy of products. Ties keep input order.
func Sort(products []domain.Product, mode SortMode) []domain.Product {
	out := slices.Clone(products)
	slices.SortStableFunc(out, comparator(mode))
	return out
}

func comparator(mode SortMode) func(a, b domain.Product) int {
	switch mode {
	case SortNewest:
		return func(a, b domain.Product) int { return trueFirst(a.IsNew, b.IsNew) }
	case SortPriceLow:
		return func(a, b domain.Product) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceHigh:
		return func(a, b domain.Product) int { return cmp.Compare(b.Price, a.Price) }
	case SortRating:
		return func(a, b domain.Product) int { return cmp.Compare(b.Rating, a.Rating) }
	default:
		return func(a, b domain.Product) int { return trueFirst(a.IsFeatured, b.IsFeatured) }
	}
}

func trueFirst(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

// Query filters the catalog and sorts the result.
func (c *Catalog) Query(header string, f FilterState, mode SortMode) ([]domain.Product, error) {
	filtered, err := Filter(c.products, header, f)
	if err != nil {
		return nil, err
	}
	return Sort(filtered, mode), nil
}
