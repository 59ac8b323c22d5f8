package catalog

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/Ami2490/armeria/internal/domain"
	apperrors "github.com/Ami2490/armeria/pkg/errors"
)

// DefaultMaxPrice is the upper bound of the default price range (2000.00).
const DefaultMaxPrice int64 = 2000_00

// MaxRating is the top of the rating scale.
const MaxRating = 5

// FilterState is the user's narrowing criteria. Empty sets and a zero
// rating mean no restriction. PriceRange bounds are inclusive cents.
type FilterState struct {
	Categories  []domain.Category `json:"categories"`
	Brands      []string          `json:"brands"`
	PriceRange  [2]int64          `json:"price_range"`
	InStock     bool              `json:"in_stock"`
	OnSale      bool              `json:"on_sale"`
	NewArrivals bool              `json:"new_arrivals"`
	Rating      float64           `json:"rating"`
}

// DefaultFilterState restricts nothing.
func DefaultFilterState() FilterState {
	return FilterState{PriceRange: [2]int64{0, DefaultMaxPrice}}
}

// Reset restores every field to its default.
func (f *FilterState) Reset() {
	*f = DefaultFilterState()
}

// IsDefault reports whether f restricts nothing beyond the defaults.
func (f FilterState) IsDefault() bool {
	return len(f.Categories) == 0 && len(f.Brands) == 0 &&
		f.PriceRange == [2]int64{0, DefaultMaxPrice} &&
		!f.InStock && !f.OnSale && !f.NewArrivals && f.Rating == 0
}

// SetCategory adds or removes cat from the category set.
func (f *FilterState) SetCategory(cat domain.Category, on bool) error {
	if !cat.Valid() {
		return apperrors.InvalidInputf("unknown category %q", cat)
	}
	f.Categories = toggle(f.Categories, cat, on)
	return nil
}

// SetBrand adds or removes brand from the brand set.
func (f *FilterState) SetBrand(brand string, on bool) error {
	if brand == "" {
		return apperrors.InvalidInput("brand is required")
	}
	f.Brands = toggle(f.Brands, brand, on)
	return nil
}

// SetPriceRange sets the inclusive price bounds in cents.
func (f *FilterState) SetPriceRange(lo, hi int64) error {
	if err := validatePriceRange(lo, hi); err != nil {
		return err
	}
	f.PriceRange = [2]int64{lo, hi}
	return nil
}

// SetInStock restricts to in-stock products when on.
func (f *FilterState) SetInStock(on bool) { f.InStock = on }

// SetOnSale restricts to discounted products when on.
func (f *FilterState) SetOnSale(on bool) { f.OnSale = on }

// SetNewArrivals restricts to new products when on.
func (f *FilterState) SetNewArrivals(on bool) { f.NewArrivals = on }

// SetRating sets the minimum rating; 0 disables the restriction.
func (f *FilterState) SetRating(r float64) error {
	if err := validateRating(r); err != nil {
		return err
	}
	f.Rating = r
	return nil
}

// FilterPatch carries a partial update. Nil fields are left untouched.
type FilterPatch struct {
	Categories  *[]domain.Category `json:"categories,omitempty"`
	Brands      *[]string          `json:"brands,omitempty"`
	PriceRange  *[2]int64          `json:"price_range,omitempty"`
	InStock     *bool              `json:"in_stock,omitempty"`
	OnSale      *bool              `json:"on_sale,omitempty"`
	NewArrivals *bool              `json:"new_arrivals,omitempty"`
	Rating      *float64           `json:"rating,omitempty"`
}

// Validate checks every field of the patch.
func (p FilterPatch) Validate() error {
	if p.Categories != nil {
		for _, c := range *p.Categories {
			if !c.Valid() {
				return apperrors.InvalidInputf("unknown category %q", c)
			}
		}
	}
	if p.Brands != nil && slices.Contains(*p.Brands, "") {
		return apperrors.InvalidInput("brand must not be empty")
	}
	if p.PriceRange != nil {
		if err := validatePriceRange(p.PriceRange[0], p.PriceRange[1]); err != nil {
			return err
		}
	}
	if p.Rating != nil {
		if err := validateRating(*p.Rating); err != nil {
			return err
		}
	}
	return nil
}

// ApplyPatch validates p as a whole and applies it only if every field is
// valid, so a rejected patch leaves f unchanged.
func (f *FilterState) ApplyPatch(p FilterPatch) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("apply filter patch: %w", err)
	}
	if p.Categories != nil {
		f.Categories = dedupe(*p.Categories)
	}
	if p.Brands != nil {
		f.Brands = dedupe(*p.Brands)
	}
	if p.PriceRange != nil {
		f.PriceRange = *p.PriceRange
	}
	if p.InStock != nil {
		f.InStock = *p.InStock
	}
	if p.OnSale != nil {
		f.OnSale = *p.OnSale
	}
	if p.NewArrivals != nil {
		f.NewArrivals = *p.NewArrivals
	}
	if p.Rating != nil {
		f.Rating = *p.Rating
	}
	return nil
}

// FilterKind identifies which field an active-filter chip came from.
type FilterKind string

const (
	KindCategory    FilterKind = "categories"
	KindBrand       FilterKind = "brands"
	KindInStock     FilterKind = "inStock"
	KindOnSale      FilterKind = "onSale"
	KindNewArrivals FilterKind = "newArrivals"
	KindRating      FilterKind = "rating"
)

// ActiveFilter is one removable chip.
type ActiveFilter struct {
	Kind  FilterKind `json:"type"`
	Value string     `json:"value"`
	Label string     `json:"label"`
}

// ActiveFilters lists the chips for every restriction in f, categories
// first, then brands, then toggles and rating.
func (f FilterState) ActiveFilters() []ActiveFilter {
	var out []ActiveFilter
	for _, c := range f.Categories {
		out = append(out, ActiveFilter{Kind: KindCategory, Value: string(c), Label: CategoryLabel(c)})
	}
	for _, b := range f.Brands {
		out = append(out, ActiveFilter{Kind: KindBrand, Value: b, Label: b})
	}
	if f.InStock {
		out = append(out, ActiveFilter{Kind: KindInStock, Value: string(KindInStock), Label: "En stock"})
	}
	if f.OnSale {
		out = append(out, ActiveFilter{Kind: KindOnSale, Value: string(KindOnSale), Label: "En oferta"})
	}
	if f.NewArrivals {
		out = append(out, ActiveFilter{Kind: KindNewArrivals, Value: string(KindNewArrivals), Label: "Novedades"})
	}
	if f.Rating > 0 {
		v := strconv.FormatFloat(f.Rating, 'f', -1, 64)
		out = append(out, ActiveFilter{Kind: KindRating, Value: v, Label: v + "+ estrellas"})
	}
	return out
}

// RemoveFilter clears the restriction a chip represents.
func (f *FilterState) RemoveFilter(kind FilterKind, value string) error {
	switch kind {
	case KindCategory:
		f.Categories = toggle(f.Categories, domain.Category(value), false)
	case KindBrand:
		f.Brands = toggle(f.Brands, value, false)
	case KindInStock:
		f.InStock = false
	case KindOnSale:
		f.OnSale = false
	case KindNewArrivals:
		f.NewArrivals = false
	case KindRating:
		f.Rating = 0
	default:
		return apperrors.InvalidInputf("unknown filter kind %q", kind)
	}
	return nil
}

func validatePriceRange(lo, hi int64) error {
	if lo < 0 {
		return apperrors.InvalidInputf("minimum price must not be negative, got %d", lo)
	}
	if lo > hi {
		return apperrors.InvalidInputf("minimum price %d exceeds maximum %d", lo, hi)
	}
	return nil
}

func validateRating(r float64) error {
	if !(r >= 0 && r <= MaxRating) {
		return apperrors.InvalidInputf("rating must be between 0 and %d, got %g", MaxRating, r)
	}
	return nil
}

func toggle[T comparable](set []T, v T, on bool) []T {
	i := slices.Index(set, v)
	switch {
	case on && i < 0:
		return append(slices.Clone(set), v)
	case !on && i >= 0:
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return set
}

func dedupe[T comparable](vs []T) []T {
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
