// Package catalog holds the read-only product dataset and the filter/sort
// engine that produces the visible product list.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/Ami2490/armeria/internal/domain"
	apperrors "github.com/Ami2490/armeria/pkg/errors"
	"github.com/Ami2490/armeria/pkg/slug"
)

//go:embed data/products.json
var seedJSON []byte

// Catalog is an ordered, immutable product list.
type Catalog struct {
	products []domain.Product
	byID     map[string]int
}

// New validates products and freezes them in the given order.
func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: slices.Clone(products),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range c.products {
		if err := validateProduct(p); err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, apperrors.InvalidInputf("duplicate product id %q", p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

func validateProduct(p domain.Product) error {
	switch {
	case p.ID == "":
		return apperrors.InvalidInput("product id is required")
	case !p.Category.Valid():
		return apperrors.InvalidInputf("product %s: unknown category %q", p.ID, p.Category)
	case p.Price < 0:
		return apperrors.InvalidInputf("product %s: negative price", p.ID)
	case p.OriginalPrice != nil && *p.OriginalPrice <= p.Price:
		return apperrors.InvalidInputf("product %s: original price must exceed price", p.ID)
	case p.Rating < 0 || p.Rating > 5:
		return apperrors.InvalidInputf("product %s: rating %.1f outside [0,5]", p.ID, p.Rating)
	case p.Reviews < 0:
		return apperrors.InvalidInputf("product %s: negative review count", p.ID)
	}
	return nil
}

// seedProduct is the authored form of a product: prices are decimal text.
type seedProduct struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Image         string           `json:"image"`
	Images        []string         `json:"images"`
	Category      domain.Category  `json:"category"`
	Brand         string           `json:"brand"`
	Rating        float64          `json:"rating"`
	Reviews       int              `json:"reviews"`
	InStock       bool             `json:"inStock"`
	IsNew         bool             `json:"isNew"`
	IsFeatured    bool             `json:"isFeatured"`
}

// toCents converts an amount to cents, rejecting sub-cent precision.
func toCents(d decimal.Decimal) (int64, error) {
	c := d.Shift(2)
	if !c.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-cent precision", d)
	}
	return c.IntPart(), nil
}

// Decode parses a JSON array of authored products. Products without an id
// get one derived from their name.
func Decode(data []byte) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var seed []seedProduct
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]domain.Product, 0, len(seed))
	for _, s := range seed {
		price, err := toCents(s.Price)
		if err != nil {
			return nil, fmt.Errorf("product %s price: %w", s.ID, err)
		}
		p := domain.Product{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Price:       price,
			Image:       s.Image,
			Images:      s.Images,
			Category:    s.Category,
			Brand:       s.Brand,
			Rating:      s.Rating,
			Reviews:     s.Reviews,
			InStock:     s.InStock,
			IsNew:       s.IsNew,
			IsFeatured:  s.IsFeatured,
		}
		if p.ID == "" {
			p.ID = slug.Generate(s.Name)
		}
		if s.OriginalPrice != nil {
			orig, err := toCents(*s.OriginalPrice)
			if err != nil {
				return nil, fmt.Errorf("product %s original price: %w", p.ID, err)
			}
			p.OriginalPrice = &orig
		}
		products = append(products, p)
	}
	return New(products)
}

// Load returns the store's built-in catalog.
func Load() (*Catalog, error) {
	return Decode(seedJSON)
}

// Products returns a copy of the catalog in its authored order.
func (c *Catalog) Products() []domain.Product {
	return slices.Clone(c.products)
}

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.products) }

// Product looks a product up by id.
func (c *Catalog) Product(id string) (domain.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", id)
	}
	return c.products[i], nil
}

// Brands returns each brand once, in order of first appearance.
func (c *Catalog) Brands() []string {
	var brands []string
	for _, p := range c.products {
		if !slices.Contains(brands, p.Brand) {
			brands = append(brands, p.Brand)
		}
	}
	return brands
}

// CategoryCount is a sidebar facet entry.
type CategoryCount struct {
	Category domain.Category `json:"id"`
	Label    string          `json:"label"`
	Count    int             `json:"count"`
}

// CategoryCounts returns every category with its product count, including
// categories with no products.
func (c *Catalog) CategoryCounts() []CategoryCount {
	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, p := range c.products {
		counts[p.Category]++
	}
	out := make([]CategoryCount, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		out = append(out, CategoryCount{Category: cat, Label: CategoryLabel(cat), Count: counts[cat]})
	}
	return out
}

// CategoryLabel is the sidebar display name for cat.
func CategoryLabel(cat domain.Category) string {
	switch cat {
	case domain.CategoryFishing:
		return "Equipos de Pesca"
	case domain.CategoryHunting:
		return "Equipos de Caza"
	default:
		return string(cat)
	}
}
