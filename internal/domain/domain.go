// Package domain holds the storefront entities shared by the cart, wishlist
// and catalog packages. Monetary amounts are int64 minor units (cents).
package domain

import "math"

// Category is one of the store's product families.
type Category string

const (
	CategoryFishing     Category = "Pesca"
	CategoryHunting     Category = "Caza"
	CategoryOptics      Category = "Óptica"
	CategoryAccessories Category = "Accesorios"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryFishing, CategoryHunting, CategoryOptics, CategoryAccessories}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryFishing, CategoryHunting, CategoryOptics, CategoryAccessories:
		return true
	}
	return false
}

// CartLine is one product-keyed entry in a cart.
type CartLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
}

// LineTotal returns UnitPrice × Quantity.
func (l CartLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// WishlistItem is a saved product reference. It never carries a quantity.
type WishlistItem struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	UnitPrice int64    `json:"unitPrice"`
	Image     string   `json:"image"`
	Category  Category `json:"category"`
}

// Product is a read-only catalog entry.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         int64    `json:"price"`
	OriginalPrice *int64   `json:"originalPrice,omitempty"`
	Image         string   `json:"image"`
	Images        []string `json:"images,omitempty"`
	Category      Category `json:"category"`
	Brand         string   `json:"brand"`
	Rating        float64  `json:"rating"`
	Reviews       int      `json:"reviews"`
	InStock       bool     `json:"inStock"`
	IsNew         bool     `json:"isNew"`
	IsFeatured    bool     `json:"isFeatured"`
}

// OnSale reports whether the product carries a struck-through original price.
func (p Product) OnSale() bool {
	return p.OriginalPrice != nil
}

// DiscountPercent returns the rounded percentage saved against the original
// price, or 0 when the product is not on sale.
func (p Product) DiscountPercent() int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= 0 || *p.OriginalPrice <= p.Price {
		return 0
	}
	orig := float64(*p.OriginalPrice)
	return int(math.Round((orig - float64(p.Price)) / orig * 100))
}

// CartLine builds a cart line for qty units of p.
func (p Product) CartLine(qty int) CartLine {
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Image:     p.Image,
		Quantity:  qty,
	}
}

// WishlistItem builds the wishlist reference for p.
func (p Product) WishlistItem() WishlistItem {
	return WishlistItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Image:     p.Image,
		Category:  p.Category,
	}
}
