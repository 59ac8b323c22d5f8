package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ami2490/armeria/internal/cart"
	"github.com/Ami2490/armeria/internal/catalog"
	"github.com/Ami2490/armeria/internal/domain"
	"github.com/Ami2490/armeria/internal/pricing"
	"github.com/Ami2490/armeria/pkg/httputil"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	catalog   *catalog.Catalog
	engine    *pricing.Engine
	formatter *pricing.Formatter
	logger    *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(c *catalog.Catalog, engine *pricing.Engine, formatter *pricing.Formatter, logger *slog.Logger) *CartHandler {
	return &CartHandler{catalog: c, engine: engine, formatter: formatter, logger: logger}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
// Name, price and image are taken from the catalog.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=999"`
}

// UpdateQuantityRequest is the JSON request body for setting a line quantity.
// A quantity of zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// --- Responses ---

// CartView is the cart as shown in the drawer.
type CartView struct {
	Lines         []domain.CartLine `json:"lines"`
	ItemCount     int               `json:"item_count"`
	Subtotal      int64             `json:"subtotal"`
	SubtotalLabel string            `json:"subtotal_label"`
}

// Summary is the order summary panel.
type Summary struct {
	pricing.Breakdown
	Formatted pricing.FormattedBreakdown `json:"formatted"`
}

func (h *CartHandler) view(c *cart.Store) CartView {
	subtotal := c.Subtotal()
	return CartView{
		Lines:         c.Lines(),
		ItemCount:     c.ItemCount(),
		Subtotal:      subtotal,
		SubtotalLabel: h.formatter.Format(subtotal),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, h.view(s.Cart))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	p, err := h.catalog.Product(req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	s := sessionFromContext(r.Context())
	err = s.Cart.AddToCart(r.Context(), cart.AddInput{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Image:     p.Image,
		Quantity:  req.Quantity,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.view(s.Cart))
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	s := sessionFromContext(r.Context())
	if err := s.Cart.UpdateQuantity(r.Context(), chi.URLParam(r, "productId"), *req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.view(s.Cart))
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	if err := s.Cart.RemoveFromCart(r.Context(), chi.URLParam(r, "productId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.view(s.Cart))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	if err := s.Cart.ClearCart(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// GetSummary handles GET /api/v1/cart/summary
func (h *CartHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	b, err := h.engine.Quote(s.Cart.Subtotal())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, Summary{Breakdown: b, Formatted: h.formatter.Breakdown(b)})
}
