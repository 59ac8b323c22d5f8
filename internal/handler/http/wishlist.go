package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ami2490/armeria/internal/catalog"
	"github.com/Ami2490/armeria/internal/domain"
	"github.com/Ami2490/armeria/internal/wishlist"
	"github.com/Ami2490/armeria/pkg/httputil"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(c *catalog.Catalog, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{catalog: c, logger: logger}
}

// AddWishlistItemRequest is the JSON request body for saving a product.
type AddWishlistItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// WishlistView lists the saved products.
type WishlistView struct {
	Items []domain.WishlistItem `json:"items"`
	Count int                   `json:"count"`
}

// Membership answers whether a product is saved.
type Membership struct {
	ProductID  string `json:"product_id"`
	InWishlist bool   `json:"in_wishlist"`
}

func wishlistView(s *wishlist.Store) WishlistView {
	items := s.Items()
	return WishlistView{Items: items, Count: len(items)}
}

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, wishlistView(s.Wishlist))
}

// AddItem handles POST /api/v1/wishlist/items
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddWishlistItemRequest
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
	if err := s.Wishlist.AddToWishlist(r.Context(), p.WishlistItem()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, wishlistView(s.Wishlist))
}

// GetItem handles GET /api/v1/wishlist/items/{productId}
func (h *WishlistHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")
	s := sessionFromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, Membership{ProductID: id, InWishlist: s.Wishlist.IsInWishlist(id)})
}

// RemoveItem handles DELETE /api/v1/wishlist/items/{productId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	if err := s.Wishlist.RemoveFromWishlist(r.Context(), chi.URLParam(r, "productId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, wishlistView(s.Wishlist))
}

// ClearWishlist handles DELETE /api/v1/wishlist
func (h *WishlistHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	if err := s.Wishlist.ClearWishlist(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// MoveToCart handles POST /api/v1/wishlist/items/{productId}/move-to-cart
func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	if err := s.MoveToCart(r.Context(), chi.URLParam(r, "productId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, wishlistView(s.Wishlist))
}
