package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/Ami2490/armeria/internal/catalog"
	"github.com/Ami2490/armeria/internal/pricing"
	"github.com/Ami2490/armeria/internal/session"
	"github.com/Ami2490/armeria/internal/storage/memory"
	"github.com/Ami2490/armeria/pkg/health"
	"github.com/Ami2490/armeria/pkg/httputil"
	"github.com/Ami2490/armeria/pkg/logger"
	"github.com/Ami2490/armeria/pkg/middleware"
)

// ============================================================================
// Test helpers
// ============================================================================

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	c, err := catalog.Load()
	require.NoError(t, err)

	sessions, err := session.NewManager(memory.New(), 16, logger.Discard())
	require.NoError(t, err)

	engine, err := pricing.NewEngine(pricing.DefaultPolicy())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	return NewRouter(Deps{
		Catalog:       c,
		Sessions:      sessions,
		Pricing:       engine,
		Formatter:     pricing.NewFormatter(currency.EUR, language.English),
		Health:        health.NewHandler(),
		Metrics:       middleware.NewHTTPMetrics(reg),
		Gatherer:      reg,
		CORS:          middleware.DefaultCORSConfig(),
		CatalogMaxAge: 60,
		Logger:        logger.Discard(),
	})
}

func do(t *testing.T, h http.Handler, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeData unwraps the standard envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func productIDs(list ProductList) []string {
	ids := make([]string, len(list.Products))
	for i, p := range list.Products {
		ids[i] = p.ID
	}
	return ids
}

// ============================================================================
// Catalog
// ============================================================================

func TestListProducts_Default(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/catalog/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))

	var list ProductList
	decodeData(t, rec, &list)
	assert.Equal(t, 10, list.Total)
	assert.Equal(t, catalog.AllCategories, list.Category)
	assert.Equal(t, catalog.SortFeatured, list.Sort)
	assert.Empty(t, list.ActiveFilters)
	assert.Equal(t, "rifle-caza-profesional", list.Products[0].ID)
}

func TestListProducts_CategoryAndSort(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/catalog/products?category=Pesca&sort=price-low", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list ProductList
	decodeData(t, rec, &list)
	assert.Equal(t, []string{
		"linea-pesca-fluorocarbono",
		"kit-senuelos-premium",
		"carrete-spinning-ultra",
		"cana-pesca-carbono",
	}, productIDs(list))
}

func TestListProducts_Filters(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/catalog/products?brands=Bushnell,Shimano&in_stock=true&sort=price-high", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list ProductList
	decodeData(t, rec, &list)
	assert.Equal(t, []string{
		"mira-telescopica-hd",
		"binoculares-expedition",
		"cana-pesca-carbono",
		"linea-pesca-fluorocarbono",
	}, productIDs(list))
	assert.Equal(t, []string{"Bushnell", "Shimano"}, list.Filters.Brands)
	assert.True(t, list.Filters.InStock)
	assert.Len(t, list.ActiveFilters, 3)
}

func TestListProducts_PriceAndRating(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/catalog/products?max_price=20000&rating=4.6&categories=Pesca&categories=Accesorios", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list ProductList
	decodeData(t, rec, &list)
	assert.ElementsMatch(t, []string{
		"kit-senuelos-premium",
		"mochila-tactica-outdoor",
		"botas-caza-impermeables",
	}, productIDs(list))
	assert.Equal(t, [2]int64{0, 200_00}, list.Filters.PriceRange)
}

func TestListProducts_InvalidQuery(t *testing.T) {
	h := setupRouter(t)

	tests := []struct {
		name  string
		query string
	}{
		{"unknown sort", "sort=cheapest"},
		{"unknown header category", "category=Golf"},
		{"unknown filter category", "categories=Golf"},
		{"non numeric price", "min_price=abc"},
		{"inverted price range", "min_price=50000&max_price=100"},
		{"non boolean flag", "on_sale=maybe"},
		{"non numeric rating", "rating=high"},
		{"rating out of range", "rating=9"},
		{"rating not a number", "rating=NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/v1/catalog/products?"+tt.query, "", nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
		})
	}
}

func TestGetProduct(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/catalog/products/rifle-caza-profesional", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var p ProductView
	decodeData(t, rec, &p)
	assert.Equal(t, "Rifle de Caza Profesional", p.Name)
	assert.Equal(t, int64(1299_99), p.Price)
	assert.Equal(t, 19, p.DiscountPercent)
	assert.Contains(t, p.PriceLabel, "299.99")
	assert.NotEmpty(t, p.OriginalPriceLabel)
}

func TestGetProduct_NotFound(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/catalog/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestGetFacets(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/catalog/facets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var f Facets
	decodeData(t, rec, &f)
	assert.Len(t, f.Categories, 4)
	assert.Contains(t, f.Brands, "ProHunter")
	assert.Equal(t, catalog.DefaultMaxPrice, f.MaxPrice)
	assert.Equal(t, catalog.MaxRating, f.MaxRating)
}

// ============================================================================
// Cart
// ============================================================================

func TestCart_Flow(t *testing.T) {
	h := setupRouter(t)
	const sid = "shopper-1"

	rec := do(t, h, http.MethodPost, "/api/v1/cart/items", sid, AddItemRequest{ProductID: "cana-pesca-carbono", Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var view CartView
	decodeData(t, rec, &view)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, int64(599_98), view.Subtotal)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "Caña de Pesca Carbono Pro", view.Lines[0].Name)

	// Quantity omitted adds one more unit.
	rec = do(t, h, http.MethodPost, "/api/v1/cart/items", sid, map[string]string{"product_id": "cana-pesca-carbono"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	assert.Equal(t, 3, view.ItemCount)

	rec = do(t, h, http.MethodPut, "/api/v1/cart/items/cana-pesca-carbono", sid, map[string]int{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	assert.Equal(t, 5, view.ItemCount)

	rec = do(t, h, http.MethodGet, "/api/v1/cart/summary", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sum Summary
	decodeData(t, rec, &sum)
	assert.Equal(t, int64(1499_95), sum.Subtotal)
	assert.Zero(t, sum.Shipping)
	assert.True(t, sum.FreeShipping)
	assert.Equal(t, int64(314_99), sum.Tax)
	assert.Equal(t, int64(1814_94), sum.GrandTotal)
	assert.Equal(t, "EUR", sum.Formatted.Currency)

	// Other sessions are untouched.
	rec = do(t, h, http.MethodGet, "/api/v1/cart", "shopper-2", nil)
	decodeData(t, rec, &view)
	assert.Zero(t, view.ItemCount)

	rec = do(t, h, http.MethodDelete, "/api/v1/cart/items/cana-pesca-carbono", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	assert.Empty(t, view.Lines)
}

func TestCart_UpdateToZeroRemoves(t *testing.T) {
	h := setupRouter(t)

	do(t, h, http.MethodPost, "/api/v1/cart/items", "s", AddItemRequest{ProductID: "mira-telescopica-hd", Quantity: 1})
	rec := do(t, h, http.MethodPut, "/api/v1/cart/items/mira-telescopica-hd", "s", map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)

	var view CartView
	decodeData(t, rec, &view)
	assert.Empty(t, view.Lines)
}

func TestCart_ClearAndSummaryOfEmptyCart(t *testing.T) {
	h := setupRouter(t)

	do(t, h, http.MethodPost, "/api/v1/cart/items", "s", AddItemRequest{ProductID: "linea-pesca-fluorocarbono", Quantity: 1})
	rec := do(t, h, http.MethodDelete, "/api/v1/cart", "s", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/cart/summary", "s", nil)
	var sum Summary
	decodeData(t, rec, &sum)
	assert.Zero(t, sum.Subtotal)
	assert.Equal(t, int64(5_99), sum.Shipping)
	assert.Equal(t, int64(5_99), sum.GrandTotal)
}

func TestCart_Errors(t *testing.T) {
	h := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown product", http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "missing", Quantity: 1}, http.StatusNotFound, "NOT_FOUND"},
		{"missing product id", http.MethodPost, "/api/v1/cart/items", map[string]int{"quantity": 1}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"negative quantity", http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "mira-telescopica-hd", Quantity: -1}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"quantity too large", http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "mira-telescopica-hd", Quantity: 1000}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing quantity", http.MethodPut, "/api/v1/cart/items/mira-telescopica-hd", map[string]string{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed body", http.MethodPost, "/api/v1/cart/items", "not an object", http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, "s", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestCart_RejectsNonJSONBody(t *testing.T) {
	h := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("product_id=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestSession_InvalidHeader(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/cart", strings.Repeat("x", 200), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)
}

// ============================================================================
// Wishlist
// ============================================================================

func TestWishlist_Flow(t *testing.T) {
	h := setupRouter(t)
	const sid = "shopper-1"

	rec := do(t, h, http.MethodPost, "/api/v1/wishlist/items", sid, AddWishlistItemRequest{ProductID: "botas-caza-impermeables"})
	require.Equal(t, http.StatusOK, rec.Code)
	var view WishlistView
	decodeData(t, rec, &view)
	assert.Equal(t, 1, view.Count)

	// Saving twice keeps one entry.
	rec = do(t, h, http.MethodPost, "/api/v1/wishlist/items", sid, AddWishlistItemRequest{ProductID: "botas-caza-impermeables"})
	decodeData(t, rec, &view)
	assert.Equal(t, 1, view.Count)

	rec = do(t, h, http.MethodGet, "/api/v1/wishlist/items/botas-caza-impermeables", sid, nil)
	var m Membership
	decodeData(t, rec, &m)
	assert.True(t, m.InWishlist)

	rec = do(t, h, http.MethodPost, "/api/v1/wishlist/items/botas-caza-impermeables/move-to-cart", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	assert.Zero(t, view.Count)

	rec = do(t, h, http.MethodGet, "/api/v1/cart", sid, nil)
	var cartView CartView
	decodeData(t, rec, &cartView)
	require.Len(t, cartView.Lines, 1)
	assert.Equal(t, "botas-caza-impermeables", cartView.Lines[0].ProductID)
	assert.Equal(t, 1, cartView.Lines[0].Quantity)
}

func TestWishlist_RemoveAndClear(t *testing.T) {
	h := setupRouter(t)

	do(t, h, http.MethodPost, "/api/v1/wishlist/items", "s", AddWishlistItemRequest{ProductID: "mira-telescopica-hd"})
	do(t, h, http.MethodPost, "/api/v1/wishlist/items", "s", AddWishlistItemRequest{ProductID: "binoculares-expedition"})

	rec := do(t, h, http.MethodDelete, "/api/v1/wishlist/items/mira-telescopica-hd", "s", nil)
	var view WishlistView
	decodeData(t, rec, &view)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "binoculares-expedition", view.Items[0].ProductID)

	rec = do(t, h, http.MethodDelete, "/api/v1/wishlist", "s", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/wishlist", "s", nil)
	decodeData(t, rec, &view)
	assert.Zero(t, view.Count)
}

func TestWishlist_Errors(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/wishlist/items", "s", AddWishlistItemRequest{ProductID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/wishlist/items/missing/move-to-cart", "s", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

// ============================================================================
// Ops
// ============================================================================

func TestHealthAndMetrics(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	do(t, h, http.MethodGet, "/api/v1/catalog/facets", "", nil)
	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `armeria_http_requests_total{method="GET",route="/api/v1/catalog/facets",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	h := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart/items", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
