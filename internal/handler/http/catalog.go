package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Ami2490/armeria/internal/catalog"
	"github.com/Ami2490/armeria/internal/domain"
	"github.com/Ami2490/armeria/internal/pricing"
	apperrors "github.com/Ami2490/armeria/pkg/errors"
	"github.com/Ami2490/armeria/pkg/httputil"
)

// CatalogHandler serves the read-only product catalog.
type CatalogHandler struct {
	catalog   *catalog.Catalog
	formatter *pricing.Formatter
	logger    *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(c *catalog.Catalog, formatter *pricing.Formatter, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, formatter: formatter, logger: logger}
}

// ProductView is a product with its display prices.
type ProductView struct {
	domain.Product
	PriceLabel         string `json:"priceLabel"`
	OriginalPriceLabel string `json:"originalPriceLabel,omitempty"`
	DiscountPercent    int    `json:"discountPercent,omitempty"`
}

func (h *CatalogHandler) view(p domain.Product) ProductView {
	v := ProductView{
		Product:         p,
		PriceLabel:      h.formatter.Format(p.Price),
		DiscountPercent: p.DiscountPercent(),
	}
	if p.OriginalPrice != nil {
		v.OriginalPriceLabel = h.formatter.Format(*p.OriginalPrice)
	}
	return v
}

// ProductList is the response of a catalog query.
type ProductList struct {
	Products      []ProductView          `json:"products"`
	Total         int                    `json:"total"`
	Category      string                 `json:"category"`
	Sort          catalog.SortMode       `json:"sort"`
	Filters       catalog.FilterState    `json:"filters"`
	ActiveFilters []catalog.ActiveFilter `json:"active_filters"`
}

// Facets lists the sidebar filter options.
type Facets struct {
	Categories []catalog.CategoryCount `json:"categories"`
	Brands     []string                `json:"brands"`
	MaxPrice   int64                   `json:"max_price"`
	MaxRating  int                     `json:"max_rating"`
}

// ListProducts handles GET /api/v1/catalog/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters, err := parseFilters(q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	mode, err := catalog.ParseSortMode(q.Get("sort"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	header := q.Get("category")
	if header == "" {
		header = catalog.AllCategories
	}

	products, err := h.catalog.Query(header, filters, mode)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, h.view(p))
	}

	httputil.WriteData(w, http.StatusOK, ProductList{
		Products:      views,
		Total:         len(views),
		Category:      header,
		Sort:          mode,
		Filters:       filters,
		ActiveFilters: filters.ActiveFilters(),
	})
}

// GetProduct handles GET /api/v1/catalog/products/{productId}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Product(chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.view(p))
}

// GetFacets handles GET /api/v1/catalog/facets
func (h *CatalogHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, Facets{
		Categories: h.catalog.CategoryCounts(),
		Brands:     h.catalog.Brands(),
		MaxPrice:   catalog.DefaultMaxPrice,
		MaxRating:  catalog.MaxRating,
	})
}

// parseFilters builds a FilterState from query parameters. List parameters
// accept repeated keys and comma-separated values.
func parseFilters(q url.Values) (catalog.FilterState, error) {
	var patch catalog.FilterPatch

	if cats := listParam(q, "categories"); cats != nil {
		out := make([]domain.Category, len(cats))
		for i, c := range cats {
			out[i] = domain.Category(c)
		}
		patch.Categories = &out
	}
	if brands := listParam(q, "brands"); brands != nil {
		patch.Brands = &brands
	}

	if q.Has("min_price") || q.Has("max_price") {
		pr := [2]int64{0, catalog.DefaultMaxPrice}
		for i, key := range []string{"min_price", "max_price"} {
			if !q.Has(key) {
				continue
			}
			v, err := strconv.ParseInt(q.Get(key), 10, 64)
			if err != nil {
				return catalog.FilterState{}, apperrors.InvalidInputf("%s must be an integer amount in cents", key)
			}
			pr[i] = v
		}
		patch.PriceRange = &pr
	}

	for key, dst := range map[string]**bool{
		"in_stock":     &patch.InStock,
		"on_sale":      &patch.OnSale,
		"new_arrivals": &patch.NewArrivals,
	} {
		if !q.Has(key) {
			continue
		}
		v, err := strconv.ParseBool(q.Get(key))
		if err != nil {
			return catalog.FilterState{}, apperrors.InvalidInputf("%s must be a boolean", key)
		}
		*dst = &v
	}

	if q.Has("rating") {
		v, err := strconv.ParseFloat(q.Get("rating"), 64)
		if err != nil {
			return catalog.FilterState{}, apperrors.InvalidInput("rating must be a number")
		}
		patch.Rating = &v
	}

	f := catalog.DefaultFilterState()
	if err := f.ApplyPatch(patch); err != nil {
		return catalog.FilterState{}, err
	}
	return f, nil
}

func listParam(q url.Values, key string) []string {
	raw, ok := q[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
