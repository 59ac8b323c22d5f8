package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ami2490/armeria/internal/catalog"
	"github.com/Ami2490/armeria/internal/pricing"
	"github.com/Ami2490/armeria/internal/session"
	"github.com/Ami2490/armeria/pkg/health"
	"github.com/Ami2490/armeria/pkg/middleware"
)

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Catalog   *catalog.Catalog
	Sessions  *session.Manager
	Pricing   *pricing.Engine
	Formatter *pricing.Formatter
	Health    *health.Handler
	Metrics   *middleware.HTTPMetrics
	Gatherer  prometheus.Gatherer
	CORS      middleware.CORSConfig
	// CatalogMaxAge is the Cache-Control max-age of catalog responses, in seconds.
	CatalogMaxAge int
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(d.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogging(d.Logger))
	r.Use(middleware.RequestLogger(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Handler)
	}
	r.Use(middleware.CORS(d.CORS))

	// Health check endpoints
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	catalogHandler := NewCatalogHandler(d.Catalog, d.Formatter, d.Logger)
	cartHandler := NewCartHandler(d.Catalog, d.Pricing, d.Formatter, d.Logger)
	wishlistHandler := NewWishlistHandler(d.Catalog, d.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.AllowContentType("application/json"))

		r.Route("/catalog", func(r chi.Router) {
			r.Use(middleware.CacheControl(d.CatalogMaxAge))

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{productId}", catalogHandler.GetProduct)
			r.Get("/facets", catalogHandler.GetFacets)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(SessionFromHeader(d.Sessions))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Get("/summary", cartHandler.GetSummary)

				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productId}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", wishlistHandler.GetWishlist)
				r.Delete("/", wishlistHandler.ClearWishlist)

				r.Post("/items", wishlistHandler.AddItem)
				r.Get("/items/{productId}", wishlistHandler.GetItem)
				r.Delete("/items/{productId}", wishlistHandler.RemoveItem)
				r.Post("/items/{productId}/move-to-cart", wishlistHandler.MoveToCart)
			})
		})
	})

	return r
}
