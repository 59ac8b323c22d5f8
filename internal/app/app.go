package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ami2490/armeria/internal/catalog"
	"github.com/Ami2490/armeria/internal/config"
	handler "github.com/Ami2490/armeria/internal/handler/http"
	"github.com/Ami2490/armeria/internal/pricing"
	"github.com/Ami2490/armeria/internal/session"
	"github.com/Ami2490/armeria/internal/storage"
	"github.com/Ami2490/armeria/internal/storage/memory"
	pgstore "github.com/Ami2490/armeria/internal/storage/postgres"
	redisstore "github.com/Ami2490/armeria/internal/storage/redis"
	"github.com/Ami2490/armeria/pkg/database"
	"github.com/Ami2490/armeria/pkg/health"
	"github.com/Ami2490/armeria/pkg/middleware"
	"github.com/Ami2490/armeria/pkg/tracing"
)

// ServiceName identifies the process in logs, traces and metrics.
const ServiceName = "armeria-storefront"

// Version is overridden at build time with -ldflags.
var Version = "dev"

const slowQueryThreshold = 100 * time.Millisecond

type closer struct {
	name  string
	close func() error
}

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	closers        []closer
	shutdownTracer tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName, Version))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	reg := prometheus.NewRegistry()
	healthHandler := health.NewHandler()

	kv, err := a.openStorage(ctx, reg, healthHandler)
	if err != nil {
		a.close()
		return nil, err
	}

	// Build the dependency graph.
	products, err := catalog.Load()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", slog.Int("products", products.Len()))

	policy, err := cfg.Pricing()
	if err != nil {
		a.close()
		return nil, err
	}
	engine, err := pricing.NewEngine(policy)
	if err != nil {
		a.close()
		return nil, err
	}
	unit, err := cfg.DisplayCurrency()
	if err != nil {
		a.close()
		return nil, err
	}
	formatter := pricing.NewFormatter(unit, cfg.DisplayLocale())

	sessions, err := session.NewManager(kv, cfg.SessionCacheSize, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSOrigins

	router := handler.NewRouter(handler.Deps{
		Catalog:       products,
		Sessions:      sessions,
		Pricing:       engine,
		Formatter:     formatter,
		Health:        healthHandler,
		Metrics:       middleware.NewHTTPMetrics(reg),
		Gatherer:      prometheus.Gatherers{prometheus.DefaultGatherer, reg},
		CORS:          cors,
		CatalogMaxAge: int(cfg.CatalogTTL / time.Second),
		Logger:        logger,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// openStorage connects the configured backend and registers its readiness
// check and metrics.
func (a *App) openStorage(ctx context.Context, reg prometheus.Registerer, h *health.Handler) (storage.KeyValue, error) {
	switch a.cfg.StorageBackend {
	case config.BackendRedis:
		rdb, err := database.NewRedisClient(ctx, a.cfg.RedisURL, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closer{"redis", rdb.Close})

		store := redisstore.New(rdb,
			redisstore.WithPrefix("armeria:"),
			redisstore.WithTTL(a.cfg.StorageTTL),
			redisstore.WithTracer(database.QueryTracer{System: "redis", SlowThreshold: slowQueryThreshold, Logger: a.logger}),
		)
		h.Register("redis", store.Ping)
		return store, nil

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, database.DefaultPostgresConfig(a.cfg.PostgresURL), a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closer{"postgres", func() error { pool.Close(); return nil }})

		if err := database.RunMigrations(ctx, pool, pgstore.Migrations(), a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if err := reg.Register(database.NewPoolStatsCollector(database.PgxPoolStats(pool))); err != nil {
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}

		store := pgstore.New(pool, database.QueryTracer{System: "postgresql", SlowThreshold: slowQueryThreshold, Logger: a.logger})
		h.Register("postgres", store.Ping)
		return store, nil

	default:
		a.logger.Warn("using in-memory storage; carts and wishlists are lost on restart")
		return memory.New(), nil
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		a.close()
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve accepts connections on ln until the context is canceled, then
// shuts down.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", ln.Addr().String()),
		)
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.close()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.close()

	a.logger.Info("application shutdown complete")
	return nil
}

// close releases storage clients in reverse order of creation.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Error(c.name+" close error", slog.String("error", err.Error()))
		}
	}
	a.closers = nil
}
