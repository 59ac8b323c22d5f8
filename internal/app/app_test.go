package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ami2490/armeria/internal/config"
	"github.com/Ami2490/armeria/pkg/health"
	"github.com/Ami2490/armeria/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:           "test",
		LogLevel:              "error",
		HTTPPort:              8080,
		CORSOrigins:           []string{"*"},
		CatalogTTL:            time.Minute,
		StorageBackend:        config.BackendMemory,
		StorageTTL:            time.Hour,
		SessionCacheSize:      8,
		TaxRate:               "0.21",
		FreeShippingThreshold: 50_00,
		FlatShippingCost:      5_99,
		Currency:              "EUR",
		Locale:                "es-ES",
		OTELSampleRate:        1,
	}
}

func TestNewApp_Memory(t *testing.T) {
	a, err := NewApp(context.Background(), testConfig(), logger.Discard())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/facets", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))

	require.NoError(t, a.Shutdown())
}

func TestNewApp_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.StorageBackend = config.BackendRedis
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"

	a, err := NewApp(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Shutdown()) }()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp health.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, health.StatusUp, resp.Checks["redis"].Status)
}

func TestNewApp_TracingWithoutEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.OTELEnabled = true

	_, err := NewApp(context.Background(), cfg, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init tracer")
}

func TestServe_StopsOnCancel(t *testing.T) {
	a, err := NewApp(context.Background(), testConfig(), logger.Discard())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
