// Package storage defines the string key-value boundary the cart and
// wishlist persist through, plus the shared JSON collection codec.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/Ami2490/armeria/pkg/errors"
)

// KeyValue is a named string record store. Get reports ok=false for a
// missing key; only backend failures return an error.
type KeyValue interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Pinger is implemented by backends with a reachable server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CorruptTotal counts persisted collections discarded on load.
var CorruptTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "armeria",
		Name:      "storage_corrupt_total",
		Help:      "Persisted collections discarded because they could not be decoded",
	},
	[]string{"collection"},
)

// LoadCollection reads key and decodes it as a JSON array of T. A missing
// key yields nil. Malformed JSON, a check failure or a backend read error is
// logged, counted under collection and also yields nil: a corrupt record
// degrades to an empty collection and is never reported to the caller.
func LoadCollection[T any](ctx context.Context, kv KeyValue, key, collection string, logger *slog.Logger, check func([]T) error) []T {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		discard(ctx, logger, key, collection, fmt.Errorf("read: %w", err))
		return nil
	}
	if !ok {
		return nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		discard(ctx, logger, key, collection, err)
		return nil
	}
	if check != nil {
		if err := check(items); err != nil {
			discard(ctx, logger, key, collection, err)
			return nil
		}
	}
	return items
}

func discard(ctx context.Context, logger *slog.Logger, key, collection string, cause error) {
	CorruptTotal.WithLabelValues(collection).Inc()
	logger.WarnContext(ctx, "discarding persisted collection",
		slog.String("collection", collection),
		slog.String("key", key),
		slog.String("error", apperrors.StorageCorrupt(collection, cause).Error()),
	)
}

// SaveCollection encodes items as a JSON array and writes it under key.
// A nil slice is written as [] so a cleared collection reloads as empty.
func SaveCollection[T any](ctx context.Context, kv KeyValue, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}
