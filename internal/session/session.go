// Package session owns the cart and wishlist stores of each storefront
// session and keeps recently used sessions in memory.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Ami2490/armeria/internal/cart"
	"github.com/Ami2490/armeria/internal/storage"
	"github.com/Ami2490/armeria/internal/wishlist"
	apperrors "github.com/Ami2490/armeria/pkg/errors"
)

// DefaultCacheSize bounds the number of open sessions kept in memory.
const DefaultCacheSize = 1024

// Session is one shopper's cart and wishlist.
type Session struct {
	ID       string
	Cart     *cart.Store
	Wishlist *wishlist.Store

	refs int // guarded by Manager.mu
}

// MoveToCart removes the saved item from the wishlist and adds it to the
// cart with quantity 1. If the cart add fails the item is saved again, at
// the end of the wishlist.
func (s *Session) MoveToCart(ctx context.Context, productID string) error {
	item, ok := s.Wishlist.Item(productID)
	if !ok {
		return apperrors.NotFound("wishlist item", productID)
	}

	if err := s.Wishlist.RemoveFromWishlist(ctx, productID); err != nil {
		return fmt.Errorf("move to cart: %w", err)
	}

	err := s.Cart.AddToCart(ctx, cart.AddInput{
		ProductID: item.ProductID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Image:     item.Image,
		Quantity:  1,
	})
	if err != nil {
		if rerr := s.Wishlist.AddToWishlist(ctx, item); rerr != nil {
			return fmt.Errorf("move to cart: %w (restore wishlist item: %v)", err, rerr)
		}
		return fmt.Errorf("move to cart: %w", err)
	}
	return nil
}

// CartKey is the storage key of a session's cart.
func CartKey(id string) string { return key(cart.Collection, id) }

// WishlistKey is the storage key of a session's wishlist.
func WishlistKey(id string) string { return key(wishlist.Collection, id) }

func key(collection, id string) string {
	if id == "" {
		return collection
	}
	return collection + ":" + id
}

// Manager hands out sessions backed by one KeyValue. Recently used
// sessions stay in an LRU cache. A session that has been acquired and not
// yet released is never rebuilt, even after eviction, so at most one store
// exists per storage key. An evicted and released session is reloaded from
// storage the next time it is acquired.
type Manager struct {
	mu     sync.Mutex
	kv     storage.KeyValue
	logger *slog.Logger
	cache  *lru.Cache[string, *Session]
	inUse  map[string]*Session
}

// NewManager returns a manager caching up to size sessions.
func NewManager(kv storage.KeyValue, size int, logger *slog.Logger) (*Manager, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Session](size)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Manager{kv: kv, logger: logger, cache: cache, inUse: make(map[string]*Session)}, nil
}

// Acquire returns the session for id, loading it from storage when it is
// neither cached nor in use. Call release once the session is no longer
// used; calling it more than once is harmless.
func (m *Manager) Acquire(ctx context.Context, id string) (*Session, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.inUse[id]
	if !ok {
		s, ok = m.cache.Get(id)
	}
	if !ok {
		l := m.logger.With(slog.String("session_id", id))
		s = &Session{
			ID:       id,
			Cart:     cart.NewStore(ctx, m.kv, CartKey(id), l),
			Wishlist: wishlist.NewStore(ctx, m.kv, WishlistKey(id), l),
		}
		l.DebugContext(ctx, "session opened")
	}
	m.cache.Add(id, s)

	s.refs++
	m.inUse[id] = s

	var once sync.Once
	return s, func() { once.Do(func() { m.release(s) }) }
}

func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(m.inUse, s.ID)
	}
}

// Open returns the number of sessions currently held in the cache.
func (m *Manager) Open() int {
	return m.cache.Len()
}

// InUse returns the number of acquired, unreleased sessions.
func (m *Manager) InUse() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inUse)
}
