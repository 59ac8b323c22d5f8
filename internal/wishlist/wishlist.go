// Package wishlist owns a session's deduplicated set of saved products.
package wishlist

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Ami2490/armeria/internal/domain"
	"github.com/Ami2490/armeria/internal/storage"
	apperrors "github.com/Ami2490/armeria/pkg/errors"
	"github.com/Ami2490/armeria/pkg/validator"
)

// Collection labels wishlist records in logs and metrics.
const Collection = "wishlist"

type itemInput struct {
	ProductID string          `json:"product_id" validate:"required"`
	UnitPrice int64           `json:"unit_price" validate:"gte=0"`
	Category  domain.Category `json:"category" validate:"omitempty,oneof=Pesca Caza Óptica Accesorios"`
}

// Store keeps wishlist items in insertion order, at most one per product.
type Store struct {
	mu     sync.Mutex
	kv     storage.KeyValue
	key    string
	logger *slog.Logger
	items  []domain.WishlistItem
}

// NewStore loads the items persisted under key. A missing or corrupt record
// starts the wishlist empty.
func NewStore(ctx context.Context, kv storage.KeyValue, key string, logger *slog.Logger) *Store {
	return &Store{
		kv:     kv,
		key:    key,
		logger: logger,
		items:  storage.LoadCollection(ctx, kv, key, Collection, logger, checkItems),
	}
}

func checkItems(items []domain.WishlistItem) error {
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.ProductID == "" {
			return fmt.Errorf("item %d: empty product id", i)
		}
		if it.UnitPrice < 0 {
			return fmt.Errorf("item %d: negative unit price", i)
		}
		if _, dup := seen[it.ProductID]; dup {
			return fmt.Errorf("item %d: duplicate product id %q", i, it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
	}
	return nil
}

// AddToWishlist appends item unless its product is already saved.
func (s *Store) AddToWishlist(ctx context.Context, item domain.WishlistItem) error {
	in := itemInput{ProductID: item.ProductID, UnitPrice: item.UnitPrice, Category: item.Category}
	if err := validator.Validate(in); err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.items, item.ProductID) >= 0 {
		return nil
	}
	if err := s.commit(ctx, append(slices.Clone(s.items), item)); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "wishlist item added", slog.String("product_id", item.ProductID))
	return nil
}

// RemoveFromWishlist deletes the item for productID if present.
func (s *Store) RemoveFromWishlist(ctx context.Context, productID string) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.items, productID)
	if i < 0 {
		return nil
	}
	if err := s.commit(ctx, slices.Delete(slices.Clone(s.items), i, i+1)); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "wishlist item removed", slog.String("product_id", productID))
	return nil
}

// IsInWishlist reports membership.
func (s *Store) IsInWishlist(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.items, productID) >= 0
}

// Item returns the saved item for productID.
func (s *Store) Item(productID string) (domain.WishlistItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.items, productID); i >= 0 {
		return s.items[i], true
	}
	return domain.WishlistItem{}, false
}

// ClearWishlist empties the wishlist.
func (s *Store) ClearWishlist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, nil); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "wishlist cleared")
	return nil
}

// Items returns a copy of the saved items.
func (s *Store) Items() []domain.WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Len returns the number of saved items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) commit(ctx context.Context, next []domain.WishlistItem) error {
	if err := storage.SaveCollection(ctx, s.kv, s.key, next); err != nil {
		return fmt.Errorf("save wishlist: %w", err)
	}
	s.items = next
	return nil
}

func indexOf(items []domain.WishlistItem, productID string) int {
	return slices.IndexFunc(items, func(it domain.WishlistItem) bool { return it.ProductID == productID })
}
