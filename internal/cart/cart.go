// Package cart owns a session's shopping-cart lines and persists them
// write-through to a storage.KeyValue.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/Ami2490/armeria/internal/domain"
	"github.com/Ami2490/armeria/internal/storage"
	apperrors "github.com/Ami2490/armeria/pkg/errors"
	"github.com/Ami2490/armeria/pkg/validator"
)

// Collection labels cart records in logs and metrics.
const Collection = "cart"

// MaxLineQuantity bounds a single line's quantity.
const MaxLineQuantity = 999

// MaxUnitPrice bounds a line's unit price in cents.
const MaxUnitPrice int64 = 1_000_000_00

// MergePolicy names how a repeated add for the same product is resolved.
type MergePolicy string

// MergeIncrement adds the new quantity to an existing line and inserts a
// line when the product is absent. A merge also refreshes name, price and
// image from the latest add.
const MergeIncrement MergePolicy = "increment"

// AddInput is one add-to-cart request. Quantity 0 means 1.
type AddInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0,lte=100000000"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=999"`
}

// Store is the authoritative line list for one session. All methods are
// safe for concurrent use; each mutation is atomic.
type Store struct {
	mu     sync.Mutex
	kv     storage.KeyValue
	key    string
	logger *slog.Logger
	lines  []domain.CartLine
}

// NewStore loads the lines persisted under key. A missing or corrupt record
// starts the cart empty.
func NewStore(ctx context.Context, kv storage.KeyValue, key string, logger *slog.Logger) *Store {
	return &Store{
		kv:     kv,
		key:    key,
		logger: logger,
		lines:  storage.LoadCollection(ctx, kv, key, Collection, logger, checkLines),
	}
}

// checkLines rejects persisted data that would break the line invariants.
func checkLines(lines []domain.CartLine) error {
	seen := make(map[string]struct{}, len(lines))
	for i, l := range lines {
		switch {
		case l.ProductID == "":
			return fmt.Errorf("line %d: empty product id", i)
		case l.UnitPrice < 0 || l.UnitPrice > MaxUnitPrice:
			return fmt.Errorf("line %d: unit price %d out of range", i, l.UnitPrice)
		case l.Quantity < 1 || l.Quantity > MaxLineQuantity:
			return fmt.Errorf("line %d: quantity %d out of range", i, l.Quantity)
		}
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("line %d: duplicate product id %q", i, l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
	}
	if _, ok := sumLines(lines); !ok {
		return fmt.Errorf("subtotal overflows")
	}
	return nil
}

// sumLines totals lines in cents, reporting false if the sum would not fit
// in an int64.
func sumLines(lines []domain.CartLine) (int64, bool) {
	var total int64
	for _, l := range lines {
		lt := l.LineTotal()
		if lt > math.MaxInt64-total {
			return 0, false
		}
		total += lt
	}
	return total, true
}

// Policy reports the repeated-add policy.
func (s *Store) Policy() MergePolicy { return MergeIncrement }

// AddToCart merges in under MergeIncrement.
func (s *Store) AddToCart(ctx context.Context, in AddInput) error {
	if err := validator.Validate(in); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.lines)
	if i := indexOf(next, in.ProductID); i >= 0 {
		merged := next[i].Quantity + qty
		if merged > MaxLineQuantity {
			return apperrors.InvalidInputf("combined quantity for %s must not exceed %d", in.ProductID, MaxLineQuantity)
		}
		next[i] = domain.CartLine{
			ProductID: in.ProductID,
			Name:      in.Name,
			UnitPrice: in.UnitPrice,
			Image:     in.Image,
			Quantity:  merged,
		}
	} else {
		next = append(next, domain.CartLine{
			ProductID: in.ProductID,
			Name:      in.Name,
			UnitPrice: in.UnitPrice,
			Image:     in.Image,
			Quantity:  qty,
		})
	}

	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "cart line added",
		slog.String("product_id", in.ProductID),
		slog.Int("quantity", qty),
	)
	return nil
}

// UpdateQuantity sets the line's quantity. A quantity ≤ 0 removes the line;
// an absent product is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if qty > MaxLineQuantity {
		return apperrors.InvalidInputf("quantity must not exceed %d", MaxLineQuantity)
	}
	if qty <= 0 {
		return s.RemoveFromCart(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.lines, productID)
	if i < 0 || s.lines[i].Quantity == qty {
		return nil
	}
	next := slices.Clone(s.lines)
	next[i].Quantity = qty

	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "cart quantity updated",
		slog.String("product_id", productID),
		slog.Int("quantity", qty),
	)
	return nil
}

// RemoveFromCart deletes the line for productID if present.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.lines, productID)
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(s.lines), i, i+1)

	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "cart line removed", slog.String("product_id", productID))
	return nil
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, nil); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "cart cleared")
	return nil
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

// Line returns the line for productID.
func (s *Store) Line(productID string) (domain.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.lines, productID); i >= 0 {
		return s.lines[i], true
	}
	return domain.CartLine{}, false
}

// ItemCount is the sum of quantities across lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is the sum of UnitPrice × Quantity across lines, in cents.
// commit and checkLines keep it within int64.
func (s *Store) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total, _ := sumLines(s.lines)
	return total
}

// commit persists next and only then makes it the in-memory state. A
// state whose subtotal would overflow is rejected before any write.
// Callers hold s.mu.
func (s *Store) commit(ctx context.Context, next []domain.CartLine) error {
	if _, ok := sumLines(next); !ok {
		return apperrors.InvalidInput("cart subtotal exceeds the supported range")
	}
	if err := storage.SaveCollection(ctx, s.kv, s.key, next); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.lines = next
	return nil
}

func indexOf(lines []domain.CartLine, productID string) int {
	return slices.IndexFunc(lines, func(l domain.CartLine) bool { return l.ProductID == productID })
}
