// Package pricing turns a cart subtotal into an order breakdown. All
// amounts are int64 cents; decimals appear only at the presentation edge.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/Ami2490/armeria/pkg/errors"
)

// Policy holds the regional pricing constants.
type Policy struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold int64
	FlatShippingCost      int64
}

// DefaultPolicy is 21% tax with free shipping from 50.00 and 5.99 otherwise.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:               decimal.RequireFromString("0.21"),
		FreeShippingThreshold: 50_00,
		FlatShippingCost:      5_99,
	}
}

// Validate rejects negative constants.
func (p Policy) Validate() error {
	switch {
	case p.TaxRate.IsNegative():
		return apperrors.InvalidInputf("tax rate must not be negative, got %s", p.TaxRate)
	case p.FreeShippingThreshold < 0:
		return apperrors.InvalidInputf("free shipping threshold must not be negative, got %d", p.FreeShippingThreshold)
	case p.FlatShippingCost < 0:
		return apperrors.InvalidInputf("flat shipping cost must not be negative, got %d", p.FlatShippingCost)
	}
	return nil
}

// Breakdown is a priced order summary.
type Breakdown struct {
	Subtotal     int64 `json:"subtotal"`
	Shipping     int64 `json:"shipping"`
	Tax          int64 `json:"tax"`
	GrandTotal   int64 `json:"grand_total"`
	FreeShipping bool  `json:"free_shipping"`
	// Remaining is how much more the subtotal needs to reach free shipping.
	Remaining int64 `json:"remaining_for_free_shipping"`
}

// Engine applies a fixed Policy. It is immutable and safe for concurrent use.
type Engine struct {
	policy Policy
}

// NewEngine validates policy and returns an engine for it.
func NewEngine(policy Policy) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("pricing policy: %w", err)
	}
	return &Engine{policy: policy}, nil
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy { return e.policy }

// Quote prices subtotal. Shipping is free when subtotal reaches the
// threshold; tax is subtotal × rate rounded half away from zero to cents.
func (e *Engine) Quote(subtotal int64) (Breakdown, error) {
	if subtotal < 0 {
		return Breakdown{}, apperrors.InvalidInputf("subtotal must not be negative, got %d", subtotal)
	}

	b := Breakdown{Subtotal: subtotal}
	if subtotal >= e.policy.FreeShippingThreshold {
		b.FreeShipping = true
	} else {
		b.Shipping = e.policy.FlatShippingCost
		b.Remaining = e.policy.FreeShippingThreshold - subtotal
	}

	b.Tax = decimal.NewFromInt(subtotal).Mul(e.policy.TaxRate).Round(0).IntPart()
	b.GrandTotal = b.Subtotal + b.Shipping + b.Tax
	return b, nil
}
