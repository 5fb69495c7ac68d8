package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Promotion records the rationale for a discounted or gifted ticket.
// Immutable once any ticket references it.
type Promotion struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Discount    decimal.Decimal `json:"discount"` // flat amount subtracted from the section price
	CreatedAt   time.Time       `json:"created_at"`
}

// Apply returns the price after the flat discount, never below zero
func (p *Promotion) Apply(price decimal.Decimal) decimal.Decimal {
	discounted := price.Sub(p.Discount)
	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted
}

// NewPromotion creates a promotion with a non-negative flat discount
func NewPromotion(id, name string, discount decimal.Decimal, now time.Time) (*Promotion, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: promotion name is required", ErrValidation)
	}
	if discount.IsNegative() {
		return nil, fmt.Errorf("%w: discount cannot be negative", ErrValidation)
	}
	return &Promotion{
		ID:        id,
		Name:      name,
		Discount:  discount,
		CreatedAt: now,
	}, nil
}
