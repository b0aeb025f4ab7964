// Package pricing resolves unit prices from a product's tier table.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"cafe-pos-backend/internal/models"
)

var (
	// ErrNotOrderable means the product has no price for the serving variant.
	ErrNotOrderable = errors.New("serving variant is not priced for this product")
	ErrUnknownClass = errors.New("unknown customer class")
)

// Resolve returns the unit price of product p served as variant v for class c.
func Resolve(p models.Product, v models.ServingType, c models.CustomerClass) (float64, error) {
	tier, ok := p.Prices[v]
	if !ok {
		return 0, fmt.Errorf("%s (%s): %w", p.ID, v, ErrNotOrderable)
	}
	price, ok := tier.For(c)
	if !ok {
		return 0, fmt.Errorf("%q: %w", c, ErrUnknownClass)
	}
	return price, nil
}

// StartingPrice is the lowest student price across priced variants, for
// display only. It is 0 when nothing is priced.
func StartingPrice(p models.Product) float64 {
	var (
		min   float64
		found bool
	)
	for _, v := range models.ServingTypes {
		tier, ok := p.Prices[v]
		if !ok {
			continue
		}
		if !found || tier.Student < min {
			min = tier.Student
			found = true
		}
	}
	return min
}

// Variants returns the orderable variants of p in menu order.
func Variants(p models.Product) []models.ServingType {
	out := make([]models.ServingType, 0, len(p.Prices))
	for _, v := range models.ServingTypes {
		if _, ok := p.Prices[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// LineTotal is unit * qty computed in decimal.
func LineTotal(unit float64, qty int) decimal.Decimal {
	return decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(int64(qty)))
}

// ItemsTotal sums appliedPrice * quantity over items.
func ItemsTotal(items []models.CartItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineTotal(it.AppliedPrice, it.Quantity))
	}
	return sum.InexactFloat64()
}

// CheckVariants enforces the menu invariant: drinks expose at least one
// variant, snacks exactly the snack variant.
func CheckVariants(p models.Product) error {
	for v := range p.Prices {
		if !v.Valid() {
			return fmt.Errorf("unknown serving variant %q", v)
		}
	}
	switch p.Kind() {
	case models.ProductSnack:
		if _, ok := p.Prices[models.ServingSnack]; !ok || len(p.Prices) != 1 {
			return errors.New("a snack must be priced with the snack variant only")
		}
	case models.ProductDrink:
		if len(p.Prices) == 0 {
			return errors.New("a drink needs at least one priced serving variant")
		}
	default:
		return fmt.Errorf("unknown product type %q", p.ProductType)
	}
	return nil
}
