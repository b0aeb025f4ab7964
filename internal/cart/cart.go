// Package cart holds the in-memory line items of an order being built.
package cart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/pricing"
)

var ErrItemNotFound = errors.New("cart item not found")

const noSweetness = "-"

// Cart is an ordered collection of line items priced for one customer class.
// It is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	class models.CustomerClass
	items []models.CartItem
	seq   uint64
	now   func() time.Time
}

func New(class models.CustomerClass) *Cart {
	if !class.Valid() {
		class = models.ClassGeneral
	}
	return &Cart{class: class, now: time.Now}
}

// Add prices p for the cart's class and appends a new line with quantity 1.
// The line keeps its own copy of p.
func (c *Cart) Add(p models.Product, variant models.ServingType, sweetness string) (models.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.Kind() == models.ProductSnack {
		variant = models.ServingSnack
		sweetness = noSweetness
	}
	price, err := pricing.Resolve(p, variant, c.class)
	if err != nil {
		return models.CartItem{}, err
	}

	c.seq++
	item := models.CartItem{
		Product:             p.Clone(),
		CartID:              fmt.Sprintf("%s-%s-%d-%d", p.ID, variant, c.now().UnixNano(), c.seq),
		Quantity:            1,
		Sweetness:           sweetness,
		AppliedPrice:        price,
		SelectedUserType:    c.class,
		SelectedServingType: variant,
	}
	c.items = append(c.items, item)
	item.Product = item.Product.Clone()
	return item, nil
}

func (c *Cart) Remove(cartID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, it := range c.items {
		if it.CartID == cartID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// AdjustQuantity adds delta to a line's quantity. The result never drops
// below 1; use Remove to drop a line.
func (c *Cart) AdjustQuantity(cartID string, delta int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].CartID != cartID {
			continue
		}
		q := c.items[i].Quantity + delta
		if q < 1 {
			q = 1
		}
		c.items[i].Quantity = q
		return q, nil
	}
	return 0, ErrItemNotFound
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.ItemsTotal(c.items)
}

// SetCustomerClass switches the cart's class and re-prices every line with
// its own serving variant. Nothing changes if any line cannot be re-priced.
func (c *Cart) SetCustomerClass(class models.CustomerClass) error {
	if !class.Valid() {
		return fmt.Errorf("%q: %w", class, pricing.ErrUnknownClass)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	repriced := make([]models.CartItem, len(c.items))
	for i, it := range c.items {
		price, err := pricing.Resolve(it.Product, it.SelectedServingType, class)
		if err != nil {
			return err
		}
		it.AppliedPrice = price
		it.SelectedUserType = class
		repriced[i] = it
	}
	c.items = repriced
	c.class = class
	return nil
}

func (c *Cart) CustomerClass() models.CustomerClass {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.class
}

// Items returns a copy of the current lines.
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartItem, len(c.items))
	for i, it := range c.items {
		it.Product = it.Product.Clone()
		out[i] = it
	}
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
