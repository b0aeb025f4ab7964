// Package storefront is the client side of the shop: it reads through the
// local mirror to the gateway and applies writes to the mirror before they
// are sent.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cafe-pos-backend/internal/cart"
	"cafe-pos-backend/internal/catalog"
	"cafe-pos-backend/internal/gateway"
	"cafe-pos-backend/internal/lifecycle"
	"cafe-pos-backend/internal/mirror"
	"cafe-pos-backend/internal/models"
)

// ErrInFlight is returned when the same action is submitted again before the
// first request has finished.
var ErrInFlight = errors.New("request already in flight")

// Backend is the gateway as seen from the client.
type Backend interface {
	Products(ctx context.Context) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Orders(ctx context.Context) ([]models.Order, error)

	SaveProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	SaveCategory(ctx context.Context, c models.Category) error
	DeleteCategory(ctx context.Context, id string) error

	CreateOrder(ctx context.Context, o models.Order, slip *models.Asset) (gateway.Envelope, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
	UpdateOrderPayment(ctx context.Context, id string, slip models.Asset) (gateway.Envelope, error)
}

type Storefront struct {
	backend Backend
	mirror  *mirror.Mirror
	log     logrus.FieldLogger
	now     func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(b Backend, m *mirror.Mirror, log logrus.FieldLogger) *Storefront {
	return &Storefront{
		backend:  b,
		mirror:   m,
		log:      log.WithField("component", "storefront"),
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
}

// begin marks key as in flight. The returned func clears it.
func (s *Storefront) begin(key string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, fmt.Errorf("%s: %w", key, ErrInFlight)
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, nil
}

// unconfirmed logs a write the mirror already shows but the gateway refused.
func (s *Storefront) unconfirmed(action, id string, err error) {
	s.log.WithError(err).WithFields(logrus.Fields{
		"action": action,
		"id":     id,
	}).Error("Backend did not confirm local change; mirror may differ until next refresh")
}

// ==========================================
// READS
// ==========================================

// Products returns the live menu, or the mirrored one when the gateway
// cannot be reached. live reports which.
func (s *Storefront) Products(ctx context.Context) (products []models.Product, live bool) {
	products, err := s.backend.Products(ctx)
	if err != nil {
		s.log.WithError(err).Error("Fetching products failed, serving mirror")
		return s.mirror.Products(), false
	}
	if err := s.mirror.SetProducts(products); err != nil {
		s.log.WithError(err).Warn("Failed to refresh product mirror")
	}
	return products, true
}

func (s *Storefront) Categories(ctx context.Context) (categories []models.Category, live bool) {
	categories, err := s.backend.Categories(ctx)
	if err != nil {
		s.log.WithError(err).Error("Fetching categories failed, serving mirror")
		return s.mirror.Categories(), false
	}
	if err := s.mirror.SetCategories(categories); err != nil {
		s.log.WithError(err).Warn("Failed to refresh category mirror")
	}
	return categories, true
}

func (s *Storefront) Orders(ctx context.Context) (orders []models.Order, live bool) {
	orders, err := s.backend.Orders(ctx)
	if err != nil {
		s.log.WithError(err).Error("Fetching orders failed, serving mirror")
		return s.mirror.Orders(), false
	}
	if err := s.mirror.SetOrders(orders); err != nil {
		s.log.WithError(err).Warn("Failed to refresh order mirror")
	}
	return orders, true
}

// Menu is the product list as the shop front shows it: filtered by category
// and search text, recommended first.
func (s *Storefront) Menu(ctx context.Context, category, search string) ([]models.Product, bool) {
	products, live := s.Products(ctx)
	menu := catalog.Filter(products, category, search)
	catalog.Sort(menu)
	return menu, live
}

// ==========================================
// ORDERS
// ==========================================

// Checkout places a customer order from c. A transfer without a slip is
// refused before anything is sent. The cart is cleared once the gateway
// accepts the order.
func (s *Storefront) Checkout(ctx context.Context, c *cart.Cart, in lifecycle.CheckoutInput) (models.Order, error) {
	done, err := s.begin(string(gateway.ActionCreateOrder))
	if err != nil {
		return models.Order{}, err
	}
	defer done()

	o, err := lifecycle.NewCheckoutOrder(c, in, s.now())
	if err != nil {
		return models.Order{}, err
	}
	o, err = s.submit(ctx, o, in.Slip)
	if err != nil {
		return o, err
	}
	c.Clear()
	return o, nil
}

// POS records a counter sale from c.
func (s *Storefront) POS(ctx context.Context, c *cart.Cart, method models.PaymentMethod) (models.Order, error) {
	done, err := s.begin(string(gateway.ActionCreateOrder))
	if err != nil {
		return models.Order{}, err
	}
	defer done()

	o, err := lifecycle.NewPOSOrder(c, method, s.now())
	if err != nil {
		return models.Order{}, err
	}
	o, err = s.submit(ctx, o, nil)
	if err != nil {
		return o, err
	}
	c.Clear()
	return o, nil
}

func (s *Storefront) submit(ctx context.Context, o models.Order, slip *models.Asset) (models.Order, error) {
	if slip != nil && !slip.IsInline() {
		o.SlipURL = slip.URL
	}
	if err := s.mirror.PutOrder(o); err != nil {
		s.log.WithError(err).WithField("id", o.ID).Warn("Failed to mirror new order")
	}

	env, err := s.backend.CreateOrder(ctx, o, slip)
	if err != nil {
		s.unconfirmed(string(gateway.ActionCreateOrder), o.ID, err)
		return o, err
	}

	if env.SlipURL != "" && env.SlipURL != o.SlipURL {
		o.SlipURL = env.SlipURL
		if err := s.mirror.PutOrder(o); err != nil {
			s.log.WithError(err).WithField("id", o.ID).Warn("Failed to mirror slip url")
		}
	}
	s.log.WithFields(logrus.Fields{"id": o.ID, "total": o.TotalAmount}).Info("Order placed")
	return o, nil
}

// SetStatus moves order id to status. A move the mirrored copy shows to be
// illegal is refused locally.
func (s *Storefront) SetStatus(ctx context.Context, id string, status models.OrderStatus) error {
	done, err := s.begin(string(gateway.ActionUpdateOrderStatus) + ":" + id)
	if err != nil {
		return err
	}
	defer done()

	if _, err := s.mirror.UpdateOrder(id, func(o *models.Order) error {
		_, err := lifecycle.Advance(o, status)
		return err
	}); err != nil {
		return err
	}

	if err := s.backend.UpdateOrderStatus(ctx, id, status); err != nil {
		s.unconfirmed(string(gateway.ActionUpdateOrderStatus), id, err)
		return err
	}
	return nil
}

// SetPayment overrides the payment status of order id.
func (s *Storefront) SetPayment(ctx context.Context, id string, status models.PaymentStatus) error {
	done, err := s.begin(string(gateway.ActionUpdatePaymentStatus) + ":" + id)
	if err != nil {
		return err
	}
	defer done()

	if _, err := s.mirror.UpdateOrder(id, func(o *models.Order) error {
		_, err := lifecycle.SetPayment(o, status)
		return err
	}); err != nil {
		return err
	}

	if err := s.backend.UpdatePaymentStatus(ctx, id, status); err != nil {
		s.unconfirmed(string(gateway.ActionUpdatePaymentStatus), id, err)
		return err
	}
	return nil
}

// AttachSlip switches order id to a pending bank transfer carrying slip. It
// returns the stored slip url.
func (s *Storefront) AttachSlip(ctx context.Context, id string, slip models.Asset) (string, error) {
	if slip.IsZero() {
		return "", lifecycle.ErrSlipRequired
	}
	done, err := s.begin(string(gateway.ActionUpdateOrderPayment) + ":" + id)
	if err != nil {
		return "", err
	}
	defer done()

	// An inline slip has no url until the gateway stores it.
	if _, err := s.mirror.UpdateOrder(id, func(o *models.Order) error {
		if err := lifecycle.CheckAmendable(*o); err != nil {
			return err
		}
		o.PaymentMethod = models.PaymentTransfer
		o.PaymentStatus = models.PaymentPending
		o.SlipURL = slip.URL
		return nil
	}); err != nil {
		return "", err
	}

	env, err := s.backend.UpdateOrderPayment(ctx, id, slip)
	if err != nil {
		s.unconfirmed(string(gateway.ActionUpdateOrderPayment), id, err)
		return "", err
	}

	if _, err := s.mirror.UpdateOrder(id, func(o *models.Order) error {
		o.SlipURL = env.SlipURL
		return nil
	}); err != nil {
		s.log.WithError(err).WithField("id", id).Warn("Failed to mirror slip url")
	}
	return env.SlipURL, nil
}

// ==========================================
// MENU ADMIN
// ==========================================

func (s *Storefront) SaveProduct(ctx context.Context, p models.Product) error {
	done, err := s.begin(string(gateway.ActionSaveProduct) + ":" + p.ID)
	if err != nil {
		return err
	}
	defer done()

	if err := s.mirror.PutProduct(p); err != nil {
		s.log.WithError(err).WithField("id", p.ID).Warn("Failed to mirror product")
	}
	if err := s.backend.SaveProduct(ctx, p); err != nil {
		s.unconfirmed(string(gateway.ActionSaveProduct), p.ID, err)
		return err
	}
	return nil
}

func (s *Storefront) DeleteProduct(ctx context.Context, id string) error {
	done, err := s.begin(string(gateway.ActionDeleteProduct) + ":" + id)
	if err != nil {
		return err
	}
	defer done()

	if err := s.mirror.RemoveProduct(id); err != nil {
		s.log.WithError(err).WithField("id", id).Warn("Failed to remove mirrored product")
	}
	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		s.unconfirmed(string(gateway.ActionDeleteProduct), id, err)
		return err
	}
	return nil
}

func (s *Storefront) SaveCategory(ctx context.Context, c models.Category) error {
	done, err := s.begin(string(gateway.ActionSaveCategory) + ":" + c.ID)
	if err != nil {
		return err
	}
	defer done()

	if err := s.mirror.PutCategory(c); err != nil {
		s.log.WithError(err).WithField("id", c.ID).Warn("Failed to mirror category")
	}
	if err := s.backend.SaveCategory(ctx, c); err != nil {
		s.unconfirmed(string(gateway.ActionSaveCategory), c.ID, err)
		return err
	}
	return nil
}

func (s *Storefront) DeleteCategory(ctx context.Context, id string) error {
	done, err := s.begin(string(gateway.ActionDeleteCategory) + ":" + id)
	if err != nil {
		return err
	}
	defer done()

	if err := s.mirror.RemoveCategory(id); err != nil {
		s.log.WithError(err).WithField("id", id).Warn("Failed to remove mirrored category")
	}
	if err := s.backend.DeleteCategory(ctx, id); err != nil {
		s.unconfirmed(string(gateway.ActionDeleteCategory), id, err)
		return err
	}
	return nil
}
