// Package lifecycle implements the two independent state axes of an order:
// fulfillment status and payment status.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/pricing"
)

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrUnknownStatus     = errors.New("unknown status")
	ErrSlipRequired      = errors.New("a transfer order needs a proof-of-payment slip")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrAlreadyPaid       = errors.New("order is already paid")
	ErrOrderCancelled    = errors.New("order is cancelled")
)

const (
	WalkInCustomer = "walk-in customer"
	FrontCounter   = "front counter"
)

// rank orders the forward path. Cancelled is handled separately.
var rank = map[models.OrderStatus]int{
	models.StatusPending:    0,
	models.StatusPreparing:  1,
	models.StatusDelivering: 2,
	models.StatusCompleted:  3,
}

func IsTerminal(s models.OrderStatus) bool {
	return s == models.StatusCompleted || s == models.StatusCancelled
}

// CanTransition reports whether fulfillment may move from one status to
// another. Moves are forward-only; skipping ahead is allowed and cancelling
// is allowed from any non-terminal status. Staying put is always allowed.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	if IsTerminal(from) {
		return false
	}
	if to == models.StatusCancelled {
		return true
	}
	fr, ok1 := rank[from]
	tr, ok2 := rank[to]
	return ok1 && ok2 && tr > fr
}

// Advance applies a fulfillment status change to o. The bool reports whether
// anything changed.
func Advance(o *models.Order, to models.OrderStatus) (bool, error) {
	if !to.Valid() {
		return false, fmt.Errorf("%q: %w", to, ErrUnknownStatus)
	}
	from := o.Status
	if from == "" {
		from = models.StatusPending
	}
	if !CanTransition(from, to) {
		return false, fmt.Errorf("%s -> %s: %w", from, to, ErrIllegalTransition)
	}
	if from == to && o.Status == to {
		return false, nil
	}
	o.Status = to
	return true, nil
}

// SetPayment overrides the payment status. Any value may follow any other.
func SetPayment(o *models.Order, to models.PaymentStatus) (bool, error) {
	if !to.Valid() {
		return false, fmt.Errorf("%q: %w", to, ErrUnknownStatus)
	}
	if o.PaymentStatus == to {
		return false, nil
	}
	o.PaymentStatus = to
	return true, nil
}

// CheckAmendable reports whether a slip may still be attached to o.
func CheckAmendable(o models.Order) error {
	if o.PaymentStatus == models.PaymentPaid {
		return fmt.Errorf("order %s: %w", o.ID, ErrAlreadyPaid)
	}
	if o.Status == models.StatusCancelled {
		return fmt.Errorf("order %s: %w", o.ID, ErrOrderCancelled)
	}
	return nil
}

// AmendToTransfer returns a copy of o switched to a pending bank transfer with
// the given slip attached. The three fields change together.
func AmendToTransfer(o models.Order, slipURL string) (models.Order, error) {
	if slipURL == "" {
		return o, ErrSlipRequired
	}
	if err := CheckAmendable(o); err != nil {
		return o, err
	}
	o.PaymentMethod = models.PaymentTransfer
	o.PaymentStatus = models.PaymentPending
	o.SlipURL = slipURL
	return o, nil
}

// NewOrderID returns a collision-resistant order id.
func NewOrderID() string {
	return "ORD-" + strings.ToUpper(uuid.NewString())
}

// Basket is what an order is built from.
type Basket interface {
	Items() []models.CartItem
	CustomerClass() models.CustomerClass
}

type CheckoutInput struct {
	CustomerName     string
	DeliveryLocation string
	Method           models.PaymentMethod
	Slip             *models.Asset
}

// NewCheckoutOrder builds a storefront order. Payment and fulfillment both
// start pending. A transfer order without a slip is refused here, before any
// request leaves the client.
func NewCheckoutOrder(b Basket, in CheckoutInput, now time.Time) (models.Order, error) {
	items := b.Items()
	if len(items) == 0 {
		return models.Order{}, ErrEmptyCart
	}
	if !in.Method.Valid() {
		return models.Order{}, fmt.Errorf("payment method %q: %w", in.Method, ErrUnknownStatus)
	}
	if in.Method == models.PaymentTransfer && (in.Slip == nil || in.Slip.IsZero()) {
		return models.Order{}, ErrSlipRequired
	}
	return models.Order{
		ID:               NewOrderID(),
		CustomerName:     in.CustomerName,
		UserType:         representative(b, items),
		Items:            items,
		TotalAmount:      pricing.ItemsTotal(items),
		PaymentMethod:    in.Method,
		PaymentStatus:    models.PaymentPending,
		DeliveryLocation: in.DeliveryLocation,
		Status:           models.StatusPending,
		Timestamp:        now.UnixMilli(),
	}, nil
}

// NewPOSOrder builds a counter sale. It is handed over on the spot, so it is
// completed; cash is taken in person and is paid immediately.
func NewPOSOrder(b Basket, method models.PaymentMethod, now time.Time) (models.Order, error) {
	items := b.Items()
	if len(items) == 0 {
		return models.Order{}, ErrEmptyCart
	}
	if !method.Valid() {
		return models.Order{}, fmt.Errorf("payment method %q: %w", method, ErrUnknownStatus)
	}
	payment := models.PaymentPending
	if method == models.PaymentCash {
		payment = models.PaymentPaid
	}
	return models.Order{
		ID:               NewOrderID(),
		CustomerName:     WalkInCustomer,
		UserType:         b.CustomerClass(),
		Items:            items,
		TotalAmount:      pricing.ItemsTotal(items),
		PaymentMethod:    method,
		PaymentStatus:    payment,
		DeliveryLocation: FrontCounter,
		Status:           models.StatusCompleted,
		Timestamp:        now.UnixMilli(),
	}, nil
}

func representative(b Basket, items []models.CartItem) models.CustomerClass {
	if c := items[0].SelectedUserType; c.Valid() {
		return c
	}
	if c := b.CustomerClass(); c.Valid() {
		return c
	}
	return models.ClassGeneral
}
