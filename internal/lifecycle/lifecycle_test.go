package lifecycle

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-backend/internal/cart"
	"cafe-pos-backend/internal/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		ok       bool
	}{
		{models.StatusPending, models.StatusPreparing, true},
		{models.StatusPreparing, models.StatusDelivering, true},
		{models.StatusDelivering, models.StatusCompleted, true},
		{models.StatusPending, models.StatusCompleted, true},
		{models.StatusPreparing, models.StatusCancelled, true},
		{models.StatusDelivering, models.StatusPending, false},
		{models.StatusCompleted, models.StatusPending, false},
		{models.StatusCompleted, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusPreparing, false},
		{models.StatusCompleted, models.StatusCompleted, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestAdvanceIsIdempotent(t *testing.T) {
	o := models.Order{ID: "ORD-1", Status: models.StatusPending}

	changed, err := Advance(&o, models.StatusPreparing)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = Advance(&o, models.StatusPreparing)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.StatusPreparing, o.Status)

	_, err = Advance(&o, models.StatusPending)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, models.StatusPreparing, o.Status)

	_, err = Advance(&o, "lost")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestSetPaymentOverride(t *testing.T) {
	o := models.Order{PaymentStatus: models.PaymentPending}
	changed, err := SetPayment(&o, models.PaymentPaid)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = SetPayment(&o, models.PaymentPending)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PaymentPending, o.PaymentStatus)

	_, err = SetPayment(&o, "refunded")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestAmendToTransfer(t *testing.T) {
	o := models.Order{ID: "ORD-1", PaymentMethod: models.PaymentCash, PaymentStatus: models.PaymentPending}

	got, err := AmendToTransfer(o, "https://assets/slip.jpg")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentTransfer, got.PaymentMethod)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)
	assert.Equal(t, "https://assets/slip.jpg", got.SlipURL)
	assert.Equal(t, models.PaymentCash, o.PaymentMethod, "input is not mutated")

	_, err = AmendToTransfer(o, "")
	assert.ErrorIs(t, err, ErrSlipRequired)

	o.PaymentStatus = models.PaymentPaid
	_, err = AmendToTransfer(o, "x")
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	o.PaymentStatus = models.PaymentPending
	o.Status = models.StatusCancelled
	_, err = AmendToTransfer(o, "x")
	assert.ErrorIs(t, err, ErrOrderCancelled)
}

func filledCart(t *testing.T, class models.CustomerClass) *cart.Cart {
	t.Helper()
	c := cart.New(class)
	_, err := c.Add(models.Product{
		ID: "P-1", Name: "Cocoa",
		Prices: models.Prices{models.ServingIced: {General: 50, Teacher: 45, Student: 40}},
	}, models.ServingIced, "normal")
	require.NoError(t, err)
	return c
}

func TestNewCheckoutOrder(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	c := filledCart(t, models.ClassTeacher)

	o, err := NewCheckoutOrder(c, CheckoutInput{
		CustomerName: "Ploy", DeliveryLocation: "Room 204", Method: models.PaymentCash,
	}, now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(o.ID, "ORD-"))
	assert.Equal(t, models.ClassTeacher, o.UserType)
	assert.Equal(t, 45.0, o.TotalAmount)
	assert.Equal(t, models.PaymentPending, o.PaymentStatus)
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, now.UnixMilli(), o.Timestamp)

	_, err = NewCheckoutOrder(c, CheckoutInput{Method: models.PaymentTransfer}, now)
	assert.ErrorIs(t, err, ErrSlipRequired)

	slip := models.Inline("image/jpeg", []byte{0xff, 0xd8})
	o, err = NewCheckoutOrder(c, CheckoutInput{Method: models.PaymentTransfer, Slip: &slip}, now)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentTransfer, o.PaymentMethod)

	_, err = NewCheckoutOrder(cart.New(models.ClassGeneral), CheckoutInput{Method: models.PaymentCash}, now)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestNewPOSOrder(t *testing.T) {
	c := filledCart(t, models.ClassStudent)

	cash, err := NewPOSOrder(c, models.PaymentCash, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, cash.PaymentStatus)
	assert.Equal(t, models.StatusCompleted, cash.Status)
	assert.Equal(t, WalkInCustomer, cash.CustomerName)

	transfer, err := NewPOSOrder(c, models.PaymentTransfer, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, transfer.PaymentStatus)
	assert.NotEqual(t, cash.ID, transfer.ID)
}
