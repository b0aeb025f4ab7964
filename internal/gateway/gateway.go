// Package gateway is the single entry point for reads and writes against the
// row store. Writes run one at a time under a bounded-wait lock; listing
// reads are cached and invalidated by the writes that touch them.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"cafe-pos-backend/internal/assets"
	"cafe-pos-backend/internal/catalog"
	"cafe-pos-backend/internal/lifecycle"
	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/notify"
	"cafe-pos-backend/internal/pricing"
	"cafe-pos-backend/internal/report"
	"cafe-pos-backend/internal/slipcheck"
	"cafe-pos-backend/internal/store"
)

// SlipVerifier checks a payment slip image against an amount.
type SlipVerifier interface {
	Verify(ctx context.Context, slip models.Asset, expected float64) (slipcheck.Result, error)
}

type Options struct {
	Store    store.Store
	Assets   assets.Uploader // nil disables uploads
	Notifier *notify.Sink    // nil disables notifications
	Verifier SlipVerifier    // nil disables verifySlip

	LockWait time.Duration
	CacheTTL time.Duration

	// RequireStaff makes staff-only actions refuse anonymous callers. It is
	// set when a staff credential is configured.
	RequireStaff bool

	Logger logrus.FieldLogger
	Now    func() time.Time
}

type Gateway struct {
	store        store.Store
	assets       assets.Uploader
	notifier     *notify.Sink
	verifier     SlipVerifier
	lock         *Lock
	cache        *listCache
	requireStaff bool
	validate     *validator.Validate
	log          logrus.FieldLogger
	now          func() time.Time
}

func New(opts Options) (*Gateway, error) {
	if opts.Store == nil {
		return nil, errors.New("gateway: store is required")
	}
	cache, err := newListCache(opts.CacheTTL)
	if err != nil {
		return nil, err
	}
	g := &Gateway{
		store:        opts.Store,
		assets:       opts.Assets,
		notifier:     opts.Notifier,
		verifier:     opts.Verifier,
		lock:         NewLock(opts.LockWait),
		cache:        cache,
		requireStaff: opts.RequireStaff,
		validate:     validator.New(),
		log:          opts.Logger,
		now:          opts.Now,
	}
	if g.assets == nil {
		g.assets = assets.Disabled{}
	}
	if g.log == nil {
		g.log = logrus.StandardLogger()
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g, nil
}

func (g *Gateway) Close() {
	g.cache.close()
}

// Dispatch runs one request. Reads return their payload; writes return a
// success Envelope. Any error, including a recovered panic, is meant for
// Describe.
func (g *Gateway) Dispatch(ctx context.Context, req Request, caller Caller) (res any, err error) {
	start := time.Now()
	label := "unknown"

	defer func() {
		if r := recover(); r != nil {
			g.log.WithFields(logrus.Fields{"action": req.Action, "panic": r}).Error("Gateway panic recovered")
			res, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
		requestsTotal.WithLabelValues(label, Code(err)).Inc()
		requestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	action, err := ParseAction(req.Action)
	if err != nil {
		return nil, err
	}
	label = string(action)

	if g.requireStaff && !caller.Staff && g.staffOnly(action, req) {
		return nil, ErrStaffOnly
	}

	if !action.Mutates() {
		return g.read(ctx, action, req)
	}

	release, err := g.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err = g.write(ctx, action, req)
	if err != nil {
		g.log.WithError(err).WithField("action", action).Warn("Mutation failed")
	}
	return res, err
}

// staffOnly also covers createOrder payloads shaped like counter sales: an
// order that is already paid or already past pending.
func (g *Gateway) staffOnly(a Action, req Request) bool {
	if a.StaffOnly() {
		return true
	}
	if a != ActionCreateOrder || len(req.Data) == 0 {
		return false
	}
	var probe struct {
		Status        models.OrderStatus   `json:"status"`
		PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	}
	if json.Unmarshal(req.Data, &probe) != nil {
		return false
	}
	return probe.PaymentStatus == models.PaymentPaid ||
		(probe.Status != "" && probe.Status != models.StatusPending)
}

// Order returns one order without taking the lock.
func (g *Gateway) Order(ctx context.Context, id string) (models.Order, error) {
	return g.store.Order(ctx, id)
}

// ==========================================
// READS
// ==========================================

func (g *Gateway) read(ctx context.Context, a Action, req Request) (any, error) {
	switch a {
	case ActionGetProducts:
		return cached(g.cache, cacheKeyProducts, func() ([]models.Product, error) {
			return g.store.Products(ctx)
		})
	case ActionGetCategories:
		return cached(g.cache, cacheKeyCategories, func() ([]models.Category, error) {
			return g.store.Categories(ctx)
		})
	case ActionGetOrders:
		orders, err := g.store.Orders(ctx)
		if err != nil {
			return nil, err
		}
		catalog.NewestFirst(orders)
		return orders, nil
	case ActionGetSalesSummary:
		period, err := report.ParsePeriod(req.Period)
		if err != nil {
			return nil, badRequest("%v", err)
		}
		orders, err := g.store.Orders(ctx)
		if err != nil {
			return nil, err
		}
		return report.Summarize(orders, period, g.now()), nil
	case ActionVerifySlip:
		return g.verifySlip(ctx, req)
	}
	return nil, &UnknownActionError{Action: string(a)}
}

func cached[T any](lc *listCache, key string, load func() (T, error)) (T, error) {
	if v, ok := lc.get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	gen := lc.generation(key)
	v, err := load()
	if err != nil {
		return v, err
	}
	lc.fill(key, gen, v)
	return v, nil
}

func (g *Gateway) verifySlip(ctx context.Context, req Request) (slipcheck.Result, error) {
	if g.verifier == nil {
		return slipcheck.Result{}, fmt.Errorf("slip verification: %w", ErrUnavailable)
	}
	if req.SlipImage == nil || req.SlipImage.IsZero() {
		return slipcheck.Result{}, badRequest("slipImage is required")
	}
	if req.ExpectedAmount <= 0 {
		return slipcheck.Result{}, badRequest("expectedAmount must be positive")
	}
	res, err := g.verifier.Verify(ctx, *req.SlipImage, req.ExpectedAmount)
	if err != nil {
		g.log.WithError(err).Warn("Slip verification failed")
		return slipcheck.Unverified, nil
	}
	return res, nil
}

// ==========================================
// WRITES (lock held)
// ==========================================

func (g *Gateway) write(ctx context.Context, a Action, req Request) (any, error) {
	switch a {
	case ActionSaveProduct:
		defer g.cache.invalidate(cacheKeyProducts)
		return g.saveProduct(ctx, req)
	case ActionDeleteProduct:
		defer g.cache.invalidate(cacheKeyProducts)
		if req.ID == "" {
			return nil, badRequest("id is required")
		}
		if err := g.store.DeleteProduct(ctx, req.ID); err != nil {
			return nil, err
		}
		return success(req.ID), nil
	case ActionSaveCategory:
		defer g.cache.invalidate(cacheKeyCategories)
		var c models.Category
		if err := g.decode(req.Data, &c); err != nil {
			return nil, err
		}
		if err := g.store.SaveCategory(ctx, c); err != nil {
			return nil, err
		}
		return success(c.ID), nil
	case ActionDeleteCategory:
		defer g.cache.invalidate(cacheKeyCategories)
		if req.ID == "" {
			return nil, badRequest("id is required")
		}
		if err := g.store.DeleteCategory(ctx, req.ID); err != nil {
			return nil, err
		}
		return success(req.ID), nil
	case ActionCreateOrder:
		return g.createOrder(ctx, req)
	case ActionUpdateOrderStatus:
		return g.updateOrder(ctx, req.ID, func(o *models.Order) (bool, error) {
			return lifecycle.Advance(o, models.OrderStatus(req.Status))
		})
	case ActionUpdatePaymentStatus:
		return g.updateOrder(ctx, req.ID, func(o *models.Order) (bool, error) {
			return lifecycle.SetPayment(o, models.PaymentStatus(req.Status))
		})
	case ActionUpdateOrderPayment:
		return g.amendPayment(ctx, req)
	}
	return nil, &UnknownActionError{Action: string(a)}
}

func success(id string) Envelope {
	return Envelope{Status: StatusSuccess, ID: id}
}

func (g *Gateway) decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return badRequest("data is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return badRequest("invalid data: %v", err)
	}
	if err := g.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func (g *Gateway) saveProduct(ctx context.Context, req Request) (any, error) {
	var p models.Product
	if err := g.decode(req.Data, &p); err != nil {
		return nil, err
	}
	if p.ProductType == "" {
		p.ProductType = models.ProductDrink
	}
	if err := pricing.CheckVariants(p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	p, err := assets.ResolveProduct(ctx, g.assets, p)
	if err != nil {
		return nil, err
	}
	if err := g.store.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	return success(p.ID), nil
}

func (g *Gateway) createOrder(ctx context.Context, req Request) (any, error) {
	var o models.Order
	if err := g.decode(req.Data, &o); err != nil {
		return nil, err
	}
	if o.ID == "" {
		o.ID = lifecycle.NewOrderID()
	}
	if o.Status == "" {
		o.Status = models.StatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = models.PaymentPending
	}
	if o.Timestamp == 0 {
		o.Timestamp = g.now().UnixMilli()
	}
	if !o.UserType.Valid() {
		o.UserType = o.Items[0].SelectedUserType
		if !o.UserType.Valid() {
			o.UserType = models.ClassGeneral
		}
	}
	o.TotalAmount = pricing.ItemsTotal(o.Items)
	for i := range o.Items {
		o.Items[i].Product = o.Items[i].Product.Snapshot()
	}

	if req.SlipImage != nil && !req.SlipImage.IsZero() {
		url, err := assets.Resolve(ctx, g.assets, assets.FolderSlips, *req.SlipImage)
		if err != nil {
			return nil, fmt.Errorf("slip upload: %w", err)
		}
		o.SlipURL = url
	}
	// A customer transfer needs proof of payment; counter sales record it later.
	if o.PaymentMethod == models.PaymentTransfer && o.Status == models.StatusPending && o.SlipURL == "" {
		return nil, lifecycle.ErrSlipRequired
	}

	if err := g.store.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	g.log.WithFields(logrus.Fields{"order": o.ID, "total": o.TotalAmount}).Info("Order created")
	g.notifier.Send(notify.OrderCreated(o))

	env := success(o.ID)
	env.SlipURL = o.SlipURL
	return env, nil
}

// updateOrder loads the order, applies mutate and writes the full row back
// when something changed.
func (g *Gateway) updateOrder(ctx context.Context, id string, mutate func(*models.Order) (bool, error)) (any, error) {
	if id == "" {
		return nil, badRequest("id is required")
	}
	o, err := g.store.Order(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := mutate(&o)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := g.store.ReplaceOrder(ctx, o); err != nil {
			return nil, err
		}
	}
	return success(id), nil
}

func (g *Gateway) amendPayment(ctx context.Context, req Request) (any, error) {
	if req.ID == "" {
		return nil, badRequest("id is required")
	}
	if req.SlipImage == nil || req.SlipImage.IsZero() {
		return nil, lifecycle.ErrSlipRequired
	}
	o, err := g.store.Order(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckAmendable(o); err != nil {
		return nil, err
	}
	url, err := assets.Resolve(ctx, g.assets, assets.FolderSlips, *req.SlipImage)
	if err != nil {
		return nil, fmt.Errorf("slip upload: %w", err)
	}
	amended, err := lifecycle.AmendToTransfer(o, url)
	if err != nil {
		return nil, err
	}
	if err := g.store.ReplaceOrder(ctx, amended); err != nil {
		return nil, err
	}
	g.notifier.Send(notify.SlipUploaded(amended.ID))

	env := success(amended.ID)
	env.SlipURL = url
	return env, nil
}
