// Package client talks to the gateway's /exec endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"cafe-pos-backend/internal/gateway"
	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/report"
	"cafe-pos-backend/internal/slipcheck"
	"cafe-pos-backend/internal/store"
)

var (
	// ErrProtocol means the server answered with something that is not the
	// expected JSON, such as an HTML error page.
	ErrProtocol = errors.New("unexpected response from server")
	ErrConflict = errors.New("conflicting change")
)

// RemoteError is a failure envelope returned by the gateway.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
}

func (e *RemoteError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%d %s): %s", e.Message, e.StatusCode, e.Code, e.Details)
	}
	return fmt.Sprintf("%s (%d %s)", e.Message, e.StatusCode, e.Code)
}

func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case gateway.CodeBusy:
		return gateway.ErrBusy
	case gateway.CodeNotFound:
		return store.ErrNotFound
	case gateway.CodeUnauthorized:
		return gateway.ErrStaffOnly
	case gateway.CodeConflict:
		return ErrConflict
	case gateway.CodeUnavailable:
		return gateway.ErrUnavailable
	}
	return nil
}

type Client struct {
	url     string
	token   string
	timeout time.Duration
	log     logrus.FieldLogger

	maxTries     uint
	retryInitial time.Duration
}

func New(endpoint, token string, timeout time.Duration, log logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		url:          endpoint,
		token:        token,
		timeout:      timeout,
		log:          log.WithField("component", "client"),
		maxTries:     4,
		retryInitial: 300 * time.Millisecond,
	}
}

func (c *Client) agent(a *fiber.Agent) *fiber.Agent {
	a.Timeout(c.timeout)
	if c.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	return a
}

// call runs one request with retries while the server reports busy.
func call[T any](ctx context.Context, c *Client, action string, once func() (int, []byte, error)) (T, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryInitial

	op := func() (T, error) {
		var out T
		if err := ctx.Err(); err != nil {
			return out, backoff.Permanent(err)
		}
		code, body, err := once()
		if err != nil {
			return out, backoff.Permanent(fmt.Errorf("%s: %w", action, err))
		}
		if err := decode(code, body, &out); err != nil {
			if errors.Is(err, gateway.ErrBusy) {
				c.log.WithField("action", action).Warn("Server busy, retrying")
				return out, err
			}
			return out, backoff.Permanent(fmt.Errorf("%s: %w", action, err))
		}
		return out, nil
	}
	return backoff.Retry(ctx, op, backoff.WithBackOff(eb), backoff.WithMaxTries(c.maxTries))
}

func decode(code int, body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] == '<' {
		return fmt.Errorf("%w: status %d, not JSON", ErrProtocol, code)
	}

	if code >= 300 || isErrorEnvelope(trimmed) {
		var env gateway.Envelope
		if err := json.Unmarshal(trimmed, &env); err != nil || env.Status != gateway.StatusError {
			return fmt.Errorf("%w: status %d", ErrProtocol, code)
		}
		return &RemoteError{StatusCode: code, Code: env.Code, Message: env.Message, Details: env.Details}
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return nil
}

func isErrorEnvelope(b []byte) bool {
	if b[0] != '{' {
		return false
	}
	var probe struct {
		Status string `json:"status"`
	}
	return json.Unmarshal(b, &probe) == nil && probe.Status == gateway.StatusError
}

func (c *Client) get(action string, params url.Values) func() (int, []byte, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("action", action)
	target := c.url + "?" + q.Encode()

	return func() (int, []byte, error) {
		code, body, errs := c.agent(fiber.Get(target)).Bytes()
		if len(errs) > 0 {
			return 0, nil, errs[0]
		}
		return code, body, nil
	}
}

func (c *Client) post(req gateway.Request) func() (int, []byte, error) {
	return func() (int, []byte, error) {
		code, body, errs := c.agent(fiber.Post(c.url)).JSON(req).Bytes()
		if len(errs) > 0 {
			return 0, nil, errs[0]
		}
		return code, body, nil
	}
}

// ==========================================
// READS
// ==========================================

func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	return call[[]models.Product](ctx, c, "getProducts", c.get("getProducts", nil))
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	return call[[]models.Category](ctx, c, "getCategories", c.get("getCategories", nil))
}

func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	return call[[]models.Order](ctx, c, "getOrders", c.get("getOrders", nil))
}

func (c *Client) SalesSummary(ctx context.Context, period string) (report.Summary, error) {
	return call[report.Summary](ctx, c, "getSalesSummary", c.get("getSalesSummary", url.Values{"period": {period}}))
}

func (c *Client) VerifySlip(ctx context.Context, slip models.Asset, expected float64) (slipcheck.Result, error) {
	req := gateway.Request{Action: string(gateway.ActionVerifySlip), SlipImage: &slip, ExpectedAmount: expected}
	return call[slipcheck.Result](ctx, c, req.Action, c.post(req))
}

// ==========================================
// WRITES
// ==========================================

func (c *Client) exec(ctx context.Context, req gateway.Request) (gateway.Envelope, error) {
	return call[gateway.Envelope](ctx, c, req.Action, c.post(req))
}

func (c *Client) SaveProduct(ctx context.Context, p models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = c.exec(ctx, gateway.Request{Action: string(gateway.ActionSaveProduct), Data: data})
	return err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.exec(ctx, gateway.Request{Action: string(gateway.ActionDeleteProduct), ID: id})
	return err
}

func (c *Client) SaveCategory(ctx context.Context, cat models.Category) error {
	data, err := json.Marshal(cat)
	if err != nil {
		return err
	}
	_, err = c.exec(ctx, gateway.Request{Action: string(gateway.ActionSaveCategory), Data: data})
	return err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	_, err := c.exec(ctx, gateway.Request{Action: string(gateway.ActionDeleteCategory), ID: id})
	return err
}

// CreateOrder submits o. The returned envelope carries the stored slip URL.
func (c *Client) CreateOrder(ctx context.Context, o models.Order, slip *models.Asset) (gateway.Envelope, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return gateway.Envelope{}, err
	}
	return c.exec(ctx, gateway.Request{Action: string(gateway.ActionCreateOrder), Data: data, SlipImage: slip})
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	_, err := c.exec(ctx, gateway.Request{Action: string(gateway.ActionUpdateOrderStatus), ID: id, Status: string(status)})
	return err
}

func (c *Client) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	_, err := c.exec(ctx, gateway.Request{Action: string(gateway.ActionUpdatePaymentStatus), ID: id, Status: string(status)})
	return err
}

func (c *Client) UpdateOrderPayment(ctx context.Context, id string, slip models.Asset) (gateway.Envelope, error) {
	return c.exec(ctx, gateway.Request{Action: string(gateway.ActionUpdateOrderPayment), ID: id, SlipImage: &slip})
}

// Login exchanges staff credentials for a token. The login endpoint sits
// next to exec.
func (c *Client) Login(ctx context.Context, loginURL, username, password string) (string, error) {
	once := func() (int, []byte, error) {
		code, body, errs := fiber.Post(loginURL).Timeout(c.timeout).
			JSON(fiber.Map{"username": username, "password": password}).Bytes()
		if len(errs) > 0 {
			return 0, nil, errs[0]
		}
		return code, body, nil
	}
	res, err := call[loginResponse](ctx, c, "login", once)
	return res.Token, err
}

type loginResponse struct {
	Token string `json:"token"`
}
