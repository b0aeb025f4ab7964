// Package notify posts short chat messages to a webhook.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"cafe-pos-backend/internal/models"
)

// Sink sends fire-and-forget notifications. A Sink with an empty URL does
// nothing; a nil *Sink is also safe to use.
type Sink struct {
	url     string
	timeout time.Duration
	limiter *rate.Limiter
	log     logrus.FieldLogger
	wg      sync.WaitGroup
}

// New builds a sink that allows bursts of 5 messages refilling at one per
// second. Messages over the limit are dropped.
func New(url string, log logrus.FieldLogger) *Sink {
	return &Sink{
		url:     url,
		timeout: 5 * time.Second,
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		log:     log.WithField("component", "notify"),
	}
}

func (s *Sink) Enabled() bool {
	return s != nil && s.url != ""
}

// Send posts {"text": text} in the background. Failures are logged and
// never reach the caller.
func (s *Sink) Send(text string) {
	if !s.Enabled() {
		return
	}
	if !s.limiter.Allow() {
		s.log.WithField("text", text).Warn("Notification dropped by rate limiter")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.post(text); err != nil {
			s.log.WithError(err).Warn("Notification failed")
		}
	}()
}

func (s *Sink) post(text string) error {
	code, body, errs := fiber.Post(s.url).
		JSON(fiber.Map{"text": text}).
		Timeout(s.timeout).
		Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("webhook returned %d: %s", code, body)
	}
	return nil
}

// Wait blocks until in-flight notifications finish.
func (s *Sink) Wait() {
	if s != nil {
		s.wg.Wait()
	}
}

func OrderCreated(o models.Order) string {
	return fmt.Sprintf("🛍️ *New Order* (%s)\nCustomer: %s\nTotal: %s",
		o.ID, o.CustomerName, models.FormatAmount(o.TotalAmount))
}

func SlipUploaded(orderID string) string {
	return fmt.Sprintf("💳 *Payment Updated* for Order (%s)\nA new slip has been uploaded.", orderID)
}
