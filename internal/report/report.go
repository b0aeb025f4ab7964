// Package report builds the sales summary shown on the staff dashboard.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cafe-pos-backend/internal/models"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDay, PeriodMonth, PeriodYear, PeriodAll:
		return p, nil
	case "":
		return PeriodAll, nil
	}
	return "", fmt.Errorf("invalid period %q: use day, month, year or all", s)
}

// Contains reports whether t falls in the period that contains now, using
// now's location for calendar boundaries.
func (p Period) Contains(t, now time.Time) bool {
	t = t.In(now.Location())
	switch p {
	case PeriodDay:
		y1, m1, d1 := t.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case PeriodMonth:
		return t.Year() == now.Year() && t.Month() == now.Month()
	case PeriodYear:
		return t.Year() == now.Year()
	}
	return true
}

type MethodTotal struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	TotalAmount   float64              `json:"totalAmount"`
	Count         int                  `json:"count"`
}

type Summary struct {
	Period         Period  `json:"period"`
	TotalRevenue   float64 `json:"totalRevenue"`
	PaidRevenue    float64 `json:"paidRevenue"`
	PendingRevenue float64 `json:"pendingRevenue"`
	TotalCount     int     `json:"totalCount"`
	PaidCount      int     `json:"paidCount"`
	PendingCount   int     `json:"pendingCount"`
	CancelledCount int     `json:"cancelledCount"`

	RevenueByUserType map[models.CustomerClass]float64 `json:"revenueByUserType"`
	StatusCounts      map[models.OrderStatus]int       `json:"statusCounts"`
	PaymentMethods    []MethodTotal                    `json:"paymentMethods"`
}

// Summarize aggregates the orders placed within period. Cancelled orders
// are counted but still contribute to revenue, matching the dashboard.
func Summarize(orders []models.Order, period Period, now time.Time) Summary {
	var total, paid, pending decimal.Decimal
	byClass := map[models.CustomerClass]decimal.Decimal{}
	byMethod := map[models.PaymentMethod]*struct {
		sum   decimal.Decimal
		count int
	}{}

	s := Summary{
		Period:            period,
		RevenueByUserType: map[models.CustomerClass]float64{},
		StatusCounts:      map[models.OrderStatus]int{},
		PaymentMethods:    []MethodTotal{},
	}
	for _, c := range []models.CustomerClass{models.ClassGeneral, models.ClassTeacher, models.ClassStudent} {
		byClass[c] = decimal.Zero
	}

	for _, o := range orders {
		if !period.Contains(time.UnixMilli(o.Timestamp), now) {
			continue
		}
		amount := decimal.NewFromFloat(o.TotalAmount)

		s.TotalCount++
		total = total.Add(amount)
		switch o.PaymentStatus {
		case models.PaymentPaid:
			s.PaidCount++
			paid = paid.Add(amount)
		case models.PaymentPending, "":
			s.PendingCount++
			pending = pending.Add(amount)
		}
		if o.Status == models.StatusCancelled {
			s.CancelledCount++
		}
		s.StatusCounts[o.Status]++

		if o.UserType.Valid() {
			byClass[o.UserType] = byClass[o.UserType].Add(amount)
		}
		m, ok := byMethod[o.PaymentMethod]
		if !ok {
			m = &struct {
				sum   decimal.Decimal
				count int
			}{}
			byMethod[o.PaymentMethod] = m
		}
		m.sum = m.sum.Add(amount)
		m.count++
	}

	s.TotalRevenue = total.InexactFloat64()
	s.PaidRevenue = paid.InexactFloat64()
	s.PendingRevenue = pending.InexactFloat64()
	for c, v := range byClass {
		s.RevenueByUserType[c] = v.InexactFloat64()
	}
	for method, m := range byMethod {
		s.PaymentMethods = append(s.PaymentMethods, MethodTotal{
			PaymentMethod: method,
			TotalAmount:   m.sum.InexactFloat64(),
			Count:         m.count,
		})
	}
	sort.Slice(s.PaymentMethods, func(i, j int) bool {
		return s.PaymentMethods[i].PaymentMethod < s.PaymentMethods[j].PaymentMethod
	})
	return s
}
