package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-backend/internal/models"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodAll, p)

	p, err = ParsePeriod("month")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)

	_, err = ParsePeriod("week")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	at := func(t time.Time) int64 { return t.UnixMilli() }

	orders := []models.Order{
		{ID: "a", UserType: models.ClassStudent, TotalAmount: 0.1, PaymentMethod: models.PaymentCash, PaymentStatus: models.PaymentPaid, Status: models.StatusCompleted, Timestamp: at(now.Add(-time.Hour))},
		{ID: "b", UserType: models.ClassStudent, TotalAmount: 0.2, PaymentMethod: models.PaymentTransfer, PaymentStatus: models.PaymentPending, Status: models.StatusPending, Timestamp: at(now.Add(-2 * time.Hour))},
		{ID: "c", UserType: models.ClassTeacher, TotalAmount: 50, PaymentMethod: models.PaymentCash, PaymentStatus: models.PaymentPending, Status: models.StatusCancelled, Timestamp: at(now.AddDate(0, 0, -3))},
		{ID: "d", UserType: models.ClassGeneral, TotalAmount: 80, PaymentMethod: models.PaymentCash, PaymentStatus: models.PaymentPaid, Status: models.StatusCompleted, Timestamp: at(now.AddDate(-1, 0, 0))},
	}

	day := Summarize(orders, PeriodDay, now)
	assert.Equal(t, 2, day.TotalCount)
	assert.Equal(t, 0.3, day.TotalRevenue)
	assert.Equal(t, 0.1, day.PaidRevenue)
	assert.Equal(t, 0.2, day.PendingRevenue)
	assert.Equal(t, 0.3, day.RevenueByUserType[models.ClassStudent])
	assert.Equal(t, 0.0, day.RevenueByUserType[models.ClassTeacher])

	month := Summarize(orders, PeriodMonth, now)
	assert.Equal(t, 3, month.TotalCount)
	assert.Equal(t, 1, month.CancelledCount)
	assert.Equal(t, 2, month.PendingCount)
	assert.Equal(t, 1, month.StatusCounts[models.StatusCancelled])
	require.Len(t, month.PaymentMethods, 2)
	assert.Equal(t, MethodTotal{PaymentMethod: models.PaymentCash, TotalAmount: 50.1, Count: 2}, month.PaymentMethods[0])

	all := Summarize(orders, PeriodAll, now)
	assert.Equal(t, 4, all.TotalCount)
	assert.Equal(t, 130.3, all.TotalRevenue)
	assert.Equal(t, 80.1, all.PaidRevenue)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, PeriodYear, time.Now())
	assert.Zero(t, s.TotalCount)
	assert.NotNil(t, s.PaymentMethods)
	assert.Len(t, s.RevenueByUserType, 3)
}
