package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-backend/internal/database"
	"cafe-pos-backend/internal/gateway"
	"cafe-pos-backend/internal/middleware"
	"cafe-pos-backend/internal/models"
)

func newTestApp(t *testing.T, auth *middleware.StaffAuth) *fiber.App {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver:     "sqlite",
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, "", logrus.New()))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	gw, err := gateway.New(gateway.Options{
		Store:        database.NewStore(db),
		LockWait:     time.Second,
		RequireStaff: auth.Enabled(),
		Logger:       logrus.New(),
	})
	require.NoError(t, err)
	t.Cleanup(gw.Close)

	return NewApp(New(gw, auth, logrus.New()), AppConfig{})
}

func do(t *testing.T, app *fiber.App, method, target, body, token string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	// Browser clients post JSON as text/plain.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func orderBody(id string) string {
	o := models.Order{
		ID:           id,
		CustomerName: "Nok",
		Items: []models.CartItem{{
			Product:  models.Product{ID: "P-1", Name: "Cocoa"},
			Quantity: 1, AppliedPrice: 35, Sweetness: "50%",
			SelectedUserType: models.ClassStudent, SelectedServingType: models.ServingIced,
		}},
		PaymentMethod:    models.PaymentCash,
		DeliveryLocation: "Room 3",
	}
	data, _ := json.Marshal(o)
	return fmt.Sprintf(`{"action":"createOrder","data":%s}`, data)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, middleware.NewStaffAuth("", "", ""))
	code, body := do(t, app, "GET", "/api/v1/health", "", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "API Ready")
}

func TestExecRoundTrip(t *testing.T) {
	app := newTestApp(t, middleware.NewStaffAuth("", "", ""))

	code, body := do(t, app, "GET", "/api/v1/exec?action=getProducts", "", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `[]`, body)

	code, body = do(t, app, "POST", "/api/v1/exec", orderBody("ORD-H1"), "")
	require.Equal(t, fiber.StatusOK, code, body)
	assert.JSONEq(t, `{"status":"success","id":"ORD-H1"}`, body)

	code, body = do(t, app, "GET", "/api/v1/exec?action=getOrders", "", "")
	assert.Equal(t, fiber.StatusOK, code)
	var orders []models.Order
	require.NoError(t, json.Unmarshal([]byte(body), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, 35.0, orders[0].TotalAmount)

	code, body = do(t, app, "POST", "/api/v1/exec", orderBody("ORD-H1"), "")
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Contains(t, body, `"status":"error"`)

	code, _ = do(t, app, "POST", "/api/v1/exec", `{"action":"updateOrderStatus","id":"nope","status":"completed"}`, "")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestExecRejectsBadInput(t *testing.T) {
	app := newTestApp(t, middleware.NewStaffAuth("", "", ""))

	code, body := do(t, app, "GET", "/api/v1/exec?action=launchRockets", "", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body, gateway.CodeUnknownAction)

	code, _ = do(t, app, "GET", "/api/v1/exec?action=deleteProduct&id=1", "", "")
	assert.Equal(t, fiber.StatusMethodNotAllowed, code)

	code, _ = do(t, app, "POST", "/api/v1/exec", `<html>`, "")
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestStaffActionsNeedToken(t *testing.T) {
	hash, err := middleware.HashPassword("secret")
	require.NoError(t, err)
	auth := middleware.NewStaffAuth("admin", hash, "jwt-secret")
	app := newTestApp(t, auth)

	save := `{"action":"saveCategory","data":{"id":"1","name":"Tea"}}`
	code, _ := do(t, app, "POST", "/api/v1/exec", save, "")
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, body := do(t, app, "POST", "/api/v1/login", `{"username":"admin","password":"secret"}`, "")
	require.Equal(t, fiber.StatusOK, code, body)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &login))

	code, _ = do(t, app, "POST", "/api/v1/exec", save, login.Token)
	assert.Equal(t, fiber.StatusOK, code)

	code, body = do(t, app, "GET", "/api/v1/me", "", login.Token)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, `"username":"admin"`)

	code, _ = do(t, app, "POST", "/api/v1/login", `{"username":"admin","password":"nope"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestReceipt(t *testing.T) {
	app := newTestApp(t, middleware.NewStaffAuth("", "", ""))

	code, _ := do(t, app, "POST", "/api/v1/exec", orderBody("ORD-R1"), "")
	require.Equal(t, fiber.StatusOK, code)

	code, body := do(t, app, "GET", "/receipts/ORD-R1", "", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "ORD-R1")
	assert.Contains(t, body, "Cocoa")
	assert.Contains(t, body, "฿35")

	code, _ = do(t, app, "GET", "/receipts/ORD-404", "", "")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, middleware.NewStaffAuth("", "", ""))
	do(t, app, "GET", "/api/v1/exec?action=getCategories", "", "")

	code, body := do(t, app, "GET", "/metrics", "", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "cafe_gateway_requests_total")
}
