package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) *StaffAuth {
	t.Helper()
	hash, err := HashPassword("latte-art")
	require.NoError(t, err)
	return NewStaffAuth("barista", hash, "test-secret")
}

func whoAmI(h fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/who", h, func(c *fiber.Ctx) error {
		if IsStaff(c) {
			return c.SendString("staff:" + Username(c))
		}
		return c.SendString("customer")
	})
	return app
}

func get(t *testing.T, app *fiber.App, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", "/who", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestLogin(t *testing.T) {
	auth := newAuth(t)

	_, err := auth.Login("barista", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login("someone", "latte-art")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, err := auth.Login("barista", "latte-art")
	require.NoError(t, err)
	claims, err := auth.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "barista", claims.Username)
	assert.Equal(t, RoleStaff, claims.Role)

	other := NewStaffAuth("barista", "x", "another-secret")
	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestLoginDisabled(t *testing.T) {
	auth := NewStaffAuth("", "", "")
	assert.False(t, auth.Enabled())
	_, err := auth.Login("a", "b")
	assert.ErrorIs(t, err, ErrAuthDisabled)
}

func TestIdentify(t *testing.T) {
	auth := newAuth(t)
	app := whoAmI(auth.Identify())

	code, body := get(t, app, "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "customer", body)

	token, err := auth.GenerateJWT("barista")
	require.NoError(t, err)
	code, body = get(t, app, token)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "staff:barista", body)

	code, _ = get(t, app, "garbage")
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestStaffProtected(t *testing.T) {
	auth := newAuth(t)
	app := whoAmI(auth.StaffProtected())

	code, _ := get(t, app, "")
	assert.Equal(t, fiber.StatusUnauthorized, code)

	token, err := auth.GenerateJWT("barista")
	require.NoError(t, err)
	code, body := get(t, app, token)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "staff:barista", body)

	open := NewStaffAuth("", "", "")
	code, body = get(t, whoAmI(open.StaffProtected()), "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "customer", body)
}
