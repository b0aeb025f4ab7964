package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-backend/internal/gateway"
	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/store"
)

func newTestClient(url string) *Client {
	c := New(url, "tok", 2*time.Second, logrus.New())
	c.retryInitial = time.Millisecond
	return c
}

func TestProductsDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "getProducts", r.URL.Query().Get("action"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		io.WriteString(w, `[{"id":"P-1","name":"Cocoa","category":"Drinks"}]`)
	}))
	defer srv.Close()

	products, err := newTestClient(srv.URL).Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Cocoa", products[0].Name)
}

func TestHTMLIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<!DOCTYPE html><html><body>Sign in</body></html>`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Categories(context.Background())
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestErrorEnvelopeMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"status":"error","code":"not_found","message":"order not found"}`)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).UpdateOrderStatus(context.Background(), "ORD-1", models.StatusCompleted)
	assert.ErrorIs(t, err, store.ErrNotFound)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusNotFound, remote.StatusCode)
}

func TestBusyIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gateway.Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "createOrder", req.Action)

		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"status":"error","code":"busy","message":"server is busy, please try again"}`)
			return
		}
		io.WriteString(w, `{"status":"success","id":"ORD-9"}`)
	}))
	defer srv.Close()

	env, err := newTestClient(srv.URL).CreateOrder(context.Background(), models.Order{ID: "ORD-9"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ORD-9", env.ID)
	assert.EqualValues(t, 3, calls.Load())
}

func TestBusyGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"status":"error","code":"busy","message":"server is busy, please try again"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.DeleteCategory(context.Background(), "1")
	assert.ErrorIs(t, err, gateway.ErrBusy)
	assert.EqualValues(t, c.maxTries, calls.Load())
}

func TestConflictIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"status":"error","code":"conflict","message":"order already paid"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).UpdateOrderPayment(context.Background(), "ORD-1", models.Ref("https://x/slip.png"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualValues(t, 1, calls.Load())
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"status":"error","code":"unauthorized","message":"Invalid credentials"}`)
			return
		}
		io.WriteString(w, `{"token":"abc","role":"staff"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL + "/exec")
	token, err := c.Login(context.Background(), srv.URL+"/login", "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = c.Login(context.Background(), srv.URL+"/login", "admin", "wrong")
	assert.ErrorIs(t, err, gateway.ErrStaffOnly)
}
