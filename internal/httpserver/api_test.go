package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"mini-commerce/internal/repository/memory"
	authsvc "mini-commerce/internal/service/auth"
	cartsvc "mini-commerce/internal/service/cart"
	ordersvc "mini-commerce/internal/service/order"
	productsvc "mini-commerce/internal/service/product"
)

const testSignupKey = "let-me-in"

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
	now    time.Time
	admin  string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &apiFixture{t: t, now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	store := memory.NewStore().WithClock(clock)
	repos := store.Repos()
	logger := logDiscard()
	deps := Deps{
		Health: store,
		AuthSvc: authsvc.New(repos.Users, authsvc.Options{
			JWTSecret:      "test-secret",
			TokenTTL:       24 * time.Hour,
			AdminSignupKey: testSignupKey,
			Now:            clock,
		}, logger),
		ProductSvc: productsvc.New(repos.Products, logger),
		CartSvc:    cartsvc.New(store, logger),
		OrderSvc:   ordersvc.New(store, logger, ordersvc.WithClock(clock)),
	}
	f.router = buildRouter(logger, deps, Options{Registry: prometheus.NewRegistry()})

	rec := f.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Admin", "email": "admin@example.com", "password": "secret123", "role": "admin",
	}, http.Header{adminSignupHeader: []string{testSignupKey}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	f.admin = decodeBody(t, rec)["token"].(string)
	return f
}

func (f *apiFixture) do(method, path, token string, body any, header http.Header) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) expect(rec *httptest.ResponseRecorder, status int) map[string]any {
	f.t.Helper()
	require.Equal(f.t, status, rec.Code, rec.Body.String())
	if status == http.StatusNoContent {
		return nil
	}
	return decodeBody(f.t, rec)
}

func (f *apiFixture) customer(email string) string {
	f.t.Helper()
	body := f.expect(f.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Shopper", "email": email, "password": "secret123",
	}, nil), http.StatusCreated)
	return body["token"].(string)
}

func (f *apiFixture) product(title string, price int64, stock int) string {
	f.t.Helper()
	body := f.expect(f.do(http.MethodPost, "/api/products", f.admin, map[string]any{
		"title": title, "description": "test item", "price": price, "stock": stock, "category": "gadgets",
	}, nil), http.StatusCreated)
	return data(body, "product")["id"].(string)
}

func (f *apiFixture) stock(id string) float64 {
	f.t.Helper()
	body := f.expect(f.do(http.MethodGet, "/api/products/"+id, "", nil, nil), http.StatusOK)
	return data(body, "product")["stock"].(float64)
}

func (f *apiFixture) order(token, productID string, qty int) string {
	f.t.Helper()
	f.expect(f.do(http.MethodPost, "/api/cart", token, map[string]any{"productId": productID, "quantity": qty}, nil), http.StatusOK)
	body := f.expect(f.do(http.MethodPost, "/api/orders", token, nil, nil), http.StatusCreated)
	return data(body, "order")["id"].(string)
}

func data(body map[string]any, key string) map[string]any {
	return body["data"].(map[string]any)[key].(map[string]any)
}

func TestAPI_CheckoutHappyPath(t *testing.T) {
	f := newAPIFixture(t)
	widget := f.product("Widget", 1000, 5)
	buyer := f.customer("buyer@example.com")

	cart := f.expect(f.do(http.MethodPost, "/api/cart", buyer, map[string]any{"productId": widget, "quantity": 2}, nil), http.StatusOK)
	require.EqualValues(t, 2000, data(cart, "cart")["totalPrice"])

	body := f.expect(f.do(http.MethodPost, "/api/orders", buyer, nil, nil), http.StatusCreated)
	order := data(body, "order")
	require.EqualValues(t, 2000, order["totalAmount"])
	require.Equal(t, "Pending", order["status"])
	require.Equal(t, "Pending", order["paymentStatus"])
	require.EqualValues(t, 3, f.stock(widget))

	cart = f.expect(f.do(http.MethodGet, "/api/cart", buyer, nil, nil), http.StatusOK)
	require.Empty(t, data(cart, "cart")["items"])

	list := f.expect(f.do(http.MethodGet, "/api/orders", buyer, nil, nil), http.StatusOK)
	require.EqualValues(t, 1, list["results"])

	f.expect(f.do(http.MethodPost, "/api/orders", buyer, nil, nil), http.StatusBadRequest)
}

func TestAPI_CheckoutRejectsShortStock(t *testing.T) {
	f := newAPIFixture(t)
	widget := f.product("Widget", 500, 1)
	first := f.customer("first@example.com")
	second := f.customer("second@example.com")

	f.expect(f.do(http.MethodPost, "/api/cart", first, map[string]any{"productId": widget}, nil), http.StatusOK)
	f.expect(f.do(http.MethodPost, "/api/cart", second, map[string]any{"productId": widget}, nil), http.StatusOK)

	f.expect(f.do(http.MethodPost, "/api/orders", first, nil, nil), http.StatusCreated)
	body := f.expect(f.do(http.MethodPost, "/api/orders", second, nil, nil), http.StatusBadRequest)
	require.Contains(t, body["message"], "insufficient stock")
	require.EqualValues(t, 0, f.stock(widget))
}

func TestAPI_StatusStateMachine(t *testing.T) {
	f := newAPIFixture(t)
	widget := f.product("Widget", 1000, 5)
	buyer := f.customer("buyer@example.com")
	orderID := f.order(buyer, widget, 1)
	path := "/api/orders/" + orderID + "/status"

	f.expect(f.do(http.MethodPut, path, buyer, map[string]any{"status": "Shipped"}, nil), http.StatusForbidden)
	f.expect(f.do(http.MethodPut, path, f.admin, map[string]any{"status": "Delivered"}, nil), http.StatusBadRequest)
	f.expect(f.do(http.MethodPut, path, f.admin, map[string]any{"status": "Lost"}, nil), http.StatusBadRequest)

	body := f.expect(f.do(http.MethodPut, path, f.admin, map[string]any{"status": "Shipped"}, nil), http.StatusOK)
	require.Equal(t, "Shipped", data(body, "order")["status"])
	body = f.expect(f.do(http.MethodPut, path, f.admin, map[string]any{"status": "Delivered"}, nil), http.StatusOK)
	require.Equal(t, "Delivered", data(body, "order")["status"])

	f.expect(f.do(http.MethodPut, path, f.admin, map[string]any{"status": "Pending"}, nil), http.StatusBadRequest)
	f.expect(f.do(http.MethodPut, "/api/orders/"+orderID+"/cancel", f.admin, nil, nil), http.StatusBadRequest)
}

func TestAPI_CancellationWindow(t *testing.T) {
	f := newAPIFixture(t)
	widget := f.product("Widget", 1000, 5)
	buyer := f.customer("buyer@example.com")
	orderID := f.order(buyer, widget, 2)
	cancel := "/api/orders/" + orderID + "/cancel"

	f.now = f.now.Add(2 * time.Hour)
	body := f.expect(f.do(http.MethodPut, cancel, buyer, nil, nil), http.StatusBadRequest)
	require.Contains(t, body["message"], "cancellation window expired")
	require.EqualValues(t, 3, f.stock(widget))

	body = f.expect(f.do(http.MethodPut, cancel, f.admin, nil, nil), http.StatusOK)
	require.Equal(t, "Cancelled", data(body, "order")["status"])
	require.Equal(t, false, body["suspended"])
	require.EqualValues(t, 5, f.stock(widget))

	f.expect(f.do(http.MethodPut, cancel, f.admin, nil, nil), http.StatusBadRequest)
}

func TestAPI_FourthCancellationSuspendsAccount(t *testing.T) {
	f := newAPIFixture(t)
	widget := f.product("Widget", 1000, 10)
	buyer := f.customer("buyer@example.com")

	for i := 1; i <= 4; i++ {
		orderID := f.order(buyer, widget, 1)
		body := f.expect(f.do(http.MethodPut, "/api/orders/"+orderID+"/cancel", buyer, nil, nil), http.StatusOK)
		require.Equal(t, i == 4, body["suspended"], "cancellation %d", i)
	}
	require.EqualValues(t, 10, f.stock(widget))

	f.expect(f.do(http.MethodGet, "/api/orders", buyer, nil, nil), http.StatusForbidden)
	body := f.expect(f.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "buyer@example.com", "password": "secret123",
	}, nil), http.StatusForbidden)
	require.Equal(t, "fail", body["status"])
}

func TestAPI_OrderVisibility(t *testing.T) {
	f := newAPIFixture(t)
	widget := f.product("Widget", 1000, 5)
	owner := f.customer("owner@example.com")
	other := f.customer("other@example.com")
	orderID := f.order(owner, widget, 1)

	f.expect(f.do(http.MethodGet, "/api/orders/"+orderID, owner, nil, nil), http.StatusOK)
	f.expect(f.do(http.MethodGet, "/api/orders/"+orderID, f.admin, nil, nil), http.StatusOK)
	f.expect(f.do(http.MethodGet, "/api/orders/"+orderID, other, nil, nil), http.StatusForbidden)
	f.expect(f.do(http.MethodPut, "/api/orders/"+orderID+"/cancel", other, nil, nil), http.StatusForbidden)
}

func TestAPI_ProductAdminAndSoftDelete(t *testing.T) {
	f := newAPIFixture(t)
	buyer := f.customer("buyer@example.com")

	f.expect(f.do(http.MethodPost, "/api/products", buyer, map[string]any{
		"title": "Nope", "description": "x", "price": 1, "stock": 1, "category": "x",
	}, nil), http.StatusForbidden)
	f.expect(f.do(http.MethodPost, "/api/products", f.admin, map[string]any{
		"title": "Bad", "description": "x", "price": -1, "stock": 1, "category": "x",
	}, nil), http.StatusBadRequest)

	widget := f.product("Widget", 1000, 5)
	body := f.expect(f.do(http.MethodPut, "/api/products/"+widget, f.admin, map[string]any{"price": 1500}, nil), http.StatusOK)
	require.EqualValues(t, 1500, data(body, "product")["price"])
	require.EqualValues(t, 5, data(body, "product")["stock"])

	list := f.expect(f.do(http.MethodGet, "/api/products?category=gadgets", "", nil, nil), http.StatusOK)
	require.EqualValues(t, 1, list["results"])

	f.expect(f.do(http.MethodDelete, "/api/products/"+widget, f.admin, nil, nil), http.StatusNoContent)
	f.expect(f.do(http.MethodGet, "/api/products/"+widget, "", nil, nil), http.StatusNotFound)
	f.expect(f.do(http.MethodPost, "/api/cart", buyer, map[string]any{"productId": widget}, nil), http.StatusNotFound)
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	f := newAPIFixture(t)

	f.expect(f.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Sneaky", "email": "sneaky@example.com", "password": "secret123", "role": "admin",
	}, nil), http.StatusForbidden)
	f.customer("buyer@example.com")
	f.expect(f.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Again", "email": "BUYER@example.com", "password": "secret123",
	}, nil), http.StatusBadRequest)

	body := f.expect(f.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "buyer@example.com", "password": "wrong-password",
	}, nil), http.StatusUnauthorized)
	require.Equal(t, "Incorrect email or password", body["message"])

	body = f.expect(f.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "buyer@example.com", "password": "secret123",
	}, nil), http.StatusOK)
	token := body["token"].(string)

	me := f.expect(f.do(http.MethodGet, "/api/auth/me", token, nil, nil), http.StatusOK)
	user := data(me, "user")
	require.Equal(t, "customer", user["role"])
	require.NotContains(t, user, "passwordHash")
}

func TestAPI_HealthAndNoRoute(t *testing.T) {
	f := newAPIFixture(t)

	f.expect(f.do(http.MethodGet, "/healthz", "", nil, nil), http.StatusOK)
	f.expect(f.do(http.MethodGet, "/readyz", "", nil, nil), http.StatusOK)
	body := f.expect(f.do(http.MethodGet, "/api/nowhere", "", nil, nil), http.StatusNotFound)
	require.Equal(t, "Can't find /api/nowhere on this server!", body["message"])

	rec := f.do(http.MethodGet, "/metrics", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAPI_MalformedIDsAreRejected(t *testing.T) {
	f := newAPIFixture(t)
	buyer := f.customer("buyer@example.com")

	body := f.expect(f.do(http.MethodGet, "/api/orders/abc", buyer, nil, nil), http.StatusBadRequest)
	require.Equal(t, `invalid order id "abc"`, body["message"])
	f.expect(f.do(http.MethodPut, "/api/orders/abc/cancel", buyer, nil, nil), http.StatusBadRequest)
	f.expect(f.do(http.MethodPut, "/api/orders/abc/status", f.admin, map[string]any{"status": "Shipped"}, nil), http.StatusBadRequest)

	body = f.expect(f.do(http.MethodGet, "/api/products/xyz", "", nil, nil), http.StatusBadRequest)
	require.Equal(t, `invalid product id "xyz"`, body["message"])
	f.expect(f.do(http.MethodPost, "/api/cart", buyer, map[string]any{"productId": "xyz"}, nil), http.StatusBadRequest)
	f.expect(f.do(http.MethodDelete, "/api/cart/xyz", buyer, nil, nil), http.StatusBadRequest)

	f.expect(f.do(http.MethodGet, "/api/orders/"+uuid.NewString(), buyer, nil, nil), http.StatusNotFound)
	f.expect(f.do(http.MethodGet, "/api/products/"+uuid.NewString(), "", nil, nil), http.StatusNotFound)
}

func TestAPI_PricesAreIntegerCents(t *testing.T) {
	f := newAPIFixture(t)

	body := f.expect(f.do(http.MethodPost, "/api/products", f.admin, map[string]any{
		"title": "Decimal", "description": "x", "price": 19.99, "stock": 1, "category": "x",
	}, nil), http.StatusBadRequest)
	require.Equal(t, "fail", body["status"])

	widget := f.product("Widget", 1999, 1)
	got := f.expect(f.do(http.MethodGet, "/api/products/"+widget, "", nil, nil), http.StatusOK)
	require.EqualValues(t, 1999, data(got, "product")["price"])
}
