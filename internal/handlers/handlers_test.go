package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"mynature/internal/middleware"
	"mynature/internal/models"
	"mynature/internal/service"
	"mynature/internal/store"
	"mynature/internal/store/memstore"
)

type testServer struct {
	router *gin.Engine
	store  *memstore.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := memstore.New()
	s.AddProduct(models.Product{
		ID: "sidr", Name: "Sidr honey", NameAr: "عسل السدر",
		Price: models.MoneyFromInt(50), StockQuantity: 10, IsActive: true, InStock: true,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.AddProduct(models.Product{
		ID: "thyme", Name: "Thyme honey", NameAr: "عسل الزعتر",
		Price: models.MoneyFromInt(200), StockQuantity: 1, IsActive: true, InStock: true,
		CreatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-honey"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, s.Admins().Create(context.Background(), &models.AdminUser{
		ID: "admin-1", Email: "admin@mynature.ma", Name: "المدير", PasswordHash: string(hash), IsActive: true,
	}))

	auth, err := service.NewAuthService(service.NewStoreVerifier(s.Admins()), s.Sessions(), []byte("handler-secret"), 0)
	require.NoError(t, err)
	catalog := service.NewCatalogService(s.Products(), s.Categories())
	orders := service.NewOrderService(s.Orders(), nil)

	r := gin.New()
	r.POST("/api/orders", CreateOrder(orders))
	r.GET("/api/products", GetProducts(catalog))
	r.GET("/api/categories", GetCategories(catalog))
	r.POST("/api/admin/login", AdminLogin(auth, true))
	r.POST("/api/admin/logout", AdminLogout(auth, true))
	r.GET("/api/auth/session", AdminSession(auth))
	r.GET("/health", Health())

	admin := r.Group("/api")
	admin.Use(middleware.AdminAuth(auth))
	admin.GET("/orders", ListOrders(orders))
	admin.GET("/orders/:id", GetOrder(orders))
	admin.PUT("/orders/:id", UpdateOrder(orders))
	admin.DELETE("/orders/:id", DeleteOrder(orders))
	admin.GET("/admin/stats", GetOrderStats(orders))

	return &testServer{router: r, store: s}
}

func (ts *testServer) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := ts.do(http.MethodPost, "/api/admin/login", `{"email":"admin@mynature.ma","password":"s3cret-honey"}`)
	require.Equal(t, http.StatusOK, w.Code)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			return ck
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const exampleOrder = `{
	"customer_name": "Fatima",
	"customer_email": "fatima@example.ma",
	"customer_address": "12 Rue Atlas",
	"customer_city": "Rabat",
	"items": [
		{"product_id": "sidr", "quantity": 3, "price": 50},
		{"product_id": "thyme", "quantity": 1, "price": 200}
	],
	"total_amount": 350
}`

func TestCreateOrderDecrementsStock(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/orders", exampleOrder)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "Morocco", body["customer_country"])
	assert.Equal(t, float64(350), body["total_amount"])

	sidr, _ := ts.store.Product("sidr")
	thyme, _ := ts.store.Product("thyme")
	assert.Equal(t, 7, sidr.StockQuantity)
	assert.Equal(t, 0, thyme.StockQuantity)
	assert.False(t, thyme.InStock)
}

func TestCreateOrderRejectsMissingFields(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/orders", `{"customer_email":"a@b.ma","items":[{"product_id":"sidr","quantity":1,"price":50}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "customer_name")

	w = ts.do(http.MethodPost, "/api/orders", `{"customer_name":"A","customer_email":"a@b.ma","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "items")

	w = ts.do(http.MethodPost, "/api/orders", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 0, ts.store.OrderCount())
}

func TestCreateOrderReportsStockConflict(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/orders", `{
		"customer_name": "A", "customer_email": "a@b.ma",
		"items": [{"product_id": "sidr", "quantity": 1, "price": 50}, {"product_id": "thyme", "quantity": 2, "price": 200}],
		"total_amount": 450
	}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, "thyme", body["productId"])
	assert.Equal(t, float64(2), body["requested"])
	assert.Equal(t, float64(1), body["available"])

	sidr, _ := ts.store.Product("sidr")
	assert.Equal(t, 10, sidr.StockQuantity)
	assert.Equal(t, 0, ts.store.OrderCount())
}

func TestGetProducts(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/products?sortBy=price-high&inStockOnly=true", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["hasMore"])
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, float64(12), body["limit"])
	products := body["products"].([]interface{})
	require.Len(t, products, 2)
	assert.Equal(t, "thyme", products[0].(map[string]interface{})["id"])

	w = ts.do(http.MethodGet, "/api/products?minPrice=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAdminLoginSetsStrictCookie(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/admin/login", `{"email":"Admin@MyNature.ma","password":"s3cret-honey"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "admin@mynature.ma", body["admin"].(map[string]interface{})["email"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, middleware.SessionCookie, ck.Name)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.Equal(t, "/", ck.Path)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), ck.Expires, time.Minute)
}

func TestAdminLoginFailures(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/admin/login", `{"email":"admin@mynature.ma","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])

	w = ts.do(http.MethodPost, "/api/admin/login", `{"email":"admin@mynature.ma"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/api/admin/login", `oops`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestSessionAndLogout(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/auth/session", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["authenticated"])

	ck := ts.login(t)

	w = ts.do(http.MethodGet, "/api/auth/session", "", ck)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["authenticated"])
	session := body["session"].(map[string]interface{})
	assert.Greater(t, session["timeRemaining"].(float64), float64(47*time.Hour/time.Millisecond))
	assert.LessOrEqual(t, session["timeRemaining"].(float64), float64(48*time.Hour/time.Millisecond))

	w = ts.do(http.MethodPost, "/api/admin/logout", "", ck)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.True(t, cleared[0].MaxAge < 0)

	w = ts.do(http.MethodGet, "/api/auth/session", "", ck)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/api/admin/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOrderRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/orders", "/api/orders/x", "/api/admin/stats"} {
		w := ts.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := ts.do(http.MethodDelete, "/api/orders/x", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged := &http.Cookie{Name: middleware.SessionCookie, Value: "not-a-token"}
	w = ts.do(http.MethodGet, "/api/orders", "", forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOrderLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ck := ts.login(t)

	w := ts.do(http.MethodPost, "/api/orders", exampleOrder)
	require.Equal(t, http.StatusOK, w.Code)
	id := decode(t, w)["id"].(string)

	w = ts.do(http.MethodGet, "/api/orders/"+id, "", ck)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w)
	items := detail["order_items"].([]interface{})
	require.Len(t, items, 2)
	product := items[0].(map[string]interface{})["product"].(map[string]interface{})
	assert.NotEmpty(t, product["name_ar"])

	w = ts.do(http.MethodPut, "/api/orders/"+id, `{"notes":"call first"}`, ck)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPut, "/api/orders/"+id, `{"status":"lost"}`, ck)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPut, "/api/orders/"+id, `{"status":"shipped","notes":"DHL"}`, ck)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shipped", decode(t, w)["status"])

	w = ts.do(http.MethodGet, "/api/orders?status=shipped&limit=5", "", ck)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = ts.do(http.MethodGet, "/api/orders?limit=zero", "", ck)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/admin/stats", "", ck)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["totalOrders"])

	w = ts.do(http.MethodDelete, "/api/orders/"+id, "", ck)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	sidr, _ := ts.store.Product("sidr")
	thyme, _ := ts.store.Product("thyme")
	assert.Equal(t, 10, sidr.StockQuantity)
	assert.Equal(t, 1, thyme.StockQuantity)
	assert.True(t, thyme.InStock)

	w = ts.do(http.MethodGet, "/api/orders/"+id, "", ck)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodDelete, "/api/orders/"+id, "", ck)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestParseLimitParam(t *testing.T) {
	l, err := parseLimitParam("")
	assert.NoError(t, err)
	assert.Equal(t, 0, l)

	l, err = parseLimitParam(" 20 ")
	assert.NoError(t, err)
	assert.Equal(t, 20, l)

	for _, bad := range []string{"0", "-1", "ten"} {
		_, err := parseLimitParam(bad)
		assert.ErrorIs(t, err, errInvalidLimit, bad)
	}
}

func TestRespondWithServiceErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.ValidationError{Field: "status", Message: "is required"}, http.StatusBadRequest},
		{"stock", fmt.Errorf("place order: %w", &store.StockError{ProductID: "p", Requested: 2, Available: 1, Err: store.ErrInsufficientStock}), http.StatusBadRequest},
		{"not found", fmt.Errorf("get order x: %w", store.ErrNotFound), http.StatusNotFound},
		{"store timeout", fmt.Errorf("list orders: %w", context.DeadlineExceeded), http.StatusInternalServerError},
		{"store failure", fmt.Errorf("list orders: %w", fmt.Errorf("connection reset")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/orders", nil)

			respondWithServiceError(c, "GET /api/orders", tc.err)
			assert.Equal(t, tc.want, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}
