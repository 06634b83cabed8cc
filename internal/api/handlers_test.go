package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront-bff/internal/account"
	"storefront-bff/internal/auth"
	"storefront-bff/internal/cache"
	"storefront-bff/internal/catalog"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testServer struct {
	t         *testing.T
	mux       *http.ServeMux
	auth      *auth.Middleware
	dashboard *account.Dashboard
	sid       string
}

func newTestServer(t *testing.T, requests int) *testServer {
	t.Helper()
	c, err := catalog.Load()
	require.NoError(t, err)

	kv := cache.NewMemory(cache.RateLimit{Requests: requests, Window: time.Minute})
	sessions := session.NewStore(kv, time.Hour, c.StarterCart)
	dashboard := account.NewDashboard(c.SeedAccount)
	processor := checkout.NewProcessor(0, dashboard)
	authMiddleware := auth.NewMiddleware("jarvis")

	mux := http.NewServeMux()
	NewHandler(c, kv, sessions, dashboard, processor, authMiddleware).Register(mux)
	return &testServer{t: t, mux: mux, auth: authMiddleware, dashboard: dashboard}
}

func (s *testServer) token(user string) string {
	tok, err := s.auth.IssueToken(user, time.Hour)
	require.NoError(s.t, err)
	return tok
}

// do sends a request, carrying the session id across calls like a client.
func (s *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.0.1:5000"
	if s.sid != "" {
		req.Header.Set(SessionHeader, s.sid)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	if sid := rec.Header().Get(SessionHeader); sid != "" {
		s.sid = sid
	}
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t, 100)

	rec := s.do(http.MethodGet, "/api/products?category=Apparel&sort=price_desc", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	res := decodeBody[struct {
		Items []struct {
			Category string `json:"category"`
		} `json:"items"`
		TotalItems int      `json:"totalItems"`
		Categories []string `json:"categories"`
	}](t, rec)
	assert.NotEmpty(t, res.Items)
	for _, it := range res.Items {
		assert.Equal(t, "Apparel", it.Category)
	}
	assert.NotEmpty(t, res.Categories)

	hit := s.do(http.MethodGet, "/api/products?sort=price_desc&category=Apparel", nil, "")
	assert.Equal(t, "HIT", hit.Header().Get("X-Cache"), "equivalent query shares the cache entry")

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/products?sort=cheapest", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/products?page=two", nil, "").Code)
}

func TestListProducts_ConcurrentMisses(t *testing.T) {
	s := newTestServer(t, 100)

	var wg sync.WaitGroup
	codes := make([]int, 16)
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/products?q=armor&sort=newest", nil)
			rec := httptest.NewRecorder()
			s.mux.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}()
	}
	wg.Wait()
	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
}

func TestGetProduct(t *testing.T) {
	s := newTestServer(t, 100)
	rec := s.do(http.MethodGet, "/api/products/iron-legion-helmet", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"iron-legion-helmet"`)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/products/mk-42", nil, "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/featured", nil, "").Code)

	rec = s.do(http.MethodGet, "/api/options", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"key":"material"`)
}

func TestQuote(t *testing.T) {
	s := newTestServer(t, 100)
	rec := s.do(http.MethodPost, "/api/customizer/quote", map[string]any{
		"selections": map[string]string{"material": "vibranium-blend", "plating": "stealth-coating", "insignia": "custom-monogram"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total":"1960"`)
	assert.Empty(t, rec.Header().Get(SessionHeader), "quotes are stateless")

	rec = s.do(http.MethodPost, "/api/customizer/quote", map[string]any{"selections": map[string]string{"material": "adamantium"}}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/customizer/quote", map[string]any{"productSlug": "mk-42"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/customizer/quote", map[string]any{"cape": true}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFinalize_AddsToCartAndSavesDesign(t *testing.T) {
	s := newTestServer(t, 100)
	rec := s.do(http.MethodPost, "/api/customizer/finalize", map[string]any{"productSlug": "nanotech-briefcase"}, s.token("tony"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotEmpty(t, s.sid)

	res := decodeBody[finalizeResponse](t, rec)
	assert.Len(t, res.Checkout.Cart, 3, "starter cart plus the design")
	require.NotNil(t, res.Saved)
	assert.Len(t, s.dashboard.Designs("tony"), 3)

	anon := newTestServer(t, 100)
	rec = anon.do(http.MethodPost, "/api/customizer/finalize", map[string]any{}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, decodeBody[finalizeResponse](t, rec).Saved)
}

func TestFinalize_MidCheckoutReturnsToCart(t *testing.T) {
	s := newTestServer(t, 100)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/checkout/advance", nil, "").Code)

	rec := s.do(http.MethodPost, "/api/customizer/finalize", map[string]any{}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decodeBody[finalizeResponse](t, rec).Checkout
	assert.Equal(t, "cart", view.Step)
	assert.Len(t, view.Cart, 3)
	assert.Equal(t, "3630", view.Total.String())
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t, 100)
	tok := s.token("tony")

	rec := s.do(http.MethodGet, "/api/checkout", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[checkoutView](t, rec)
	assert.Equal(t, "cart", view.Step)
	assert.Equal(t, "2200", view.Total.String())
	assert.Len(t, view.Steps, 4)

	rec = s.do(http.MethodPost, "/api/checkout/shipping", map[string]string{"fullName": "Tony Stark"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code, "shipping before advancing")

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/checkout/advance", nil, "").Code)

	rec = s.do(http.MethodPost, "/api/checkout/shipping", map[string]string{"fullName": "TS"}, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decodeBody[errorBody](t, rec)
	assert.Contains(t, errs.Errors, "fullName")
	assert.Contains(t, errs.Errors, "zip")
	assert.Equal(t, "shipping", decodeBody[checkoutView](t, s.do(http.MethodGet, "/api/checkout", nil, "")).Step)

	rec = s.do(http.MethodPost, "/api/checkout/shipping", map[string]string{
		"fullName": "Tony Stark", "address1": "10880 Malibu Point", "city": "Malibu",
		"state": "CA", "zip": "90265", "country": "USA",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/checkout/payment", map[string]string{
		"paymentMethod": "creditcard", "cardNumber": "4111111111111111", "expiryDate": "12/27", "cvv": "123",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decodeBody[checkoutView](t, rec)
	assert.Equal(t, "review", view.Step)
	assert.Equal(t, "Arc Credit Card ending in 1111", view.PaymentLabel)
	assert.NotContains(t, rec.Body.String(), "4111111111111111")

	rec = s.do(http.MethodPost, "/api/checkout/place", nil, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view = decodeBody[checkoutView](t, rec)
	assert.Equal(t, "confirmed", view.Step)
	require.NotNil(t, view.Confirmation)
	assert.Regexp(t, `^STARK-\d{6}$`, view.Confirmation.OrderID)
	assert.Empty(t, view.Cart)

	_, err := s.dashboard.Order("tony", view.Confirmation.OrderID)
	assert.NoError(t, err)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/checkout/back", nil, "").Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/checkout/place", nil, "").Code)

	rec = s.do(http.MethodPost, "/api/checkout/reset", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cart", decodeBody[checkoutView](t, rec).Step)
}

func TestCheckoutCart(t *testing.T) {
	s := newTestServer(t, 100)

	rec := s.do(http.MethodPost, "/api/checkout/items", map[string]any{"productId": "iron-legion-helmet", "quantity": 2}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decodeBody[checkoutView](t, rec).Cart, 3)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/checkout/items", map[string]any{"productId": "mk-42"}, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/checkout/items", map[string]any{"productId": "iron-legion-helmet", "quantity": -1}, "").Code)

	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/checkout/items/prod1", nil, "").Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/checkout/items/prod2", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/checkout/items/prod2", nil, "").Code)
}

func TestCheckout_EmptyCartAndBadSession(t *testing.T) {
	s := newTestServer(t, 100)
	s.do(http.MethodDelete, "/api/checkout/items/prod1", nil, "")
	s.do(http.MethodDelete, "/api/checkout/items/prod2", nil, "")
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/checkout/advance", nil, "").Code)

	s.sid = "not-a-session"
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/checkout", nil, "").Code)
}

func TestAccount(t *testing.T) {
	s := newTestServer(t, 100)
	tok := s.token("tony")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/account", nil, "").Code)

	rec := s.do(http.MethodGet, "/api/account", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	ov := decodeBody[account.Overview](t, rec)
	assert.Equal(t, "Anthony Stark", ov.Profile.Name)

	rec = s.do(http.MethodPut, "/api/account/profile", map[string]string{"name": "T", "email": "nope"}, tok)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody[errorBody](t, rec).Errors, "email")

	rec = s.do(http.MethodPut, "/api/account/profile", map[string]string{"name": "Tony Stark", "email": "tony@stark.com"}, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/account/measurements", map[string]string{"name": "Mark 85", "chest": "106"}, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var set struct {
		ID    string `json:"id"`
		Chest string `json:"chest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	assert.Equal(t, "106", set.Chest)

	rec = s.do(http.MethodPut, "/api/account/measurements/"+set.ID, map[string]string{"name": "Mark 85", "chest": "107"}, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/account/measurements/"+set.ID, nil, tok).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/account/measurements/"+set.ID, nil, tok).Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/account/orders/ORD001", nil, tok).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/account/orders/ORD999", nil, tok).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/account/designs/d1", nil, tok).Code)
	assert.Len(t, decodeBody[[]any](t, s.do(http.MethodGet, "/api/account/designs", nil, tok)), 1)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/featured", nil, "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/featured", nil, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/api/featured", nil, "").Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, 100)
	rec := s.do(http.MethodGet, "/api/jarvis", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
