package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-bff/internal/account"
	"storefront-bff/internal/cache"
	"storefront-bff/internal/catalog"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/session"
)

type browser struct {
	t         *testing.T
	mux       *http.ServeMux
	sessions  *session.Store
	dashboard *account.Dashboard
	cookie    *http.Cookie
}

func newBrowser(t *testing.T) *browser {
	t.Helper()
	c, err := catalog.Load()
	require.NoError(t, err)

	kv := cache.NewMemory(cache.RateLimit{Requests: 100, Window: time.Minute})
	sessions := session.NewStore(kv, time.Hour, c.StarterCart)
	dashboard := account.NewDashboard(c.SeedAccount)
	processor := checkout.NewProcessor(0, dashboard)

	h, err := NewHandler(c, sessions, dashboard, processor, "tony", time.Hour)
	require.NoError(t, err)
	mux := http.NewServeMux()
	h.Register(mux)
	return &browser{t: t, mux: mux, sessions: sessions, dashboard: dashboard}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.mux.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			b.cookie = c
		}
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) wizard() *checkout.Wizard {
	b.t.Helper()
	require.NotNil(b.t, b.cookie)
	w, err := b.sessions.Wizard(context.Background(), b.cookie.Value)
	require.NoError(b.t, err)
	return w
}

func TestPages(t *testing.T) {
	b := newBrowser(t)

	rec := b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Featured Tech")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = b.get("/gallery?category=Jackets")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "item(s) found")

	rec = b.get("/gallery?sort=cheapest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unrecognized filter ignored")

	rec = b.get("/stark-tower")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/stark-tower")

	assert.Equal(t, http.StatusNotFound, b.get("/customizer?product=mk-42").Code)
}

func TestGallery_Pagination(t *testing.T) {
	b := newBrowser(t)
	rec := b.get("/gallery")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page 1 of 2")
	assert.Contains(t, rec.Body.String(), `rel="next"`)

	rec = b.get("/gallery?page=2")
	assert.Contains(t, rec.Body.String(), "Page 2 of 2")
	assert.Contains(t, rec.Body.String(), `rel="prev"`)
}

func TestCustomizer_UpdateAndFinalize(t *testing.T) {
	b := newBrowser(t)

	rec := b.get("/customizer")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "$1430.00", "default product with first choices")

	form := url.Values{
		"product":  {"default-mk-x"},
		"material": {"vibranium-blend"},
		"plating":  {"stealth-coating"},
		"insignia": {"custom-monogram"},
		"action":   {"update"},
	}
	rec = b.post("/customizer", form)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = b.get("/customizer?product=default-mk-x")
	assert.Contains(t, rec.Body.String(), "$1960.00")

	form.Set("material", "adamantium")
	rec = b.post("/customizer", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "$1960.00", "rejected edit keeps the last valid design")

	form.Set("material", "vibranium-blend")
	form.Set("action", "finalize")
	rec = b.post("/customizer", form)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/checkout-process", rec.Header().Get("Location"))

	w := b.wizard()
	require.Len(t, w.Cart, 3)
	assert.Equal(t, "MK-X Custom Suit", w.Cart[2].Name)
	assert.Equal(t, "4160", w.Total.String())
}

func TestCustomizer_FinalizeDuringCheckout(t *testing.T) {
	b := newBrowser(t)
	require.Equal(t, http.StatusSeeOther, b.post("/checkout-process", url.Values{"action": {"next"}}).Code)
	require.Equal(t, checkout.StepShipping, b.wizard().Step)

	rec := b.post("/customizer", url.Values{"product": {"default-mk-x"}, "action": {"finalize"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/checkout-process", rec.Header().Get("Location"))

	w := b.wizard()
	assert.Equal(t, checkout.StepCart, w.Step)
	assert.Len(t, w.Cart, 3)
}

func TestCheckout_Flow(t *testing.T) {
	b := newBrowser(t)
	rec := b.get("/checkout-process")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your Vault")

	action := func(name string, extra url.Values) *httptest.ResponseRecorder {
		form := url.Values{"action": {name}}
		for k, v := range extra {
			form[k] = v
		}
		return b.post("/checkout-process", form)
	}

	require.Equal(t, http.StatusSeeOther, action("next", nil).Code)
	assert.Equal(t, checkout.StepShipping, b.wizard().Step)

	rec = action("shipping", url.Values{"fullName": {"Tony Stark"}, "zip": {"123"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Tony Stark"`, "submitted values are kept")
	assert.Contains(t, rec.Body.String(), "class=\"error\"")
	assert.Equal(t, checkout.StepShipping, b.wizard().Step)

	rec = action("shipping", url.Values{
		"fullName": {"Tony Stark"}, "address1": {"10880 Malibu Point"}, "city": {"Malibu"},
		"state": {"CA"}, "zip": {"90265"}, "country": {"USA"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = action("payment", url.Values{"paymentMethod": {"creditcard"}, "cardNumber": {"4111"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotContains(t, rec.Body.String(), "4111", "card numbers are never echoed")

	require.Equal(t, http.StatusSeeOther, action("payment", url.Values{"paymentMethod": {"starkpay"}}).Code)
	rec = b.get("/checkout-process")
	assert.Contains(t, rec.Body.String(), "StarkPay Credit Balance")
	assert.Contains(t, rec.Body.String(), "10880 Malibu Point")

	require.Equal(t, http.StatusSeeOther, action("place", nil).Code)
	w := b.wizard()
	assert.Equal(t, checkout.StepConfirmed, w.Step)
	require.NotNil(t, w.Confirmation)

	rec = b.get("/checkout-process")
	assert.Contains(t, rec.Body.String(), w.Confirmation.OrderID)
	assert.Contains(t, rec.Body.String(), "7-10 business days")

	_, err := b.dashboard.Order("tony", w.Confirmation.OrderID)
	assert.NoError(t, err, "the demo account sees the order")

	rec = action("back", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Equal(t, http.StatusSeeOther, action("reset", nil).Code)
	assert.Equal(t, checkout.StepCart, b.wizard().Step)
}

func TestCheckout_CartActions(t *testing.T) {
	b := newBrowser(t)
	b.get("/checkout-process")

	rec := b.post("/checkout-process", url.Values{"action": {"add"}, "product": {"iron-legion-helmet"}, "quantity": {"1"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, b.wizard().Cart, 3)

	rec = b.post("/checkout-process", url.Values{"action": {"remove"}, "id": {"nope"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = b.post("/checkout-process", url.Values{"action": {"teleport"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccount(t *testing.T) {
	b := newBrowser(t)

	rec := b.get("/user-account")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome back, Anthony Stark")

	rec = b.post("/user-account", url.Values{"action": {"profile"}, "name": {"TS"}, "email": {"tony@stark.com"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 3 characters")

	rec = b.post("/user-account", url.Values{"action": {"profile"}, "name": {"Tony Stark"}, "email": {"tony@stark.com"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "Tony Stark", b.dashboard.Profile("tony").Name)

	rec = b.post("/user-account", url.Values{"action": {"add-measurement"}, "name": {"Mark 85"}, "chest": {"106"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, b.dashboard.Measurements("tony"), 3)

	rec = b.get("/user-account?edit=m1")
	assert.Contains(t, rec.Body.String(), "Edit Measurement Set")

	rec = b.post("/user-account", url.Values{"action": {"update-measurement"}, "id": {"m1"}, "name": {"Daily"}, "waist": {"-2"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	require.Equal(t, http.StatusSeeOther, b.post("/user-account", url.Values{"action": {"delete-design"}, "id": {"d1"}}).Code)
	assert.Equal(t, http.StatusNotFound, b.post("/user-account", url.Values{"action": {"delete-design"}, "id": {"d1"}}).Code)

	rec = b.get("/user-account?tab=orders")
	assert.Contains(t, rec.Body.String(), "ORD001")
}
