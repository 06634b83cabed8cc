package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront-bff/internal/account"
	"storefront-bff/internal/catalog"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const cookieName = "sid"

var pageNames = []string{"home", "gallery", "customizer", "checkout", "account", "notfound"}

// Handler renders the storefront pages. Each visitor is tracked by the
// sid cookie; the account page always shows the configured demo user.
type Handler struct {
	catalog   *catalog.Catalog
	sessions  *session.Store
	dashboard *account.Dashboard
	processor *checkout.Processor
	demoUser  string
	cookieTTL time.Duration
	pages     map[string]*template.Template
	now       func() time.Time
}

func NewHandler(
	c *catalog.Catalog,
	sessions *session.Store,
	dashboard *account.Dashboard,
	processor *checkout.Processor,
	demoUser string,
	cookieTTL time.Duration,
) (*Handler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Handler{
		catalog:   c,
		sessions:  sessions,
		dashboard: dashboard,
		processor: processor,
		demoUser:  demoUser,
		cookieTTL: cookieTTL,
		pages:     pages,
		now:       time.Now,
	}, nil
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"upper": strings.ToUpper,
	"add":   func(a, b int) int { return a + b },
	"date":  func(t time.Time) string { return t.Format("January 2, 2006") },
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /gallery", h.Gallery)
	mux.HandleFunc("GET /customizer", h.Customizer)
	mux.HandleFunc("POST /customizer", h.PostCustomizer)
	mux.HandleFunc("GET /checkout-process", h.Checkout)
	mux.HandleFunc("POST /checkout-process", h.PostCheckout)
	mux.HandleFunc("GET /user-account", h.Account)
	mux.HandleFunc("POST /user-account", h.PostAccount)
	mux.HandleFunc("/", h.NotFound)
}

// view is what the layout needs on every page.
type view struct {
	Title     string
	Nav       string
	CartCount int
	Flash     string
	Data      any
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, v view) {
	if sid, ok := h.existingSession(r); ok {
		if wiz, err := h.sessions.Wizard(r.Context(), sid); err == nil {
			v.CartCount = wiz.ItemCount()
		}
	}

	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", v); err != nil {
		slog.Error("Template render error", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("Page failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (h *Handler) existingSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || !session.ValidID(c.Value) {
		return "", false
	}
	return c.Value, true
}

// session returns the visitor's session id, setting the cookie for new
// visitors.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	if sid, ok := h.existingSession(r); ok {
		return sid
	}
	sid := session.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.AddCookie(&http.Cookie{Name: cookieName, Value: sid})
	return sid
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	slog.Info("Page not found", "path", r.URL.Path)
	h.render(w, r, http.StatusNotFound, "notfound", view{Title: "Not Found", Data: r.URL.Path})
}
