package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"storefront-bff/internal/account"
	"storefront-bff/internal/auth"
	"storefront-bff/internal/cache"
	"storefront-bff/internal/catalog"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/session"
)

// SessionHeader carries the visitor's session id on API requests. The
// server echoes it back, issuing a new id when the request has none.
const SessionHeader = "X-Session-ID"

const galleryCacheTTL = 30 * time.Second

type Handler struct {
	catalog   *catalog.Catalog
	cache     cache.Cache
	sessions  *session.Store
	dashboard *account.Dashboard
	processor *checkout.Processor
	auth      *auth.Middleware
	now       func() time.Time

	pages singleflight.Group
}

func NewHandler(
	c *catalog.Catalog,
	kv cache.Cache,
	sessions *session.Store,
	dashboard *account.Dashboard,
	processor *checkout.Processor,
	authMiddleware *auth.Middleware,
) *Handler {
	return &Handler{
		catalog:   c,
		cache:     kv,
		sessions:  sessions,
		dashboard: dashboard,
		processor: processor,
		auth:      authMiddleware,
		now:       time.Now,
	}
}

// Register mounts every /api route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.limit(h.ListProducts))
	mux.HandleFunc("GET /api/products/{slug}", h.limit(h.GetProduct))
	mux.HandleFunc("GET /api/featured", h.limit(h.Featured))
	mux.HandleFunc("GET /api/options", h.limit(h.Options))

	mux.HandleFunc("POST /api/customizer/quote", h.limit(h.Quote))
	mux.HandleFunc("POST /api/customizer/finalize", h.limit(h.auth.OptionalToken(h.Finalize)))

	mux.HandleFunc("GET /api/checkout", h.limit(h.GetCheckout))
	mux.HandleFunc("POST /api/checkout/items", h.limit(h.AddItem))
	mux.HandleFunc("DELETE /api/checkout/items/{id}", h.limit(h.RemoveItem))
	mux.HandleFunc("POST /api/checkout/advance", h.limit(h.Advance))
	mux.HandleFunc("POST /api/checkout/shipping", h.limit(h.SubmitShipping))
	mux.HandleFunc("POST /api/checkout/payment", h.limit(h.SubmitPayment))
	mux.HandleFunc("POST /api/checkout/back", h.limit(h.Back))
	mux.HandleFunc("POST /api/checkout/place", h.limit(h.auth.OptionalToken(h.Place)))
	mux.HandleFunc("POST /api/checkout/reset", h.limit(h.Reset))

	mux.HandleFunc("GET /api/account", h.limit(h.auth.ValidateToken(h.Overview)))
	mux.HandleFunc("PUT /api/account/profile", h.limit(h.auth.ValidateToken(h.UpdateProfile)))
	mux.HandleFunc("GET /api/account/measurements", h.limit(h.auth.ValidateToken(h.ListMeasurements)))
	mux.HandleFunc("POST /api/account/measurements", h.limit(h.auth.ValidateToken(h.AddMeasurement)))
	mux.HandleFunc("PUT /api/account/measurements/{id}", h.limit(h.auth.ValidateToken(h.UpdateMeasurement)))
	mux.HandleFunc("DELETE /api/account/measurements/{id}", h.limit(h.auth.ValidateToken(h.DeleteMeasurement)))
	mux.HandleFunc("GET /api/account/orders", h.limit(h.auth.ValidateToken(h.ListOrders)))
	mux.HandleFunc("GET /api/account/orders/{id}", h.limit(h.auth.ValidateToken(h.GetOrder)))
	mux.HandleFunc("GET /api/account/designs", h.limit(h.auth.ValidateToken(h.ListDesigns)))
	mux.HandleFunc("DELETE /api/account/designs/{id}", h.limit(h.auth.ValidateToken(h.DeleteDesign)))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
}

// limit rejects clients that exceeded the per-IP request budget.
func (h *Handler) limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := ClientIP(r)
		if h.cache.IsRateLimited(r.Context(), clientIP) {
			slog.Warn("Rate limit exceeded", "ip", clientIP)
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "Too many requests"})
			return
		}
		next(w, r)
	}
}

func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// sessionID returns the request's session, issuing one when absent.
func sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	sid := r.Header.Get(SessionHeader)
	if sid == "" {
		sid = session.NewID()
	} else if !session.ValidID(sid) {
		return "", session.ErrInvalidID
	}
	w.Header().Set(SessionHeader, sid)
	return sid, nil
}

var errBadBody = errors.New("malformed request body")

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadBody, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("JSON encode error", "error", err)
	}
}
