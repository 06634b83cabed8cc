package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-bff/internal/auth"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/customizer"
	"storefront-bff/internal/models"
	"storefront-bff/internal/telemetry"
)

type quoteResponse struct {
	Design  *customizer.Design `json:"design"`
	Total   decimal.Decimal    `json:"total"`
	Summary customizer.Summary `json:"summary"`
}

// Quote prices a design without touching any session.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var ch customizer.Changes
	if err := decode(w, r, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := customizer.Build(h.catalog, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := d.Finalize(h.catalog, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	telemetry.CustomizerQuoted(d.ProductSlug)
	writeJSON(w, http.StatusOK, quoteResponse{Design: d, Total: s.TotalPrice, Summary: s})
}

type finalizeResponse struct {
	Summary  customizer.Summary  `json:"summary"`
	CartItem models.CartItem     `json:"cartItem"`
	Saved    *models.SavedDesign `json:"savedDesign,omitempty"`
	Checkout checkoutView        `json:"checkout"`
}

// Finalize adds the design to the session's cart and, for a signed-in
// user, to their saved designs.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, err := sessionID(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var ch customizer.Changes
	if err := decode(w, r, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := customizer.Build(h.catalog, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s, err := d.Finalize(h.catalog, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	item := s.CartItem("custom-" + uuid.NewString()[:8])
	wiz, err := h.sessions.UpdateWizard(ctx, sid, func(wiz *checkout.Wizard) error {
		if err := wiz.Reopen(); err != nil {
			return err
		}
		return wiz.AddItem(item)
	})
	if err != nil {
		h.rejected(wiz, err)
		writeError(w, r, err)
		return
	}
	if err := h.sessions.SaveDesign(ctx, sid, d); err != nil {
		slog.Warn("Failed to keep customizer state", "session_id", sid, "error", err)
	}

	resp := finalizeResponse{Summary: s, CartItem: item, Checkout: newCheckoutView(sid, wiz)}
	if userID, ok := auth.UserIDFromContext(ctx); ok {
		p, _ := h.catalog.ProductBySlug(s.ProductSlug)
		saved := h.dashboard.SaveDesign(userID, s, p.ImageURL)
		resp.Saved = &saved
	}
	slog.Info("Design finalized", "session_id", sid, "product", s.ProductSlug, "total", s.TotalPrice.StringFixed(2))
	writeJSON(w, http.StatusCreated, resp)
}
