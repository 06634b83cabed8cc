package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"storefront-bff/internal/auth"
	"storefront-bff/internal/catalog"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/models"
	"storefront-bff/internal/telemetry"
)

type stepView struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
	Done   bool   `json:"done"`
}

type checkoutView struct {
	SessionID    string                 `json:"sessionId"`
	Step         string                 `json:"step"`
	Steps        []stepView             `json:"steps"`
	Cart         []models.CartItem      `json:"cart"`
	ItemCount    int                    `json:"itemCount"`
	Total        decimal.Decimal        `json:"total"`
	Shipping     *models.Shipping       `json:"shipping,omitempty"`
	Payment      *models.Payment        `json:"payment,omitempty"`
	PaymentLabel string                 `json:"paymentLabel,omitempty"`
	Confirmation *checkout.Confirmation `json:"confirmation,omitempty"`
}

func newCheckoutView(sid string, w *checkout.Wizard) checkoutView {
	v := checkoutView{
		SessionID:    sid,
		Step:         w.Step.String(),
		Cart:         w.Cart,
		ItemCount:    w.ItemCount(),
		Total:        w.Total,
		Shipping:     w.Shipping,
		Payment:      w.Payment,
		Confirmation: w.Confirmation,
	}
	if v.Cart == nil {
		v.Cart = []models.CartItem{}
	}
	if w.Payment != nil {
		v.PaymentLabel = w.Payment.Describe()
	}
	for _, s := range checkout.IndicatorSteps {
		v.Steps = append(v.Steps, stepView{
			Name:   s.String(),
			Label:  s.Label(),
			Active: s == w.Step || (s == checkout.StepReview && w.Step > checkout.StepReview),
			Done:   s < w.Step,
		})
	}
	return v
}

// rejected counts a refused wizard action. wiz may be nil when the session
// could not be loaded.
func (h *Handler) rejected(wiz *checkout.Wizard, err error) {
	step := "unknown"
	if wiz != nil {
		step = wiz.Step.String()
	}
	telemetry.CheckoutRejected(step, checkout.RejectionReason(err))
}

// update runs one wizard action for the request's session and writes the
// resulting view.
func (h *Handler) update(w http.ResponseWriter, r *http.Request, status int, fn func(*checkout.Wizard) error) {
	sid, err := sessionID(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	wiz, err := h.sessions.UpdateWizard(r.Context(), sid, fn)
	if err != nil {
		h.rejected(wiz, err)
		slog.Debug("Checkout action rejected", "session_id", sid, "error", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, newCheckoutView(sid, wiz))
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	wiz, err := h.sessions.Wizard(r.Context(), sid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCheckoutView(sid, wiz))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// AddItem puts a catalog product into the cart at its base price.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := h.catalog.ProductByID(req.ProductID)
	if !ok {
		p, ok = h.catalog.ProductBySlug(req.ProductID)
	}
	if !ok {
		writeError(w, r, fmt.Errorf("%q: %w", req.ProductID, catalog.ErrUnknownProduct))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	item := models.CartItem{ID: p.ID, Name: p.Name, Quantity: req.Quantity, Price: p.BasePrice}
	h.update(w, r, http.StatusOK, func(wiz *checkout.Wizard) error {
		return wiz.AddItem(item)
	})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.update(w, r, http.StatusOK, func(wiz *checkout.Wizard) error {
		return wiz.RemoveItem(id)
	})
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, http.StatusOK, func(wiz *checkout.Wizard) error {
		return wiz.Advance()
	})
}

func (h *Handler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	var s models.Shipping
	if err := decode(w, r, &s); err != nil {
		writeError(w, r, err)
		return
	}
	h.update(w, r, http.StatusOK, func(wiz *checkout.Wizard) error {
		return wiz.SubmitShipping(s)
	})
}

func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var p models.Payment
	if err := decode(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	h.update(w, r, http.StatusOK, func(wiz *checkout.Wizard) error {
		return wiz.SubmitPayment(p)
	})
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, http.StatusOK, func(wiz *checkout.Wizard) error {
		return wiz.Back()
	})
}

// Place submits the reviewed order. It blocks for the processor's delay and
// finishes even if the client goes away.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	sid, err := sessionID(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, _ := auth.UserIDFromContext(ctx)

	wiz, err := h.sessions.UpdateWizard(ctx, sid, func(wiz *checkout.Wizard) error {
		_, err := h.processor.Place(wiz, userID, func(wiz *checkout.Wizard) {
			if err := h.sessions.SaveWizard(ctx, sid, wiz); err != nil {
				slog.Warn("Failed to save submitting state", "session_id", sid, "error", err)
			}
		})
		return err
	})
	if err != nil {
		h.rejected(wiz, err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCheckoutView(sid, wiz))
}

// Reset drops a finished checkout so the session starts a new one.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sessions.ResetWizard(r.Context(), sid); err != nil {
		writeError(w, r, err)
		return
	}
	wiz, err := h.sessions.Wizard(r.Context(), sid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCheckoutView(sid, wiz))
}
