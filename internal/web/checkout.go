package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"storefront-bff/internal/checkout"
	"storefront-bff/internal/customizer"
	"storefront-bff/internal/models"
	"storefront-bff/internal/telemetry"
)

// finalize adds the design to the visitor's cart, bringing the checkout
// back to the cart step. A confirmed checkout is replaced by a fresh one
// holding just the design.
func (h *Handler) finalize(r *http.Request, sid string, d *customizer.Design) error {
	s, err := d.Finalize(h.catalog, h.now())
	if err != nil {
		return err
	}
	item := s.CartItem("custom-" + uuid.NewString()[:8])
	_, err = h.sessions.UpdateWizard(r.Context(), sid, func(wiz *checkout.Wizard) error {
		if err := wiz.Reopen(); err != nil {
			return err
		}
		return wiz.AddItem(item)
	})
	if err != nil {
		return err
	}
	slog.Info("Design finalized", "session_id", sid, "product", s.ProductSlug, "total", s.TotalPrice.StringFixed(2))
	return nil
}

type indicatorStep struct {
	Number int
	Label  string
	Active bool
	Done   bool
}

type checkoutData struct {
	Wizard    *checkout.Wizard
	Steps     []indicatorStep
	Countries []checkout.Country
	Shipping  models.Shipping
	Payment   models.Payment
	Errors    models.FieldErrors
	Error     string
}

func newCheckoutData(wiz *checkout.Wizard) checkoutData {
	data := checkoutData{Wizard: wiz, Countries: checkout.Countries, Payment: models.Payment{Method: models.PaymentStarkPay}}
	for i, s := range checkout.IndicatorSteps {
		data.Steps = append(data.Steps, indicatorStep{
			Number: i + 1,
			Label:  s.Label(),
			Active: s == wiz.Step || (s == checkout.StepReview && wiz.Step > checkout.StepReview),
			Done:   s < wiz.Step,
		})
	}
	if wiz.Shipping != nil {
		data.Shipping = *wiz.Shipping
	}
	if wiz.Payment != nil {
		data.Payment = models.Payment{Method: wiz.Payment.Method}
	}
	return data
}

func (h *Handler) renderCheckout(w http.ResponseWriter, r *http.Request, status int, data checkoutData) {
	h.render(w, r, status, "checkout", view{Title: "Secure Checkout", Nav: "checkout", Data: data})
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sid := h.session(w, r)
	wiz, err := h.sessions.Wizard(r.Context(), sid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderCheckout(w, r, http.StatusOK, newCheckoutData(wiz))
}

func shippingFromForm(r *http.Request) models.Shipping {
	return models.Shipping{
		FullName: r.PostFormValue("fullName"),
		Address1: r.PostFormValue("address1"),
		Address2: r.PostFormValue("address2"),
		City:     r.PostFormValue("city"),
		State:    r.PostFormValue("state"),
		Zip:      r.PostFormValue("zip"),
		Country:  r.PostFormValue("country"),
	}
}

func paymentFromForm(r *http.Request) models.Payment {
	return models.Payment{
		Method:     models.PaymentMethod(r.PostFormValue("paymentMethod")),
		CardNumber: r.PostFormValue("cardNumber"),
		ExpiryDate: r.PostFormValue("expiryDate"),
		CVV:        r.PostFormValue("cvv"),
	}
}

// PostCheckout runs one wizard action and redirects back on success. A
// rejected action re-renders the current step with the submitted values.
func (h *Handler) PostCheckout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	sid := h.session(w, r)

	var (
		shipping models.Shipping
		payment  models.Payment
		fn       func(*checkout.Wizard) error
	)
	switch action := r.PostFormValue("action"); action {
	case "next":
		fn = (*checkout.Wizard).Advance
	case "back":
		fn = (*checkout.Wizard).Back
	case "remove":
		id := r.PostFormValue("id")
		fn = func(wiz *checkout.Wizard) error { return wiz.RemoveItem(id) }
	case "add":
		p, ok := h.catalog.ProductBySlug(r.PostFormValue("product"))
		if !ok {
			h.NotFound(w, r)
			return
		}
		qty, err := strconv.Atoi(r.PostFormValue("quantity"))
		if err != nil {
			qty = 1
		}
		item := models.CartItem{ID: p.ID, Name: p.Name, Quantity: qty, Price: p.BasePrice}
		fn = func(wiz *checkout.Wizard) error { return wiz.AddItem(item) }
	case "shipping":
		shipping = shippingFromForm(r)
		fn = func(wiz *checkout.Wizard) error { return wiz.SubmitShipping(shipping) }
	case "payment":
		payment = paymentFromForm(r)
		fn = func(wiz *checkout.Wizard) error { return wiz.SubmitPayment(payment) }
	case "place":
		ctx = context.WithoutCancel(ctx)
		fn = func(wiz *checkout.Wizard) error {
			_, err := h.processor.Place(wiz, h.demoUser, func(wiz *checkout.Wizard) {
				if err := h.sessions.SaveWizard(ctx, sid, wiz); err != nil {
					slog.Warn("Failed to save submitting state", "session_id", sid, "error", err)
				}
			})
			return err
		}
	case "reset":
		if err := h.sessions.ResetWizard(ctx, sid); err != nil {
			h.fail(w, r, err)
			return
		}
		http.Redirect(w, r, "/checkout-process", http.StatusSeeOther)
		return
	default:
		http.Error(w, "Unknown action "+strconv.Quote(action), http.StatusBadRequest)
		return
	}

	wiz, err := h.sessions.UpdateWizard(ctx, sid, fn)
	if err == nil {
		http.Redirect(w, r, "/checkout-process", http.StatusSeeOther)
		return
	}
	if wiz == nil {
		h.fail(w, r, err)
		return
	}

	data := newCheckoutData(wiz)
	var fe models.FieldErrors
	status := http.StatusConflict
	switch {
	case errors.As(err, &fe):
		status = http.StatusUnprocessableEntity
		data.Errors = fe
		if wiz.Step == checkout.StepShipping {
			data.Shipping = shipping
		} else {
			data.Payment = models.Payment{Method: payment.Method, ExpiryDate: payment.ExpiryDate}
		}
	case errors.Is(err, checkout.ErrItemNotFound), errors.Is(err, checkout.ErrBadQuantity):
		status = http.StatusBadRequest
		data.Error = err.Error()
	default:
		data.Error = err.Error()
	}
	telemetry.CheckoutRejected(wiz.Step.String(), checkout.RejectionReason(err))
	slog.Debug("Checkout action rejected", "session_id", sid, "step", wiz.Step.String(), "error", err)
	h.renderCheckout(w, r, status, data)
}
