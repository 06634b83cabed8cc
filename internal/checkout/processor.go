package checkout

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"storefront-bff/internal/models"
)

const (
	DefaultSubmitDelay  = 3 * time.Second
	EstimatedCompletion = "7-10 business days"
)

type Confirmation struct {
	OrderID             string            `json:"orderId"`
	Total               decimal.Decimal   `json:"total"`
	Items               []models.CartItem `json:"items"`
	Shipping            models.Shipping   `json:"shipping"`
	Payment             models.Payment    `json:"payment"`
	PlacedAt            time.Time         `json:"placedAt"`
	EstimatedCompletion string            `json:"estimatedCompletion"`
}

// OrderRecorder receives placed orders, keyed by user.
type OrderRecorder interface {
	RecordOrder(userID string, order models.Order) error
}

// Processor places reviewed orders. Submission waits a fixed delay that
// stands in for the payment round trip; it cannot be cancelled and is never
// retried.
type Processor struct {
	Delay    time.Duration
	Now      func() time.Time
	Recorder OrderRecorder

	// OnPlaced is called once per confirmed order.
	OnPlaced func(c Confirmation)
}

func NewProcessor(delay time.Duration, recorder OrderRecorder) *Processor {
	return &Processor{Delay: delay, Now: time.Now, Recorder: recorder}
}

// OrderID formats the order number from the last six digits of the
// millisecond clock.
func OrderID(t time.Time) string {
	return fmt.Sprintf("STARK-%06d", t.UnixMilli()%1_000_000)
}

// Place submits the order of a wizard at the review step. userID may be
// empty for anonymous checkouts, in which case no history is recorded.
// onSubmitting, if set, sees the wizard in StepSubmitting before the delay.
func (p *Processor) Place(w *Wizard, userID string, onSubmitting func(*Wizard)) (Confirmation, error) {
	if err := w.expect(StepReview); err != nil {
		return Confirmation{}, err
	}
	if len(w.Cart) == 0 {
		return Confirmation{}, ErrEmptyCart
	}
	if w.Shipping == nil || w.Payment == nil {
		return Confirmation{}, fmt.Errorf("%w: missing delivery or payment details", ErrWrongStep)
	}

	w.Step = StepSubmitting
	if onSubmitting != nil {
		onSubmitting(w)
	}
	slog.Info("Submitting order", "items", w.ItemCount(), "total", w.Total.StringFixed(2))

	if p.Delay > 0 {
		time.Sleep(p.Delay)
	}

	now := p.now()
	conf := Confirmation{
		OrderID:             OrderID(now),
		Total:               w.Total,
		Items:               w.Cart,
		Shipping:            *w.Shipping,
		Payment:             *w.Payment,
		PlacedAt:            now,
		EstimatedCompletion: EstimatedCompletion,
	}

	if p.Recorder != nil && userID != "" {
		order := models.Order{
			ID:     conf.OrderID,
			Date:   now.Format(time.DateOnly),
			Status: models.OrderProcessing,
			Total:  conf.Total,
			Items:  w.ItemCount(),
		}
		if err := p.Recorder.RecordOrder(userID, order); err != nil {
			slog.Warn("Failed to record order history", "order_id", conf.OrderID, "user_id", userID, "error", err)
		}
	}

	w.Cart = nil
	w.recalc()
	w.Step = StepConfirmed
	w.Confirmation = &conf

	if p.OnPlaced != nil {
		p.OnPlaced(conf)
	}
	slog.Info("Order confirmed", "order_id", conf.OrderID, "total", conf.Total.StringFixed(2))
	return conf, nil
}

func (p *Processor) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
