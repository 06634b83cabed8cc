package checkout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront-bff/internal/models"
)

var (
	ErrWrongStep    = errors.New("operation not allowed at current step")
	ErrClosed       = errors.New("checkout already submitted")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrItemNotFound = errors.New("cart item not found")
	ErrBadQuantity  = errors.New("quantity must be at least 1")
)

type Step int

const (
	StepCart Step = iota
	StepShipping
	StepPayment
	StepReview
	StepSubmitting
	StepConfirmed
)

func (s Step) String() string {
	switch s {
	case StepCart:
		return "cart"
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepSubmitting:
		return "submitting"
	case StepConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Label is the heading the step indicator shows.
func (s Step) Label() string {
	switch s {
	case StepCart:
		return "VAULT"
	case StepShipping:
		return "DELIVERY"
	case StepPayment:
		return "PAYMENT"
	default:
		return "CONFIRM"
	}
}

// IndicatorSteps are the four user-facing steps of the flow.
var IndicatorSteps = []Step{StepCart, StepShipping, StepPayment, StepReview}

// Wizard is the state of one visitor's checkout.
type Wizard struct {
	Step     Step              `json:"step"`
	Cart     []models.CartItem `json:"cart"`
	Shipping *models.Shipping  `json:"shipping,omitempty"`
	Payment  *models.Payment   `json:"payment,omitempty"`
	Total    decimal.Decimal   `json:"total"`

	Confirmation *Confirmation `json:"confirmation,omitempty"`
}

func NewWizard(items []models.CartItem) *Wizard {
	w := &Wizard{Step: StepCart, Cart: append([]models.CartItem(nil), items...)}
	w.recalc()
	return w
}

func (w *Wizard) recalc() {
	w.Total = CartTotal(w.Cart)
}

// CartTotal is the sum of price times quantity over all lines.
func CartTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (w *Wizard) Closed() bool {
	return w.Step >= StepSubmitting
}

func (w *Wizard) expect(step Step) error {
	if w.Closed() {
		return ErrClosed
	}
	if w.Step != step {
		return fmt.Errorf("%w: at %s, need %s", ErrWrongStep, w.Step, step)
	}
	return nil
}

// AddItem adds a line to the cart, merging quantities for an existing id.
func (w *Wizard) AddItem(item models.CartItem) error {
	if err := w.expect(StepCart); err != nil {
		return err
	}
	if item.Quantity < 1 {
		return ErrBadQuantity
	}
	for i := range w.Cart {
		if w.Cart[i].ID == item.ID {
			w.Cart[i].Quantity += item.Quantity
			w.recalc()
			return nil
		}
	}
	w.Cart = append(w.Cart, item)
	w.recalc()
	return nil
}

func (w *Wizard) RemoveItem(id string) error {
	if err := w.expect(StepCart); err != nil {
		return err
	}
	for i := range w.Cart {
		if w.Cart[i].ID == id {
			w.Cart = append(w.Cart[:i], w.Cart[i+1:]...)
			w.recalc()
			return nil
		}
	}
	return fmt.Errorf("%q: %w", id, ErrItemNotFound)
}

// Advance leaves the cart review step; the cart must not be empty.
func (w *Wizard) Advance() error {
	if err := w.expect(StepCart); err != nil {
		return err
	}
	if len(w.Cart) == 0 {
		return ErrEmptyCart
	}
	w.Step = StepShipping
	return nil
}

// SubmitShipping stores the delivery details and moves to payment. On a
// validation failure the step does not change.
func (w *Wizard) SubmitShipping(s models.Shipping) error {
	if err := w.expect(StepShipping); err != nil {
		return err
	}
	if err := ValidateShipping(s); err != nil {
		return err
	}
	s = s.Trimmed()
	w.Shipping = &s
	w.Step = StepPayment
	return nil
}

// SubmitPayment stores the redacted payment details and moves to review.
func (w *Wizard) SubmitPayment(p models.Payment) error {
	if err := w.expect(StepPayment); err != nil {
		return err
	}
	if err := ValidatePayment(p); err != nil {
		return err
	}
	r := p.Redacted()
	w.Payment = &r
	w.Step = StepReview
	return nil
}

// Back moves one step towards the cart. It never validates.
func (w *Wizard) Back() error {
	if w.Closed() {
		return ErrClosed
	}
	if w.Step > StepCart {
		w.Step--
	}
	return nil
}

// Reopen returns to the cart step so items can be added again, keeping any
// details already entered. A confirmed checkout starts over with an empty
// cart. An order being submitted cannot be reopened.
func (w *Wizard) Reopen() error {
	switch w.Step {
	case StepSubmitting:
		return ErrClosed
	case StepConfirmed:
		*w = *NewWizard(nil)
	default:
		w.Step = StepCart
	}
	return nil
}

// ItemCount is the number of units in the cart.
func (w *Wizard) ItemCount() int {
	n := 0
	for _, it := range w.Cart {
		n += it.Quantity
	}
	return n
}

// RejectionReason classifies an error returned by a wizard action into a
// short label for metrics.
func RejectionReason(err error) string {
	var fe models.FieldErrors
	switch {
	case errors.As(err, &fe):
		return "validation"
	case errors.Is(err, ErrWrongStep), errors.Is(err, ErrClosed):
		return "wrong_step"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrBadQuantity):
		return "bad_item"
	default:
		return "other"
	}
}
