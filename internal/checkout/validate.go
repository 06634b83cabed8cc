package checkout

import (
	"storefront-bff/internal/models"
	"storefront-bff/internal/validation"
)

type Country struct {
	Code string
	Name string
}

// Countries offered by the shipping form. Keep in step with the oneof tag
// on models.Shipping.Country.
var Countries = []Country{
	{"USA", "United States of America"},
	{"CAN", "Canada"},
	{"GBR", "United Kingdom"},
}

var shippingMessages = validation.Messages{
	"fullName":      "Full name must be at least 3 characters.",
	"address1":      "Address line 1 is required.",
	"city":          "City is required.",
	"state":         "State/Province is required.",
	"zip":           "Postal/ZIP code is required.",
	"country":       "Country is required.",
	"country.oneof": "Select a supported country.",
}

var paymentMessages = validation.Messages{
	"paymentMethod": "Please select a payment method.",
	"cardNumber":    "Valid 16-digit card number is required.",
	"expiryDate":    "Valid expiry date (MM/YY) is required.",
	"cvv":           "Valid 3 or 4 digit CVV is required.",
}

// ValidateShipping checks the delivery form after trimming. It returns nil or
// FieldErrors.
func ValidateShipping(s models.Shipping) error {
	return validation.Struct(s.Trimmed(), shippingMessages)
}

// ValidatePayment checks the payment form. Card fields are only checked for
// credit card payments.
func ValidatePayment(p models.Payment) error {
	if p.Method != models.PaymentCreditCard {
		p = models.Payment{Method: p.Method}
	}
	return validation.Struct(p, paymentMessages)
}
