package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id" yaml:"id"`
	Slug        string          `json:"slug" yaml:"slug"`
	Name        string          `json:"name" yaml:"name"`
	ImageURL    string          `json:"imageUrl" yaml:"imageUrl"`
	Description string          `json:"description" yaml:"description"`
	BasePrice   decimal.Decimal `json:"basePrice" yaml:"basePrice"`
	Category    string          `json:"category" yaml:"category"`
	StyleLine   string          `json:"styleLine,omitempty" yaml:"styleLine"`
	ReleaseDate time.Time       `json:"releaseDate" yaml:"releaseDate"`
}

// CustomizationChoice is one selectable option with its price delta.
type CustomizationChoice struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Value       string          `json:"value" yaml:"value"`
	ImageURL    string          `json:"imageUrl,omitempty" yaml:"imageUrl"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Cost        decimal.Decimal `json:"cost" yaml:"cost"`
}

type Feature struct {
	ID                string `json:"id" yaml:"id"`
	Name              string `json:"name" yaml:"name"`
	DefaultVisibility bool   `json:"defaultVisibility" yaml:"defaultVisibility"`
}

// Measurements are centimetres as entered; empty means not given.
type Measurements struct {
	Chest  string `json:"chest" yaml:"chest" validate:"omitempty,numeric,excludes=-"`
	Waist  string `json:"waist" yaml:"waist" validate:"omitempty,numeric,excludes=-"`
	Sleeve string `json:"sleeve" yaml:"sleeve" validate:"omitempty,numeric,excludes=-"`
	Height string `json:"height" yaml:"height" validate:"omitempty,numeric,excludes=-"`
}

func (m Measurements) Trimmed() Measurements {
	return Measurements{
		Chest:  strings.TrimSpace(m.Chest),
		Waist:  strings.TrimSpace(m.Waist),
		Sleeve: strings.TrimSpace(m.Sleeve),
		Height: strings.TrimSpace(m.Height),
	}
}

type MeasurementSet struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	LastUpdated  string `json:"lastUpdated" yaml:"lastUpdated"`
	Measurements `yaml:",inline"`
}

type OrderStatus string

const (
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

type Order struct {
	ID     string          `json:"id" yaml:"id"`
	Date   string          `json:"date" yaml:"date"`
	Status OrderStatus     `json:"status" yaml:"status"`
	Total  decimal.Decimal `json:"total" yaml:"total"`
	Items  int             `json:"items" yaml:"items"`
}

type SavedDesign struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	ImageURL  string `json:"imageUrl,omitempty" yaml:"imageUrl"`
	LastSaved string `json:"lastSaved" yaml:"lastSaved"`
}

type Profile struct {
	UserID string `json:"userId" yaml:"userId"`
	Name   string `json:"name" yaml:"name"`
	Email  string `json:"email" yaml:"email"`
}

// Account is the seeded state of one user's dashboard.
type Account struct {
	Profile      Profile          `json:"profile" yaml:"profile"`
	Measurements []MeasurementSet `json:"measurements" yaml:"measurements"`
	Orders       []Order          `json:"orders" yaml:"orders"`
	Designs      []SavedDesign    `json:"designs" yaml:"designs"`
}

type CartItem struct {
	ID            string          `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	Quantity      int             `json:"quantity" yaml:"quantity"`
	Price         decimal.Decimal `json:"price" yaml:"price"`
	Customization string          `json:"customization" yaml:"customization"`
}

func (c CartItem) Subtotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type Shipping struct {
	FullName string `json:"fullName" validate:"min=3"`
	Address1 string `json:"address1" validate:"min=5"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city" validate:"min=2"`
	State    string `json:"state" validate:"min=2"`
	Zip      string `json:"zip" validate:"min=5"`
	Country  string `json:"country" validate:"min=2,oneof=USA CAN GBR"`
}

func (s Shipping) Trimmed() Shipping {
	return Shipping{
		FullName: strings.TrimSpace(s.FullName),
		Address1: strings.TrimSpace(s.Address1),
		Address2: strings.TrimSpace(s.Address2),
		City:     strings.TrimSpace(s.City),
		State:    strings.TrimSpace(s.State),
		Zip:      strings.TrimSpace(s.Zip),
		Country:  strings.TrimSpace(s.Country),
	}
}

type PaymentMethod string

const (
	PaymentStarkPay   PaymentMethod = "starkpay"
	PaymentCreditCard PaymentMethod = "creditcard"
)

type Payment struct {
	Method     PaymentMethod `json:"paymentMethod" validate:"required,oneof=starkpay creditcard"`
	CardNumber string        `json:"cardNumber,omitempty" validate:"required_if=Method creditcard,omitempty,number,len=16"`
	ExpiryDate string        `json:"expiryDate,omitempty" validate:"required_if=Method creditcard,omitempty,mmyy"`
	CVV        string        `json:"cvv,omitempty" validate:"required_if=Method creditcard,omitempty,number,min=3,max=4"`
}

// Redacted keeps only what the review step shows: the method and the last
// four card digits.
func (p Payment) Redacted() Payment {
	out := Payment{Method: p.Method}
	if p.Method == PaymentCreditCard && len(p.CardNumber) >= 4 {
		out.CardNumber = p.CardNumber[len(p.CardNumber)-4:]
	}
	return out
}

// Describe returns the human label shown on the review step.
func (p Payment) Describe() string {
	if p.Method == PaymentCreditCard {
		last4 := p.CardNumber
		if len(last4) > 4 {
			last4 = last4[len(last4)-4:]
		}
		return "Arc Credit Card ending in " + last4
	}
	return "StarkPay Credit Balance"
}
