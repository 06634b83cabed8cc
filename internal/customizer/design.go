package customizer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront-bff/internal/catalog"
	"storefront-bff/internal/models"
	"storefront-bff/internal/validation"
)

var (
	ErrUnknownGroup   = errors.New("unknown option group")
	ErrUnknownFeature = errors.New("unknown feature")
	ErrInvalidColor   = errors.New("color must be #RRGGBB")
	ErrInvalidFit     = errors.New("fit preference must be between 0 and 100")
	ErrInvalidSize    = errors.New("measurement must be a non-negative number")
)

const (
	DefaultPrimaryColor   = "#B91C1C"
	DefaultSecondaryColor = "#F59E0B"
	DefaultFitPreference  = 50
)

const colorTag = "hexcolor,len=7"

// Design is the in-progress customization of one product.
type Design struct {
	ProductSlug    string              `json:"productSlug"`
	Selections     map[string]string   `json:"selections"`
	PrimaryColor   string              `json:"primaryColor"`
	SecondaryColor string              `json:"secondaryColor"`
	Measurements   models.Measurements `json:"measurements"`
	FitPreference  int                 `json:"fitPreference"`
	Features       map[string]bool     `json:"features"`
}

// Summary is the finalized design: selected option names and the total.
type Summary struct {
	Product        string              `json:"product"`
	ProductSlug    string              `json:"productSlug"`
	Material       string              `json:"material"`
	Plating        string              `json:"plating"`
	Insignia       string              `json:"insignia"`
	PrimaryColor   string              `json:"primaryColor"`
	SecondaryColor string              `json:"secondaryColor"`
	Measurements   models.Measurements `json:"measurements"`
	FitPreference  int                 `json:"fitPreference"`
	TotalPrice     decimal.Decimal     `json:"totalPrice"`
	FinalizedAt    time.Time           `json:"finalizedAt"`
}

// New starts a design for slug with every group at its default choice. An
// empty slug selects the catalog's default product.
func New(c *catalog.Catalog, slug string) (*Design, error) {
	var product models.Product
	if slug == "" {
		product = c.DefaultProduct()
	} else {
		p, ok := c.ProductBySlug(slug)
		if !ok {
			return nil, fmt.Errorf("%q: %w", slug, catalog.ErrUnknownProduct)
		}
		product = p
	}

	d := &Design{
		ProductSlug:    product.Slug,
		Selections:     make(map[string]string),
		PrimaryColor:   DefaultPrimaryColor,
		SecondaryColor: DefaultSecondaryColor,
		FitPreference:  DefaultFitPreference,
		Features:       make(map[string]bool),
	}
	for _, g := range c.OptionGroups() {
		d.Selections[g.Key] = g.Default().Value
	}
	for _, f := range c.Features() {
		d.Features[f.ID] = f.DefaultVisibility
	}
	return d, nil
}

// Select sets the choice of one option group.
func (d *Design) Select(c *catalog.Catalog, group, value string) error {
	g, ok := c.OptionGroup(group)
	if !ok {
		return fmt.Errorf("%q: %w", group, ErrUnknownGroup)
	}
	choice, err := g.Select(value)
	if err != nil {
		return err
	}
	d.Selections[g.Key] = choice.Value
	return nil
}

func (d *Design) SetColors(primary, secondary string) error {
	if primary != "" {
		if !validation.Valid(primary, colorTag) {
			return fmt.Errorf("primary %q: %w", primary, ErrInvalidColor)
		}
		d.PrimaryColor = strings.ToUpper(primary)
	}
	if secondary != "" {
		if !validation.Valid(secondary, colorTag) {
			return fmt.Errorf("secondary %q: %w", secondary, ErrInvalidColor)
		}
		d.SecondaryColor = strings.ToUpper(secondary)
	}
	return nil
}

// SetMeasurements accepts empty values or non-negative numbers in centimetres.
func (d *Design) SetMeasurements(m models.Measurements) error {
	m = m.Trimmed()
	if err := validation.Struct(m, nil); err != nil {
		var fe models.FieldErrors
		if errors.As(err, &fe) {
			return fmt.Errorf("%s: %w", strings.Join(fe.Fields(), ", "), ErrInvalidSize)
		}
		return err
	}
	d.Measurements = m
	return nil
}

func (d *Design) SetFitPreference(n int) error {
	if n < 0 || n > 100 {
		return ErrInvalidFit
	}
	d.FitPreference = n
	return nil
}

func (d *Design) ToggleFeature(id string) error {
	v, ok := d.Features[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrUnknownFeature)
	}
	d.Features[id] = !v
	return nil
}

func (d *Design) SetFeature(id string, on bool) error {
	if _, ok := d.Features[id]; !ok {
		return fmt.Errorf("%q: %w", id, ErrUnknownFeature)
	}
	d.Features[id] = on
	return nil
}

// Total is the product base price plus the cost of every selected choice.
func (d *Design) Total(c *catalog.Catalog) (decimal.Decimal, error) {
	p, ok := c.ProductBySlug(d.ProductSlug)
	if !ok {
		return decimal.Zero, fmt.Errorf("%q: %w", d.ProductSlug, catalog.ErrUnknownProduct)
	}
	total := p.BasePrice
	for _, g := range c.OptionGroups() {
		value, ok := d.Selections[g.Key]
		if !ok {
			continue
		}
		choice, err := g.Select(value)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(choice.Cost)
	}
	return total, nil
}

func (d *Design) choiceName(c *catalog.Catalog, group string) string {
	g, ok := c.OptionGroup(group)
	if !ok {
		return ""
	}
	ch, _ := g.Choice(d.Selections[group])
	return ch.Name
}

// Finalize packages the design into a summary.
func (d *Design) Finalize(c *catalog.Catalog, now time.Time) (Summary, error) {
	total, err := d.Total(c)
	if err != nil {
		return Summary{}, err
	}
	p, _ := c.ProductBySlug(d.ProductSlug)
	return Summary{
		Product:        p.Name,
		ProductSlug:    p.Slug,
		Material:       d.choiceName(c, "material"),
		Plating:        d.choiceName(c, "plating"),
		Insignia:       d.choiceName(c, "insignia"),
		PrimaryColor:   d.PrimaryColor,
		SecondaryColor: d.SecondaryColor,
		Measurements:   d.Measurements,
		FitPreference:  d.FitPreference,
		TotalPrice:     total,
		FinalizedAt:    now,
	}, nil
}

// CartItem turns the summary into a single checkout line.
func (s Summary) CartItem(id string) models.CartItem {
	var parts []string
	for _, p := range []string{s.Material, s.Plating, s.Insignia} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return models.CartItem{
		ID:            id,
		Name:          s.Product,
		Quantity:      1,
		Price:         s.TotalPrice,
		Customization: strings.Join(parts, ", "),
	}
}
