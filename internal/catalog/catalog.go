package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"storefront-bff/internal/models"
)

//go:embed seed.yaml
var seedYAML []byte

var ErrUnknownProduct = errors.New("unknown product")

type seed struct {
	Products       []models.Product     `yaml:"products"`
	Featured       []models.Product     `yaml:"featured"`
	DefaultProduct models.Product       `yaml:"defaultProduct"`
	Options        []models.OptionGroup `yaml:"options"`
	Features       []models.Feature     `yaml:"features"`
	StarterCart    []models.CartItem    `yaml:"starterCart"`
	Account        models.Account       `yaml:"account"`
}

// Catalog is the read-only product and option data of the storefront.
type Catalog struct {
	products       []models.Product
	featured       []models.Product
	defaultProduct models.Product
	bySlug         map[string]models.Product
	byID           map[string]models.Product
	options        []models.OptionGroup
	features       []models.Feature
	starterCart    []models.CartItem
	account        models.Account
	categories     []string
	styleLines     []string
}

// Load parses the embedded seed data.
func Load() (*Catalog, error) {
	return Parse(seedYAML)
}

func Parse(data []byte) (*Catalog, error) {
	var s seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed: %w", err)
	}
	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("invalid catalog seed: %w", err)
	}

	c := &Catalog{
		products:       s.Products,
		featured:       s.Featured,
		defaultProduct: s.DefaultProduct,
		bySlug:         make(map[string]models.Product),
		byID:           make(map[string]models.Product),
		options:        s.Options,
		features:       s.Features,
		starterCart:    s.StarterCart,
		account:        s.Account,
	}

	all := append(append([]models.Product{}, s.Products...), s.Featured...)
	all = append(all, s.DefaultProduct)
	for _, p := range all {
		c.bySlug[p.Slug] = p
		c.byID[p.ID] = p
	}

	seenCategory := make(map[string]bool)
	seenStyle := make(map[string]bool)
	for _, p := range s.Products {
		if !seenCategory[p.Category] {
			seenCategory[p.Category] = true
			c.categories = append(c.categories, p.Category)
		}
		if p.StyleLine != "" && !seenStyle[p.StyleLine] {
			seenStyle[p.StyleLine] = true
			c.styleLines = append(c.styleLines, p.StyleLine)
		}
	}

	return c, nil
}

func validate(s *seed) error {
	if len(s.Products) == 0 {
		return errors.New("no products")
	}
	if s.DefaultProduct.Slug == "" {
		return errors.New("default product is required")
	}

	ids := make(map[string]bool)
	slugs := make(map[string]bool)
	all := append(append([]models.Product{}, s.Products...), s.Featured...)
	all = append(all, s.DefaultProduct)
	for _, p := range all {
		if p.ID == "" || p.Slug == "" {
			return fmt.Errorf("product %q: id and slug are required", p.Name)
		}
		if ids[p.ID] {
			return fmt.Errorf("duplicate product id %q", p.ID)
		}
		if slugs[p.Slug] {
			return fmt.Errorf("duplicate product slug %q", p.Slug)
		}
		if p.BasePrice.IsNegative() {
			return fmt.Errorf("product %q: negative base price", p.Slug)
		}
		ids[p.ID] = true
		slugs[p.Slug] = true
	}

	if len(s.Options) == 0 {
		return errors.New("no option groups")
	}
	keys := make(map[string]bool)
	for _, g := range s.Options {
		if keys[g.Key] {
			return fmt.Errorf("duplicate option group %q", g.Key)
		}
		keys[g.Key] = true
		if len(g.Choices) == 0 {
			return fmt.Errorf("option group %q has no choices", g.Key)
		}
		values := make(map[string]bool)
		for _, ch := range g.Choices {
			if values[ch.Value] {
				return fmt.Errorf("option group %q: duplicate value %q", g.Key, ch.Value)
			}
			if ch.Cost.IsNegative() {
				return fmt.Errorf("option group %q: negative cost for %q", g.Key, ch.Value)
			}
			values[ch.Value] = true
		}
	}
	return nil
}

// Products returns the gallery products in seed order.
func (c *Catalog) Products() []models.Product {
	return append([]models.Product(nil), c.products...)
}

func (c *Catalog) Featured() []models.Product {
	return append([]models.Product(nil), c.featured...)
}

func (c *Catalog) DefaultProduct() models.Product {
	return c.defaultProduct
}

// ProductBySlug looks up gallery, featured and default products.
func (c *Catalog) ProductBySlug(slug string) (models.Product, bool) {
	p, ok := c.bySlug[slug]
	return p, ok
}

func (c *Catalog) ProductByID(id string) (models.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

func (c *Catalog) StyleLines() []string {
	return append([]string(nil), c.styleLines...)
}

func (c *Catalog) OptionGroups() []models.OptionGroup {
	return append([]models.OptionGroup(nil), c.options...)
}

func (c *Catalog) OptionGroup(key string) (models.OptionGroup, bool) {
	for _, g := range c.options {
		if g.Key == key {
			return g, true
		}
	}
	return models.OptionGroup{}, false
}

func (c *Catalog) Features() []models.Feature {
	return append([]models.Feature(nil), c.features...)
}

// StarterCart is the cart a new checkout session opens with.
func (c *Catalog) StarterCart() []models.CartItem {
	return append([]models.CartItem(nil), c.starterCart...)
}

// SeedAccount returns a deep copy of the demo user's dashboard data.
func (c *Catalog) SeedAccount() models.Account {
	a := c.account
	a.Measurements = append([]models.MeasurementSet(nil), a.Measurements...)
	a.Orders = append([]models.Order(nil), a.Orders...)
	a.Designs = append([]models.SavedDesign(nil), a.Designs...)
	return a
}
