package customizer

import (
	"sort"

	"storefront-bff/internal/catalog"
	"storefront-bff/internal/models"
)

// Changes is a partial edit of a design as submitted by a form or the API.
// Empty fields leave the design untouched.
type Changes struct {
	ProductSlug    string               `json:"productSlug,omitempty"`
	Selections     map[string]string    `json:"selections,omitempty"`
	PrimaryColor   string               `json:"primaryColor,omitempty"`
	SecondaryColor string               `json:"secondaryColor,omitempty"`
	Measurements   *models.Measurements `json:"measurements,omitempty"`
	FitPreference  *int                 `json:"fitPreference,omitempty"`
	Features       map[string]bool      `json:"features,omitempty"`
}

// Build starts a design for ch.ProductSlug and applies ch to it.
func Build(c *catalog.Catalog, ch Changes) (*Design, error) {
	d, err := New(c, ch.ProductSlug)
	if err != nil {
		return nil, err
	}
	if err := d.Apply(c, ch); err != nil {
		return nil, err
	}
	return d, nil
}

// Apply edits d in place. It stops at the first invalid field, leaving the
// earlier fields applied; callers that need all-or-nothing apply to a copy.
func (d *Design) Apply(c *catalog.Catalog, ch Changes) error {
	groups := make([]string, 0, len(ch.Selections))
	for g := range ch.Selections {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		if err := d.Select(c, g, ch.Selections[g]); err != nil {
			return err
		}
	}
	if err := d.SetColors(ch.PrimaryColor, ch.SecondaryColor); err != nil {
		return err
	}
	if ch.Measurements != nil {
		if err := d.SetMeasurements(*ch.Measurements); err != nil {
			return err
		}
	}
	if ch.FitPreference != nil {
		if err := d.SetFitPreference(*ch.FitPreference); err != nil {
			return err
		}
	}
	ids := make([]string, 0, len(ch.Features))
	for id := range ch.Features {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := d.SetFeature(id, ch.Features[id]); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of d.
func (d *Design) Clone() *Design {
	out := *d
	out.Selections = make(map[string]string, len(d.Selections))
	for k, v := range d.Selections {
		out.Selections[k] = v
	}
	out.Features = make(map[string]bool, len(d.Features))
	for k, v := range d.Features {
		out.Features[k] = v
	}
	return &out
}
