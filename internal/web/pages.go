package web

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"storefront-bff/internal/catalog"
	"storefront-bff/internal/customizer"
	"storefront-bff/internal/gallery"
	"storefront-bff/internal/models"
)

type homeData struct {
	Featured []models.Product
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home", view{
		Title: "Stark Industries Armory",
		Nav:   "home",
		Data:  homeData{Featured: h.catalog.Featured()},
	})
}

type facet struct {
	Value   string
	Checked bool
}

type sortOption struct {
	Value    gallery.Sort
	Label    string
	Selected bool
}

type galleryData struct {
	Result     gallery.Result
	Categories []facet
	StyleLines []facet
	Sorts      []sortOption
	PrevURL    string
	NextURL    string
}

func facets(all, selected []string) []facet {
	out := make([]facet, 0, len(all))
	for _, v := range all {
		out = append(out, facet{Value: v, Checked: slices.Contains(selected, v)})
	}
	return out
}

func pageURL(q gallery.Query, page int) string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	for _, c := range q.Categories {
		v.Add("category", c)
	}
	for _, s := range q.StyleLines {
		v.Add("style", s)
	}
	if q.Sort != "" && q.Sort != gallery.SortRelevance {
		v.Set("sort", string(q.Sort))
	}
	v.Set("page", strconv.Itoa(page))
	return "/gallery?" + v.Encode()
}

func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	flash := ""
	q, err := gallery.ParseQuery(r.URL.Query())
	if err != nil {
		flash = "Unrecognized filter ignored: " + err.Error()
		q = gallery.Query{Sort: gallery.SortRelevance, Page: 1}
	}

	res, err := gallery.Search(h.catalog.Products(), q, h.catalog.Categories(), h.catalog.StyleLines())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := galleryData{
		Result:     res,
		Categories: facets(res.Categories, res.Query.Categories),
		StyleLines: facets(res.StyleLines, res.Query.StyleLines),
	}
	for _, s := range gallery.SortOptions {
		data.Sorts = append(data.Sorts, sortOption{Value: s, Label: s.Label(), Selected: s == res.Query.Sort})
	}
	if res.HasPrev() {
		data.PrevURL = pageURL(res.Query, res.Page-1)
	}
	if res.HasNext() {
		data.NextURL = pageURL(res.Query, res.Page+1)
	}

	h.render(w, r, http.StatusOK, "gallery", view{Title: "Armor Gallery", Nav: "gallery", Flash: flash, Data: data})
}

type customizerData struct {
	Product  models.Product
	Design   *customizer.Design
	Groups   []models.OptionGroup
	Features []models.Feature
	Total    decimal.Decimal
	Error    string
}

// design returns the visitor's design for slug, resuming the saved one when
// it is for the same product.
func (h *Handler) design(r *http.Request, slug string) (*customizer.Design, error) {
	if sid, ok := h.existingSession(r); ok {
		d, err := h.sessions.Design(r.Context(), sid)
		if err != nil {
			return nil, err
		}
		if d != nil && (slug == "" || slug == d.ProductSlug) {
			return d, nil
		}
	}
	return customizer.New(h.catalog, slug)
}

func (h *Handler) renderCustomizer(w http.ResponseWriter, r *http.Request, status int, d *customizer.Design, msg string) {
	total, err := d.Total(h.catalog)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, _ := h.catalog.ProductBySlug(d.ProductSlug)
	h.render(w, r, status, "customizer", view{
		Title: "Customize: " + p.Name,
		Nav:   "customizer",
		Data: customizerData{
			Product:  p,
			Design:   d,
			Groups:   h.catalog.OptionGroups(),
			Features: h.catalog.Features(),
			Total:    total,
			Error:    msg,
		},
	})
}

func (h *Handler) Customizer(w http.ResponseWriter, r *http.Request) {
	d, err := h.design(r, r.URL.Query().Get("product"))
	if errors.Is(err, catalog.ErrUnknownProduct) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderCustomizer(w, r, http.StatusOK, d, "")
}

// changesFromForm reads the customizer form. Feature checkboxes are only
// submitted when checked, so every known feature is set explicitly.
func (h *Handler) changesFromForm(r *http.Request) customizer.Changes {
	ch := customizer.Changes{
		ProductSlug:    r.PostFormValue("product"),
		Selections:     make(map[string]string),
		PrimaryColor:   r.PostFormValue("primaryColor"),
		SecondaryColor: r.PostFormValue("secondaryColor"),
		Measurements: &models.Measurements{
			Chest:  r.PostFormValue("chest"),
			Waist:  r.PostFormValue("waist"),
			Sleeve: r.PostFormValue("sleeve"),
			Height: r.PostFormValue("height"),
		},
		Features: make(map[string]bool),
	}
	for _, g := range h.catalog.OptionGroups() {
		if v := r.PostFormValue(g.Key); v != "" {
			ch.Selections[g.Key] = v
		}
	}
	if v := r.PostFormValue("fitPreference"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			ch.FitPreference = &n
		} else {
			bad := -1
			ch.FitPreference = &bad
		}
	}
	on := r.PostForm["feature"]
	for _, f := range h.catalog.Features() {
		ch.Features[f.ID] = slices.Contains(on, f.ID)
	}
	return ch
}

func (h *Handler) PostCustomizer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	sid := h.session(w, r)

	ch := h.changesFromForm(r)
	base, err := customizer.New(h.catalog, ch.ProductSlug)
	if errors.Is(err, catalog.ErrUnknownProduct) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if saved, err := h.sessions.Design(ctx, sid); err == nil && saved != nil && saved.ProductSlug == base.ProductSlug {
		base = saved
	}

	d := base.Clone()
	if err := d.Apply(h.catalog, ch); err != nil {
		h.renderCustomizer(w, r, http.StatusUnprocessableEntity, base, err.Error())
		return
	}
	if err := h.sessions.SaveDesign(ctx, sid, d); err != nil {
		h.fail(w, r, err)
		return
	}

	if r.PostFormValue("action") != "finalize" {
		http.Redirect(w, r, "/customizer?product="+url.QueryEscape(d.ProductSlug), http.StatusSeeOther)
		return
	}
	if err := h.finalize(r, sid, d); err != nil {
		h.renderCustomizer(w, r, http.StatusConflict, d, err.Error())
		return
	}
	http.Redirect(w, r, "/checkout-process", http.StatusSeeOther)
}
