package gallery

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"storefront-bff/internal/models"
)

const PageSize = 8

var (
	ErrUnknownSort = errors.New("unknown sort option")
	ErrInvalidPage = errors.New("page must be a number")
)

type Sort string

const (
	SortRelevance Sort = "relevance"
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortNameAsc   Sort = "name_asc"
	SortNameDesc  Sort = "name_desc"
)

var SortOptions = []Sort{SortRelevance, SortNewest, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc}

func (s Sort) Label() string {
	switch s {
	case SortNewest:
		return "Newest Arrivals"
	case SortPriceAsc:
		return "Price: Low to High"
	case SortPriceDesc:
		return "Price: High to Low"
	case SortNameAsc:
		return "Name: A-Z"
	case SortNameDesc:
		return "Name: Z-A"
	default:
		return "Relevance"
	}
}

type Query struct {
	Search     string   `json:"q,omitempty"`
	Categories []string `json:"categories,omitempty"`
	StyleLines []string `json:"styleLines,omitempty"`
	Sort       Sort     `json:"sort"`
	Page       int      `json:"page"`
}

// Active reports whether any filter or a non-default sort is set.
func (q Query) Active() bool {
	return strings.TrimSpace(q.Search) != "" || len(q.Categories) > 0 || len(q.StyleLines) > 0 ||
		(q.Sort != "" && q.Sort != SortRelevance)
}

// CacheKey is a stable key for the query, independent of facet order.
func (q Query) CacheKey() string {
	cats := slices.Clone(q.Categories)
	styles := slices.Clone(q.StyleLines)
	sort.Strings(cats)
	sort.Strings(styles)
	return fmt.Sprintf("gallery:q=%s|c=%s|s=%s|o=%s|p=%d",
		strings.ToLower(strings.TrimSpace(q.Search)),
		strings.Join(cats, ","), strings.Join(styles, ","), q.Sort, q.Page)
}

// ParseQuery reads q, category, style, sort and page from URL values.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Search:     v.Get("q"),
		Categories: nonEmpty(v["category"]),
		StyleLines: nonEmpty(v["style"]),
		Sort:       Sort(v.Get("sort")),
		Page:       1,
	}
	if q.Sort == "" {
		q.Sort = SortRelevance
	}
	if !slices.Contains(SortOptions, q.Sort) {
		return Query{}, fmt.Errorf("%q: %w", q.Sort, ErrUnknownSort)
	}
	if p := v.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Query{}, fmt.Errorf("%q: %w", p, ErrInvalidPage)
		}
		q.Page = n
	}
	return q, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type Result struct {
	Items      []models.Product `json:"items"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	TotalItems int              `json:"totalItems"`
	PageSize   int              `json:"pageSize"`
	Query      Query            `json:"query"`
	Categories []string         `json:"categories"`
	StyleLines []string         `json:"styleLines"`
}

func (r Result) HasPrev() bool { return r.Page > 1 }
func (r Result) HasNext() bool { return r.Page < r.TotalPages }

// Matches reports whether p satisfies every active predicate of q.
func (q Query) Matches(p models.Product) bool {
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	if len(q.Categories) > 0 && !slices.Contains(q.Categories, p.Category) {
		return false
	}
	if len(q.StyleLines) > 0 && (p.StyleLine == "" || !slices.Contains(q.StyleLines, p.StyleLine)) {
		return false
	}
	return true
}

// Filter returns the products matching q, sorted by q.Sort. The input slice
// is not modified.
func Filter(products []models.Product, q Query) ([]models.Product, error) {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if q.Matches(p) {
			out = append(out, p)
		}
	}

	switch q.Sort {
	case "", SortRelevance:
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ReleaseDate.After(out[j].ReleaseDate) })
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].BasePrice.LessThan(out[j].BasePrice) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].BasePrice.GreaterThan(out[j].BasePrice) })
	case SortNameAsc:
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	case SortNameDesc:
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) > strings.ToLower(out[j].Name) })
	default:
		return nil, fmt.Errorf("%q: %w", q.Sort, ErrUnknownSort)
	}
	return out, nil
}

// TotalPages is the number of pages n items span; zero items still make one page.
func TotalPages(n int) int {
	if n == 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// Paginate returns the 1-based page of items, clamping page into range.
func Paginate(items []models.Product, page int) ([]models.Product, int) {
	total := TotalPages(len(items))
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}
	start := (page - 1) * PageSize
	end := min(start+PageSize, len(items))
	return items[start:end], page
}

// Search filters, sorts and paginates products.
func Search(products []models.Product, q Query, categories, styleLines []string) (Result, error) {
	filtered, err := Filter(products, q)
	if err != nil {
		return Result{}, err
	}
	page, n := Paginate(filtered, q.Page)
	q.Page = n
	if q.Sort == "" {
		q.Sort = SortRelevance
	}
	return Result{
		Items:      page,
		Page:       n,
		TotalPages: TotalPages(len(filtered)),
		TotalItems: len(filtered),
		PageSize:   PageSize,
		Query:      q,
		Categories: categories,
		StyleLines: styleLines,
	}, nil
}
