package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"storefront-bff/internal/catalog"
	"storefront-bff/internal/gallery"
	"storefront-bff/internal/models"
)

// ListProducts serves a gallery page. Results are cached per normalized
// query since the catalog never changes while the process runs.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	q, err := gallery.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	cacheKey := q.CacheKey()
	if cached, err := h.cache.Get(ctx, cacheKey); err == nil {
		slog.Debug("Cache HIT", "key", cacheKey, "duration", time.Since(start))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		_, _ = w.Write(cached)
		return
	}

	// Concurrent misses for the same query build the page once.
	v, err, shared := h.pages.Do(cacheKey, func() (any, error) {
		res, err := gallery.Search(h.catalog.Products(), q, h.catalog.Categories(), h.catalog.StyleLines())
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("failed to encode gallery page: %w", err)
		}
		if err := h.cache.Set(context.WithoutCancel(ctx), cacheKey, body, galleryCacheTTL); err != nil {
			slog.Warn("Failed to cache gallery page", "key", cacheKey, "error", err)
		}
		return body, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	body := v.([]byte)

	slog.Debug("Gallery page built", "key", cacheKey, "shared", shared, "duration", time.Since(start))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(append(body, '\n'))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	p, ok := h.catalog.ProductBySlug(slug)
	if !ok {
		writeError(w, r, fmt.Errorf("%q: %w", slug, catalog.ErrUnknownProduct))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Featured())
}

type optionsResponse struct {
	Groups   []models.OptionGroup `json:"groups"`
	Features []models.Feature     `json:"features"`
	Default  models.Product       `json:"defaultProduct"`
}

func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, optionsResponse{
		Groups:   h.catalog.OptionGroups(),
		Features: h.catalog.Features(),
		Default:  h.catalog.DefaultProduct(),
	})
}
