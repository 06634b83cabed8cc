package api

import (
	"errors"
	"log/slog"
	"net/http"

	"storefront-bff/internal/account"
	"storefront-bff/internal/catalog"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/customizer"
	"storefront-bff/internal/gallery"
	"storefront-bff/internal/models"
	"storefront-bff/internal/session"
)

type errorBody struct {
	Error  string             `json:"error,omitempty"`
	Errors models.FieldErrors `json:"errors,omitempty"`
}

// StatusOf maps a domain error onto its HTTP status.
func StatusOf(err error) int {
	var fe models.FieldErrors
	switch {
	case errors.As(err, &fe):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrUnknownProduct),
		errors.Is(err, account.ErrNotFound),
		errors.Is(err, checkout.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrWrongStep),
		errors.Is(err, checkout.ErrClosed),
		errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusConflict
	case errors.Is(err, errBadBody),
		errors.Is(err, session.ErrInvalidID),
		errors.Is(err, gallery.ErrUnknownSort),
		errors.Is(err, gallery.ErrInvalidPage),
		errors.Is(err, models.ErrUnknownChoice),
		errors.Is(err, customizer.ErrUnknownGroup),
		errors.Is(err, customizer.ErrUnknownFeature),
		errors.Is(err, customizer.ErrInvalidColor),
		errors.Is(err, customizer.ErrInvalidFit),
		errors.Is(err, customizer.ErrInvalidSize),
		errors.Is(err, checkout.ErrBadQuantity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	var fe models.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, status, errorBody{Errors: fe})
		return
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, status, errorBody{Error: "Internal Server Error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}
