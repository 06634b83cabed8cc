package api

import (
	"net/http"

	"storefront-bff/internal/account"
	"storefront-bff/internal/auth"
)

// userID is set by the auth middleware on every /api/account route.
func userID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.Overview(userID(r)))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req account.ProfileUpdate
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.dashboard.UpdateProfile(userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) ListMeasurements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.Measurements(userID(r)))
}

func (h *Handler) AddMeasurement(w http.ResponseWriter, r *http.Request) {
	var in account.MeasurementInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	set, err := h.dashboard.AddMeasurement(userID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (h *Handler) UpdateMeasurement(w http.ResponseWriter, r *http.Request) {
	var in account.MeasurementInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	set, err := h.dashboard.UpdateMeasurement(userID(r), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *Handler) DeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.DeleteMeasurement(userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.Orders(userID(r)))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.dashboard.Order(userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ListDesigns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.Designs(userID(r)))
}

func (h *Handler) DeleteDesign(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.DeleteDesign(userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
