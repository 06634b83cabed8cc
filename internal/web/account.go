package web

import (
	"errors"
	"net/http"
	"slices"

	"storefront-bff/internal/account"
	"storefront-bff/internal/models"
)

var accountTabs = []string{"profile", "measurements", "orders", "designs"}

type accountData struct {
	Tab         string
	Tabs        []string
	Overview    account.Overview
	Profile     account.ProfileUpdate
	Measurement account.MeasurementInput
	EditID      string
	Errors      models.FieldErrors
	Notice      string
}

func tab(name string) string {
	if slices.Contains(accountTabs, name) {
		return name
	}
	return "profile"
}

func (h *Handler) renderAccount(w http.ResponseWriter, r *http.Request, status int, data accountData) {
	data.Tabs = accountTabs
	data.Overview = h.dashboard.Overview(h.demoUser)
	if data.Profile.Name == "" && data.Profile.Email == "" {
		data.Profile = account.ProfileUpdate{Name: data.Overview.Profile.Name, Email: data.Overview.Profile.Email}
	}
	h.render(w, r, status, "account", view{Title: "Account", Nav: "account", Data: data})
}

func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	data := accountData{Tab: tab(r.URL.Query().Get("tab"))}
	if id := r.URL.Query().Get("edit"); id != "" {
		for _, m := range h.dashboard.Measurements(h.demoUser) {
			if m.ID == id {
				data.Tab = "measurements"
				data.EditID = id
				data.Measurement = account.MeasurementInput{Name: m.Name, Measurements: m.Measurements}
			}
		}
	}
	h.renderAccount(w, r, http.StatusOK, data)
}

func measurementFromForm(r *http.Request) account.MeasurementInput {
	return account.MeasurementInput{
		Name: r.PostFormValue("name"),
		Measurements: models.Measurements{
			Chest:  r.PostFormValue("chest"),
			Waist:  r.PostFormValue("waist"),
			Sleeve: r.PostFormValue("sleeve"),
			Height: r.PostFormValue("height"),
		},
	}
}

func (h *Handler) PostAccount(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	user := h.demoUser
	data := accountData{}
	var err error

	switch r.PostFormValue("action") {
	case "profile":
		data.Tab = "profile"
		data.Profile = account.ProfileUpdate{
			Name:            r.PostFormValue("name"),
			Email:           r.PostFormValue("email"),
			CurrentPassword: r.PostFormValue("currentPassword"),
			NewPassword:     r.PostFormValue("newPassword"),
			ConfirmPassword: r.PostFormValue("confirmPassword"),
		}
		_, err = h.dashboard.UpdateProfile(user, data.Profile)
		data.Profile.CurrentPassword, data.Profile.NewPassword, data.Profile.ConfirmPassword = "", "", ""
	case "add-measurement":
		data.Tab = "measurements"
		data.Measurement = measurementFromForm(r)
		_, err = h.dashboard.AddMeasurement(user, data.Measurement)
	case "update-measurement":
		data.Tab = "measurements"
		data.EditID = r.PostFormValue("id")
		data.Measurement = measurementFromForm(r)
		_, err = h.dashboard.UpdateMeasurement(user, data.EditID, data.Measurement)
	case "delete-measurement":
		data.Tab = "measurements"
		err = h.dashboard.DeleteMeasurement(user, r.PostFormValue("id"))
	case "delete-design":
		data.Tab = "designs"
		err = h.dashboard.DeleteDesign(user, r.PostFormValue("id"))
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}

	var fe models.FieldErrors
	switch {
	case err == nil:
		http.Redirect(w, r, "/user-account?tab="+data.Tab, http.StatusSeeOther)
	case errors.As(err, &fe):
		data.Errors = fe
		h.renderAccount(w, r, http.StatusUnprocessableEntity, data)
	case errors.Is(err, account.ErrNotFound):
		data.Notice = "That entry no longer exists."
		data.EditID = ""
		h.renderAccount(w, r, http.StatusNotFound, data)
	default:
		h.fail(w, r, err)
	}
}
