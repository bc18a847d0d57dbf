package handler

import (
	"net/http"

	"github.com/go-account-api/internal/application/profile"
	"github.com/go-account-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

var profileErrs = errMsgs{notFound: "User not found", server: "Server error", category: CategoryPersistence}

// ProfileHandler serves the "My Profile" records.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		httpError(w, r, err, profileErrs)
		return
	}
	p, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpError(w, r, err, profileErrs)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, r, err, profileErrs)
		return
	}
	if list == nil {
		list = []domain.Profile{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err, profileErrs)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		httpError(w, r, err, profileErrs)
		return
	}
	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, r, err, profileErrs)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err, profileErrs)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "User deleted successfully"})
}
