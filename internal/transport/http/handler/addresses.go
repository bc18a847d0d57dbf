package handler

import (
	"net/http"

	"github.com/go-account-api/internal/application/address"
	"github.com/go-account-api/internal/domain"
	"github.com/go-account-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// AddressHandler serves the address book. Addresses are scoped to the
// bearer's identity when a token is presented.
type AddressHandler struct {
	svc address.Service
}

func NewAddressHandler(svc address.Service) *AddressHandler { return &AddressHandler{svc: svc} }

func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.AddressInput
	if err := decodeJSON(r, &in); err != nil {
		addressError(w, r, err, "Failed to save address")
		return
	}
	a, err := h.svc.Create(r.Context(), middleware.IdentityID(r.Context()), in)
	if err != nil {
		addressError(w, r, err, "Failed to save address")
		return
	}
	writeJSON(w, http.StatusCreated, DataEnvelope{Success: true, Message: "Address saved successfully", Data: a.View()})
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), middleware.IdentityID(r.Context()))
	if err != nil {
		addressError(w, r, err, "Failed to fetch addresses")
		return
	}
	views := make([]domain.AddressView, len(list))
	for i := range list {
		views[i] = list[i].View()
	}
	count := len(views)
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Count: &count, Data: views})
}

func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), middleware.IdentityID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		addressError(w, r, err, "Failed to fetch address")
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Data: a.View()})
}

func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.AddressInput
	if err := decodeJSON(r, &in); err != nil {
		addressError(w, r, err, "Failed to update address")
		return
	}
	a, err := h.svc.Update(r.Context(), middleware.IdentityID(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		addressError(w, r, err, "Failed to update address")
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Message: "Address updated successfully", Data: a.View()})
}

func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), middleware.IdentityID(r.Context()), chi.URLParam(r, "id")); err != nil {
		addressError(w, r, err, "Failed to delete address")
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Success: true, Message: "Address deleted successfully"})
}

func addressError(w http.ResponseWriter, r *http.Request, err error, server string) {
	rep := classify(r, err, errMsgs{notFound: "Address not found", server: server, category: CategoryPersistence})
	writeJSON(w, rep.status, DataEnvelope{Message: rep.message, Error: rep.category})
}
