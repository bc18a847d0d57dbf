package handler

import (
	"net/http"

	"github.com/go-account-api/internal/application/user"
	"github.com/go-account-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// UserHandler exposes verified identities to authenticated callers.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, r, err, errMsgs{server: "Error fetching users", category: CategoryPersistence})
		return
	}
	if users == nil {
		users = []domain.Identity{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err, errMsgs{notFound: "User not found", server: "Error fetching user", category: CategoryPersistence})
		return
	}
	writeJSON(w, http.StatusOK, u)
}
