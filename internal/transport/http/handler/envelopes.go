package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-account-api/internal/domain"
	"github.com/rs/zerolog"
)

// Categories reported in the "error" field of 5xx bodies.
const (
	CategoryProvider    = "provider_unavailable"
	CategoryPersistence = "persistence_failure"
	CategoryInternal    = "internal_error"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerifyEnvelope is the verify-otp success body.
type VerifyEnvelope struct {
	Message string           `json:"message"`
	User    *domain.Identity `json:"user"`
	Token   string           `json:"token,omitempty"`
}

// DataEnvelope wraps address-book responses.
type DataEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}

// decodeJSON reports a malformed body as a client error.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrBadRequest
	}
	return nil
}

// errMsgs holds the public messages for one endpoint. Empty fields fall back
// to defaults; an empty badRequest exposes the validation detail.
type errMsgs struct {
	badRequest  string
	invalidCode string
	notFound    string
	server      string
	category    string
}

type errorReply struct {
	status   int
	message  string
	category string
}

// classify maps a service error to its HTTP reply. Server-side failures are
// logged with the request logger and never expose the error text.
func classify(r *http.Request, err error, m errMsgs) errorReply {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		msg := m.badRequest
		if msg == "" {
			msg = detail(err)
		}
		return errorReply{status: http.StatusBadRequest, message: msg}
	case errors.Is(err, domain.ErrInvalidCode):
		return errorReply{status: http.StatusBadRequest, message: or(m.invalidCode, "Invalid OTP. Please try again.")}
	case errors.Is(err, domain.ErrNotFound):
		return errorReply{status: http.StatusNotFound, message: or(m.notFound, "Not found")}
	case errors.Is(err, domain.ErrUnauthorized):
		return errorReply{status: http.StatusUnauthorized, message: "Unauthorized"}
	}

	category := or(m.category, CategoryInternal)
	if errors.Is(err, domain.ErrProvider) {
		category = CategoryProvider
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Str("category", category).Msg("request failed")
	return errorReply{
		status:   http.StatusInternalServerError,
		message:  or(m.server, "Internal server error"),
		category: category,
	}
}

func httpError(w http.ResponseWriter, r *http.Request, err error, m errMsgs) {
	rep := classify(r, err, m)
	writeJSON(w, rep.status, MessageEnvelope{Message: rep.message, Error: rep.category})
}

// detail strips the sentinel suffix from a validation error.
func detail(err error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+domain.ErrBadRequest.Error())
	if msg == domain.ErrBadRequest.Error() {
		return "Invalid request body"
	}
	return msg
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
