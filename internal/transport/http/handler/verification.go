package handler

import (
	"net/http"

	"github.com/go-account-api/internal/application/verification"
)

// Public messages of the login wizard endpoints.
const (
	msgInvalidEmail  = "Invalid email format."
	msgInvalidPhone  = "Invalid phone number format."
	msgInvalidVerify = "Invalid phone number, OTP, or email."
	msgInvalidOTP    = "Invalid OTP. Please try again."
	msgSendFailed    = "Error sending OTP"
	msgVerifyFailed  = "Error verifying OTP"
)

// VerificationHandler serves the four steps of the OTP login wizard.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	m := errMsgs{badRequest: msgInvalidEmail}
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		httpError(w, r, err, m)
		return
	}
	msg, err := h.svc.CheckEmail(r.Context(), body.Email)
	if err != nil {
		httpError(w, r, err, m)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: msg})
}

func (h *VerificationHandler) SubmitPhone(w http.ResponseWriter, r *http.Request) {
	m := errMsgs{badRequest: msgInvalidPhone}
	var body phoneBody
	if err := decodeJSON(r, &body); err != nil {
		httpError(w, r, err, m)
		return
	}
	msg, err := h.svc.SubmitPhone(r.Context(), body.PhoneNumber)
	if err != nil {
		httpError(w, r, err, m)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: msg})
}

func (h *VerificationHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	m := errMsgs{badRequest: msgInvalidPhone, server: msgSendFailed, category: CategoryProvider}
	var body phoneBody
	if err := decodeJSON(r, &body); err != nil {
		httpError(w, r, err, m)
		return
	}
	msg, err := h.svc.SendOTP(r.Context(), body.PhoneNumber)
	if err != nil {
		httpError(w, r, err, m)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: msg})
}

func (h *VerificationHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	m := errMsgs{
		badRequest:  msgInvalidVerify,
		invalidCode: msgInvalidOTP,
		server:      msgVerifyFailed,
		category:    CategoryPersistence,
	}
	var req verification.VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, r, err, m)
		return
	}
	res, err := h.svc.VerifyOTP(r.Context(), req)
	if err != nil {
		httpError(w, r, err, m)
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{
		Message: verification.MsgVerified,
		User:    res.Identity,
		Token:   res.Token,
	})
}

type phoneBody struct {
	PhoneNumber string `json:"phoneNumber"`
}
