// Package wizard drives the four-step OTP login flow from the client side.
// The server keeps no wizard state; progress lives entirely in Wizard.
package wizard

import (
	"context"
	"errors"
	"strings"

	"github.com/go-account-api/internal/domain"
)

// State is the current step of the login flow.
type State int

const (
	EmailEntry State = iota
	PhoneEntry
	OtpEntry
	Verified
)

func (s State) String() string {
	switch s {
	case EmailEntry:
		return "EmailEntry"
	case PhoneEntry:
		return "PhoneEntry"
	case OtpEntry:
		return "OtpEntry"
	case Verified:
		return "Verified"
	}
	return "Unknown"
}

// ErrWrongState is returned when a step is called outside its state.
// No request is made in that case.
var ErrWrongState = errors.New("wizard: step not allowed in current state")

// Result is the outcome of a successful verify-otp call.
type Result struct {
	Message  string
	Identity *domain.Identity
	Token    string
}

// Client performs the server side of each step.
type Client interface {
	CheckEmail(ctx context.Context, email string) (string, error)
	SubmitPhone(ctx context.Context, phone string) (string, error)
	SendOTP(ctx context.Context, phone string) (string, error)
	VerifyOTP(ctx context.Context, phone, otp, email string) (*Result, error)
}

// Wizard is not safe for concurrent use.
type Wizard struct {
	client  Client
	state   State
	email   string
	phone   string
	message string
	err     error
	result  *Result
}

func New(client Client) *Wizard {
	return &Wizard{client: client, state: EmailEntry}
}

func (w *Wizard) State() State { return w.state }

// Err returns the error of the last failed step, or nil after a success.
func (w *Wizard) Err() error { return w.err }

// Message returns the server message of the last successful step.
func (w *Wizard) Message() string { return w.message }

func (w *Wizard) Email() string { return w.email }

func (w *Wizard) Phone() string { return w.phone }

// Identity returns the verified identity once the wizard is Verified.
func (w *Wizard) Identity() *domain.Identity {
	if w.result == nil {
		return nil
	}
	return w.result.Identity
}

// Token returns the bearer token issued on verification, if any.
func (w *Wizard) Token() string {
	if w.result == nil {
		return ""
	}
	return w.result.Token
}

// SubmitEmail sends the email to check-email and advances to PhoneEntry.
func (w *Wizard) SubmitEmail(ctx context.Context, email string) error {
	if w.state != EmailEntry {
		return ErrWrongState
	}
	email = strings.TrimSpace(email)
	msg, err := w.client.CheckEmail(ctx, email)
	if err != nil {
		return w.fail(err)
	}
	w.email = email
	w.advance(PhoneEntry, msg)
	return nil
}

// SubmitPhone calls submit-phone then send-otp. The wizard moves to OtpEntry
// only if both succeed.
func (w *Wizard) SubmitPhone(ctx context.Context, phone string) error {
	if w.state != PhoneEntry {
		return ErrWrongState
	}
	phone = strings.TrimSpace(phone)
	if _, err := w.client.SubmitPhone(ctx, phone); err != nil {
		return w.fail(err)
	}
	msg, err := w.client.SendOTP(ctx, phone)
	if err != nil {
		return w.fail(err)
	}
	w.phone = phone
	w.advance(OtpEntry, msg)
	return nil
}

// ResendOTP re-dispatches a code to the held phone without changing state.
func (w *Wizard) ResendOTP(ctx context.Context) error {
	if w.state != OtpEntry {
		return ErrWrongState
	}
	msg, err := w.client.SendOTP(ctx, w.phone)
	if err != nil {
		return w.fail(err)
	}
	w.advance(OtpEntry, msg)
	return nil
}

// SubmitOTP verifies the code against the held phone and email.
// Verified is terminal.
func (w *Wizard) SubmitOTP(ctx context.Context, otp string) error {
	if w.state != OtpEntry {
		return ErrWrongState
	}
	res, err := w.client.VerifyOTP(ctx, w.phone, strings.TrimSpace(otp), w.email)
	if err != nil {
		return w.fail(err)
	}
	w.result = res
	w.advance(Verified, res.Message)
	return nil
}

func (w *Wizard) advance(next State, msg string) {
	w.state = next
	w.message = msg
	w.err = nil
}

func (w *Wizard) fail(err error) error {
	w.err = err
	return err
}
