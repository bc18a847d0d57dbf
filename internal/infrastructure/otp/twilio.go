package otp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	verify "github.com/twilio/twilio-go/rest/verify/v2"

	"github.com/go-account-api/internal/domain"
)

type verifyAPI interface {
	CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error)
}

// TwilioProvider delegates code generation, delivery and checking to a
// Twilio Verify service. No OTP state is kept locally.
type TwilioProvider struct {
	api        verifyAPI
	serviceSID string
}

func NewTwilioProvider(accountSID, authToken, serviceSID string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioProvider{api: client.VerifyV2, serviceSID: serviceSID}
}

func (p *TwilioProvider) StartVerification(ctx context.Context, destination string, channel domain.Channel) error {
	params := &verify.CreateVerificationParams{}
	params.SetTo(destination)
	params.SetChannel(string(channel))

	_, err := call(ctx, func() (*verify.VerifyV2Verification, error) {
		return p.api.CreateVerification(p.serviceSID, params)
	})
	if err != nil {
		return fmt.Errorf("twilio create verification: %w", err)
	}
	return nil
}

// CheckVerification reports Twilio's status for the code. A verification that
// Twilio no longer knows about (approved, expired or cancelled) is reported as
// expired rather than as an error.
func (p *TwilioProvider) CheckVerification(ctx context.Context, destination, code string) (domain.VerificationStatus, error) {
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(destination)
	params.SetCode(code)

	resp, err := call(ctx, func() (*verify.VerifyV2VerificationCheck, error) {
		return p.api.CreateVerificationCheck(p.serviceSID, params)
	})
	if err != nil {
		var restErr *twclient.TwilioRestError
		if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
			return domain.StatusExpired, nil
		}
		return "", fmt.Errorf("twilio verification check: %w", err)
	}
	if resp == nil || resp.Status == nil {
		return domain.StatusPending, nil
	}
	return domain.VerificationStatus(*resp.Status), nil
}

// call runs a blocking SDK request and abandons it when ctx is done.
// The SDK has no context support, so the goroutine finishes on its own.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
