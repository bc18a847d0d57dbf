package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-account-api/internal/domain"
	"github.com/go-account-api/internal/pkg/id"
	"github.com/go-account-api/internal/pkg/logger"
	"github.com/rs/zerolog"
)

// Acknowledgement messages returned to the wizard on each successful step.
const (
	MsgEmailAccepted = "Email submitted. Proceed to phone verification."
	MsgPhoneAccepted = "Phone number submitted. Proceed to OTP verification."
	MsgOTPSent       = "OTP sent successfully."
	MsgVerified      = "OTP verified successfully. User updated!"
)

// VerifyRequest is the final step payload. All three fields are required.
type VerifyRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	OTP         string `json:"otp"`
	Email       string `json:"email"`
}

// VerifyResult is the persisted identity plus an optional bearer token.
type VerifyResult struct {
	Identity *domain.Identity
	Token    string
	Created  bool
}

// Provider is the external OTP service. It owns code generation, delivery,
// expiry and attempt counting.
type Provider interface {
	StartVerification(ctx context.Context, destination string, channel domain.Channel) error
	CheckVerification(ctx context.Context, destination, code string) (domain.VerificationStatus, error)
}

// IdentityStore persists identity records. Uniqueness violations and lost
// version races are reported as domain.ErrConflict.
type IdentityStore interface {
	FindByPhone(ctx context.Context, phone string) (*domain.Identity, error)
	Insert(ctx context.Context, ident *domain.Identity) error
	Update(ctx context.Context, ident *domain.Identity) error
}

type tokenSigner interface {
	Sign(identityID, phone string) (string, error)
}

// Config is the provider-facing configuration injected at construction.
type Config struct {
	CountryCode string
	Channel     domain.Channel
}

type Service interface {
	CheckEmail(ctx context.Context, email string) (string, error)
	SubmitPhone(ctx context.Context, phone string) (string, error)
	SendOTP(ctx context.Context, phone string) (string, error)
	VerifyOTP(ctx context.Context, req VerifyRequest) (*VerifyResult, error)
}

type ServiceDeps struct {
	Store    IdentityStore
	Provider Provider
	Signer   tokenSigner // optional
	Config   Config
	Logger   *zerolog.Logger
	Now      func() time.Time
}

type service struct {
	store    IdentityStore
	provider Provider
	signer   tokenSigner
	cfg      Config
	log      *zerolog.Logger
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:    deps.Store,
		provider: deps.Provider,
		signer:   deps.Signer,
		cfg:      deps.Config,
		log:      deps.Logger,
		now:      deps.Now,
	}
	if s.cfg.CountryCode == "" {
		s.cfg.CountryCode = "+91"
	}
	if s.cfg.Channel == "" {
		s.cfg.Channel = domain.ChannelSMS
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) CheckEmail(_ context.Context, email string) (string, error) {
	if !domain.IsValidEmail(strings.TrimSpace(email)) {
		return "", fmt.Errorf("invalid email format: %w", domain.ErrBadRequest)
	}
	return MsgEmailAccepted, nil
}

func (s *service) SubmitPhone(_ context.Context, phone string) (string, error) {
	if !domain.IsValidPhone(phone) {
		return "", fmt.Errorf("invalid phone number format: %w", domain.ErrBadRequest)
	}
	return MsgPhoneAccepted, nil
}

func (s *service) SendOTP(ctx context.Context, phone string) (string, error) {
	if !domain.IsValidPhone(phone) {
		return "", fmt.Errorf("invalid phone number format: %w", domain.ErrBadRequest)
	}
	if err := s.provider.StartVerification(ctx, s.destination(phone), s.cfg.Channel); err != nil {
		s.log.Error().Err(err).Str("phone", maskPhone(phone)).Msg("otp dispatch failed")
		return "", fmt.Errorf("start verification: %w", domain.ErrProvider)
	}
	s.log.Info().Str("phone", maskPhone(phone)).Str("channel", string(s.cfg.Channel)).Msg("otp dispatched")
	return MsgOTPSent, nil
}

func (s *service) VerifyOTP(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	email := domain.NormalizeEmail(req.Email)
	otp := strings.TrimSpace(req.OTP)
	if !domain.IsValidPhone(req.PhoneNumber) || otp == "" || !domain.IsValidEmail(email) {
		return nil, fmt.Errorf("invalid phone number, otp, or email: %w", domain.ErrBadRequest)
	}

	status, err := s.provider.CheckVerification(ctx, s.destination(req.PhoneNumber), otp)
	if err != nil {
		s.log.Warn().Err(err).Str("phone", maskPhone(req.PhoneNumber)).Msg("otp check failed")
		return nil, fmt.Errorf("otp not approved: %w", domain.ErrInvalidCode)
	}
	if status != domain.StatusApproved {
		s.log.Info().Str("phone", maskPhone(req.PhoneNumber)).Str("status", string(status)).Msg("otp not approved")
		return nil, fmt.Errorf("otp not approved: %w", domain.ErrInvalidCode)
	}

	ident, created, err := s.upsert(ctx, req.PhoneNumber, email)
	if err != nil {
		s.log.Error().Err(err).Str("phone", maskPhone(req.PhoneNumber)).Msg("identity upsert failed")
		return nil, fmt.Errorf("persist identity: %w", err)
	}
	s.log.Info().Str("identity_id", ident.IdentityID).Bool("created", created).Msg("identity verified")

	res := &VerifyResult{Identity: ident, Created: created}
	if s.signer != nil {
		token, err := s.signer.Sign(ident.IdentityID, ident.PhoneValue())
		if err != nil {
			// The identity is already persisted; the caller still gets it back.
			s.log.Error().Err(err).Str("identity_id", ident.IdentityID).Msg("sign token failed")
		} else {
			res.Token = token
		}
	}
	return res, nil
}

// upsert creates the identity for an unseen phone or marks the existing one
// verified, overwriting its email when it differs.
func (s *service) upsert(ctx context.Context, phone, email string) (*domain.Identity, bool, error) {
	now := s.now().UTC()
	existing, err := s.store.FindByPhone(ctx, phone)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		ident := &domain.Identity{
			IdentityID:  id.NewAt(now),
			Email:       &email,
			PhoneNumber: &phone,
			Verified:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := ident.Validate(); err != nil {
			return nil, false, err
		}
		if err := s.store.Insert(ctx, ident); err != nil {
			return nil, false, err
		}
		return ident, true, nil
	case err != nil:
		return nil, false, err
	}

	existing.Verified = true
	if existing.EmailValue() != email {
		existing.Email = &email
	}
	existing.UpdatedAt = now
	if err := existing.Validate(); err != nil {
		return nil, false, err
	}
	if err := s.store.Update(ctx, existing); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *service) destination(phone string) string {
	return s.cfg.CountryCode + phone
}

// maskPhone keeps the last four digits for log correlation.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
