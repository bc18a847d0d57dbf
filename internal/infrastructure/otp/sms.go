package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-account-api/internal/domain"
	"github.com/go-account-api/internal/infrastructure/sns"
)

const codeDigits = 6

// ChallengeStore persists outstanding codes, one per destination.
type ChallengeStore interface {
	Put(ctx context.Context, c *domain.OTPChallenge) error
	Get(ctx context.Context, destination string) (*domain.OTPChallenge, error)
	IncrementAttempts(ctx context.Context, destination string) error
	Delete(ctx context.Context, destination string) error
	// Consume deletes the challenge only if it still holds codeHash and
	// returns domain.ErrNotFound otherwise.
	Consume(ctx context.Context, destination, codeHash string) error
}

type SMSConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

// SMSProvider issues its own codes, stores only their bcrypt hash and
// delivers them through SNS.
type SMSProvider struct {
	store       ChallengeStore
	sender      sns.SMSSender
	ttl         time.Duration
	maxAttempts int
	cost        int
	now         func() time.Time
	generate    func() (string, error)
}

func NewSMSProvider(store ChallengeStore, sender sns.SMSSender, cfg SMSConfig) *SMSProvider {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &SMSProvider{
		store:       store,
		sender:      sender,
		ttl:         cfg.TTL,
		maxAttempts: cfg.MaxAttempts,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
		generate:    generateCode,
	}
}

// StartVerification replaces any outstanding code for destination.
func (p *SMSProvider) StartVerification(ctx context.Context, destination string, channel domain.Channel) error {
	if channel != domain.ChannelSMS {
		return fmt.Errorf("channel %q not supported by sms provider: %w", channel, domain.ErrProvider)
	}
	code, err := p.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), p.cost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	c := &domain.OTPChallenge{
		Destination: destination,
		CodeHash:    string(hash),
		ExpiresAt:   p.now().Add(p.ttl).Unix(),
	}
	if err := p.store.Put(ctx, c); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}

	msg := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(p.ttl.Minutes()))
	if err := p.sender.SendSMS(ctx, destination, msg); err != nil {
		_ = p.store.Delete(ctx, destination)
		return err
	}
	return nil
}

func (p *SMSProvider) CheckVerification(ctx context.Context, destination, code string) (domain.VerificationStatus, error) {
	c, err := p.store.Get(ctx, destination)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.StatusCanceled, nil
	}
	if err != nil {
		return "", fmt.Errorf("load challenge: %w", err)
	}

	if p.now().Unix() >= c.ExpiresAt {
		_ = p.store.Delete(ctx, destination)
		return domain.StatusExpired, nil
	}
	if c.Attempts >= p.maxAttempts {
		return domain.StatusMaxAttemptsReached, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(code)) != nil {
		if err := p.store.IncrementAttempts(ctx, destination); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("record attempt: %w", err)
		}
		return domain.StatusPending, nil
	}

	// A code is single use: a concurrent check that consumed it first wins.
	if err := p.store.Consume(ctx, destination, c.CodeHash); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.StatusCanceled, nil
		}
		return "", fmt.Errorf("consume challenge: %w", err)
	}
	return domain.StatusApproved, nil
}

func generateCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
