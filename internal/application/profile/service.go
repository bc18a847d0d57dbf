package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-account-api/internal/domain"
	"github.com/go-account-api/internal/pkg/id"
	"github.com/go-account-api/internal/pkg/validate"
)

type Service interface {
	Create(ctx context.Context, in domain.ProfileInput) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	Get(ctx context.Context, profileID string) (*domain.Profile, error)
	Update(ctx context.Context, profileID string, in domain.ProfileInput) (*domain.Profile, error)
	Delete(ctx context.Context, profileID string) error
}

type profileStore interface {
	Put(ctx context.Context, p *domain.Profile) error
	Get(ctx context.Context, profileID string) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	Delete(ctx context.Context, profileID string) error
}

type service struct {
	repo profileStore
	now  func() time.Time
}

func NewService(repo profileStore) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Create(ctx context.Context, in domain.ProfileInput) (*domain.Profile, error) {
	now := s.now().UTC()
	p := &domain.Profile{ProfileID: id.NewAt(now), CreatedAt: now, UpdatedAt: now}
	if err := apply(p, in); err != nil {
		return nil, err
	}
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) List(ctx context.Context) ([]domain.Profile, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, profileID string) (*domain.Profile, error) {
	return s.repo.Get(ctx, profileID)
}

func (s *service) Update(ctx context.Context, profileID string, in domain.ProfileInput) (*domain.Profile, error) {
	p, err := s.repo.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if err := apply(p, in); err != nil {
		return nil, err
	}
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, profileID string) error {
	return s.repo.Delete(ctx, profileID)
}

// apply merges the non-nil input fields into p, trimming text and
// lower-casing the email.
func apply(p *domain.Profile, in domain.ProfileInput) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Title, in.Title)
	set(&p.FirstName, in.FirstName)
	set(&p.MiddleName, in.MiddleName)
	set(&p.LastName, in.LastName)
	set(&p.Gender, in.Gender)
	set(&p.MobileNumber, in.MobileNumber)
	if in.EmailID != nil {
		p.EmailID = domain.NormalizeEmail(*in.EmailID)
	}
	if in.DateOfBirth != nil {
		t, err := parseDate(*in.DateOfBirth)
		if err != nil {
			return fmt.Errorf("dateOfBirth: %w", err)
		}
		p.DateOfBirth = t
	}
	if in.DateOfAnniversary != nil {
		t, err := parseDate(*in.DateOfAnniversary)
		if err != nil {
			return fmt.Errorf("dateOfAnniversary: %w", err)
		}
		p.DateOfAnniversary = t
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. An empty string clears the date.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("must be YYYY-MM-DD or RFC 3339: %w", domain.ErrBadRequest)
}
