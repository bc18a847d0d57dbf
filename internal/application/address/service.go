package address

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-account-api/internal/domain"
	"github.com/go-account-api/internal/pkg/id"
	"github.com/go-account-api/internal/pkg/validate"
)

// Service manages an owner's address book. An empty ownerID means the caller
// is not scoped to an owner (auth disabled) and sees every address.
type Service interface {
	Create(ctx context.Context, ownerID string, in domain.AddressInput) (*domain.Address, error)
	List(ctx context.Context, ownerID string) ([]domain.Address, error)
	Get(ctx context.Context, ownerID, addressID string) (*domain.Address, error)
	Update(ctx context.Context, ownerID, addressID string, in domain.AddressInput) (*domain.Address, error)
	Delete(ctx context.Context, ownerID, addressID string) error
}

type addressStore interface {
	Put(ctx context.Context, a *domain.Address) error
	Get(ctx context.Context, addressID string) (*domain.Address, error)
	List(ctx context.Context, ownerID string) ([]domain.Address, error)
	Delete(ctx context.Context, addressID string) error
	// ClearDefault unsets is_default on the owner's addresses other than exceptID.
	ClearDefault(ctx context.Context, ownerID, exceptID string) error
}

type service struct {
	repo addressStore
	now  func() time.Time
}

func NewService(repo addressStore) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Create(ctx context.Context, ownerID string, in domain.AddressInput) (*domain.Address, error) {
	now := s.now().UTC()
	a := &domain.Address{
		AddressID: id.NewAt(now),
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.ApplyTo(a)
	a.Normalize()
	if err := validate.Struct(a); err != nil {
		return nil, err
	}
	if a.IsDefault {
		if err := s.repo.ClearDefault(ctx, ownerID, a.AddressID); err != nil {
			return nil, fmt.Errorf("clear default address: %w", err)
		}
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns the owner's addresses, most recently created first.
func (s *service) List(ctx context.Context, ownerID string) ([]domain.Address, error) {
	out, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *service) Get(ctx context.Context, ownerID, addressID string) (*domain.Address, error) {
	a, err := s.repo.Get(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && a.UserID != ownerID {
		return nil, fmt.Errorf("address %s: %w", addressID, domain.ErrNotFound)
	}
	return a, nil
}

func (s *service) Update(ctx context.Context, ownerID, addressID string, in domain.AddressInput) (*domain.Address, error) {
	a, err := s.Get(ctx, ownerID, addressID)
	if err != nil {
		return nil, err
	}
	in.ApplyTo(a)
	a.Normalize()
	if err := validate.Struct(a); err != nil {
		return nil, err
	}
	if in.IsDefault != nil && *in.IsDefault {
		if err := s.repo.ClearDefault(ctx, a.UserID, a.AddressID); err != nil {
			return nil, fmt.Errorf("clear default address: %w", err)
		}
	}
	a.UpdatedAt = s.now().UTC()
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Delete(ctx context.Context, ownerID, addressID string) error {
	if _, err := s.Get(ctx, ownerID, addressID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, addressID)
}
