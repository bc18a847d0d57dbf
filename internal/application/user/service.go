package user

import (
	"context"
	"sort"

	"github.com/go-account-api/internal/domain"
)

// Service exposes read access to verified identities.
type Service interface {
	List(ctx context.Context) ([]domain.Identity, error)
	Get(ctx context.Context, identityID string) (*domain.Identity, error)
}

type identityStore interface {
	List(ctx context.Context) ([]domain.Identity, error)
	Get(ctx context.Context, identityID string) (*domain.Identity, error)
}

type service struct {
	repo identityStore
}

func NewService(repo identityStore) Service {
	return &service{repo: repo}
}

// List returns every identity, newest first.
func (s *service) List(ctx context.Context) ([]domain.Identity, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *service) Get(ctx context.Context, identityID string) (*domain.Identity, error) {
	return s.repo.Get(ctx, identityID)
}
