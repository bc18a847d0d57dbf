package http

import (
	"context"

	"github.com/go-account-api/internal/domain"
)

// IdentityRepository is the minimal interface the router requires from an identity store.
type IdentityRepository interface {
	Get(ctx context.Context, identityID string) (*domain.Identity, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Identity, error)
	List(ctx context.Context) ([]domain.Identity, error)
	// Insert and Update report uniqueness violations and stale versions as domain.ErrConflict.
	Insert(ctx context.Context, ident *domain.Identity) error
	Update(ctx context.Context, ident *domain.Identity) error
}

// AddressRepository is the minimal interface the router requires from an address store.
type AddressRepository interface {
	Put(ctx context.Context, a *domain.Address) error
	Get(ctx context.Context, addressID string) (*domain.Address, error)
	// List returns the owner's addresses; an empty owner lists unowned ones.
	List(ctx context.Context, ownerID string) ([]domain.Address, error)
	Delete(ctx context.Context, addressID string) error
	ClearDefault(ctx context.Context, ownerID, exceptID string) error
}

// ProfileRepository is the minimal interface the router requires from a profile store.
type ProfileRepository interface {
	Put(ctx context.Context, p *domain.Profile) error
	Get(ctx context.Context, profileID string) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	Delete(ctx context.Context, profileID string) error
}
