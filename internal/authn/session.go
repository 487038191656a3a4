package authn

import (
	"context"
	"errors"

	"github.com/Olinea/AniLog/internal/models"
	"github.com/Olinea/AniLog/internal/store"
	"github.com/Olinea/AniLog/internal/token"
)

// ErrUnauthenticated is returned when no valid identity backs a request.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrForbidden is returned when a valid identity lacks the required tier.
var ErrForbidden = errors.New("forbidden")

// IdentityFinder is the slice of the resource store the authenticator
// needs.
type IdentityFinder interface {
	FindIdentityBySubject(ctx context.Context, subject string) (*models.Identity, error)
}

// Authenticator turns carried credentials into identities.
type Authenticator struct {
	Codec      *token.Codec
	Identities IdentityFinder
}

// ResolveIdentity maps a carried credential to an identity, or nil for
// anonymous. Invalid tokens, unknown subjects, and inactive accounts all
// resolve to anonymous; only a store fault is reported as an error.
func (a *Authenticator) ResolveIdentity(ctx context.Context, carrier string) (*models.Identity, error) {
	if carrier == "" {
		return nil, nil
	}
	claims, ok := a.Codec.Verify(carrier)
	if !ok {
		return nil, nil
	}
	id, err := a.Identities.FindIdentityBySubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if id == nil || !id.Active {
		return nil, nil
	}
	return id, nil
}

// RequireIdentity is the mandatory gate for privileged operations: it
// fails with ErrUnauthenticated when the carrier resolves to anonymous.
func (a *Authenticator) RequireIdentity(ctx context.Context, carrier string) (*models.Identity, error) {
	id, err := a.ResolveIdentity(ctx, carrier)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, ErrUnauthenticated
	}
	return id, nil
}

// RequireTier fails with ErrForbidden unless the identity holds at
// least minTier. Ownership checks stay per-resource on top of this.
func RequireTier(id *models.Identity, minTier int) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if id.Tier < minTier {
		return ErrForbidden
	}
	return nil
}
