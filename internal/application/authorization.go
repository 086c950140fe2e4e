package application

import (
	"context"
	"errors"

	repo "github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
)

// AuthorizationGate guards destructive catalog actions.
type AuthorizationGate struct {
	Users repo.UserRepository
}

func NewAuthorizationGate(users repo.UserRepository) *AuthorizationGate {
	return &AuthorizationGate{Users: users}
}

// AuthorizeDestructive returns nil when actorID names an admin, ErrUnauthorized
// when it names anyone else and ErrActorNotFound when it names nobody.
func (g *AuthorizationGate) AuthorizeDestructive(ctx context.Context, actorID string) error {
	if actorID == "" {
		return ErrActorNotFound
	}
	u, err := g.Users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrActorNotFound
		}
		return err
	}
	if !u.IsAdmin {
		return ErrUnauthorized
	}
	return nil
}
