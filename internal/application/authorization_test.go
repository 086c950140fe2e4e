package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	"github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/memory"
)

type failingUsers struct {
	*memory.UserRepository
	err error
}

func (f failingUsers) GetByID(context.Context, string) (*entity.User, error) {
	return nil, f.err
}

func TestAuthorizeDestructive(t *testing.T) {
	f := newFixture(t)
	admin := f.register(t, "admin@shop.io", true)
	shopper := f.register(t, "shopper@shop.io", false)
	ctx := context.Background()

	assert.NoError(t, f.gate.AuthorizeDestructive(ctx, admin.ID))
	assert.ErrorIs(t, f.gate.AuthorizeDestructive(ctx, shopper.ID), ErrUnauthorized)
	assert.ErrorIs(t, f.gate.AuthorizeDestructive(ctx, "65f0c0ffee0000000000beef"), ErrActorNotFound)
	assert.ErrorIs(t, f.gate.AuthorizeDestructive(ctx, "not-an-id"), ErrActorNotFound)
	assert.ErrorIs(t, f.gate.AuthorizeDestructive(ctx, ""), ErrActorNotFound)
}

func TestAuthorizeDestructive_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	gate := NewAuthorizationGate(failingUsers{UserRepository: memory.NewUserRepository(), err: boom})

	err := gate.AuthorizeDestructive(context.Background(), "someone")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrActorNotFound)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}
