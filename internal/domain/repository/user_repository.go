package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("duplicate key")
	ErrVersionConflict = errors.New("version conflict")
)

// UserRepository defines the interface for user document operations.
//
// Every write bumps the stored version. Writes that take an expected version
// fail with ErrVersionConflict when the stored document moved on.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	// Update overwrites name, email, password hash and admin flag when u.Version matches.
	Update(ctx context.Context, u *entity.User) error
	// SaveCart overwrites the embedded cart when the stored version equals expectedVersion
	// and returns the user as written.
	SaveCart(ctx context.Context, id string, expectedVersion int64, cart entity.Cart) (*entity.User, error)
	PushNotification(ctx context.Context, id string, n entity.Notification) error
	Delete(ctx context.Context, id string) error
}
