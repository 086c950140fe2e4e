package application

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrActorNotFound      = errors.New("actor not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrInvalidResetToken  = errors.New("invalid or expired token")
	ErrResetUnavailable   = errors.New("password reset unavailable")
	ErrStorageUnavailable = errors.New("picture storage not configured")
)

// Plaintext password bounds. bcrypt refuses input over 72 bytes.
const (
	MinPasswordLen = 8
	MaxPasswordLen = 72
)

// JobPublisher puts a JSON job on a queue.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}
