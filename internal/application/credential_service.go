package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/helpers"
)

// CredentialService owns password hashing and verification.
// Plaintext passwords never leave this type; only bcrypt hashes are stored.
type CredentialService struct {
	Users      repo.UserRepository
	MaxRetries int
}

func NewCredentialService(users repo.UserRepository, maxRetries int) *CredentialService {
	return &CredentialService{Users: users, MaxRetries: maxRetries}
}

func hashInto(u *entity.User, plain string) error {
	if len(plain) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	if len(plain) > MaxPasswordLen {
		return ErrPasswordTooLong
	}
	hash, err := helpers.HashPassword(plain)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	return nil
}

// Register creates a user whose password is stored hashed.
func (s *CredentialService) Register(ctx context.Context, name, email, password string, admin bool) (*entity.User, error) {
	u, err := entity.NewUser(name, email)
	if err != nil {
		return nil, err
	}
	u.IsAdmin = admin
	if err := hashInto(u, password); err != nil {
		return nil, err
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Verify returns the user owning email when password matches its hash.
// An unknown email and a wrong password fail with the same ErrInvalidCredentials
// and take comparable time.
func (s *CredentialService) Verify(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			helpers.BurnCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *CredentialService) ChangePassword(ctx context.Context, userID, current, next string) (*entity.User, error) {
	return s.rewrite(ctx, userID, func(u *entity.User) error {
		if !helpers.CompareHashAndPassword(u.PasswordHash, current) {
			return ErrInvalidCredentials
		}
		return hashInto(u, next)
	})
}

// SetPassword replaces the password without the current one, as the reset flow does.
func (s *CredentialService) SetPassword(ctx context.Context, userID, next string) (*entity.User, error) {
	return s.rewrite(ctx, userID, func(u *entity.User) error {
		return hashInto(u, next)
	})
}

func (s *CredentialService) rewrite(ctx context.Context, userID string, mutate func(*entity.User) error) (*entity.User, error) {
	var out *entity.User
	err := retryOnConflict(s.MaxRetries, func() error {
		u, err := s.Users.GetByID(ctx, userID)
		if err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		if err := mutate(u); err != nil {
			return err
		}
		if err := s.Users.Update(ctx, u); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		out = u
		return nil
	})
	return out, err
}
