package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-ecommerce/config"
	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/helpers"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-ecommerce/pkg/mailer/templates"
)

const (
	sessionTTL    = 24 * time.Hour
	resetTokenTTL = 30 * time.Minute
)

type Service struct {
	Users       repo.UserRepository
	Orders      repo.OrderRepository
	Credentials *CredentialService
	Gate        *AuthorizationGate
	JWT         *helpers.JWTManager
	Redis       *redis.Client
	Publisher   JobPublisher
	Geo         mailtpl.GeoResolver
	Cfg         *config.Config
	Logger      *logrus.Logger
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// RequestMeta describes the client behind a request, for outgoing emails.
type RequestMeta struct {
	IP        string
	UserAgent string
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *Service) logWarn(err error, msg string, fields logrus.Fields) {
	if s.Logger != nil && err != nil {
		s.Logger.WithError(err).WithFields(fields).Warn(msg)
	}
}

// publish enqueues an email job. Delivery is best effort: failures are logged.
func (s *Service) publish(ctx context.Context, job mailer.EmailJob) {
	if s.Publisher == nil || s.Cfg == nil || !s.Cfg.MailSendEnabled {
		return
	}
	if err := s.Publisher.PublishJSON(ctx, job); err != nil {
		s.logWarn(err, "publish email job failed", logrus.Fields{"template": job.Template, "user_id": job.UserID})
	}
}

// Signup registers a regular user and queues the welcome email.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*entity.User, error) {
	u, err := s.Credentials.Register(ctx, name, email, password, false)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		UserID:   u.ID,
		Template: mailtpl.Welcome,
		Data:     mailtpl.NewWelcomeData(s.Cfg, u.Name, u.Email, mailtpl.WithTime(time.Now())),
	})
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := helpers.KeySession(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"is_admin":   u.IsAdmin,
			"sid":        sid,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, sessionTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return TokenPair{}, err
		}
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Login verifies the credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Credentials.Verify(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates the session behind a valid refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Redis != nil {
		sid, err := s.Redis.HGet(ctx, helpers.KeySession(u.ID), "sid").Result()
		if err != nil || sid != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID, nil
}

// Logout ends the session of userID.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, helpers.KeySession(userID)).Err()
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return u, nil
}

// UpdateProfile renames the user and refreshes the cached session name.
func (s *Service) UpdateProfile(ctx context.Context, userID, name string) (*entity.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, entity.ErrNameRequired
	}
	var out *entity.User
	err := retryOnConflict(s.Credentials.MaxRetries, func() error {
		u, err := s.Users.GetByID(ctx, userID)
		if err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		u.Name = name
		if err := s.Users.Update(ctx, u); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		key := helpers.KeySession(out.ID)
		if n, _ := s.Redis.Exists(ctx, key).Result(); n > 0 {
			err := s.Redis.HSet(ctx, key, map[string]any{"name": out.Name, "updated_at": nowRFC3339()}).Err()
			s.logWarn(err, "session update failed", logrus.Fields{"key": key})
		}
	}
	return out, nil
}

// ChangePassword replaces the password and notifies the owner by email.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string, meta RequestMeta) error {
	u, err := s.Credentials.ChangePassword(ctx, userID, current, next)
	if err != nil {
		return err
	}
	s.notifyPasswordChanged(ctx, u, meta)
	return nil
}

func (s *Service) notifyPasswordChanged(ctx context.Context, u *entity.User, meta RequestMeta) {
	s.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		UserID:   u.ID,
		Template: mailtpl.PasswordChanged,
		Data: mailtpl.NewPasswordChangedData(s.Cfg, u.Name, u.Email,
			mailtpl.WithTime(time.Now()),
			mailtpl.WithIP(meta.IP),
			mailtpl.WithUserAgent(meta.UserAgent),
		),
	})
}

// DeleteAccount removes the user, its orders and its session.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.Users.Delete(ctx, userID); err != nil {
		return notFoundAs(err, ErrUserNotFound)
	}
	n, err := s.Orders.DeleteByOwner(ctx, userID)
	if err != nil {
		return err
	}
	if s.Logger != nil {
		helpers.LogInfo(s.Logger, "account deleted", logrus.Fields{"user_id": userID, "orders": n})
	}
	if err := s.Logout(ctx, userID); err != nil {
		s.logWarn(err, "session delete failed", logrus.Fields{"user_id": userID})
	}
	return nil
}

func (s *Service) ListOrders(ctx context.Context, userID string) ([]*entity.Order, error) {
	return s.Orders.ListByOwner(ctx, userID)
}

// ListUsers returns every user to an admin actor.
func (s *Service) ListUsers(ctx context.Context, actorID string) ([]*entity.User, error) {
	if err := s.Gate.AuthorizeDestructive(ctx, actorID); err != nil {
		return nil, err
	}
	return s.Users.List(ctx)
}

// RequestPasswordReset issues a reset token for email and queues the reset
// email. An unknown email is not an error, so callers cannot enumerate accounts;
// the returned link is empty in that case.
func (s *Service) RequestPasswordReset(ctx context.Context, email string, meta RequestMeta) (string, error) {
	if s.Redis == nil {
		return "", ErrResetUnavailable
	}
	u, err := s.Users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	tok, err := helpers.RandomToken(32)
	if err != nil {
		return "", err
	}
	if err := s.Redis.Set(ctx, helpers.KeyResetToken(tok), u.ID, resetTokenTTL).Err(); err != nil {
		return "", err
	}
	link := s.Cfg.ResetPasswordURL + "?token=" + tok

	s.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		UserID:   u.ID,
		Template: mailtpl.ForgotPassword,
		Data: mailtpl.NewForgotPasswordData(s.Cfg, u.Name, u.Email, link, resetTokenTTL,
			mailtpl.WithTime(time.Now()),
			mailtpl.WithIP(meta.IP),
			mailtpl.WithUserAgent(meta.UserAgent),
			mailtpl.WithGeoFromIP(ctx, s.Geo, meta.IP),
		),
	})
	return link, nil
}

// ConfirmPasswordReset consumes token and stores the new password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, password string, meta RequestMeta) error {
	if s.Redis == nil {
		return ErrResetUnavailable
	}
	key := helpers.KeyResetToken(token)
	uid, err := s.Redis.Get(ctx, key).Result()
	if err != nil || uid == "" {
		return ErrInvalidResetToken
	}
	u, err := s.Credentials.SetPassword(ctx, uid, password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if err := s.Redis.Del(ctx, key).Err(); err != nil {
		s.logWarn(err, "reset token delete failed", nil)
	}
	s.notifyPasswordChanged(ctx, u, meta)
	return nil
}
