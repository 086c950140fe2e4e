package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-ecommerce/config"
	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	"github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/helpers"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/mailer"
)

type capturePublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (p *capturePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

func (p *capturePublisher) templates() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.jobs))
	for _, j := range p.jobs {
		out = append(out, j.Template)
	}
	return out
}

type fixture struct {
	users *memory.UserRepository
	creds *CredentialService
	gate  *AuthorizationGate
	svc   *Service
	pub   *capturePublisher
	mr    *miniredis.Miniredis
	rdb   *redis.Client
}

func quietLogger() *logrus.Logger {
	l, _ := test.NewNullLogger()
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := memory.NewUserRepository()
	orders := memory.NewOrderRepository(users)
	creds := NewCredentialService(users, 5)
	gate := NewAuthorizationGate(users)
	pub := &capturePublisher{}
	cfg := &config.Config{
		AppName:          "shop",
		ResetPasswordURL: "https://shop.example/reset",
		MailSendEnabled:  true,
	}
	svc := &Service{
		Users:       users,
		Orders:      orders,
		Credentials: creds,
		Gate:        gate,
		JWT:         helpers.NewJWTManager("a", "r", time.Minute, time.Hour),
		Redis:       rdb,
		Publisher:   pub,
		Cfg:         cfg,
		Logger:      quietLogger(),
	}
	return &fixture{users: users, creds: creds, gate: gate, svc: svc, pub: pub, mr: mr, rdb: rdb}
}

func (f *fixture) register(t *testing.T, email string, admin bool) *entity.User {
	t.Helper()
	u, err := f.creds.Register(context.Background(), "User "+email, email, "password123", admin)
	require.NoError(t, err)
	return u
}
