package helpers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-ddd-ecommerce/pkg/mailer"
)

func TestHashPassword_FixedCost(t *testing.T) {
	hash, err := HashPassword("secret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pass", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)

	assert.True(t, CompareHashAndPassword(hash, "secret-pass"))
	assert.False(t, CompareHashAndPassword(hash, "secret-pasS"))
	assert.False(t, CompareHashAndPassword("not-a-hash", "secret-pass"))
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestJWT_RoundTrip(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)

	access, aexp, err := m.GenerateAccessToken("u1", "s1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), aexp, 2*time.Second)

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)

	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err, "access token must not validate as refresh token")

	refresh, _, err := m.GenerateRefreshToken("u1", "s1")
	require.NoError(t, err)
	rc, err := m.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "s1", rc.SessionID)
}

func TestJWT_Expired(t *testing.T) {
	m := NewJWTManager("access", "refresh", -time.Minute, time.Hour)
	tok, _, err := m.GenerateAccessToken("u1", "s1")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(tok)
	assert.Error(t, err)
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	require.NoError(t, err)
	b, err := RandomToken(32)
	require.NoError(t, err)
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "pwd:reset:token:"+a, KeyResetToken(a))
	assert.Equal(t, "user:session:42", KeySession("42"))
}

func TestEnsureRecipientAndEmail(t *testing.T) {
	job := &mailer.EmailJob{To: "a@b.io"}
	EnsureRecipientAndEmail(job)
	assert.Equal(t, "a@b.io", job.Data["Email"])
	assert.Equal(t, "a@b.io", job.Data["RecipientEmail"])

	job = &mailer.EmailJob{To: "a@b.io", Data: map[string]any{"Email": "c@d.io"}}
	EnsureRecipientAndEmail(job)
	assert.Equal(t, "c@d.io", job.Data["Email"])
}

func TestPingRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedisClient(mr.Addr(), "", 0)
	defer func() { _ = rdb.Close() }()
	assert.NoError(t, PingRedis(context.Background(), rdb, time.Second))

	mr.Close()
	assert.Error(t, PingRedis(context.Background(), rdb, 200*time.Millisecond))
}

func TestNewESClient_PingsCluster(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"version":{"number":"8.19.0","build_flavor":"default"},"tagline":"You Know, for Search"}`)
	}))
	defer up.Close()
	es, err := NewESClient(context.Background(), ESOptions{Addresses: []string{up.URL}})
	require.NoError(t, err)
	assert.NotNil(t, es)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	_, err = NewESClient(context.Background(), ESOptions{Addresses: []string{down.URL}, PingTimeout: time.Second})
	assert.Error(t, err)

	_, err = NewESClient(context.Background(), ESOptions{})
	assert.Error(t, err)
}

func TestNewLogger_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("shop", "development", "").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("shop", "production", "").GetLevel())
	assert.Equal(t, logrus.WarnLevel, NewLogger("shop", "production", "warn").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("shop", "production", "loud").GetLevel())

	_, isJSON := NewLogger("shop", "production", "").Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}
