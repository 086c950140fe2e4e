package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/helpers"
)

func TestSignupAndLogin(t *testing.T) {
	h := newHarness(t)

	w, env := h.do(t, http.MethodPost, "/api/users/signup", map[string]string{
		"name": "Alice", "email": "Alice@Example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, string(env.Data), "password")

	w, env = h.do(t, http.MethodPost, "/api/users/signup", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email already registered", env.Message)

	w, env = h.do(t, http.MethodPost, "/api/users/signup", map[string]string{
		"name": "Bob", "email": "not-an-email", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(env.Error), "email")
	assert.Contains(t, string(env.Error), "password")

	w, _ = h.do(t, http.MethodPost, "/api/users/signup", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": strings.Repeat("p", 73),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 40 characters but 80 bytes: past the binding check, refused before hashing
	w, env = h.do(t, http.MethodPost, "/api/users/signup", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": strings.Repeat("é", 40),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "password must be at most 72 bytes", env.Message)

	cookies := h.login(t, "alice@example.com", "password123")
	assert.NotNil(t, cookieNamed(cookies, helpers.AccessCookie))
	assert.NotNil(t, cookieNamed(cookies, helpers.RefreshCookie))
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", false)

	w1, env1 := h.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "alice@example.com", "password": "wrong-password"})
	w2, env2 := h.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "ghost@example.com", "password": "password123"})

	assert.Equal(t, http.StatusUnauthorized, w1.Code)
	assert.Equal(t, w1.Code, w2.Code)
	assert.Equal(t, env1.Message, env2.Message)
	assert.Equal(t, "invalid credentials", env1.Message)
}

func TestProfileLifecycle(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "alice@example.com", false)
	cookies := h.login(t, "alice@example.com", "password123")

	w, _ := h.do(t, http.MethodGet, "/api/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := h.do(t, http.MethodGet, "/api/profile", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, u.ID, decodeData[userView](t, env).ID)

	w, env = h.do(t, http.MethodPut, "/api/profile", map[string]string{"name": "Alice L"}, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Alice L")

	w, _ = h.do(t, http.MethodPut, "/api/profile/password", map[string]string{"old_password": "bad-password", "new_password": "newpassword1"}, cookies...)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = h.do(t, http.MethodPut, "/api/profile/password", map[string]string{"old_password": "password123", "new_password": "password123"}, cookies...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = h.do(t, http.MethodPut, "/api/profile/password", map[string]string{"old_password": "password123", "new_password": "newpassword1"}, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	h.login(t, "alice@example.com", "newpassword1")
}

func TestRefreshAndLogout(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", false)
	first := h.login(t, "alice@example.com", "password123")

	w, _ := h.do(t, http.MethodPost, "/api/refresh", nil, cookieNamed(first, helpers.RefreshCookie))
	require.Equal(t, http.StatusOK, w.Code)
	second := w.Result().Cookies()

	w, _ = h.do(t, http.MethodGet, "/api/profile", nil, cookieNamed(first, helpers.AccessCookie))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "rotated session must reject the old access token")

	w, _ = h.do(t, http.MethodPost, "/api/logout", nil, second...)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(t, http.MethodGet, "/api/profile", nil, second...)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = h.do(t, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteAccount_RemovesOrders(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "alice@example.com", false)
	cart := entity.NewCart()
	require.NoError(t, h.orders.Create(context.Background(), entity.NewOrderFromCart(u.ID, cart, "1 Main St")))
	cookies := h.login(t, "alice@example.com", "password123")

	w, env := h.do(t, http.MethodGet, "/api/profile/orders", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]map[string]any](t, env), 1)

	w, _ = h.do(t, http.MethodDelete, "/api/profile", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := h.users.GetByID(context.Background(), u.ID)
	assert.Error(t, err)
	orders, err := h.orders.ListByOwner(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.False(t, h.mr.Exists(helpers.KeySession(u.ID)))
}

func TestListUsers_AdminOnly(t *testing.T) {
	h := newHarness(t)
	h.register(t, "admin@example.com", true)
	h.register(t, "shopper@example.com", false)

	w, _ := h.do(t, http.MethodGet, "/api/users", nil, h.login(t, "shopper@example.com", "password123")...)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := h.do(t, http.MethodGet, "/api/users", nil, h.login(t, "admin@example.com", "password123")...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]userView](t, env), 2)
}

func TestPasswordReset(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice@example.com", false)

	w, env := h.do(t, http.MethodPost, "/api/auth/reset/init", map[string]string{"email": "ghost@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "reset_link")

	w, env = h.do(t, http.MethodPost, "/api/auth/reset/init", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	link := decodeData[map[string]any](t, env)["reset_link"].(string)
	token := link[strings.Index(link, "token=")+len("token="):]

	w, env = h.do(t, http.MethodPost, "/api/auth/reset/confirm", map[string]string{"token": "bogus", "new_password": "resetpass1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid or expired token", env.Message)

	w, _ = h.do(t, http.MethodPost, "/api/auth/reset/confirm", map[string]string{"token": token, "new_password": "resetpass1"})
	require.Equal(t, http.StatusOK, w.Code)
	h.login(t, "alice@example.com", "resetpass1")
}
