package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-ecommerce/config"
	app "github.com/oksasatya/go-ddd-ecommerce/internal/application"
	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	"github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/cache"
	"github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-ecommerce/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/helpers"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type nopPublisher struct{}

func (nopPublisher) PublishJSON(context.Context, any) error { return nil }

type memPictures struct{ uploaded []string }

func (m *memPictures) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.uploaded = append(m.uploaded, objectPath)
	return "https://cdn.example/" + objectPath, nil
}

type harness struct {
	r        *gin.Engine
	users    *memory.UserRepository
	orders   *memory.OrderRepository
	products *memory.ProductRepository
	creds    *app.CredentialService
	svc      *app.Service
	catalog  *app.CatalogService
	pictures *memPictures
	mr       *miniredis.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	logger, _ := test.NewNullLogger()

	users := memory.NewUserRepository()
	orders := memory.NewOrderRepository(users)
	products := memory.NewProductRepository()
	creds := app.NewCredentialService(users, 5)
	gate := app.NewAuthorizationGate(users)
	jwt := helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour)
	pictures := &memPictures{}

	svc := &app.Service{
		Users:       users,
		Orders:      orders,
		Credentials: creds,
		Gate:        gate,
		JWT:         jwt,
		Redis:       rdb,
		Publisher:   nopPublisher{},
		Cfg:         &config.Config{ResetPasswordURL: "https://shop.example/reset", MailSendEnabled: true},
		Logger:      logger,
	}
	catalog := app.NewCatalogService(products, gate, cache.NewRedisCatalogCache(rdb, time.Minute), nil, pictures, logger)
	cart := app.NewCartService(users, logger, 5)

	uh := NewUserHandler(svc, logger, "", false)
	ah := NewAuthHandler(svc, logger, true)
	ph := NewProductHandler(catalog, logger)
	ch := NewCartHandler(cart, logger)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	api := r.Group("/api")
	api.POST("/users/signup", uh.Signup)
	api.POST("/users/login", uh.Login)
	api.POST("/refresh", uh.Refresh)
	api.POST("/auth/reset/init", ah.ResetInit)
	api.POST("/auth/reset/confirm", ah.ResetConfirm)

	auth := api.Group("/", middleware.Auth(rdb, jwt))
	auth.POST("/logout", uh.Logout)
	auth.GET("/profile", uh.GetProfile)
	auth.PUT("/profile", uh.UpdateProfile)
	auth.PUT("/profile/password", uh.ChangePassword)
	auth.DELETE("/profile", uh.DeleteAccount)
	auth.GET("/profile/orders", uh.Orders)
	auth.GET("/users", uh.ListUsers)

	api.GET("/products", ph.List)
	api.POST("/products", ph.Create)
	api.GET("/products/search", ph.Search)
	api.GET("/products/category/:category", ph.ListByCategory)
	api.GET("/products/:id", ph.Get)
	api.PATCH("/products/:id", ph.Update)
	api.DELETE("/products/:id", ph.Delete)
	api.POST("/products/:id/pictures", ph.AddPicture)
	api.POST("/products/add-to-cart", ch.AddToCart())
	api.POST("/products/increase-cart", ch.IncreaseCart())
	api.POST("/products/decrease-cart", ch.DecreaseCart())
	api.POST("/products/remove-from-cart", ch.RemoveFromCart())

	return &harness{
		r: r, users: users, orders: orders, products: products, creds: creds,
		svc: svc, catalog: catalog, pictures: pictures, mr: mr,
	}
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func (h *harness) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (h *harness) register(t *testing.T, email string, admin bool) *entity.User {
	t.Helper()
	u, err := h.creds.Register(context.Background(), "User", email, "password123", admin)
	require.NoError(t, err)
	return u
}

func (h *harness) product(t *testing.T, name, category, price string) *entity.Product {
	t.Helper()
	p := &entity.Product{Name: name, Category: category, Price: decimal.RequireFromString(price)}
	require.NoError(t, h.products.Create(context.Background(), p))
	return p
}

// login returns the cookies set by a successful login.
func (h *harness) login(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()
	w, _ := h.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return w.Result().Cookies()
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
