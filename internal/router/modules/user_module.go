package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-ddd-ecommerce/internal/interface/http"
	"github.com/oksasatya/go-ddd-ecommerce/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/helpers"
)

// UserModule wires account handlers into routes
// Public: POST /api/users/signup, POST /api/users/login, POST /api/refresh
// Protected: POST /api/logout, GET|PUT|DELETE /api/profile, PUT /api/profile/password,
// GET /api/profile/orders, GET /api/users (admin)
type UserModule struct {
	Handler *handlers.UserHandler
	RDB     *redis.Client
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, RDB: rdb, JWT: jwt}
}

func (m *UserModule) Name() string { return "users" }

func (m *UserModule) Register(rg *gin.RouterGroup) {
	signupLimiter := middleware.RateLimit(m.RDB, 5, time.Minute, middleware.KeyByIP(), nil)
	loginLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/users/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/users/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.RDB, m.JWT))
	auth.Use(middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.PUT("/profile/password", m.Handler.ChangePassword)
		auth.DELETE("/profile", m.Handler.DeleteAccount)
		auth.GET("/profile/orders", m.Handler.Orders)
		auth.GET("/users", m.Handler.ListUsers)
	}
}
