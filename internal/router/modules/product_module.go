package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-ddd-ecommerce/internal/interface/http"
	"github.com/oksasatya/go-ddd-ecommerce/internal/interface/middleware"
)

// ProductModule serves the catalog and the cart routes under /api/products.
// Cart and destructive calls name their actor in the body, so they are not
// behind the session middleware.
type ProductModule struct {
	Products *handlers.ProductHandler
	Cart     *handlers.CartHandler
	RDB      *redis.Client
}

func NewProductModule(p *handlers.ProductHandler, c *handlers.CartHandler, rdb *redis.Client) *ProductModule {
	return &ProductModule{Products: p, Cart: c, RDB: rdb}
}

func (m *ProductModule) Name() string { return "products" }

func (m *ProductModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/products")
	g.Use(middleware.RateLimit(m.RDB, 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()))

	g.GET("", m.Products.List)
	g.POST("", m.Products.Create)
	g.GET("/search", m.Products.Search)
	g.GET("/category/:category", m.Products.ListByCategory)
	g.GET("/:id", m.Products.Get)
	g.PATCH("/:id", m.Products.Update)
	g.DELETE("/:id", m.Products.Delete)
	g.POST("/:id/pictures", m.Products.AddPicture)

	cartLimiter := middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByIPAndPath(), nil)
	g.POST("/add-to-cart", cartLimiter, m.Cart.AddToCart())
	g.POST("/increase-cart", cartLimiter, m.Cart.IncreaseCart())
	g.POST("/decrease-cart", cartLimiter, m.Cart.DecreaseCart())
	g.POST("/remove-from-cart", cartLimiter, m.Cart.RemoveFromCart())
}
