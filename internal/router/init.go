package router

import (
	"context"

	app "github.com/oksasatya/go-ddd-ecommerce/internal/application"
	"github.com/oksasatya/go-ddd-ecommerce/internal/container"
	"github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/cache"
	"github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-ddd-ecommerce/internal/interface/http"
	"github.com/oksasatya/go-ddd-ecommerce/internal/router/modules"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/helpers"
	mailtpl "github.com/oksasatya/go-ddd-ecommerce/pkg/mailer/templates"
)

// Services groups the application services built from the container.
type Services struct {
	Users   *app.Service
	Catalog *app.CatalogService
	Cart    *app.CartService
}

func buildServices() Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	users := container.GetUsers()
	rdb := container.GetRedis()

	creds := app.NewCredentialService(users, cfg.CartMaxRetries)
	gate := app.NewAuthorizationGate(users)

	svc := &app.Service{
		Users:       users,
		Orders:      container.GetOrders(),
		Credentials: creds,
		Gate:        gate,
		JWT:         container.GetJWT(),
		Redis:       rdb,
		Geo:         mailtpl.IPAPIResolver{},
		Cfg:         cfg,
		Logger:      logger,
	}
	// assign only a live publisher so the interface never holds a typed nil
	if pub := container.GetRabbitPub(); pub != nil {
		svc.Publisher = pub
	}

	var catalogCache cache.CatalogCache = cache.NopCatalogCache{}
	if rdb != nil {
		catalogCache = cache.NewRedisCatalogCache(rdb, cfg.CatalogCacheTTL)
	}
	var searcher app.ProductSearcher
	if idx := search.NewProductIndex(container.GetES(), cfg.ESProductsIndex); idx != nil {
		searcher = idx
	}
	var pictures app.PictureStore
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		pictures = &helpers.GCSUploader{Client: gcs, Bucket: cfg.GCSBucket}
	}

	return Services{
		Users:   svc,
		Catalog: app.NewCatalogService(container.GetProducts(), gate, catalogCache, searcher, pictures, logger),
		Cart:    app.NewCartService(users, logger, cfg.CartMaxRetries),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rdb := container.GetRedis()
	jwt := container.GetJWT()
	svc := buildServices()

	r.Add(modules.NewUserModule(
		handlers.NewUserHandler(svc.Users, logger, cfg.CookieDomain, cfg.CookieSecure), rdb, jwt))
	r.Add(modules.NewAuthModule(
		handlers.NewAuthHandler(svc.Users, logger, cfg.Env == "development"), rdb))
	r.Add(modules.NewProductModule(
		handlers.NewProductHandler(svc.Catalog, logger), handlers.NewCartHandler(svc.Cart, logger), rdb))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
	addHealthChecks(r)
}

// addHealthChecks reports every store the container holds on GET /api/health.
func addHealthChecks(r *Registry) {
	if db := container.GetMongo(); db != nil {
		r.Check("mongo", func(ctx context.Context) error { return db.Client().Ping(ctx, nil) })
	}
	if pool := container.GetPGPool(); pool != nil {
		r.Check("postgres", pool.Ping)
	}
	if rdb := container.GetRedis(); rdb != nil {
		r.Check("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
}
