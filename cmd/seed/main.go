package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-ecommerce/config"
	app "github.com/oksasatya/go-ddd-ecommerce/internal/application"
	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	mongoinfra "github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/helpers"
)

var sampleProducts = []entity.Product{
	{Name: "Desk Lamp", Description: "Adjustable LED desk lamp", Price: decimal.RequireFromString("19.90"), Category: "home"},
	{Name: "Wool Rug", Description: "Hand woven 160x230 rug", Price: decimal.RequireFromString("129.00"), Category: "home"},
	{Name: "Coffee Mug", Description: "Stoneware mug, 350 ml", Price: decimal.RequireFromString("8.50"), Category: "kitchen"},
	{Name: "Chef Knife", Description: "20 cm stainless steel", Price: decimal.RequireFromString("54.00"), Category: "kitchen"},
	{Name: "Running Shoes", Description: "Lightweight road shoes", Price: decimal.RequireFromString("89.99"), Category: "sport"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	if cfg.InMemory() {
		logger.Fatal("DATA_STORE=memory has nothing to seed; point the seeder at mongo and postgres")
	}

	db, err := mongoinfra.Connect(ctx, cfg.MongoURI, cfg.MongoDBName, cfg.MongoMaxPool, cfg.MongoTimeout)
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()

	users := mongoinfra.NewUserRepository(db)
	orders := mongoinfra.NewOrderRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to create user indexes: %v", err)
	}
	if err := orders.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to create order indexes: %v", err)
	}

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2, MinConns: 1, MaxConnLife: cfg.DBMaxConnLife})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	products := pginfra.NewProductRepository(pool)

	creds := app.NewCredentialService(users, cfg.CartMaxRetries)
	email := getenv("SEED_ADMIN_EMAIL", "admin@example.com")
	password := getenv("SEED_ADMIN_PASSWORD", "password123")

	admin, err := creds.Register(ctx, "Shop Admin", email, password, true)
	switch {
	case errors.Is(err, app.ErrEmailTaken):
		admin, err = users.GetByEmail(ctx, entity.NormalizeEmail(email))
		if err != nil {
			log.Fatalf("failed to load admin: %v", err)
		}
		logger.WithField("email", email).Info("admin already seeded")
	case err != nil:
		log.Fatalf("failed to seed admin: %v", err)
	default:
		logger.WithFields(logrus.Fields{"id": admin.ID, "email": email}).Info("seeded admin")
	}

	existing, err := products.List(ctx)
	if err != nil {
		log.Fatalf("failed to list products: %v", err)
	}
	if len(existing) == 0 {
		for i := range sampleProducts {
			p := sampleProducts[i]
			if err := products.Create(ctx, &p); err != nil {
				log.Fatalf("failed to seed product %q: %v", p.Name, err)
			}
			existing = append(existing, &p)
		}
		logger.WithField("count", len(sampleProducts)).Info("seeded products")
	}

	if len(admin.Orders) == 0 && len(existing) > 0 {
		cart := entity.NewCart()
		for _, p := range existing[:min(2, len(existing))] {
			if err := cart.AddItem(p.ID, p.Price); err != nil {
				log.Fatalf("failed to build sample cart: %v", err)
			}
		}
		order := entity.NewOrderFromCart(admin.ID, cart, "1 Sample Street")
		if err := orders.Create(ctx, order); err != nil {
			log.Fatalf("failed to seed order: %v", err)
		}
		logger.WithFields(logrus.Fields{"order_id": order.ID, "total": order.Total.String()}).Info("seeded sample order")
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
