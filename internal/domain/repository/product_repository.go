package repository

import (
	"context"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
)

// ProductRepository is the catalog store. Listings are newest first.
type ProductRepository interface {
	List(ctx context.Context) ([]*entity.Product, error)
	ListByCategory(ctx context.Context, category string, limit int) ([]*entity.Product, error)
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	Create(ctx context.Context, p *entity.Product) error
	Update(ctx context.Context, p *entity.Product) error
	AddPicture(ctx context.Context, id, url string) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository stores orders referenced from their owner's user document.
type OrderRepository interface {
	Create(ctx context.Context, o *entity.Order) error
	ListByOwner(ctx context.Context, owner string) ([]*entity.Order, error)
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}
