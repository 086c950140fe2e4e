package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
)

type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*entity.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: map[string]*entity.Product{}}
}

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	c.Pictures = append([]string{}, p.Pictures...)
	return &c
}

func (r *ProductRepository) sorted(keep func(*entity.Product) bool) []*entity.Product {
	out := make([]*entity.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep == nil || keep(p) {
			out = append(out, copyProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *ProductRepository) List(_ context.Context) ([]*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(nil), nil
}

func (r *ProductRepository) ListByCategory(_ context.Context, category string, limit int) ([]*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.sorted(func(p *entity.Product) bool { return p.Category == category })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyProduct(p), nil
}

func (r *ProductRepository) Create(_ context.Context, p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Pictures == nil {
		p.Pictures = []string{}
	}
	r.products[p.ID] = copyProduct(p)
	return nil
}

func (r *ProductRepository) Update(_ context.Context, p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.products[p.ID] = copyProduct(p)
	return nil
}

func (r *ProductRepository) AddPicture(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Pictures = append(cur.Pictures, url)
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

type OrderRepository struct {
	mu     sync.RWMutex
	users  *UserRepository
	orders map[string]*entity.Order
}

// NewOrderRepository links created orders into users, which must be the user store in use.
func NewOrderRepository(users *UserRepository) *OrderRepository {
	return &OrderRepository{users: users, orders: map[string]*entity.Order{}}
}

func (r *OrderRepository) Create(_ context.Context, o *entity.Order) error {
	id := primitive.NewObjectID().Hex()
	if !r.users.linkOrder(o.Owner, id) {
		return repository.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = id
	c := *o
	r.orders[id] = &c
	return nil
}

func (r *OrderRepository) ListByOwner(_ context.Context, owner string) ([]*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Order, 0)
	for _, o := range r.orders {
		if o.Owner == owner {
			c := *o
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *OrderRepository) DeleteByOwner(_ context.Context, owner string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, o := range r.orders {
		if o.Owner == owner {
			delete(r.orders, id)
			n++
		}
	}
	return n, nil
}

var (
	_ repository.ProductRepository = (*ProductRepository)(nil)
	_ repository.OrderRepository   = (*OrderRepository)(nil)
)
