// Package memory holds process-local repositories with the same contracts as
// the Mongo and Postgres ones. They back DATA_STORE=memory and the tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
)

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byID: map[string]*entity.User{}, byEmail: map[string]string{}}
}

func copyUser(u *entity.User) *entity.User {
	c := *u
	c.Cart = u.Cart.Clone()
	c.Notifications = append([]entity.Notification{}, u.Notifications...)
	c.Orders = append([]string{}, u.Orders...)
	return &c
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Version = 1
	u.ID = primitive.NewObjectID().Hex()
	r.byID[u.ID] = copyUser(u)
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(r.byID[id]), nil
}

func (r *UserRepository) List(_ context.Context) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Version != u.Version {
		return repository.ErrVersionConflict
	}
	if owner, taken := r.byEmail[u.Email]; taken && owner != u.ID {
		return repository.ErrDuplicate
	}
	delete(r.byEmail, cur.Email)
	r.byEmail[u.Email] = u.ID

	cur.Name = u.Name
	cur.Email = u.Email
	cur.PasswordHash = u.PasswordHash
	cur.IsAdmin = u.IsAdmin
	cur.UpdatedAt = time.Now().UTC()
	cur.Version++

	u.Version = cur.Version
	u.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *UserRepository) SaveCart(_ context.Context, id string, expectedVersion int64, cart entity.Cart) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}
	cur.Cart = cart.Clone()
	cur.UpdatedAt = time.Now().UTC()
	cur.Version++
	return copyUser(cur), nil
}

func (r *UserRepository) PushNotification(_ context.Context, id string, n entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Notifications = append(cur.Notifications, n)
	cur.UpdatedAt = time.Now().UTC()
	cur.Version++
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byEmail, cur.Email)
	delete(r.byID, id)
	return nil
}

// linkOrder appends an order id to its owner, as the Mongo order repository does.
func (r *UserRepository) linkOrder(owner, orderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[owner]
	if !ok {
		return false
	}
	cur.Orders = append(cur.Orders, orderID)
	cur.Version++
	return true
}

var _ repository.UserRepository = (*UserRepository)(nil)
