package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
	"github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// conflictingUsers fails the first n cart writes with a version conflict.
type conflictingUsers struct {
	*memory.UserRepository
	remaining atomic.Int32
	writes    atomic.Int32
}

func (c *conflictingUsers) SaveCart(ctx context.Context, id string, v int64, cart entity.Cart) (*entity.User, error) {
	c.writes.Add(1)
	if c.remaining.Add(-1) >= 0 {
		return nil, repo.ErrVersionConflict
	}
	return c.UserRepository.SaveCart(ctx, id, v, cart)
}

func newCartFixture(t *testing.T) (*CartService, *memory.UserRepository, *entity.User) {
	t.Helper()
	users := memory.NewUserRepository()
	u, err := entity.NewUser("Alice", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), u))
	return NewCartService(users, quietLogger(), 5), users, u
}

func TestCart_AddAddRemoveScenario(t *testing.T) {
	svc, _, u := newCartFixture(t)
	ctx := context.Background()

	got, err := svc.AddItem(ctx, u.ID, "A", d("10"))
	require.NoError(t, err)
	assert.True(t, got.Cart.Total.Equal(d("10")))
	assert.Equal(t, 1, got.Cart.Count)
	assert.Equal(t, map[string]int{"A": 1}, got.Cart.Items)

	got, err = svc.AddItem(ctx, u.ID, "A", d("10"))
	require.NoError(t, err)
	assert.True(t, got.Cart.Total.Equal(d("20")))
	assert.Equal(t, 2, got.Cart.Count)
	assert.Equal(t, 2, got.Cart.Items["A"])

	got, err = svc.RemoveItem(ctx, u.ID, "A", d("10"))
	require.NoError(t, err)
	assert.True(t, got.Cart.Total.IsZero())
	assert.Equal(t, 0, got.Cart.Count)
	assert.NotContains(t, got.Cart.Items, "A")
}

func TestCart_IncreaseDecrease(t *testing.T) {
	svc, _, u := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.IncreaseItem(ctx, u.ID, "A", d("1.5"))
	assert.ErrorIs(t, err, entity.ErrItemNotInCart)

	_, err = svc.AddItem(ctx, u.ID, "A", d("1.5"))
	require.NoError(t, err)
	got, err := svc.IncreaseItem(ctx, u.ID, "A", d("1.5"))
	require.NoError(t, err)
	assert.Equal(t, 2, got.Cart.Items["A"])
	assert.True(t, got.Cart.Total.Equal(d("3")))

	got, err = svc.DecreaseItem(ctx, u.ID, "A", d("1.5"))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Cart.Count)

	got, err = svc.DecreaseItem(ctx, u.ID, "A", d("1.5"))
	require.NoError(t, err)
	assert.Empty(t, got.Cart.Items)

	_, err = svc.DecreaseItem(ctx, u.ID, "A", d("1.5"))
	assert.ErrorIs(t, err, entity.ErrItemNotInCart)
}

func TestCart_FailedTransitionWritesNothing(t *testing.T) {
	svc, users, u := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, u.ID, "A", d("5"))
	require.NoError(t, err)
	before, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, u.ID, "B", d("5"))
	assert.ErrorIs(t, err, entity.ErrItemNotInCart)
	_, err = svc.AddItem(ctx, u.ID, "A", d("-5"))
	assert.ErrorIs(t, err, entity.ErrInvalidPrice)
	_, err = svc.AddItem(ctx, u.ID, "a.b", d("5"))
	assert.ErrorIs(t, err, entity.ErrInvalidProductID)

	after, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Cart, after.Cart)
}

func TestCart_UnknownUser(t *testing.T) {
	svc, _, _ := newCartFixture(t)
	_, err := svc.AddItem(context.Background(), "nobody", "A", d("1"))
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetCart(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCart_RetriesOnConflict(t *testing.T) {
	_, users, u := newCartFixture(t)
	racy := &conflictingUsers{UserRepository: users}
	racy.remaining.Store(2)
	svc := NewCartService(racy, quietLogger(), 5)

	got, err := svc.AddItem(context.Background(), u.ID, "A", d("2"))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Cart.Count)
	assert.Equal(t, int32(3), racy.writes.Load())
}

func TestCart_GivesUpAfterMaxRetries(t *testing.T) {
	_, users, u := newCartFixture(t)
	racy := &conflictingUsers{UserRepository: users}
	racy.remaining.Store(100)
	svc := NewCartService(racy, quietLogger(), 3)

	_, err := svc.AddItem(context.Background(), u.ID, "A", d("2"))
	assert.ErrorIs(t, err, repo.ErrVersionConflict)
	assert.Equal(t, int32(3), racy.writes.Load())

	cart, err := svc.GetCart(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cart.Count)
}

func TestCart_ConcurrentAddsAreNotLost(t *testing.T) {
	users := memory.NewUserRepository()
	u, err := entity.NewUser("Alice", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), u))
	svc := NewCartService(users, quietLogger(), 10000)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), u.ID, "A", d("0.10"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	cart, err := svc.GetCart(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, n, cart.Count)
	assert.Equal(t, n, cart.Items["A"])
	assert.True(t, cart.Total.Equal(d("5")), "total = %s", cart.Total)
}
