package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	"github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/cache"
	"github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/memory"
)

type fakeSearcher struct {
	ids     []string
	err     error
	indexed []string
	deleted []string
}

func (f *fakeSearcher) Enabled() bool { return true }
func (f *fakeSearcher) Index(_ context.Context, p *entity.Product) error {
	f.indexed = append(f.indexed, p.ID)
	return nil
}
func (f *fakeSearcher) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeSearcher) Search(context.Context, string, int) ([]string, error) { return f.ids, f.err }

type fakePictures struct {
	paths []string
	body  string
}

func (f *fakePictures) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.body = string(b)
	f.paths = append(f.paths, objectPath)
	return "https://cdn.example/" + objectPath, nil
}

type catalogFixture struct {
	*fixture
	products *memory.ProductRepository
	catalog  *CatalogService
	search   *fakeSearcher
	pictures *fakePictures
	cacheMR  *miniredis.Miniredis
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	f := newFixture(t)
	products := memory.NewProductRepository()
	search := &fakeSearcher{}
	pictures := &fakePictures{}
	c := cache.NewRedisCatalogCache(redis.NewClient(&redis.Options{Addr: f.mr.Addr()}), time.Minute)
	catalog := NewCatalogService(products, f.gate, c, search, pictures, quietLogger())
	return &catalogFixture{fixture: f, products: products, catalog: catalog, search: search, pictures: pictures, cacheMR: f.mr}
}

func (f *catalogFixture) add(t *testing.T, name, category, price string) *entity.Product {
	t.Helper()
	p := &entity.Product{Name: name, Category: category, Price: d(price)}
	require.NoError(t, f.products.Create(context.Background(), p))
	time.Sleep(time.Millisecond)
	return p
}

func TestCatalog_CreateReturnsListAndInvalidates(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	list, err := f.catalog.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, f.cacheMR.Exists("catalog:all"))

	list, err = f.catalog.Create(ctx, ProductInput{Name: "Lamp", Category: "home", Price: d("19.99")})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Lamp", list[0].Name)
	assert.Len(t, f.search.indexed, 1)

	_, err = f.catalog.Create(ctx, ProductInput{Name: "Bad", Category: "home", Price: d("-1")})
	assert.ErrorIs(t, err, entity.ErrInvalidPrice)
	_, err = f.catalog.Create(ctx, ProductInput{Category: "home", Price: d("1")})
	assert.ErrorIs(t, err, entity.ErrProductNameRequired)
}

func TestCatalog_ServesFromCache(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	f.add(t, "Lamp", "home", "20")

	list, err := f.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// Written behind the service's back, so only visible once the cache is dropped.
	f.add(t, "Rug", "home", "80")
	list, err = f.catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	f.cacheMR.FlushAll()
	list, err = f.catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCatalog_ListByCategory(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	f.add(t, "Lamp", "home", "20")
	f.add(t, "Mug", "kitchen", "5")
	f.add(t, "Rug", "home", "80")

	home, err := f.catalog.ListByCategory(ctx, "home")
	require.NoError(t, err)
	require.Len(t, home, 2)
	assert.Equal(t, "Rug", home[0].Name)

	all, err := f.catalog.ListByCategory(ctx, "all")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Rug", all[0].Name)
	assert.Equal(t, "Lamp", all[2].Name)
}

func TestCatalog_GetWithSimilar(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	target := f.add(t, "Target", "home", "1")
	for i := 0; i < 7; i++ {
		f.add(t, "Peer", "home", "1")
	}
	f.add(t, "Mug", "kitchen", "5")

	p, similar, err := f.catalog.Get(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, p.ID)
	assert.Len(t, similar, 5)
	for _, s := range similar {
		assert.NotEqual(t, target.ID, s.ID)
		assert.Equal(t, "home", s.Category)
	}

	_, _, err = f.catalog.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalog_Update(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	p := f.add(t, "Lamp", "home", "20")

	price := d("25.50")
	name := "Desk Lamp"
	got, err := f.catalog.Update(ctx, p.ID, ProductPatch{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", got.Name)
	assert.True(t, got.Price.Equal(price))
	assert.Equal(t, "home", got.Category)

	neg := d("-1")
	_, err = f.catalog.Update(ctx, p.ID, ProductPatch{Price: &neg})
	assert.ErrorIs(t, err, entity.ErrInvalidPrice)

	_, err = f.catalog.Update(ctx, "missing", ProductPatch{Name: &name})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalog_DeleteIsGated(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin@shop.io", true)
	shopper := f.register(t, "shopper@shop.io", false)
	p := f.add(t, "Lamp", "home", "20")
	keep := f.add(t, "Mug", "kitchen", "5")

	_, err := f.catalog.Delete(ctx, shopper.ID, p.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.catalog.Delete(ctx, "65f0c0ffee0000000000beef", p.ID)
	assert.ErrorIs(t, err, ErrActorNotFound)

	_, err = f.products.GetByID(ctx, p.ID)
	require.NoError(t, err, "denied delete must leave the product")

	list, err := f.catalog.Delete(ctx, admin.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
	assert.Equal(t, []string{p.ID}, f.search.deleted)

	_, err = f.catalog.Delete(ctx, admin.ID, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalog_SearchUsesIndex(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	lamp := f.add(t, "Lamp", "home", "20")
	rug := f.add(t, "Rug", "home", "80")
	f.search.ids = []string{rug.ID, "stale-id", lamp.ID}

	got, err := f.catalog.SearchProducts(ctx, "home", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rug.ID, got[0].ID)
	assert.Equal(t, lamp.ID, got[1].ID)
}

func TestCatalog_SearchFallsBackToScan(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	f.add(t, "Desk Lamp", "home", "20")
	f.add(t, "Mug", "kitchen", "5")
	f.search.err = errors.New("cluster down")

	got, err := f.catalog.SearchProducts(ctx, "LAMP", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Desk Lamp", got[0].Name)

	got, err = f.catalog.SearchProducts(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCatalog_AddPicture(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin@shop.io", true)
	shopper := f.register(t, "shopper@shop.io", false)
	p := f.add(t, "Lamp", "home", "20")

	_, err := f.catalog.AddPicture(ctx, shopper.ID, p.ID, strings.NewReader("img"), "a.png", "image/png")
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := f.catalog.AddPicture(ctx, admin.ID, p.ID, bytes.NewReader([]byte("png-bytes")), "Photo.PNG", "image/png")
	require.NoError(t, err)
	require.Len(t, got.Pictures, 1)
	assert.True(t, strings.HasPrefix(got.Pictures[0], "https://cdn.example/products/"+p.ID+"/"))
	assert.True(t, strings.HasSuffix(got.Pictures[0], ".png"))
	assert.Equal(t, "png-bytes", f.pictures.body)

	_, err = f.catalog.AddPicture(ctx, admin.ID, "missing", strings.NewReader("x"), "a.png", "image/png")
	assert.ErrorIs(t, err, ErrProductNotFound)

	f.catalog.Pictures = nil
	_, err = f.catalog.AddPicture(ctx, admin.ID, p.ID, strings.NewReader("x"), "a.png", "image/png")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

// gatedProducts holds List until release is closed, failing early if its
// context ends first.
type gatedProducts struct {
	*memory.ProductRepository
	started chan struct{}
	release chan struct{}
}

func (g *gatedProducts) List(ctx context.Context) ([]*entity.Product, error) {
	select {
	case g.started <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.ProductRepository.List(ctx)
}

func TestCatalog_CacheFillOutlivesCancelledCaller(t *testing.T) {
	f := newFixture(t)
	products := &gatedProducts{
		ProductRepository: memory.NewProductRepository(),
		started:           make(chan struct{}, 1),
		release:           make(chan struct{}),
	}
	require.NoError(t, products.Create(context.Background(), &entity.Product{Name: "Lamp", Category: "home", Price: d("20")}))
	c := cache.NewRedisCatalogCache(redis.NewClient(&redis.Options{Addr: f.mr.Addr()}), time.Minute)
	catalog := NewCatalogService(products, f.gate, c, nil, nil, quietLogger())

	first, cancel := context.WithCancel(context.Background())
	type result struct {
		list []*entity.Product
		err  error
	}
	firstDone := make(chan result, 1)
	go func() {
		list, err := catalog.List(first)
		firstDone <- result{list, err}
	}()
	<-products.started

	secondDone := make(chan result, 1)
	go func() {
		list, err := catalog.List(context.Background())
		secondDone <- result{list, err}
	}()

	cancel()
	time.Sleep(10 * time.Millisecond)
	close(products.release)

	for _, ch := range []chan result{firstDone, secondDone} {
		r := <-ch
		require.NoError(t, r.err)
		assert.Len(t, r.list, 1)
	}
	assert.True(t, f.mr.Exists("catalog:all"))
}
