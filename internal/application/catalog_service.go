package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
	"github.com/oksasatya/go-ddd-ecommerce/internal/infrastructure/cache"
)

// CategoryAll lists every product when used as a category.
const CategoryAll = "all"

// similarLimit is how many same-category products accompany a product lookup.
const similarLimit = 5

// ProductSearcher is the full-text side of the catalog.
type ProductSearcher interface {
	Enabled() bool
	Index(ctx context.Context, p *entity.Product) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]string, error)
}

// PictureStore uploads product pictures and returns their public URL.
type PictureStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

type CatalogService struct {
	Products repo.ProductRepository
	Gate     *AuthorizationGate
	Cache    cache.CatalogCache
	Search   ProductSearcher
	Pictures PictureStore
	Logger   *logrus.Logger

	sfg singleflight.Group
}

func NewCatalogService(products repo.ProductRepository, gate *AuthorizationGate, c cache.CatalogCache, search ProductSearcher, pictures PictureStore, logger *logrus.Logger) *CatalogService {
	if c == nil {
		c = cache.NopCatalogCache{}
	}
	return &CatalogService{Products: products, Gate: gate, Cache: c, Search: search, Pictures: pictures, Logger: logger}
}

func (s *CatalogService) warn(err error, msg string, fields logrus.Fields) {
	if s.Logger != nil && err != nil {
		s.Logger.WithError(err).WithFields(fields).Warn(msg)
	}
}

// cached serves listing from the cache, loading it at most once at a time on a miss.
// The fill runs detached from ctx's cancellation, since other callers may be
// waiting on it.
func (s *CatalogService) cached(ctx context.Context, listing string, load func(context.Context) ([]*entity.Product, error)) ([]*entity.Product, error) {
	products, err := s.Cache.Get(ctx, listing)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.warn(err, "catalog cache read failed", logrus.Fields{"listing": listing})
	}

	v, err, _ := s.sfg.Do(listing, func() (any, error) {
		fillCtx := context.WithoutCancel(ctx)
		products, err := load(fillCtx)
		if err != nil {
			return nil, err
		}
		if err := s.Cache.Set(fillCtx, listing, products); err != nil {
			s.warn(err, "catalog cache write failed", logrus.Fields{"listing": listing})
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*entity.Product), nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.warn(err, "catalog cache invalidate failed", nil)
	}
}

func (s *CatalogService) reindex(ctx context.Context, p *entity.Product) {
	if s.Search == nil {
		return
	}
	if err := s.Search.Index(ctx, p); err != nil {
		s.warn(err, "product index failed", logrus.Fields{"product_id": p.ID})
	}
}

// List returns every product, newest first.
func (s *CatalogService) List(ctx context.Context) ([]*entity.Product, error) {
	return s.cached(ctx, CategoryAll, s.Products.List)
}

// ListByCategory returns the products of category, newest first; CategoryAll returns every product.
func (s *CatalogService) ListByCategory(ctx context.Context, category string) ([]*entity.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return s.List(ctx)
	}
	return s.cached(ctx, "category:"+category, func(ctx context.Context) ([]*entity.Product, error) {
		return s.Products.ListByCategory(ctx, category, 0)
	})
}

// Get returns the product with up to five others from its category.
func (s *CatalogService) Get(ctx context.Context, id string) (*entity.Product, []*entity.Product, error) {
	p, err := s.Products.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFoundAs(err, ErrProductNotFound)
	}
	peers, err := s.Products.ListByCategory(ctx, p.Category, similarLimit+1)
	if err != nil {
		return nil, nil, err
	}
	similar := make([]*entity.Product, 0, similarLimit)
	for _, q := range peers {
		if q.ID != p.ID && len(similar) < similarLimit {
			similar = append(similar, q)
		}
	}
	return p, similar, nil
}

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Pictures    []string
}

// Create adds a product and returns the whole catalog.
func (s *CatalogService) Create(ctx context.Context, in ProductInput) ([]*entity.Product, error) {
	p := &entity.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Pictures:    in.Pictures,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.reindex(ctx, p)
	return s.List(ctx)
}

// ProductPatch holds optional updates; nil fields are left unchanged.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
}

func (s *CatalogService) Update(ctx context.Context, id string, patch ProductPatch) (*entity.Product, error) {
	p, err := s.Products.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Products.Update(ctx, p); err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}
	s.invalidate(ctx)
	s.reindex(ctx, p)
	return p, nil
}

// Delete removes productID once actorID passes the authorization gate and
// returns the remaining catalog.
func (s *CatalogService) Delete(ctx context.Context, actorID, productID string) ([]*entity.Product, error) {
	if err := s.Gate.AuthorizeDestructive(ctx, actorID); err != nil {
		return nil, err
	}
	if err := s.Products.Delete(ctx, productID); err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}
	s.invalidate(ctx)
	if s.Search != nil {
		if err := s.Search.Delete(ctx, productID); err != nil {
			s.warn(err, "product unindex failed", logrus.Fields{"product_id": productID})
		}
	}
	return s.List(ctx)
}

// SearchProducts matches q against names, categories and descriptions. Without a
// search index it falls back to a case-insensitive substring scan.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, size int) ([]*entity.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []*entity.Product{}, nil
	}
	if s.Search != nil && s.Search.Enabled() {
		ids, err := s.Search.Search(ctx, q, size)
		if err == nil {
			out := make([]*entity.Product, 0, len(ids))
			for _, id := range ids {
				p, err := s.Products.GetByID(ctx, id)
				if errors.Is(err, repo.ErrNotFound) {
					continue
				}
				if err != nil {
					return nil, err
				}
				out = append(out, p)
			}
			return out, nil
		}
		s.warn(err, "product search failed, scanning catalog", logrus.Fields{"q": q})
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 10
	}
	needle := strings.ToLower(q)
	out := make([]*entity.Product, 0)
	for _, p := range all {
		hay := strings.ToLower(p.Name + " " + p.Category + " " + p.Description)
		if strings.Contains(hay, needle) {
			out = append(out, p)
			if len(out) == size {
				break
			}
		}
	}
	return out, nil
}

// AddPicture uploads a picture for productID on behalf of an admin actor.
func (s *CatalogService) AddPicture(ctx context.Context, actorID, productID string, r io.Reader, filename, contentType string) (*entity.Product, error) {
	if err := s.Gate.AuthorizeDestructive(ctx, actorID); err != nil {
		return nil, err
	}
	if s.Pictures == nil {
		return nil, ErrStorageUnavailable
	}
	if _, err := s.Products.GetByID(ctx, productID); err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}
	ext := strings.ToLower(path.Ext(filename))
	objectPath := path.Join("products", productID, uuid.NewString()+ext)
	url, err := s.Pictures.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("upload picture: %w", err)
	}
	if err := s.Products.AddPicture(ctx, productID, url); err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}
	s.invalidate(ctx)
	p, err := s.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFoundAs(err, ErrProductNotFound)
	}
	return p, nil
}
