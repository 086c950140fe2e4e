package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
)

const productColumns = `id::text, name, description, price::text, category, pictures, created_at, updated_at`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	p := &entity.Product{}
	var price string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.Pictures,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product %s has invalid price %q: %w", p.ID, price, err)
	}
	p.Price = d
	if p.Pictures == nil {
		p.Pictures = []string{}
	}
	return p, nil
}

func (r *ProductRepository) query(ctx context.Context, sql string, args ...any) ([]*entity.Product, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return out, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*entity.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

func (r *ProductRepository) ListByCategory(ctx context.Context, category string, limit int) ([]*entity.Product, error) {
	if limit <= 0 {
		return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY created_at DESC`, category)
	}
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY created_at DESC LIMIT $2`, category, limit)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	if p.Pictures == nil {
		p.Pictures = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, description, price, category, pictures)
		VALUES ($1, $2, $3::numeric, $4, $5)
		RETURNING id::text, created_at, updated_at
	`, p.Name, p.Description, p.Price.String(), p.Category, p.Pictures)

	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	if _, err := uuid.Parse(p.ID); err != nil {
		return repository.ErrNotFound
	}
	if p.Pictures == nil {
		p.Pictures = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3::numeric, category = $4, pictures = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`, p.Name, p.Description, p.Price.String(), p.Category, p.Pictures, p.ID)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *ProductRepository) AddPicture(ctx context.Context, id, url string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE products SET pictures = array_append(pictures, $1), updated_at = now() WHERE id = $2
	`, url, id)
	if err != nil {
		return fmt.Errorf("failed to add picture: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.ProductRepository = (*ProductRepository)(nil)
