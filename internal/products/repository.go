package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookapi/book-api/internal/platform/db"
	"github.com/bookapi/book-api/internal/platform/httpx"
)

const productColumns = `p.id::text, p.name, p.description, p.price, p.stock, p.created_by::text,
    p.created_at, p.updated_at, u.username, u.email`

const insertProduct = `INSERT INTO products (id, name, description, price, stock, created_by)
VALUES ($1, $2, $3, $4, $5, $6)`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a product and returns it with its creator.
func (r *Repository) Create(ctx context.Context, p NewProduct) (Product, error) {
	if _, err := r.pool.Exec(ctx, insertProduct, p.ID, p.Name, p.Description, p.Price, p.Stock, p.CreatedBy); err != nil {
		return Product{}, mapWriteError(err, "A product with this name already exists")
	}
	return r.Get(ctx, p.ID)
}

// CreateMany inserts all products in one transaction. Either every product
// is stored or none is.
func (r *Repository) CreateMany(ctx context.Context, items []NewProduct) ([]Product, error) {
	var created []Product
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range items {
			batch.Queue(insertProduct+` RETURNING id::text, name, description, price, stock, created_by::text, created_at, updated_at`,
				p.ID, p.Name, p.Description, p.Price, p.Stock, p.CreatedBy)
		}
		results := tx.SendBatch(ctx, batch)
		created = make([]Product, 0, len(items))
		for range items {
			var p Product
			err := results.QueryRow().Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
			if err != nil {
				_ = results.Close()
				return mapWriteError(err, "One or more products already exist with the same unique identifier")
			}
			created = append(created, p)
		}
		return results.Close()
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// List returns a page of products ordered by creation time.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+`
FROM products p
LEFT JOIN users u ON u.id = p.created_by
ORDER BY p.created_at, p.id
OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Count returns the number of products.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("products: count: %w", err)
	}
	return total, nil
}

// Get fetches a product with its creator.
func (r *Repository) Get(ctx context.Context, id string) (Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+`
FROM products p
LEFT JOIN users u ON u.id = p.created_by
WHERE p.id = $1`, id)
	if err != nil {
		return Product{}, fmt.Errorf("products: get: %w", err)
	}
	product, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return product, err
}

// Update applies the non-nil fields.
func (r *Repository) Update(ctx context.Context, id string, in UpdateInput) (Product, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 5)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if in.Name != nil {
		add("name", *in.Name)
	}
	if in.Description != nil {
		add("description", *in.Description)
	}
	if in.Price != nil {
		add("price", *in.Price)
	}
	if in.Stock != nil {
		add("stock", *in.Stock)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, `UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return Product{}, mapWriteError(err, "A product with this name already exists")
	}
	if tag.RowsAffected() == 0 {
		return Product{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a product and returns its name.
func (r *Repository) Delete(ctx context.Context, id string) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `DELETE FROM products WHERE id = $1 RETURNING name`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("products: delete: %w", err)
	}
	return name, nil
}

func mapWriteError(err error, duplicate string) error {
	switch {
	case db.IsUniqueViolation(err):
		return httpx.Errorf(httpx.ErrDuplicate, "%s", duplicate)
	case db.IsForeignKeyViolation(err):
		return httpx.Errorf(httpx.ErrValidation, "Invalid user reference provided")
	default:
		return fmt.Errorf("products: write: %w", err)
	}
}

func scanProduct(row pgx.CollectableRow) (Product, error) {
	var (
		p        Product
		username *string
		email    *string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &username, &email)
	if err != nil {
		return Product{}, err
	}
	if p.CreatedBy != nil && username != nil && email != nil {
		p.Creator = &Creator{ID: *p.CreatedBy, Username: *username, Email: *email}
	}
	return p, nil
}
