package products

import (
	"errors"
	"time"

	"github.com/bookapi/book-api/internal/shared"
)

// ErrNotFound indicates that the product does not exist.
var ErrNotFound = errors.New("products: not found")

// MaxBulkSize caps the number of products accepted by one bulk create.
const MaxBulkSize = 100

// Product is an item of the catalogue.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedBy   *string   `json:"created_by"`
	Creator     *Creator  `json:"creator,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Creator is the public view of the user who created a product.
type Creator struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateInput is the payload for creating a product. Price and stock are
// pointers so an explicit zero is distinguishable from a missing field.
type CreateInput struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string  `json:"description" validate:"omitnil,min=1"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	Stock       *int     `json:"stock" validate:"omitnil,gte=0"`
}

// IsEmpty reports whether the update carries no field.
func (in UpdateInput) IsEmpty() bool {
	return in.Name == nil && in.Description == nil && in.Price == nil && in.Stock == nil
}

// NewProduct holds a validated product ready to be stored.
type NewProduct struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Stock       int
	CreatedBy   string
}

// ListResult is one page of products.
type ListResult struct {
	Products []Product        `json:"products"`
	Meta     shared.Pagination `json:"meta"`
}

// BulkResult reports a bulk create.
type BulkResult struct {
	Count    int       `json:"count"`
	Products []Product `json:"products"`
	Message  string    `json:"message"`
}
