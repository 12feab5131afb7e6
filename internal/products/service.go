package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bookapi/book-api/internal/platform/httpx"
	"github.com/bookapi/book-api/internal/shared"
)

// Store defines data access methods for products.
type Store interface {
	Create(ctx context.Context, p NewProduct) (Product, error)
	CreateMany(ctx context.Context, items []NewProduct) ([]Product, error)
	List(ctx context.Context, offset, limit int) ([]Product, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string) (Product, error)
	Update(ctx context.Context, id string, in UpdateInput) (Product, error)
	Delete(ctx context.Context, id string) (string, error)
}

// Service handles product business logic.
type Service struct {
	store    Store
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, validate: httpx.NewValidator(), logger: logger}
}

// Create stores a product owned by creatorID.
func (s *Service) Create(ctx context.Context, creatorID string, in CreateInput) (Product, error) {
	p, err := s.prepare(creatorID, in)
	if err != nil {
		return Product{}, err
	}
	product, err := s.store.Create(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.logger.Info("product created", slog.String("product_id", product.ID), slog.String("created_by", creatorID))
	return product, nil
}

// CreateMany stores up to MaxBulkSize products in one transaction.
func (s *Service) CreateMany(ctx context.Context, creatorID string, in []CreateInput) (BulkResult, error) {
	if len(in) == 0 {
		return BulkResult{}, httpx.Errorf(httpx.ErrValidation, "At least one product is required")
	}
	if len(in) > MaxBulkSize {
		return BulkResult{}, httpx.Errorf(httpx.ErrValidation, "Cannot create more than %d products at once", MaxBulkSize)
	}
	items := make([]NewProduct, 0, len(in))
	for i, item := range in {
		p, err := s.prepare(creatorID, item)
		if err != nil {
			var herr *httpx.Error
			if errors.As(err, &herr) && errors.Is(err, httpx.ErrValidation) {
				return BulkResult{}, httpx.Errorf(httpx.ErrValidation, "Product at index %d: %s", i, herr.Message)
			}
			return BulkResult{}, err
		}
		items = append(items, p)
	}
	created, err := s.store.CreateMany(ctx, items)
	if err != nil {
		return BulkResult{}, err
	}
	s.logger.Info("products created", slog.Int("count", len(created)), slog.String("created_by", creatorID))
	return BulkResult{
		Count:    len(created),
		Products: created,
		Message:  fmt.Sprintf("Successfully created %d products", len(created)),
	}, nil
}

// List returns one page of products with pagination metadata.
func (s *Service) List(ctx context.Context, page shared.Page) (ListResult, error) {
	var (
		items []Product
		total int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.List(ctx, page.Offset(), page.Limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Count(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Product{}
	}
	return ListResult{Products: items, Meta: shared.NewPagination(page, total)}, nil
}

// Get fetches a product by id.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	if err := validateID(id); err != nil {
		return Product{}, err
	}
	product, err := s.store.Get(ctx, id)
	return product, notFound(id, err)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Product, error) {
	if err := validateID(id); err != nil {
		return Product{}, err
	}
	if in.IsEmpty() {
		return Product{}, httpx.Errorf(httpx.ErrValidation, "Update data is required and cannot be empty")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		in.Description = &description
	}
	if err := s.validate.Struct(in); err != nil {
		return Product{}, httpx.ValidationError(err)
	}
	product, err := s.store.Update(ctx, id, in)
	return product, notFound(id, err)
}

// Delete removes a product and returns its name.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	name, err := s.store.Delete(ctx, id)
	if err != nil {
		return "", notFound(id, err)
	}
	s.logger.Info("product deleted", slog.String("product_id", id))
	return name, nil
}

func (s *Service) prepare(creatorID string, in CreateInput) (NewProduct, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate.Struct(in); err != nil {
		return NewProduct{}, httpx.ValidationError(err)
	}
	if _, err := uuid.Parse(creatorID); err != nil {
		return NewProduct{}, httpx.Errorf(httpx.ErrValidation, "Invalid user reference provided")
	}
	return NewProduct{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Stock:       *in.Stock,
		CreatedBy:   creatorID,
	}, nil
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return httpx.Errorf(httpx.ErrValidation, "Product ID is required and cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return httpx.Errorf(httpx.ErrValidation, "Product ID '%s' is not a valid UUID", id)
	}
	return nil
}

func notFound(id string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return httpx.Errorf(httpx.ErrNotFound, "Product with ID '%s' not found", id)
	}
	return err
}
