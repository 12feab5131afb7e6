package products

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookapi/book-api/internal/platform/httpx"
	"github.com/bookapi/book-api/internal/shared"
)

type memoryStore struct {
	mu       sync.Mutex
	order    []string
	products map[string]Product
}

func newMemoryStore() *memoryStore {
	return &memoryStore{products: make(map[string]Product)}
}

func (m *memoryStore) nameTaken(id, name string) bool {
	for otherID, p := range m.products {
		if otherID != id && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (m *memoryStore) insert(p NewProduct) Product {
	now := time.Now().UTC()
	creator := p.CreatedBy
	product := Product{
		ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price, Stock: p.Stock,
		CreatedBy: &creator, CreatedAt: now, UpdatedAt: now,
	}
	m.products[p.ID] = product
	m.order = append(m.order, p.ID)
	return product
}

func (m *memoryStore) Create(_ context.Context, p NewProduct) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(p.ID, p.Name) {
		return Product{}, httpx.Errorf(httpx.ErrDuplicate, "A product with this name already exists")
	}
	return m.insert(p), nil
}

func (m *memoryStore) CreateMany(_ context.Context, items []NewProduct) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool, len(items))
	for _, p := range items {
		key := strings.ToLower(p.Name)
		if seen[key] || m.nameTaken(p.ID, p.Name) {
			return nil, httpx.Errorf(httpx.ErrDuplicate, "One or more products already exist with the same unique identifier")
		}
		seen[key] = true
	}
	out := make([]Product, 0, len(items))
	for _, p := range items {
		out = append(out, m.insert(p))
	}
	return out, nil
}

func (m *memoryStore) List(_ context.Context, offset, limit int) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for i := offset; i < len(m.order) && len(out) < limit; i++ {
		out = append(out, m.products[m.order[i]])
	}
	return out, nil
}

func (m *memoryStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products), nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) Update(_ context.Context, id string, in UpdateInput) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	if in.Name != nil {
		if m.nameTaken(id, *in.Name) {
			return Product{}, httpx.Errorf(httpx.ErrDuplicate, "A product with this name already exists")
		}
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	p.UpdatedAt = time.Now().UTC()
	m.products[id] = p
	return p, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return "", ErrNotFound
	}
	delete(m.products, id)
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return p.Name, nil
}

var creator = uuid.NewString()

func ptr[T any](v T) *T { return &v }

func validInput(name string) CreateInput {
	return CreateInput{Name: name, Description: "A fine product", Price: ptr(19.99), Stock: ptr(5)}
}

func TestCreateProduct(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	in := validInput("  Kindle  ")
	in.Price = ptr(0.0)
	in.Stock = ptr(0)
	p, err := svc.Create(context.Background(), creator, in)
	require.NoError(t, err)
	assert.Equal(t, "Kindle", p.Name)
	assert.Zero(t, p.Price)
	require.NotNil(t, p.CreatedBy)
	assert.Equal(t, creator, *p.CreatedBy)
	_, err = uuid.Parse(p.ID)
	assert.NoError(t, err)

	_, err = svc.Create(context.Background(), creator, validInput("kindle"))
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
	assert.EqualError(t, err, "A product with this name already exists")
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	tests := map[string]CreateInput{
		"missing name":        {Description: "d", Price: ptr(1.0), Stock: ptr(1)},
		"blank description":   {Name: "n", Description: "   ", Price: ptr(1.0), Stock: ptr(1)},
		"missing price":       {Name: "n", Description: "d", Stock: ptr(1)},
		"negative price":      {Name: "n", Description: "d", Price: ptr(-0.01), Stock: ptr(1)},
		"missing stock":       {Name: "n", Description: "d", Price: ptr(1.0)},
		"negative stock":      {Name: "n", Description: "d", Price: ptr(1.0), Stock: ptr(-1)},
		"name over 255 chars": {Name: strings.Repeat("x", 256), Description: "d", Price: ptr(1.0), Stock: ptr(1)},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), creator, in)
			assert.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
}

func TestCreateProductRejectsInvalidCreator(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	_, err := svc.Create(context.Background(), "", validInput("Kindle"))
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.EqualError(t, err, "Invalid user reference provided")
}

func TestCreateMany(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)

	result, err := svc.CreateMany(context.Background(), creator, []CreateInput{validInput("A"), validInput("B")})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Len(t, result.Products, 2)
	assert.Equal(t, "Successfully created 2 products", result.Message)

	_, err = svc.CreateMany(context.Background(), creator, []CreateInput{validInput("C"), validInput("A")})
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
	assert.EqualError(t, err, "One or more products already exist with the same unique identifier")
	assert.Len(t, store.products, 2)
}

func TestCreateManyBounds(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	_, err := svc.CreateMany(context.Background(), creator, nil)
	assert.EqualError(t, err, "At least one product is required")

	many := make([]CreateInput, MaxBulkSize+1)
	for i := range many {
		many[i] = validInput(uuid.NewString())
	}
	_, err = svc.CreateMany(context.Background(), creator, many)
	assert.EqualError(t, err, "Cannot create more than 100 products at once")

	bad := validInput("B")
	bad.Stock = nil
	_, err = svc.CreateMany(context.Background(), creator, []CreateInput{validInput("A"), bad})
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.EqualError(t, err, "Product at index 1: Validation failed: stock is required")
}

func TestListProducts(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	for _, name := range []string{"A", "B", "C"} {
		_, err := svc.Create(context.Background(), creator, validInput(name))
		require.NoError(t, err)
	}

	result, err := svc.List(context.Background(), shared.Page{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "C", result.Products[0].Name)
	assert.Equal(t, shared.Pagination{Total: 3, Page: 2, Limit: 2, TotalPages: 2}, result.Meta)

	result, err = svc.List(context.Background(), shared.Page{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.NotNil(t, result.Products)
	assert.Empty(t, result.Products)
}

func TestGetUpdateDelete(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	p, err := svc.Create(context.Background(), creator, validInput("Kindle"))
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)

	updated, err := svc.Update(context.Background(), p.ID, UpdateInput{Stock: ptr(0), Name: ptr(" Kindle Paperwhite ")})
	require.NoError(t, err)
	assert.Equal(t, "Kindle Paperwhite", updated.Name)
	assert.Zero(t, updated.Stock)
	assert.Equal(t, 19.99, updated.Price)

	_, err = svc.Update(context.Background(), p.ID, UpdateInput{})
	assert.EqualError(t, err, "Update data is required and cannot be empty")

	_, err = svc.Update(context.Background(), p.ID, UpdateInput{Name: ptr("  ")})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Update(context.Background(), p.ID, UpdateInput{Price: ptr(-1.0)})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	name, err := svc.Delete(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kindle Paperwhite", name)

	_, err = svc.Get(context.Background(), p.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.EqualError(t, err, "Product with ID '"+p.ID+"' not found")
}

func TestInvalidProductIDs(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)

	_, err := svc.Get(context.Background(), "")
	assert.EqualError(t, err, "Product ID is required and cannot be empty")

	_, err = svc.Get(context.Background(), "42")
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Delete(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Update(context.Background(), uuid.NewString(), UpdateInput{Stock: ptr(1)})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}
