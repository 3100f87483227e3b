package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// Products are listed in insertion order.
type MockProductRepository struct {
	products   map[string]models.Product
	order      []string
	categories CategoryRepository
	mu         sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
// categories may be nil, in which case category references stay unresolved.
func NewMockProductRepository(categories CategoryRepository) *MockProductRepository {
	return &MockProductRepository{
		products:   make(map[string]models.Product),
		categories: categories,
	}
}

// ListAll returns all products.
func (r *MockProductRepository) ListAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		productList = append(productList, r.products[id])
	}
	return productList, nil
}

// FindByID returns a product by its ID with its category attached.
func (r *MockProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	product, ok := r.products[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("product with ID %s %w", id, apperr.ErrNotFound)
	}

	if r.categories != nil {
		if category, err := r.categories.GetByID(ctx, product.CategoryID); err == nil {
			product.Category = category
		}
	}
	return &product, nil
}

// FindImageByID returns the stored image path of a product.
func (r *MockProductRepository) FindImageByID(ctx context.Context, id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return "", fmt.Errorf("product with ID %s %w", id, apperr.ErrNotFound)
	}
	return product.ProductImage, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, exists := r.products[product.ID]; exists {
		return apperr.Persistence("create product", fmt.Errorf("duplicate key %s", product.ID))
	}

	now := time.Now()
	product.Version = 1
	product.CreatedAt = now
	product.UpdatedAt = now
	product.URL = product.ResourceURL()
	product.Category = nil

	r.products[product.ID] = *product
	r.order = append(r.order, product.ID)
	return nil
}

// UpdateByID replaces the mutable fields of an existing product.
func (r *MockProductRepository) UpdateByID(ctx context.Context, id string, product *models.Product, expectedVersion int) (*models.Product, error) {
	r.mu.Lock()
	stored, ok := r.products[id]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("product with ID %s %w", id, apperr.ErrNotFound)
	}
	if expectedVersion > 0 && stored.Version != expectedVersion {
		r.mu.Unlock()
		return nil, fmt.Errorf("product with ID %s is not at version %d: %w", id, expectedVersion, apperr.ErrConflict)
	}

	stored.Name = product.Name
	stored.Description = product.Description
	stored.CategoryID = product.CategoryID
	stored.Price = product.Price
	stored.NumberInStock = product.NumberInStock
	stored.ProductImage = product.ProductImage
	if product.ImageName != "" {
		stored.ImageName = product.ImageName
	}
	stored.Version++
	stored.UpdatedAt = time.Now()
	r.products[id] = stored
	r.mu.Unlock()

	return r.FindByID(ctx, id)
}

// DeleteByID removes a product by its ID.
func (r *MockProductRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %s %w", id, apperr.ErrNotFound)
	}
	delete(r.products, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
