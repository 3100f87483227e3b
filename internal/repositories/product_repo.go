package repositories

import (
	"context"

	"storefront/internal/models"
)

// ProductRepository defines the interface for product data access.
// Lookups of unknown ids return an error wrapping apperr.ErrNotFound; storage
// failures are returned as *apperr.PersistenceError.
type ProductRepository interface {
	ListAll(ctx context.Context) ([]models.Product, error)
	// FindByID resolves the category reference before returning.
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindImageByID(ctx context.Context, id string) (string, error)
	Create(ctx context.Context, product *models.Product) error
	// UpdateByID replaces the mutable fields of the product and returns the
	// stored result. expectedVersion 0 skips the revision check.
	UpdateByID(ctx context.Context, id string, product *models.Product, expectedVersion int) (*models.Product, error)
	DeleteByID(ctx context.Context, id string) error
}
