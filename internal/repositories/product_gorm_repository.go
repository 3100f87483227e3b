package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// ListAll retrieves all products from the database in storage order.
func (r *GORMProductRepository) ListAll(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if err := r.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, apperr.Persistence("get all products", err)
	}
	return products, nil
}

// FindByID retrieves a single product with its category.
func (r *GORMProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s %w", id, apperr.ErrNotFound)
		}
		return nil, apperr.Persistence(fmt.Sprintf("get product by ID %s", id), err)
	}
	return &product, nil
}

// FindImageByID loads only the stored image path of a product.
func (r *GORMProductRepository) FindImageByID(ctx context.Context, id string) (string, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Select("id", "product_image").First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("product with ID %s %w", id, apperr.ErrNotFound)
		}
		return "", apperr.Persistence(fmt.Sprintf("get image of product %s", id), err)
	}
	return product.ProductImage, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.Version = 1
	if err := r.db.WithContext(ctx).Omit("Category").Create(product).Error; err != nil {
		return apperr.Persistence("create product", err)
	}
	return nil
}

// UpdateByID replaces the mutable fields of an existing product. It never
// inserts: an unknown id yields ErrNotFound.
func (r *GORMProductRepository) UpdateByID(ctx context.Context, id string, product *models.Product, expectedVersion int) (*models.Product, error) {
	db := r.db.WithContext(ctx)

	query := db.Model(&models.Product{}).Where("id = ?", id)
	if expectedVersion > 0 {
		query = query.Where("version = ?", expectedVersion)
	}

	// A map keeps zero values such as an emptied stock in the update.
	changes := map[string]interface{}{
		"name":            product.Name,
		"description":     product.Description,
		"category_id":     product.CategoryID,
		"price":           product.Price,
		"number_in_stock": product.NumberInStock,
		"product_image":   product.ProductImage,
		"version":         gorm.Expr("version + 1"),
	}
	// An empty image name means the image itself was kept.
	if product.ImageName != "" {
		changes["image_name"] = product.ImageName
	}
	res := query.Updates(changes)
	if res.Error != nil {
		return nil, apperr.Persistence(fmt.Sprintf("update product %s", id), res.Error)
	}

	if res.RowsAffected == 0 {
		if expectedVersion > 0 {
			var count int64
			if err := db.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return nil, apperr.Persistence(fmt.Sprintf("update product %s", id), err)
			}
			if count > 0 {
				return nil, fmt.Errorf("product with ID %s is not at version %d: %w", id, expectedVersion, apperr.ErrConflict)
			}
		}
		return nil, fmt.Errorf("product with ID %s %w", id, apperr.ErrNotFound)
	}

	return r.FindByID(ctx, id)
}

// DeleteByID removes a product from the database.
func (r *GORMProductRepository) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Persistence("delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s %w", id, apperr.ErrNotFound)
	}
	return nil
}
