package services

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/upload"
	"storefront/internal/validation"
	"storefront/pkg/logger"
)

// Routing keys of the product events.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ImageStore persists accepted uploads and removes stored files.
type ImageStore interface {
	Persist(ctx context.Context, r upload.Result) (string, error)
	Remove(path string) error
}

// EventPublisher delivers a serialized event under a routing key.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductEvent is the body of every product event.
type ProductEvent struct {
	Event      string    `json:"event"`
	ProductID  string    `json:"productId"`
	Version    int       `json:"version,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	validator *validation.Validator
	images    ImageStore
	events    EventPublisher
}

// NewProductService creates a new ProductService. events may be nil.
func NewProductService(repo repositories.ProductRepository, validator *validation.Validator, images ImageStore, events EventPublisher) *ProductService {
	return &ProductService{
		repo:      repo,
		validator: validator,
		images:    images,
		events:    events,
	}
}

// ListProducts retrieves all products.
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.ListAll(ctx)
}

// GetProduct retrieves a single product with its category resolved.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateProduct validates the form and the uploaded image, stores the image
// and then the record. The image is required. Nothing is written when any
// field is invalid, and the stored image is removed if the record cannot be
// created.
func (s *ProductService) CreateProduct(ctx context.Context, form validation.ProductForm, image upload.Result) (*models.Product, error) {
	fields, errs := s.validator.Product(form)
	switch image.Status {
	case upload.Absent:
		errs = append(errs, apperr.FieldError{Field: upload.FieldName, Message: "Product image is required"})
	case upload.Rejected:
		errs = append(errs, apperr.FieldError{Field: upload.FieldName, Message: image.Reason})
	}
	if err := apperr.NewValidationError("Validation failed", errs); err != nil {
		return nil, err
	}

	imagePath, err := s.images.Persist(ctx, image)
	if err != nil {
		return nil, apperr.Persistence("store product image", err)
	}

	product := &models.Product{
		Name:          fields.Name,
		Description:   fields.Description,
		CategoryID:    fields.Category,
		Price:         fields.Price,
		NumberInStock: fields.NumberInStock,
		ProductImage:  imagePath,
		ImageName:     image.Filename(),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		s.discard(ctx, imagePath)
		return nil, err
	}

	logger.Info(ctx).Str("product_id", product.ID).Str("image", imagePath).Msg("product created")
	s.publish(ctx, EventProductCreated, product.ID, product.Version)
	return product, nil
}

// UpdateProduct replaces the fields of an existing product. Without a new
// image the stored image path is kept verbatim.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, form validation.ProductForm, image upload.Result) (*models.Product, error) {
	fields, errs := s.validator.Product(form)
	if image.Status == upload.Rejected {
		errs = append(errs, apperr.FieldError{Field: upload.FieldName, Message: image.Reason})
	}
	if err := apperr.NewValidationError("Validation failed", errs); err != nil {
		return nil, err
	}

	imagePath, err := s.repo.FindImageByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var written, imageName string
	if image.Status == upload.Accepted {
		written, err = s.images.Persist(ctx, image)
		if err != nil {
			return nil, apperr.Persistence("store product image", err)
		}
		imagePath = written
		imageName = image.Filename()
	}

	product, err := s.repo.UpdateByID(ctx, id, &models.Product{
		Name:          fields.Name,
		Description:   fields.Description,
		CategoryID:    fields.Category,
		Price:         fields.Price,
		NumberInStock: fields.NumberInStock,
		ProductImage:  imagePath,
		ImageName:     imageName,
	}, fields.Version)
	if err != nil {
		s.discard(ctx, written)
		return nil, err
	}

	logger.Info(ctx).Str("product_id", id).Int("version", product.Version).Msg("product updated")
	s.publish(ctx, EventProductUpdated, id, product.Version)
	return product, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}

	logger.Info(ctx).Str("product_id", id).Msg("product deleted")
	s.publish(ctx, EventProductDeleted, id, 0)
	return nil
}

func (s *ProductService) discard(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.images.Remove(path); err != nil {
		logger.Error(ctx).Err(err).Str("image", path).Msg("failed to remove orphaned image")
	}
}

// publish never fails the operation; delivery problems are only logged.
func (s *ProductService) publish(ctx context.Context, event, id string, version int) {
	if s.events == nil {
		return
	}

	body, err := json.Marshal(ProductEvent{
		Event:      event,
		ProductID:  id,
		Version:    version,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Error(ctx).Err(err).Str("event", event).Msg("failed to marshal product event")
		return
	}

	if err := s.events.Publish(event, body); err != nil {
		logger.Warn(ctx).Err(err).Str("event", event).Str("product_id", id).Msg("failed to publish product event")
	}
}
