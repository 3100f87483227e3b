package services

import (
	"context"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/validation"
)

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo      repositories.CategoryRepository
	validator *validation.Validator
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository, validator *validation.Validator) *CategoryService {
	return &CategoryService{repo: repo, validator: validator}
}

// ListCategories retrieves all categories ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListAll(ctx)
}

// CreateCategory validates and stores a new category.
func (s *CategoryService) CreateCategory(ctx context.Context, form validation.CategoryForm) (*models.Category, error) {
	name, errs := s.validator.Category(form)
	if err := apperr.NewValidationError("Validation failed", errs); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}
