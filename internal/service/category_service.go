package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"household-tracker/internal/domain"
	"household-tracker/internal/repository"
)

// ErrCategoryExists is returned when an active category with the same name already exists for the user.
var ErrCategoryExists = errors.New("category already exists")

// CategoryService manages a user's categories.
type CategoryService interface {
	CreateCategory(ctx context.Context, userID int64, category domain.Category) (*domain.Category, error)
	GetCategory(ctx context.Context, userID, id int64) (*domain.Category, error)
	ListCategories(ctx context.Context, userID int64, filter domain.CategoryFilter) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, userID, id int64, category domain.Category) (*domain.Category, error)
	DeactivateCategory(ctx context.Context, userID, id int64) error
	DeleteCategory(ctx context.Context, userID, id int64) error
}

type categoryService struct {
	categories repository.CategoryRepository
}

func NewCategoryService(categories repository.CategoryRepository) CategoryService {
	return &categoryService{categories: categories}
}

func (s *categoryService) CreateCategory(ctx context.Context, userID int64, category domain.Category) (*domain.Category, error) {
	category.ID = 0
	category.UserID = userID
	if err := validateCategory(&category); err != nil {
		return nil, err
	}
	if _, err := s.categories.Create(ctx, &category); err != nil {
		return nil, categoryError(err)
	}
	return &category, nil
}

func (s *categoryService) GetCategory(ctx context.Context, userID, id int64) (*domain.Category, error) {
	return s.categories.Get(ctx, userID, id)
}

func (s *categoryService) ListCategories(ctx context.Context, userID int64, filter domain.CategoryFilter) ([]domain.Category, error) {
	if filter.EntryType != "" && !filter.EntryType.Valid() {
		return nil, fmt.Errorf("%w: unknown entry type %q", ErrInvalidInput, filter.EntryType)
	}
	if filter.SubType != "" && filter.SubType.Parent() == "" {
		return nil, fmt.Errorf("%w: unknown sub type %q", ErrInvalidInput, filter.SubType)
	}
	return s.categories.List(ctx, userID, filter)
}

func (s *categoryService) UpdateCategory(ctx context.Context, userID, id int64, category domain.Category) (*domain.Category, error) {
	existing, err := s.categories.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	category.ID = existing.ID
	category.UserID = userID
	category.Active = existing.Active
	category.CreatedAt = existing.CreatedAt
	if err := validateCategory(&category); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, &category); err != nil {
		return nil, categoryError(err)
	}
	return &category, nil
}

func (s *categoryService) DeactivateCategory(ctx context.Context, userID, id int64) error {
	return s.categories.Deactivate(ctx, userID, id)
}

func (s *categoryService) DeleteCategory(ctx context.Context, userID, id int64) error {
	return s.categories.Delete(ctx, userID, id)
}

func validateCategory(category *domain.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	category.Icon = strings.TrimSpace(category.Icon)
	category.Color = strings.TrimSpace(category.Color)
	if category.Name == "" {
		return fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	if !category.EntryType.Valid() {
		return fmt.Errorf("%w: unknown entry type %q", ErrInvalidInput, category.EntryType)
	}
	if category.SubType.Parent() != category.EntryType {
		return fmt.Errorf("%w: sub type %q does not belong to %q", ErrInvalidInput, category.SubType, category.EntryType)
	}
	return nil
}

func categoryError(err error) error {
	if errors.Is(err, repository.ErrAlreadyExists) {
		return ErrCategoryExists
	}
	return err
}
