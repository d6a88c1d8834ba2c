package repository

import (
	"context"

	"household-tracker/internal/domain"
)

// CategoryRepository persists per-user categories. Names are unique among a user's active categories.
type CategoryRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, category *domain.Category) (int64, error)
	Update(ctx context.Context, category *domain.Category) error
	Get(ctx context.Context, userID, id int64) (*domain.Category, error)
	List(ctx context.Context, userID int64, filter domain.CategoryFilter) ([]domain.Category, error)
	Deactivate(ctx context.Context, userID, id int64) error
	// Delete removes the category and detaches it from the user's ledger entries.
	Delete(ctx context.Context, userID, id int64) error
}
