package repository

import (
	"context"

	"household-tracker/internal/domain"
)

// LedgerEntryRepository exposes persistence operations for ledger entries.
// Every read and write is scoped to the owning user.
type LedgerEntryRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, entry *domain.LedgerEntry) (int64, error)
	Update(ctx context.Context, entry *domain.LedgerEntry) error
	Delete(ctx context.Context, userID, id int64) error
	Get(ctx context.Context, userID, id int64) (*domain.LedgerEntry, error)
	List(ctx context.Context, userID int64, filter domain.LedgerFilter) ([]domain.LedgerEntry, error)
	Total(ctx context.Context, userID int64, filter domain.LedgerFilter) (int64, error)
	TotalsByType(ctx context.Context, userID int64, filter domain.LedgerFilter) (map[domain.EntryType]int64, error)
	TotalsByCategory(ctx context.Context, userID int64, filter domain.LedgerFilter) ([]domain.CategoryTotal, error)
}
