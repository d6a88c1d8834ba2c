package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"household-tracker/internal/domain"
	"household-tracker/internal/repository"
)

// LedgerService coordinates ledger entry operations on behalf of a single user.
type LedgerService interface {
	CreateEntry(ctx context.Context, userID int64, entry domain.LedgerEntry) (*domain.LedgerEntry, error)
	GetEntry(ctx context.Context, userID, id int64) (*domain.LedgerEntry, error)
	ListEntries(ctx context.Context, userID int64, filter domain.LedgerFilter) ([]domain.LedgerEntry, error)
	UpdateEntry(ctx context.Context, userID, id int64, entry domain.LedgerEntry) (*domain.LedgerEntry, error)
	DeleteEntry(ctx context.Context, userID, id int64) error
	Total(ctx context.Context, userID int64, filter domain.LedgerFilter) (int64, error)
	MonthlySummary(ctx context.Context, userID int64, month time.Time) (*domain.MonthlySummary, error)
}

type ledgerService struct {
	entries    repository.LedgerEntryRepository
	categories repository.CategoryRepository
}

func NewLedgerService(entries repository.LedgerEntryRepository, categories repository.CategoryRepository) LedgerService {
	return &ledgerService{entries: entries, categories: categories}
}

func (s *ledgerService) CreateEntry(ctx context.Context, userID int64, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	entry.ID = 0
	entry.UserID = userID
	if err := validateEntry(&entry); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, userID, entry, 0); err != nil {
		return nil, err
	}
	if _, err := s.entries.Create(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *ledgerService) GetEntry(ctx context.Context, userID, id int64) (*domain.LedgerEntry, error) {
	return s.entries.Get(ctx, userID, id)
}

func (s *ledgerService) ListEntries(ctx context.Context, userID int64, filter domain.LedgerFilter) ([]domain.LedgerEntry, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.entries.List(ctx, userID, filter)
}

func (s *ledgerService) UpdateEntry(ctx context.Context, userID, id int64, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	existing, err := s.entries.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	entry.ID = existing.ID
	entry.UserID = userID
	entry.CreatedAt = existing.CreatedAt
	if err := validateEntry(&entry); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, userID, entry, existing.CategoryID); err != nil {
		return nil, err
	}
	if err := s.entries.Update(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *ledgerService) DeleteEntry(ctx context.Context, userID, id int64) error {
	return s.entries.Delete(ctx, userID, id)
}

func (s *ledgerService) Total(ctx context.Context, userID int64, filter domain.LedgerFilter) (int64, error) {
	if err := validateFilter(filter); err != nil {
		return 0, err
	}
	return s.entries.Total(ctx, userID, filter)
}

// MonthlySummary totals the calendar month containing month, by entry type and by category,
// and reports the previous month's expenses for comparison.
func (s *ledgerService) MonthlySummary(ctx context.Context, userID int64, month time.Time) (*domain.MonthlySummary, error) {
	if month.IsZero() {
		return nil, fmt.Errorf("%w: month is required", ErrInvalidInput)
	}
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	current := domain.LedgerFilter{From: start, To: start.AddDate(0, 1, -1)}

	totals, err := s.entries.TotalsByType(ctx, userID, current)
	if err != nil {
		return nil, err
	}
	for _, t := range []domain.EntryType{domain.EntryTypeIncome, domain.EntryTypeExpense, domain.EntryTypeSavingInvestment} {
		if _, ok := totals[t]; !ok {
			totals[t] = 0
		}
	}

	byCategory, err := s.entries.TotalsByCategory(ctx, userID, current)
	if err != nil {
		return nil, err
	}

	previous, err := s.entries.Total(ctx, userID, domain.LedgerFilter{
		EntryType: domain.EntryTypeExpense,
		From:      start.AddDate(0, -1, 0),
		To:        start.AddDate(0, 0, -1),
	})
	if err != nil {
		return nil, err
	}

	return &domain.MonthlySummary{
		Month:                start,
		Totals:               totals,
		Categories:           byCategory,
		PreviousExpenseMinor: previous,
	}, nil
}

// checkCategory requires a referenced category to belong to the user and match the entry type.
// Inactive categories are refused unless the entry already carried that category.
func (s *ledgerService) checkCategory(ctx context.Context, userID int64, entry domain.LedgerEntry, current int64) error {
	if entry.CategoryID == 0 {
		return nil
	}
	category, err := s.categories.Get(ctx, userID, entry.CategoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: unknown category %d", ErrInvalidInput, entry.CategoryID)
		}
		return err
	}
	if !category.Active && category.ID != current {
		return fmt.Errorf("%w: category %d is inactive", ErrInvalidInput, category.ID)
	}
	if category.EntryType != entry.EntryType {
		return fmt.Errorf("%w: category %d holds %s entries", ErrInvalidInput, category.ID, category.EntryType)
	}
	return nil
}

func validateEntry(entry *domain.LedgerEntry) error {
	entry.Description = strings.TrimSpace(entry.Description)
	entry.Memo = strings.TrimSpace(entry.Memo)
	if !entry.EntryType.Valid() {
		return fmt.Errorf("%w: unknown entry type %q", ErrInvalidInput, entry.EntryType)
	}
	if entry.AmountMinor <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if entry.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if entry.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if entry.CategoryID < 0 {
		return fmt.Errorf("%w: category id must not be negative", ErrInvalidInput)
	}
	return nil
}

func validateFilter(filter domain.LedgerFilter) error {
	if filter.EntryType != "" && !filter.EntryType.Valid() {
		return fmt.Errorf("%w: unknown entry type %q", ErrInvalidInput, filter.EntryType)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return fmt.Errorf("%w: range end precedes start", ErrInvalidInput)
	}
	return nil
}
