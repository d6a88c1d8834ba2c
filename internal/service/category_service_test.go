package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household-tracker/internal/domain"
	"household-tracker/internal/repository"
)

func TestCategoryServiceValidation(t *testing.T) {
	_, categories, alice, _ := newBookkeepingFixture(t)
	ctx := context.Background()

	invalid := map[string]domain.Category{
		"blank name":        {Name: " ", EntryType: domain.EntryTypeExpense, SubType: domain.SubCategoryFixedExpense},
		"unknown type":      {Name: "Gifts", EntryType: "gift", SubType: domain.SubCategoryFixedExpense},
		"missing sub type":  {Name: "Gifts", EntryType: domain.EntryTypeExpense},
		"sub type mismatch": {Name: "Gifts", EntryType: domain.EntryTypeExpense, SubType: domain.SubCategorySaving},
	}
	for name, category := range invalid {
		_, err := categories.CreateCategory(ctx, alice, category)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}

	_, err := categories.ListCategories(ctx, alice, domain.CategoryFilter{SubType: "hobby"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCategoryServiceLifecycle(t *testing.T) {
	_, categories, alice, bob := newBookkeepingFixture(t)
	ctx := context.Background()

	created, err := categories.CreateCategory(ctx, alice, domain.Category{
		UserID:    bob,
		Name:      "  Groceries ",
		EntryType: domain.EntryTypeExpense,
		SubType:   domain.SubCategoryVariableExpense,
	})
	require.NoError(t, err)
	assert.Equal(t, alice, created.UserID)
	assert.Equal(t, "Groceries", created.Name)
	assert.True(t, created.Active)

	_, err = categories.CreateCategory(ctx, alice, domain.Category{Name: "groceries", EntryType: domain.EntryTypeExpense, SubType: domain.SubCategoryVariableExpense})
	assert.ErrorIs(t, err, ErrCategoryExists)

	_, err = categories.GetCategory(ctx, bob, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = categories.UpdateCategory(ctx, bob, created.ID, *created)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	updated, err := categories.UpdateCategory(ctx, alice, created.ID, domain.Category{
		Name:      "Food",
		EntryType: domain.EntryTypeExpense,
		SubType:   domain.SubCategoryFixedExpense,
		Icon:      "cart",
	})
	require.NoError(t, err)
	assert.Equal(t, "Food", updated.Name)
	assert.True(t, updated.Active)

	list, err := categories.ListCategories(ctx, alice, domain.CategoryFilter{EntryType: domain.EntryTypeExpense})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "cart", list[0].Icon)

	require.NoError(t, categories.DeactivateCategory(ctx, alice, created.ID))
	require.NoError(t, categories.DeleteCategory(ctx, alice, created.ID))
	assert.ErrorIs(t, categories.DeleteCategory(ctx, alice, created.ID), repository.ErrNotFound)
}
