package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"household-tracker/internal/repository"
	"household-tracker/internal/repository/sqlite"
)

type testRepos struct {
	users      repository.UserRepository
	ledger     repository.LedgerEntryRepository
	categories repository.CategoryRepository
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "household.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := testRepos{
		users:      sqlite.NewUserRepository(db),
		ledger:     sqlite.NewLedgerEntryRepository(db),
		categories: sqlite.NewCategoryRepository(db),
	}
	require.NoError(t, sqlite.InitAll(context.Background(), repos.users, repos.categories, repos.ledger))
	return repos
}
