package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"household-tracker/internal/domain"
	"household-tracker/internal/repository"
)

func openTestDB(t *testing.T) (*sql.DB, repository.UserRepository, repository.LedgerEntryRepository) {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "household.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := NewUserRepository(db)
	ledger := NewLedgerEntryRepository(db)
	require.NoError(t, InitAll(context.Background(), users, ledger))
	return db, users, ledger
}

func createUser(t *testing.T, users repository.UserRepository, username, email string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, Email: email, Name: username, PasswordHash: "hash"}
	_, err := users.Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestInitAllIsIdempotent(t *testing.T) {
	db, users, ledger := openTestDB(t)
	require.NoError(t, InitAll(context.Background(), users, ledger))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('users','ledger_entries')`).Scan(&count))
	require.Equal(t, 2, count)
}
