package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"household-tracker/internal/domain"
	"household-tracker/internal/repository"
)

const (
	createLedgerEntriesTable = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	entry_type TEXT NOT NULL,
	category_id INTEGER NOT NULL DEFAULT 0,
	amount_minor INTEGER NOT NULL,
	entry_date TEXT NOT NULL,
	description TEXT NOT NULL,
	memo TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	createLedgerEntriesIndex = `CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_date ON ledger_entries(user_id, entry_date)`

	selectLedgerColumns = `SELECT id, user_id, entry_type, category_id, amount_minor, entry_date, description, memo, created_at, updated_at FROM ledger_entries`

	// DateLayout is the on-disk and wire format of a ledger entry date.
	DateLayout = "2006-01-02"
)

type LedgerEntryRepository struct {
	db *sql.DB
}

func NewLedgerEntryRepository(db *sql.DB) repository.LedgerEntryRepository {
	return &LedgerEntryRepository{db: db}
}

func (r *LedgerEntryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLedgerEntriesTable); err != nil {
		return fmt.Errorf("create ledger_entries table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createLedgerEntriesIndex); err != nil {
		return fmt.Errorf("create ledger_entries index: %w", err)
	}
	return nil
}

func (r *LedgerEntryRepository) Create(ctx context.Context, entry *domain.LedgerEntry) (int64, error) {
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO ledger_entries (user_id, entry_type, category_id, amount_minor, entry_date, description, memo, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID,
		string(entry.EntryType),
		entry.CategoryID,
		entry.AmountMinor,
		entry.Date.Format(DateLayout),
		entry.Description,
		entry.Memo,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	entry.ID = id
	return id, nil
}

func (r *LedgerEntryRepository) Update(ctx context.Context, entry *domain.LedgerEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE ledger_entries
SET entry_type=?, category_id=?, amount_minor=?, entry_date=?, description=?, memo=?, updated_at=?
WHERE id=? AND user_id=?`,
		string(entry.EntryType),
		entry.CategoryID,
		entry.AmountMinor,
		entry.Date.Format(DateLayout),
		entry.Description,
		entry.Memo,
		entry.UpdatedAt,
		entry.ID,
		entry.UserID,
	)
	if err != nil {
		return fmt.Errorf("update ledger entry: %w", err)
	}
	return requireAffected(res, "ledger entry")
}

func (r *LedgerEntryRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete ledger entry: %w", err)
	}
	return requireAffected(res, "ledger entry")
}

func (r *LedgerEntryRepository) Get(ctx context.Context, userID, id int64) (*domain.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, selectLedgerColumns+` WHERE id=? AND user_id=?`, id, userID)
	return scanLedgerEntry(row)
}

func (r *LedgerEntryRepository) List(ctx context.Context, userID int64, filter domain.LedgerFilter) ([]domain.LedgerEntry, error) {
	where, args := ledgerWhere("", userID, filter)
	rows, err := r.db.QueryContext(ctx, selectLedgerColumns+where+` ORDER BY entry_date ASC, id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (r *LedgerEntryRepository) Total(ctx context.Context, userID int64, filter domain.LedgerFilter) (int64, error) {
	where, args := ledgerWhere("", userID, filter)
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount_minor), 0) FROM ledger_entries`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum ledger entries: %w", err)
	}
	return total, nil
}

func (r *LedgerEntryRepository) TotalsByType(ctx context.Context, userID int64, filter domain.LedgerFilter) (map[domain.EntryType]int64, error) {
	where, args := ledgerWhere("", userID, filter)
	rows, err := r.db.QueryContext(ctx, `SELECT entry_type, SUM(amount_minor) FROM ledger_entries`+where+` GROUP BY entry_type`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum ledger entries by type: %w", err)
	}
	defer rows.Close()

	totals := map[domain.EntryType]int64{}
	for rows.Next() {
		var (
			entryType string
			total     int64
		)
		if err := rows.Scan(&entryType, &total); err != nil {
			return nil, fmt.Errorf("scan type total: %w", err)
		}
		totals[domain.EntryType(entryType)] = total
	}
	return totals, rows.Err()
}

func (r *LedgerEntryRepository) TotalsByCategory(ctx context.Context, userID int64, filter domain.LedgerFilter) ([]domain.CategoryTotal, error) {
	where, args := ledgerWhere("e.", userID, filter)
	rows, err := r.db.QueryContext(ctx, `
SELECT e.category_id, COALESCE(MAX(c.name), ''), e.entry_type, SUM(e.amount_minor)
FROM ledger_entries e
LEFT JOIN categories c ON c.id = e.category_id AND c.user_id = e.user_id`+where+`
GROUP BY e.category_id, e.entry_type
ORDER BY e.entry_type, 4 DESC, e.category_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum ledger entries by category: %w", err)
	}
	defer rows.Close()

	totals := []domain.CategoryTotal{}
	for rows.Next() {
		var (
			total     domain.CategoryTotal
			entryType string
		)
		if err := rows.Scan(&total.CategoryID, &total.CategoryName, &entryType, &total.AmountMinor); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		total.EntryType = domain.EntryType(entryType)
		totals = append(totals, total)
	}
	return totals, rows.Err()
}

// ledgerWhere builds the user-scoped filter clause. alias qualifies the columns ("e." in joins).
func ledgerWhere(alias string, userID int64, filter domain.LedgerFilter) (string, []any) {
	clauses := []string{alias + "user_id = ?"}
	args := []any{userID}
	if filter.EntryType != "" {
		clauses = append(clauses, alias+"entry_type = ?")
		args = append(args, string(filter.EntryType))
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, alias+"entry_date >= ?")
		args = append(args, filter.From.Format(DateLayout))
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, alias+"entry_date <= ?")
		args = append(args, filter.To.Format(DateLayout))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func requireAffected(res sql.Result, what string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s %w", what, repository.ErrNotFound)
	}
	return nil
}

func scanLedgerEntry(scanner interface {
	Scan(dest ...any) error
}) (*domain.LedgerEntry, error) {
	var (
		entry     domain.LedgerEntry
		entryType string
		date      string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.UserID,
		&entryType,
		&entry.CategoryID,
		&entry.AmountMinor,
		&date,
		&entry.Description,
		&entry.Memo,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ledger entry %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}

	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse ledger entry date %q: %w", date, err)
	}
	entry.EntryType = domain.EntryType(entryType)
	entry.Date = parsed
	return &entry, nil
}
