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
	createCategoriesTable = `
CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	entry_type TEXT NOT NULL,
	sub_type TEXT NOT NULL,
	icon TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '',
	active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	createCategoriesIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_user_name ON categories(user_id, name COLLATE NOCASE) WHERE active = 1`

	selectCategoryColumns = `SELECT id, user_id, name, entry_type, sub_type, icon, color, active, created_at, updated_at FROM categories`
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) repository.CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCategoriesTable); err != nil {
		return fmt.Errorf("create categories table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createCategoriesIndex); err != nil {
		return fmt.Errorf("create categories index: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (int64, error) {
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	category.Active = true

	res, err := r.db.ExecContext(ctx, `
INSERT INTO categories (user_id, name, entry_type, sub_type, icon, color, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		category.UserID,
		category.Name,
		string(category.EntryType),
		string(category.SubType),
		category.Icon,
		category.Color,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		return 0, categoryWriteError("insert category", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category last insert id: %w", err)
	}
	category.ID = id
	return id, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	category.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE categories
SET name=?, entry_type=?, sub_type=?, icon=?, color=?, updated_at=?
WHERE id=? AND user_id=?`,
		category.Name,
		string(category.EntryType),
		string(category.SubType),
		category.Icon,
		category.Color,
		category.UpdatedAt,
		category.ID,
		category.UserID,
	)
	if err != nil {
		return categoryWriteError("update category", err)
	}
	return requireAffected(res, "category")
}

func (r *CategoryRepository) Get(ctx context.Context, userID, id int64) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, selectCategoryColumns+` WHERE id=? AND user_id=?`, id, userID)
	return scanCategory(row)
}

func (r *CategoryRepository) List(ctx context.Context, userID int64, filter domain.CategoryFilter) ([]domain.Category, error) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}
	if !filter.IncludeInactive {
		clauses = append(clauses, "active = 1")
	}
	if filter.EntryType != "" {
		clauses = append(clauses, "entry_type = ?")
		args = append(args, string(filter.EntryType))
	}
	if filter.SubType != "" {
		clauses = append(clauses, "sub_type = ?")
		args = append(args, string(filter.SubType))
	}

	rows, err := r.db.QueryContext(ctx, selectCategoryColumns+` WHERE `+strings.Join(clauses, " AND ")+` ORDER BY entry_type, name COLLATE NOCASE, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Deactivate(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET active=0, updated_at=? WHERE id=? AND user_id=? AND active=1`,
		time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("deactivate category: %w", err)
	}
	return requireAffected(res, "category")
}

func (r *CategoryRepository) Delete(ctx context.Context, userID, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE ledger_entries SET category_id=0 WHERE user_id=? AND category_id=?`, userID, id); err != nil {
		return fmt.Errorf("detach ledger entries: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := requireAffected(res, "category"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func categoryWriteError(op string, err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "unique") {
		return fmt.Errorf("category %w: %v", repository.ErrAlreadyExists, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanCategory(scanner interface {
	Scan(dest ...any) error
}) (*domain.Category, error) {
	var (
		category  domain.Category
		entryType string
		subType   string
	)
	if err := scanner.Scan(
		&category.ID,
		&category.UserID,
		&category.Name,
		&entryType,
		&subType,
		&category.Icon,
		&category.Color,
		&category.Active,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	category.EntryType = domain.EntryType(entryType)
	category.SubType = domain.SubCategoryType(subType)
	return &category, nil
}
