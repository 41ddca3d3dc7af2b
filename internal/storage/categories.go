package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anduinlabs/expenseflow/internal/common"
	"github.com/anduinlabs/expenseflow/internal/model"
)

// GetCategories returns all of a user's categories, ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context, userID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, color, icon, user_id, created_at, updated_at
		FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		category, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan category: %w", scanErr)
		}
		categories = append(categories, *category)
	}

	return categories, rows.Err()
}

// GetCategoryByName retrieves one category by its name.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, userID, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, color, icon, user_id, created_at, updated_at
		FROM categories WHERE user_id = ? AND name = ?`, userID, name)

	category, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// CreateCategory inserts a new category.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("category cannot be nil")
	}
	if err := validateString(category.ID, "category ID"); err != nil {
		return err
	}
	if err := validateString(category.Name, "category name"); err != nil {
		return err
	}

	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, color, icon, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		category.ID, category.Name, nullable(category.Color), nullable(category.Icon),
		category.UserID, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}

	category.CreatedAt = now
	category.UpdatedAt = now
	return nil
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var category model.Category
	var color, icon sql.NullString

	err := row.Scan(&category.ID, &category.Name, &color, &icon,
		&category.UserID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return nil, err
	}

	category.Color = color.String
	category.Icon = icon.String
	return &category, nil
}
