package repository

import (
	"context"
	"errors"
	"fmt"
	"santaAPI/internal/category"
	"santaAPI/internal/database"

	"github.com/jackc/pgx/v5"
)

type CategoryRepository struct {
	db database.DBTX
}

func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindByName returns nil when no category has that name.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*category.Category, error) {
	var c category.Category
	err := database.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT id, name FROM categories WHERE name = $1`, name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category %q: %w", name, err)
	}
	return &c, nil
}
