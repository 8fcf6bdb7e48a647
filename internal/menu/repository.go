// AngelaMos | 2026
// repository.go

package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

type Repository interface {
	List(ctx context.Context, category string) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, category string) ([]Item, error) {
	query := `
		SELECT id, name, category, price, recipe, image, created_at
		FROM menu_items`
	var args []any

	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY category, name`

	items := []Item{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}

	return items, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Item, error) {
	query := `
		SELECT id, name, category, price, recipe, image, created_at
		FROM menu_items
		WHERE id = $1`

	var item Item
	err := r.db.GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get menu item: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	return &item, nil
}
