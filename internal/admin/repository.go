// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

type Repository interface {
	Summary(ctx context.Context) (*Summary, error)
	OrdersByCategory(ctx context.Context) ([]CategoryStats, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Summary(ctx context.Context) (*Summary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users)              AS users,
			(SELECT COUNT(*) FROM menu_items)         AS menu_items,
			(SELECT COUNT(*) FROM payments)           AS orders,
			(SELECT COALESCE(SUM(price), 0) FROM payments) AS revenue`

	var s Summary
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return nil, fmt.Errorf("admin summary: %w", err)
	}

	return &s, nil
}

// OrdersByCategory expands each payment's menu item ids and totals them
// per menu category. Ids no longer on the menu are ignored.
func (r *repository) OrdersByCategory(ctx context.Context) ([]CategoryStats, error) {
	query := `
		SELECT m.category,
		       COUNT(*)     AS quantity,
		       SUM(m.price) AS revenue
		FROM payments p
		CROSS JOIN LATERAL jsonb_array_elements_text(p.menu_item_ids) AS item(id)
		JOIN menu_items m ON m.id::text = item.id
		GROUP BY m.category
		ORDER BY m.category`

	stats := []CategoryStats{}
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}

	return stats, nil
}
