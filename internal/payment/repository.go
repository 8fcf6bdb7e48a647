// AngelaMos | 2026
// repository.go

package payment

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, record *Record) error
	ListByOwner(ctx context.Context, email string) ([]Record, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO payments (
			id, email, price, currency, transaction_id,
			cart_ids, menu_item_ids, status, metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &record.CreatedAt, query,
		record.ID,
		record.Email,
		record.Price,
		record.Currency,
		record.TransactionID,
		record.CartIDs,
		record.MenuItemIDs,
		record.Status,
		record.Metadata,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create payment: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

func (r *repository) ListByOwner(
	ctx context.Context,
	email string,
) ([]Record, error) {
	query := `
		SELECT id, email, price, currency, transaction_id,
		       cart_ids, menu_item_ids, status, metadata, created_at
		FROM payments
		WHERE email = $1
		ORDER BY created_at DESC`

	records := []Record{}
	if err := r.db.SelectContext(ctx, &records, query, email); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	return records, nil
}
