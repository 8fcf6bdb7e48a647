// AngelaMos | 2026
// repository.go

package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	ListByOwner(ctx context.Context, email string) ([]Entry, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, owner string, ids []string) ([]string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO cart_entries (id, email, menu_id, name, price, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &entry.CreatedAt, query,
		entry.ID,
		entry.Email,
		entry.MenuID,
		entry.Name,
		entry.Price,
		entry.Image,
	)
	if err != nil {
		return fmt.Errorf("create cart entry: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Entry, error) {
	query := `
		SELECT id, email, menu_id, name, price, image, created_at
		FROM cart_entries
		WHERE id = $1`

	var entry Entry
	err := r.db.GetContext(ctx, &entry, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get cart entry: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get cart entry: %w", err)
	}

	return &entry, nil
}

func (r *repository) ListByOwner(
	ctx context.Context,
	email string,
) ([]Entry, error) {
	query := `
		SELECT id, email, menu_id, name, price, image, created_at
		FROM cart_entries
		WHERE email = $1
		ORDER BY created_at`

	entries := []Entry{}
	if err := r.db.SelectContext(ctx, &entries, query, email); err != nil {
		return nil, fmt.Errorf("list cart entries: %w", err)
	}

	return entries, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart entry: %w", err)
	}

	_, err = core.RowsAffected(result, "delete cart entry")
	return err
}

// DeleteMany removes the listed entries that still exist and belong to
// owner, returning the ids it actually deleted. Unknown ids and ids owned
// by someone else are skipped, not reported as errors.
func (r *repository) DeleteMany(
	ctx context.Context,
	owner string,
	ids []string,
) ([]string, error) {
	if len(ids) == 0 || owner == "" {
		return []string{}, nil
	}

	query, args, err := sqlx.In(
		`DELETE FROM cart_entries WHERE email = ? AND id IN (?) RETURNING id`,
		owner,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("delete cart entries: %w", err)
	}

	deleted := []string{}
	if err := r.db.SelectContext(ctx, &deleted, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("delete cart entries: %w", err)
	}

	return deleted, nil
}
