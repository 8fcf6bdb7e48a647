// AngelaMos | 2026
// review.go

package review

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

type Review struct {
	ID        string    `db:"id"         json:"_id"`
	Name      string    `db:"name"       json:"name"`
	Rating    float64   `db:"rating"     json:"rating"`
	Details   string    `db:"details"    json:"details"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Repository interface {
	List(ctx context.Context) ([]Review, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Review, error) {
	query := `
		SELECT id, name, rating, details, created_at
		FROM reviews
		ORDER BY created_at DESC`

	reviews := []Review{}
	if err := r.db.SelectContext(ctx, &reviews, query); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, nil
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/reviews", h.List)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.repo.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, reviews)
}
