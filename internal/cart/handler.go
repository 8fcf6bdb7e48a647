// AngelaMos | 2026
// handler.go

package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/bistro-backend/internal/core"
	"github.com/carterperez-dev/bistro-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/carts", func(r chi.Router) {
		r.Use(authenticator)

		r.With(middleware.RequireSelf("email").Middleware).Get("/", h.List)
		r.Post("/", h.Add)
		r.Delete("/{id}", h.Remove)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListItems(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToEntryResponseList(entries))
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetUserEmail(r.Context())

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if req.Email != "" && !strings.EqualFold(req.Email, caller) {
		core.Forbidden(w, "forbidden access")
		return
	}

	entry, err := h.service.AddItem(r.Context(), caller, req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, InsertResult{InsertedID: entry.ID})
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		core.NotFound(w, "cart entry")
		return
	}

	result, err := h.service.RemoveItem(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		id,
	)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "cart entry")
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "forbidden access")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, result)
}
