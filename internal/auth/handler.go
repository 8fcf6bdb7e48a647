// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

type Handler struct {
	jwt       *JWTManager
	validator *validator.Validate
}

func NewHandler(jwt *JWTManager) *Handler {
	return &Handler{
		jwt:       jwt,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/jwt", h.IssueToken)
	r.Get("/.well-known/jwks.json", h.jwt.GetJWKSHandler())
}

func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	issued, err := h.jwt.Issue(req.Email)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	slog.Debug("token issued", "token_id", issued.ID, "expires_at", issued.ExpiresAt)

	core.OK(w, TokenResponse{
		Token:     issued.Token,
		TokenType: "Bearer",
		ExpiresIn: int(h.jwt.TokenLifetime().Seconds()),
		ExpiresAt: issued.ExpiresAt,
	})
}
