// AngelaMos | 2026
// handler.go

package payment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/bistro-backend/internal/core"
	"github.com/carterperez-dev/bistro-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    service.logger,
	}
}

// RegisterRoutes mounts the checkout routes behind authenticator.
// checkout wraps intent creation and settlement, typically with a
// per-diner limiter.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	checkout ...func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.With(checkout...).Post("/create-payment-intent", h.CreateIntent)
		r.With(checkout...).Post("/payment", h.Record)
		r.With(middleware.RequireSelf("email").Middleware).Get("/payment", h.List)
	})
}

func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	secret, err := h.service.CreateChargeIntent(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		req.Price,
	)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "price must be a positive amount")
		case errors.Is(err, core.ErrGateway):
			h.logger.Warn("payment gateway error",
				"provider", h.service.gateway.Name(),
				"error", err,
			)
			core.JSONError(w, core.GatewayError(err))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, IntentResponse{ClientSecret: secret})
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetUserEmail(r.Context())

	var req RecordPaymentRequest
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

	settlement, err := h.service.RecordPayment(r.Context(), &Record{
		Email:         caller,
		Price:         req.Price,
		Currency:      strings.ToLower(req.Currency),
		TransactionID: req.TransactionID,
		CartIDs:       IDList(req.CartIDs),
		MenuItemIDs:   IDList(req.MenuItemIDs),
		Status:        req.Status,
		Metadata:      Metadata(req.Metadata),
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("transactionId"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToSettlementResponse(settlement))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListPayments(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToRecordResponseList(records))
}
