// AngelaMos | 2026
// service.go

package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

const EventSettled = "payment.settled"

// CartCleaner removes settled cart entries belonging to owner and reports
// which ids it actually deleted.
type CartCleaner interface {
	DeleteMany(ctx context.Context, owner string, ids []string) ([]string, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type Outcome string

const (
	OutcomeSettled              Outcome = "settled"
	OutcomeSettledCleanupFailed Outcome = "settled_cleanup_failed"
)

// Settlement is the result of RecordPayment. The record always exists
// once a Settlement is returned, whatever the cleanup outcome.
type Settlement struct {
	Outcome    Outcome
	Record     *Record
	DeletedIDs []string
	MissingIDs []string
	FailedIDs  []string
	CleanupErr error
}

type SettledEvent struct {
	PaymentID     string    `json:"paymentId"`
	Email         string    `json:"email"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transactionId"`
	CartIDs       []string  `json:"cartIds"`
	Outcome       Outcome   `json:"outcome"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type ServiceConfig struct {
	Currency       string
	GatewayTimeout time.Duration
}

type Service struct {
	payments  Repository
	carts     CartCleaner
	gateway   Gateway
	publisher EventPublisher
	config    ServiceConfig
	logger    *slog.Logger
}

func NewService(
	payments Repository,
	carts CartCleaner,
	gateway Gateway,
	publisher EventPublisher,
	cfg ServiceConfig,
	logger *slog.Logger,
) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		payments:  payments,
		carts:     carts,
		gateway:   gateway,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}
}

// CreateChargeIntent asks the gateway for a charge of amount major units
// and returns the client secret. Gateway failures wrap core.ErrGateway.
func (s *Service) CreateChargeIntent(
	ctx context.Context,
	email string,
	amount float64,
) (string, error) {
	minor, err := ToMinorUnits(amount)
	if err != nil {
		return "", fmt.Errorf("create charge intent: %w", err)
	}
	if minor <= 0 {
		return "", fmt.Errorf(
			"create charge intent: amount must be positive: %w",
			core.ErrInvalidInput,
		)
	}

	ctx, span := core.StartSpan(ctx, "payment.create_charge_intent",
		attribute.String("payment.provider", s.gateway.Name()),
		attribute.Int64("payment.amount_minor", minor),
	)
	defer span.End()

	if s.config.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.GatewayTimeout)
		defer cancel()
	}

	intent, err := s.gateway.CreateChargeIntent(ctx, ChargeRequest{
		AmountMinor: minor,
		Currency:    s.config.Currency,
		Email:       email,
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return "", fmt.Errorf("create charge intent: %w: %w", core.ErrGateway, err)
	}

	return intent.ClientSecret, nil
}

// RecordPayment inserts the record, then bulk-deletes the payer's cart
// entries. Ids the payer does not own are left alone and reported missing.
// A failed insert aborts before anything is deleted. A failed delete
// leaves the record in place and reports settled_cleanup_failed.
func (s *Service) RecordPayment(
	ctx context.Context,
	record *Record,
) (*Settlement, error) {
	ctx, span := core.StartSpan(ctx, "payment.settle",
		attribute.String("payment.transaction_id", record.TransactionID),
		attribute.Int("payment.cart_items", len(record.CartIDs)),
	)
	defer span.End()

	record.ID = uuid.New().String()
	record.Email = strings.ToLower(strings.TrimSpace(record.Email))
	record.CartIDs = dedupe(record.CartIDs)
	if record.MenuItemIDs == nil {
		record.MenuItemIDs = IDList{}
	}
	if record.Currency == "" {
		record.Currency = s.config.Currency
	}
	if record.Status == "" {
		record.Status = StatusSucceeded
	}

	if err := s.payments.Create(ctx, record); err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("record payment: %w", err)
	}
	core.AddSpanEvent(ctx, "payment.recorded",
		attribute.String("payment.id", record.ID),
	)

	settlement := &Settlement{
		Outcome:    OutcomeSettled,
		Record:     record,
		DeletedIDs: []string{},
	}

	deleted, err := s.carts.DeleteMany(ctx, record.Email, record.CartIDs)
	if err != nil {
		core.SetSpanError(ctx, err)
		s.logger.Error("cart cleanup failed after payment",
			"payment_id", record.ID,
			"transaction_id", record.TransactionID,
			"cart_ids", []string(record.CartIDs),
			"error", err,
		)
		settlement.Outcome = OutcomeSettledCleanupFailed
		settlement.FailedIDs = []string(record.CartIDs)
		settlement.CleanupErr = err
	} else {
		settlement.DeletedIDs = deleted
		settlement.MissingIDs = missing(record.CartIDs, deleted)
		core.AddSpanEvent(ctx, "payment.cart_cleared",
			attribute.Int("payment.deleted", len(deleted)),
			attribute.Int("payment.missing", len(settlement.MissingIDs)),
		)
	}

	s.publishSettled(ctx, settlement)

	return settlement, nil
}

func (s *Service) ListPayments(ctx context.Context, email string) ([]Record, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return []Record{}, nil
	}
	return s.payments.ListByOwner(ctx, email)
}

func (s *Service) publishSettled(ctx context.Context, st *Settlement) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.PublishJSON(ctx, EventSettled, SettledEvent{
		PaymentID:     st.Record.ID,
		Email:         st.Record.Email,
		Amount:        st.Record.Price,
		Currency:      st.Record.Currency,
		TransactionID: st.Record.TransactionID,
		CartIDs:       []string(st.Record.CartIDs),
		Outcome:       st.Outcome,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("publish settlement event",
			"payment_id", st.Record.ID,
			"error", err,
		)
	}
}

func dedupe(ids IDList) IDList {
	seen := make(map[string]struct{}, len(ids))
	out := make(IDList, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missing(want IDList, got []string) []string {
	deleted := make(map[string]struct{}, len(got))
	for _, id := range got {
		deleted[id] = struct{}{}
	}

	var out []string
	for _, id := range want {
		if _, ok := deleted[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
