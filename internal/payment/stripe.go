// AngelaMos | 2026
// stripe.go

package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) Name() string {
	return "stripe"
}

func (g *StripeGateway) CreateChargeIntent(
	ctx context.Context,
	req ChargeRequest,
) (*ChargeIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountMinor),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
		params.AddMetadata("email", req.Email)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	return &ChargeIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
