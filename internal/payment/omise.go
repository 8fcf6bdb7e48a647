// AngelaMos | 2026
// omise.go

package payment

import (
	"context"
	"fmt"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// OmiseGateway creates a payment source (promptpay by default). The
// source id doubles as the client secret; the client completes the
// charge against it.
type OmiseGateway struct {
	client     *omise.Client
	sourceType string
}

func NewOmiseGateway(publicKey, secretKey, sourceType string) (*OmiseGateway, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("omise: new client: %w", err)
	}
	c.SetDebug(false)
	return &OmiseGateway{client: c, sourceType: sourceType}, nil
}

func (g *OmiseGateway) Name() string {
	return "omise"
}

// CreateChargeIntent honours ctx only before the call starts; the omise
// client has no per-request context.
func (g *OmiseGateway) CreateChargeIntent(
	ctx context.Context,
	req ChargeRequest,
) (*ChargeIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("omise: create source: %w", err)
	}

	source := &omise.Source{}
	op := &operations.CreateSource{
		Type:     g.sourceType,
		Amount:   req.AmountMinor,
		Currency: req.Currency,
	}

	if err := g.client.Do(source, op); err != nil {
		return nil, fmt.Errorf("omise: create source: %w", err)
	}

	return &ChargeIntent{ID: source.ID, ClientSecret: source.ID}, nil
}
