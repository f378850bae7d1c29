package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type stripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a Gateway backed by the Stripe API. Card is
// currently the only accepted payment method, charged in USD.
func NewStripeGateway(secretKey string) Gateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeGateway{api: api}
}

func (g *stripeGateway) CreatePaymentIntent(ctx context.Context, amountCents int64) (string, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}
	return intent.ClientSecret, nil
}
