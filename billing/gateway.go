package billing

import "context"

// Gateway abstracts the external payment processor. Amounts are in
// cents; the returned client secret is handed to the frontend to
// complete the charge.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64) (clientSecret string, err error)
}
