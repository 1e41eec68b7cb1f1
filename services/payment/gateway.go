package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// Gateway creates hosted checkout links for booking payments.
type Gateway interface {
	CreateCheckoutLink(ctx context.Context, bookingID, description string, amount float64) (string, error)
}

// StripeGateway implements Gateway over Stripe Checkout. The booking ID rides
// on the session as the client reference so webhooks can route back to it.
type StripeGateway struct {
	SuccessURL string
	CancelURL  string
}

func NewStripeGateway(apiKey, successURL, cancelURL string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{SuccessURL: successURL, CancelURL: cancelURL}
}

func (g *StripeGateway) CreateCheckoutLink(ctx context.Context, bookingID, description string, amount float64) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.SuccessURL + "?bookingId=" + bookingID),
		CancelURL:         stripe.String(g.CancelURL + "?bookingId=" + bookingID),
		ClientReferenceID: stripe.String(bookingID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
					UnitAmount: stripe.Int64(int64(amount * 100)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session for booking %s: %w", bookingID, err)
	}
	return s.URL, nil
}
