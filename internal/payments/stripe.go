// Package payments integrates the Stripe hosted checkout: session creation
// for the booking flow and signature-verified webhook parsing.
package payments

import (
	"context"
	"encoding/json"
	"math"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/trailhead-app/go-tours-backend/internal/services"
)

// StripeClient implements services.CheckoutCreator against the Stripe API.
type StripeClient struct {
	api           *client.API
	webhookSecret string
}

// NewStripeClient builds a client bound to the given secret key.
func NewStripeClient(secretKey, webhookSecret string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api, webhookSecret: webhookSecret}
}

// CreateCheckoutSession starts a one-off payment session for a tour. The tour
// id rides along as the client reference so the webhook can identify the
// purchased product.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, in services.CheckoutInput) (string, string, error) {
	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		UnitAmount: stripe.Int64(int64(math.Round(in.Price * 100))),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:        stripe.String(in.TourName),
			Description: stripe.String(in.TourSummary),
		},
	}
	if in.ImageURL != "" {
		priceData.ProductData.Images = []*string{stripe.String(in.ImageURL)}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
		CustomerEmail:     stripe.String(in.CustomerEmail),
		ClientReferenceID: stripe.String(in.TourID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity:  stripe.Int64(1),
			PriceData: priceData,
		}},
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", "", err
	}
	return sess.ID, sess.URL, nil
}

// VerifyCheckoutEvent checks the webhook signature over the raw payload and,
// for checkout.session.completed events, extracts the fulfillment data.
// handled is false for event types this application does not act on.
func (c *StripeClient) VerifyCheckoutEvent(payload []byte, sigHeader string) (ev services.CheckoutCompleted, handled bool, err error) {
	return VerifyCheckoutEvent(payload, sigHeader, c.webhookSecret)
}

// VerifyCheckoutEvent is the secret-explicit form used by tests.
func VerifyCheckoutEvent(payload []byte, sigHeader, secret string) (services.CheckoutCompleted, bool, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return services.CheckoutCompleted{}, false, err
	}
	if event.Type != "checkout.session.completed" {
		return services.CheckoutCompleted{}, false, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return services.CheckoutCompleted{}, false, err
	}
	email := sess.CustomerEmail
	if email == "" && sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}
	return services.CheckoutCompleted{
		EventID:       event.ID,
		TourID:        sess.ClientReferenceID,
		CustomerEmail: email,
		AmountTotal:   sess.AmountTotal,
	}, true, nil
}
