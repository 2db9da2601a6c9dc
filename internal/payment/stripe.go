// Package payment creates checkout sessions with the payment gateway. The
// application only forwards the session reference (id and redirect URL) to
// the caller; fulfillment and settlement stay inside the gateway.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/simp-lee/tourbase/internal/domain"
)

// CheckoutProvider creates a checkout session for a tour purchase.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, tour *domain.Tour, customerEmail, successURL, cancelURL string) (*domain.CheckoutSession, error)
}

// StripeConfig configures the Stripe checkout provider.
type StripeConfig struct {
	SecretKey string
	Currency  string
}

// StripeProvider implements CheckoutProvider against the Stripe API.
type StripeProvider struct {
	cfg StripeConfig
}

// NewStripeProvider creates a Stripe checkout adapter.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = "usd"
	}
	stripe.Key = cfg.SecretKey
	return &StripeProvider{cfg: cfg}, nil
}

// CreateCheckoutSession creates a one-off payment session for the tour.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, tour *domain.Tour, customerEmail, successURL, cancelURL string) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		CustomerEmail:     stripe.String(customerEmail),
		ClientReferenceID: stripe.String(tour.ID.Hex()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.cfg.Currency),
					// Stripe amounts are in the smallest currency unit.
					UnitAmount: stripe.Int64(int64(tour.Price * 100)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(tour.Name + " Tour"),
						Description: stripe.String(tour.Summary),
					},
				},
			},
		},
	}

	s, err := session.New(params)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to create checkout session", err)
	}

	return &domain.CheckoutSession{
		ID:  s.ID,
		URL: s.URL,
	}, nil
}

// DisabledProvider is used when payment is not configured; the checkout
// endpoint then fails with a server fault instead of a missing-key panic.
type DisabledProvider struct{}

// CreateCheckoutSession always fails.
func (DisabledProvider) CreateCheckoutSession(context.Context, *domain.Tour, string, string, string) (*domain.CheckoutSession, error) {
	return nil, domain.NewAppError(domain.CodeInternal, "payment is not configured", nil)
}
