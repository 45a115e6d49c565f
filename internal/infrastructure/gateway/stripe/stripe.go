// Package stripe adapts Stripe Checkout Sessions and PaymentIntents to the
// payment gateway port.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apppay "github.com/escabi/escabiapi/internal/application/payment"
	dompay "github.com/escabi/escabiapi/internal/domain/payment"

	stripeapi "github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

const (
	Name = "stripe"

	metaExternalReference = "external_reference"
	headerSignature       = "Stripe-Signature"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

// Gateway implements payment.Gateway on top of the SDK's package-level client.
type Gateway struct {
	webhookSecret string
}

var _ apppay.Gateway = (*Gateway)(nil)

// New sets the SDK key and HTTP client once for the process.
func New(cfg Config) *Gateway {
	stripeapi.Key = cfg.SecretKey
	if cfg.Timeout > 0 {
		stripeapi.SetHTTPClient(&http.Client{Timeout: cfg.Timeout})
	}
	return &Gateway{webhookSecret: cfg.WebhookSecret}
}

func (g *Gateway) Name() string { return Name }

// CreatePreference opens a Checkout Session. The order id travels as client
// reference and as PaymentIntent metadata so the webhook can find it.
func (g *Gateway) CreatePreference(_ context.Context, req apppay.PreferenceRequest) (*apppay.Preference, error) {
	params := &stripeapi.CheckoutSessionParams{
		Mode:              stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SuccessURL:        stripeapi.String(req.BackURLs.Success),
		CancelURL:         stripeapi.String(req.BackURLs.Failure),
		ClientReferenceID: stripeapi.String(req.ExternalReference),
		PaymentIntentData: &stripeapi.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{metaExternalReference: req.ExternalReference},
		},
	}
	params.AddMetadata(metaExternalReference, req.ExternalReference)
	for _, it := range req.Items {
		params.LineItems = append(params.LineItems, &stripeapi.CheckoutSessionLineItemParams{
			Quantity: stripeapi.Int64(int64(it.Quantity)),
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripeapi.String(strings.ToLower(it.CurrencyID)),
				UnitAmount: stripeapi.Int64(it.UnitPrice),
				ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripeapi.String(it.Title),
				},
			},
		})
	}

	s, err := session.New(params)
	if err != nil {
		return nil, classify(err)
	}
	return &apppay.Preference{ID: s.ID, CheckoutURL: s.URL}, nil
}

// GetPayment reads a PaymentIntent and folds its status into the gateway set.
func (g *Gateway) GetPayment(_ context.Context, paymentID string) (*dompay.Payment, error) {
	pi, err := paymentintent.Get(paymentID, nil)
	if err != nil {
		return nil, classify(err)
	}
	raw, _ := json.Marshal(pi)
	return &dompay.Payment{
		ID:                pi.ID,
		Status:            MapStatus(pi.Status),
		ExternalReference: pi.Metadata[metaExternalReference],
		Raw:               raw,
	}, nil
}

// MapStatus translates PaymentIntent states to gateway statuses.
func MapStatus(s stripeapi.PaymentIntentStatus) dompay.Status {
	switch s {
	case stripeapi.PaymentIntentStatusSucceeded:
		return dompay.StatusApproved
	case stripeapi.PaymentIntentStatusCanceled:
		return dompay.StatusCancelled
	case stripeapi.PaymentIntentStatusProcessing:
		return dompay.StatusInProcess
	case stripeapi.PaymentIntentStatusRequiresCapture:
		return dompay.StatusAuthorized
	case stripeapi.PaymentIntentStatusRequiresPaymentMethod,
		stripeapi.PaymentIntentStatusRequiresConfirmation,
		stripeapi.PaymentIntentStatusRequiresAction:
		// A declined attempt returns the intent here and Checkout lets the
		// customer retry, so the order stays pending.
		return dompay.StatusPending
	default:
		return dompay.StatusPending
	}
}

// ParseWebhook verifies the Stripe-Signature header and maps checkout and
// payment_intent events onto a PaymentNotification for the intent id.
func (g *Gateway) ParseWebhook(_ context.Context, req apppay.WebhookRequest) (dompay.Notification, error) {
	event, err := webhook.ConstructEventWithOptions(req.Body, req.Header.Get(headerSignature), g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dompay.ErrInvalidSignature, err)
	}
	return notificationFor(event), nil
}

// Events that fetch the intent. Creation and retryable failures are left
// out; an expired session cancels its intent, which then reads as cancelled.
var sessionEvents = map[string]bool{
	"checkout.session.completed":               true,
	"checkout.session.async_payment_succeeded": true,
	"checkout.session.async_payment_failed":    true,
	"checkout.session.expired":                 true,
}

var intentEvents = map[string]bool{
	"payment_intent.succeeded":                 true,
	"payment_intent.processing":                true,
	"payment_intent.canceled":                  true,
	"payment_intent.amount_capturable_updated": true,
}

func notificationFor(event stripeapi.Event) dompay.Notification {
	typ := string(event.Type)
	if event.Data == nil {
		return dompay.UnknownNotification{Topic: typ, ID: event.ID}
	}
	switch {
	case sessionEvents[typ]:
		var s stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err == nil && s.PaymentIntent != nil && s.PaymentIntent.ID != "" {
			return dompay.PaymentNotification{PaymentID: s.PaymentIntent.ID}
		}
	case intentEvents[typ]:
		var pi stripeapi.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err == nil && pi.ID != "" {
			return dompay.PaymentNotification{PaymentID: pi.ID}
		}
	}
	return dompay.UnknownNotification{Topic: typ, ID: event.ID}
}

// classify maps SDK errors: 5xx, rate limits and transport failures are
// unavailability, a missing resource is ErrNotFound, other 4xx are rejections.
func classify(err error) error {
	var se *stripeapi.Error
	if !errors.As(err, &se) {
		return fmt.Errorf("%w: stripe: %w", dompay.ErrGatewayUnavailable, err)
	}
	switch {
	case se.HTTPStatusCode >= 500 || se.HTTPStatusCode == http.StatusTooManyRequests || se.HTTPStatusCode == 0:
		return fmt.Errorf("%w: stripe: %w", dompay.ErrGatewayUnavailable, err)
	case se.HTTPStatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: stripe: %w", dompay.ErrNotFound, err)
	default:
		return fmt.Errorf("%w: stripe: %w", dompay.ErrGatewayRejected, err)
	}
}
