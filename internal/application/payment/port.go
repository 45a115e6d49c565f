package payment

import (
	"context"
	"net/http"
	"net/url"

	dompay "github.com/escabi/escabiapi/internal/domain/payment"
)

// Gateway is the outbound port to a hosted checkout provider.
type Gateway interface {
	Name() string
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*dompay.Payment, error)
	// ParseWebhook authenticates and decodes an inbound callback. It returns
	// dompay.ErrInvalidSignature when the request cannot be trusted.
	ParseWebhook(ctx context.Context, req WebhookRequest) (dompay.Notification, error)
}

type PreferenceItem struct {
	Title      string
	Quantity   int
	UnitPrice  int64 // minor units
	CurrencyID string
}

type BackURLs struct {
	Success string
	Failure string
	Pending string
}

type PreferenceRequest struct {
	Items             []PreferenceItem
	ExternalReference string
	NotificationURL   string
	BackURLs          BackURLs
	AutoReturn        bool
}

type Preference struct {
	ID          string
	CheckoutURL string
}

// WebhookRequest is the transport-neutral copy of an inbound callback.
type WebhookRequest struct {
	Query  url.Values
	Header http.Header
	Body   []byte
}

type IDGenerator interface {
	NewID() string
}
