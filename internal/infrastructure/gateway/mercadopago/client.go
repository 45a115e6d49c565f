// Package mercadopago talks to the MercadoPago REST API for hosted checkout
// preferences and payment lookups.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apppay "github.com/escabi/escabiapi/internal/application/payment"
	dompay "github.com/escabi/escabiapi/internal/domain/payment"
)

const (
	Name           = "mercadopago"
	DefaultBaseURL = "https://api.mercadopago.com"
	defaultTimeout = 10 * time.Second

	// DefaultSignatureTolerance bounds the age of a signed webhook.
	DefaultSignatureTolerance = 5 * time.Minute

	// Payment payloads are small; anything larger is refused.
	maxBody = 1 << 20
)

type Config struct {
	AccessToken   string
	WebhookSecret string
	BaseURL       string
	Timeout       time.Duration

	// SignatureTolerance defaults to DefaultSignatureTolerance.
	SignatureTolerance time.Duration
}

// Client implements payment.Gateway.
type Client struct {
	token     string
	secret    string
	tolerance time.Duration
	baseURL   string
	http      *http.Client
}

var _ apppay.Gateway = (*Client)(nil)

// ErrResponseTooLarge is wrapped when a response exceeds the 1 MiB cap.
var ErrResponseTooLarge = errors.New("mercadopago: response too large")

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.SignatureTolerance <= 0 {
		cfg.SignatureTolerance = DefaultSignatureTolerance
	}
	return &Client{
		token:     cfg.AccessToken,
		secret:    cfg.WebhookSecret,
		tolerance: cfg.SignatureTolerance,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Name() string { return Name }

type preferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type backURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type preferenceBody struct {
	Items             []preferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url,omitempty"`
	BackURLs          backURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// CreatePreference posts a checkout preference. Unit prices go out in major
// units since the API takes decimals.
func (c *Client) CreatePreference(ctx context.Context, req apppay.PreferenceRequest) (*apppay.Preference, error) {
	body := preferenceBody{
		Items:             make([]preferenceItem, 0, len(req.Items)),
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		BackURLs: backURLs{
			Success: req.BackURLs.Success,
			Failure: req.BackURLs.Failure,
			Pending: req.BackURLs.Pending,
		},
	}
	if req.AutoReturn {
		body.AutoReturn = "approved"
	}
	for _, it := range req.Items {
		body.Items = append(body.Items, preferenceItem{
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  float64(it.UnitPrice) / 100,
			CurrencyID: it.CurrencyID,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: encode preference: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, "/checkout/preferences", payload)
	if err != nil {
		return nil, err
	}
	var out preferenceResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: mercadopago: decode preference: %w", dompay.ErrGatewayUnavailable, err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: mercadopago: preference without id", dompay.ErrGatewayUnavailable)
	}
	return &apppay.Preference{ID: out.ID, CheckoutURL: out.InitPoint}, nil
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	ExternalReference string      `json:"external_reference"`
}

// GetPayment fetches a payment by id and keeps the raw body for the audit copy.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*dompay.Payment, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out paymentResponse
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: mercadopago: decode payment: %w", dompay.ErrGatewayUnavailable, err)
	}
	id := out.ID.String()
	if id == "" {
		id = paymentID
	}
	return &dompay.Payment{
		ID:                id,
		Status:            dompay.ParseStatus(out.Status),
		ExternalReference: out.ExternalReference,
		Raw:               raw,
	}, nil
}

// do sends one request. Transport failures and 5xx are ErrGatewayUnavailable,
// 404 on a lookup is ErrNotFound, other 4xx are ErrGatewayRejected.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: mercadopago %s %s: %w", dompay.ErrGatewayUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: mercadopago: read body: %w", dompay.ErrGatewayUnavailable, err)
	}
	if len(raw) > maxBody {
		return nil, fmt.Errorf("%w: mercadopago %s %s: %w", dompay.ErrGatewayUnavailable, method, path, ErrResponseTooLarge)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: mercadopago %s %s: status %d", dompay.ErrGatewayUnavailable, method, path, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound && method == http.MethodGet:
		return nil, fmt.Errorf("%w: mercadopago %s", dompay.ErrNotFound, path)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: mercadopago %s %s: status %d: %s",
			dompay.ErrGatewayRejected, method, path, resp.StatusCode, apiMessage(raw))
	}
	return raw, nil
}

func apiMessage(raw []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && (e.Message != "" || e.Error != "") {
		if e.Message != "" {
			return e.Message
		}
		return e.Error
	}
	return strings.TrimSpace(string(raw))
}
