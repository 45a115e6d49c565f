// Package notify delivers low-stock alerts to staff.
package notify

import (
	"context"
	"fmt"

	dominv "github.com/escabi/escabiapi/internal/domain/inventory"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Email sends one plain text message per alert over SMTP.
type Email struct {
	client sender
	from   string
	to     []string
}

func NewEmail(cfg SMTPConfig) (*Email, error) {
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("notify: at least one recipient is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("notify: smtp client: %w", err)
	}
	return &Email{client: client, from: cfg.From, to: cfg.To}, nil
}

func (e *Email) Notify(ctx context.Context, a dominv.Alert) error {
	msg, err := e.message(a)
	if err != nil {
		return err
	}
	if err := e.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify: send alert %s: %w", a.ID, err)
	}
	return nil
}

func (e *Email) message(a dominv.Alert) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(e.from); err != nil {
		return nil, fmt.Errorf("notify: from: %w", err)
	}
	if err := msg.To(e.to...); err != nil {
		return nil, fmt.Errorf("notify: to: %w", err)
	}
	msg.Subject(fmt.Sprintf("[EscabiAPI] Low stock: %s", a.ProductName))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"%s\n\nProduct: %s (%s)\nCurrent stock: %d\nThreshold: %d\nDetected at: %s\n",
		a.Message, a.ProductName, a.ProductID, a.CurrentStock, a.Threshold,
		a.Timestamp.Format("2006-01-02 15:04:05 MST"),
	))
	return msg, nil
}

// Log writes alerts to the application log. Used when SMTP is not configured.
type Log struct {
	log observability.Logger
}

func NewLog(logger observability.Logger) *Log {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Log{log: logger.With(observability.F("component", "alert_notifier"))}
}

func (l *Log) Notify(ctx context.Context, a dominv.Alert) error {
	logctx.FromOr(ctx, l.log).Warn("inventory_low_stock",
		observability.F("alert_id", a.ID),
		observability.F("product_id", a.ProductID),
		observability.F("product_name", a.ProductName),
		observability.F("current_stock", a.CurrentStock),
		observability.F("threshold", a.Threshold),
	)
	return nil
}
