package audit

import (
	"context"
	"time"
)

type EventType string

const (
	UserLoginSuccess       EventType = "USER_LOGIN_SUCCESS"
	UserLoginFailed        EventType = "USER_LOGIN_FAILED"
	UserRegistered         EventType = "USER_REGISTERED"
	OrderCreated           EventType = "ORDER_CREATED"
	OrderStatusChanged     EventType = "ORDER_STATUS_CHANGED"
	PaymentWebhookReceived EventType = "PAYMENT_WEBHOOK_RECEIVED"
)

// EventName is the bus topic shared by every audit event.
const EventName = "audit.recorded"

// Event is a security or business fact written to the audit trail.
type Event struct {
	Type      EventType
	UserID    string
	ClientIP  string
	Method    string
	Path      string
	Timestamp time.Time
	Details   map[string]any
}

func (Event) EventName() string { return EventName }

// Request carries the transport details of the call being audited.
type Request struct {
	ClientIP string
	Method   string
	Path     string
}

type requestKey struct{}

func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

func RequestFrom(ctx context.Context) Request {
	r, _ := ctx.Value(requestKey{}).(Request)
	return r
}

// New stamps an event with the request details found on ctx.
func New(ctx context.Context, typ EventType, userID string, details map[string]any) Event {
	r := RequestFrom(ctx)
	return Event{
		Type:      typ,
		UserID:    userID,
		ClientIP:  r.ClientIP,
		Method:    r.Method,
		Path:      r.Path,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
}
