package payment

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound           = errors.New("payment: not found")
	ErrGatewayUnavailable = errors.New("payment: gateway unavailable")
	ErrGatewayRejected    = errors.New("payment: gateway rejected the request")
	ErrInvalidSignature   = errors.New("payment: invalid webhook signature")
)

// Status is the gateway-side payment status.
type Status string

const (
	StatusApproved    Status = "approved"
	StatusPending     Status = "pending"
	StatusInProcess   Status = "in_process"
	StatusAuthorized  Status = "authorized"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
	StatusRefunded    Status = "refunded"
	StatusChargedBack Status = "charged_back"
	StatusUnknown     Status = "unknown"
)

// ParseStatus maps a raw gateway string onto the known set; anything else is StatusUnknown.
func ParseStatus(raw string) Status {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusApproved, StatusPending, StatusInProcess, StatusAuthorized,
		StatusRejected, StatusCancelled, StatusRefunded, StatusChargedBack:
		return s
	case "canceled":
		return StatusCancelled
	}
	return StatusUnknown
}

// Failed reports statuses that cancel a pending order.
func (s Status) Failed() bool {
	return s == StatusRejected || s == StatusCancelled
}

// Payment is the gateway's view of a payment as fetched by id.
type Payment struct {
	ID                string
	Status            Status
	ExternalReference string
	Raw               []byte
}

// Record is the append-only audit copy of a fetched payment.
type Record struct {
	ID                string
	Gateway           string
	PaymentID         string
	ExternalReference string
	Status            Status
	Raw               []byte
	ReceivedAt        time.Time
}
