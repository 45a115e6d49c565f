package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: conflict")
	ErrStatusConflict    = errors.New("order: status changed concurrently")
	ErrInvalidStatus     = errors.New("order: invalid status")
	ErrInvalidTransition = errors.New("order: transition not allowed")
	ErrEmptyItems        = errors.New("order: at least one item is required")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
	ErrInvalidAddress    = errors.New("order: shipping address is incomplete")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// ParseStatus accepts any known status literal, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Releasing reports whether entering s returns stock to the catalog.
func (s Status) Releasing() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// Item is a frozen copy of the product at purchase time.
type Item struct {
	ProductID       string
	Name            string
	Quantity        int
	PriceAtPurchase int64
}

func (i Item) Subtotal() int64 { return int64(i.Quantity) * i.PriceAtPurchase }

type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

func (a Address) Validate() error {
	for _, v := range []string{a.Street, a.City, a.State, a.ZipCode, a.Country} {
		if strings.TrimSpace(v) == "" {
			return ErrInvalidAddress
		}
	}
	return nil
}

// Order is immutable after creation except for Status, PaymentID,
// PreferenceID and UpdatedAt.
type Order struct {
	ID              string
	UserID          string
	Items           []Item
	TotalAmount     int64
	ShippingAddress Address
	Status          Status
	PaymentID       string
	PreferenceID    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func New(id, userID string, items []Item, addr Address) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	var total int64
	snapshot := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		total += it.Subtotal()
		snapshot = append(snapshot, it)
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		UserID:          userID,
		Items:           snapshot,
		TotalAmount:     total,
		ShippingAddress: addr,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (o *Order) OwnedBy(userID string) bool { return o.UserID == userID }

func (o *Order) Payable() bool { return o.Status == StatusPending }

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}

// StatusChange is a compare-and-swap on the order status.
type StatusChange struct {
	From      Status
	To        Status
	PaymentID string
	At        time.Time
}

// Apply mutates o when its status still equals c.From.
func (o *Order) Apply(c StatusChange) error {
	if o.Status != c.From {
		return fmt.Errorf("%w: expected %s, found %s", ErrStatusConflict, c.From, o.Status)
	}
	o.Status = c.To
	if c.PaymentID != "" {
		o.PaymentID = c.PaymentID
	}
	o.UpdatedAt = c.At
	return nil
}
