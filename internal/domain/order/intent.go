package order

import "time"

type IntentState string

const (
	IntentOpen      IntentState = "open"
	IntentCommitted IntentState = "committed"
	IntentAborted   IntentState = "aborted"
)

type Reservation struct {
	ProductID string
	Quantity  int
}

// Intent journals the stock reserved for an order that is being created so a
// crash between reservation and insertion can be reconciled.
type Intent struct {
	OrderID   string
	UserID    string
	Reserved  []Reservation
	State     IntentState
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewIntent(orderID, userID string) *Intent {
	now := time.Now().UTC()
	return &Intent{
		OrderID:   orderID,
		UserID:    userID,
		Reserved:  []Reservation{},
		State:     IntentOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (i *Intent) Clone() *Intent {
	if i == nil {
		return nil
	}
	clone := *i
	clone.Reserved = append([]Reservation{}, i.Reserved...)
	return &clone
}
