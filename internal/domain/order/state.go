package order

// Policy decides whether an admin may move an order between two statuses.
type Policy interface {
	Allows(from, to Status) bool
}

// PermissivePolicy allows any status to be set to any other, which keeps the
// admin override of the legacy system.
type PermissivePolicy struct{}

func (PermissivePolicy) Allows(Status, Status) bool { return true }

// StrictPolicy enforces the forward-only lifecycle table.
type StrictPolicy struct{}

var transitions = map[Status]map[Status]struct{}{
	StatusPending:    {StatusProcessing: {}, StatusCancelled: {}},
	StatusProcessing: {StatusShipped: {}, StatusCancelled: {}, StatusRefunded: {}},
	StatusShipped:    {StatusDelivered: {}, StatusRefunded: {}},
	StatusDelivered:  {StatusRefunded: {}},
}

func (StrictPolicy) Allows(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// NewPolicy returns StrictPolicy when strict is set.
func NewPolicy(strict bool) Policy {
	if strict {
		return StrictPolicy{}
	}
	return PermissivePolicy{}
}
