package payment

import "strings"

// Notification is the tagged union of inbound webhook shapes.
type Notification interface {
	isNotification()
}

// PaymentNotification announces a change on a gateway payment.
type PaymentNotification struct {
	PaymentID string
}

// UnknownNotification is any topic the service does not act on.
type UnknownNotification struct {
	Topic string
	ID    string
}

func (PaymentNotification) isNotification() {}
func (UnknownNotification) isNotification() {}

const topicPayment = "payment"

// ParseNotification reads the query-string driven shapes sent by the gateway:
// the legacy "topic=payment&id=" form and the "type=payment&data.id=" form.
func ParseNotification(topic, id, typ, dataID string) Notification {
	t := strings.ToLower(strings.TrimSpace(topic))
	ref := strings.TrimSpace(id)
	if t == "" {
		t = strings.ToLower(strings.TrimSpace(typ))
	}
	if ref == "" {
		ref = strings.TrimSpace(dataID)
	}
	if t == topicPayment && ref != "" {
		return PaymentNotification{PaymentID: ref}
	}
	return UnknownNotification{Topic: t, ID: ref}
}
