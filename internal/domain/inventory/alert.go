package inventory

import (
	"fmt"
	"time"
)

const DefaultLowStockThreshold = 10

// Alert is an append-only low-stock fact. Alerts are never cleared when stock recovers.
type Alert struct {
	ID           string
	ProductID    string
	ProductName  string
	CurrentStock int
	Threshold    int
	Message      string
	Timestamp    time.Time
}

// LowStockMessage is the dedup key text for an alert.
func LowStockMessage(productName string, stock int) string {
	return fmt.Sprintf("low stock for product '%s' (%d)", productName, stock)
}

// IsLow reports whether stock is at or under the threshold.
func IsLow(stock, threshold int) bool { return stock <= threshold }

func NewAlert(id, productID, productName string, stock, threshold int) *Alert {
	return &Alert{
		ID:           id,
		ProductID:    productID,
		ProductName:  productName,
		CurrentStock: stock,
		Threshold:    threshold,
		Message:      LowStockMessage(productName, stock),
		Timestamp:    time.Now().UTC(),
	}
}
