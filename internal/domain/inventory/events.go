package inventory

// LowStockDetectedEvent is published once per newly stored alert.
type LowStockDetectedEvent struct {
	Alert Alert
}

const LowStockDetectedEventName = "inventory.low_stock_detected"

func (LowStockDetectedEvent) EventName() string { return LowStockDetectedEventName }
