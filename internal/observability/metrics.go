package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MInventoryAlerts         MetricKey = "inventory_alerts_total"
	MStockCompensations      MetricKey = "stock_compensations_total"
	MWebhookNotifications    MetricKey = "payment_webhook_notifications_total"
)

// Outcome label values shared by use cases and adapters.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)
