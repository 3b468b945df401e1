package shared

// Asynq task types
const (
	TypeSendSettlementNotification = "notification:settlement"
	TypeCleanupExpiredCheckouts    = "checkout:cleanup_expired"
	TypeRetryFailedWebhooks        = "payment:retry_failed_webhooks"
)

// Asynq queues
const (
	QueueHigh        = "high"
	QueueDefault     = "default"
	QueueLow         = "low"
	QueueMaintenance = "maintenance"
)

// SettlementNotificationPayload is enqueued once per paid settlement.
type SettlementNotificationPayload struct {
	BookingTrxID string `json:"booking_trx_id"`
	UserID       string `json:"user_id"`
	CourseID     string `json:"course_id"`
	GrandTotal   int64  `json:"grand_total"`
	PaymentType  string `json:"payment_type"`
}

// EmptyPayload is used by scheduled jobs that take no arguments.
type EmptyPayload struct{}
