package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// События жизненного цикла заказа, публикуемые этим сервисом.
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderPaid          EventType = "order.paid"

	// Событие платёжного сервиса, потребляемое этим сервисом.
	EventTypePaymentSucceeded EventType = "payment.succeeded"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "orders.order.events"
	TopicPaymentEvents   = "orders.payment.events"
	TopicDeadLetterQueue = "orders.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent представляет событие заказа
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// PaymentSucceededEvent — полезная нагрузка подтверждения оплаты.
// Имена полей зафиксированы контрактом платёжного сервиса.
type PaymentSucceededEvent struct {
	StripePaymentID string `json:"stripe_payment_id"`
	OrderID         string `json:"order_id"`
	ReceiptURL      string `json:"receipt_url"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
