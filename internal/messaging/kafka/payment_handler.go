package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// PaidOrderProcessor переносит подтверждение оплаты на заказ.
// Реализуется оркестратором заказов.
type PaidOrderProcessor interface {
	MarkPaid(ctx context.Context, paid domain.PaidOrder) (domain.Order, error)
}

// NewPaymentSucceededHandler возвращает MessageHandler для событий payment.succeeded.
// Доставка at-least-once: повторная обработка уже оплаченного заказа — no-op
// на стороне процессора. Отсутствующий заказ логируется как аномалия и не
// ретраится: сессии создаются только для сохранённых заказов, а значит ретрай
// не вернёт строку, которой нет.
func NewPaymentSucceededHandler(processor PaidOrderProcessor, logger *log.Entry) MessageHandler {
	if logger == nil {
		logger = log.WithField("component", "payment-handler")
	}

	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		var event PaymentSucceededEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			// Некорректный payload ретраями не чинится — пусть уходит в DLQ.
			return fmt.Errorf("unmarshal payment.succeeded: %w", err)
		}
		if event.OrderID == "" {
			return fmt.Errorf("payment.succeeded without order_id")
		}

		order, err := processor.MarkPaid(ctx, domain.PaidOrder{
			PaymentID:  event.StripePaymentID,
			OrderID:    event.OrderID,
			ReceiptURL: event.ReceiptURL,
		})
		if err != nil {
			if domain.IsNotFound(err) {
				logger.WithFields(log.Fields{
					"order_id":   event.OrderID,
					"payment_id": event.StripePaymentID,
				}).Error("payment confirmation references unknown order")
				return nil
			}
			return fmt.Errorf("mark order %s paid: %w", event.OrderID, err)
		}

		logger.WithFields(log.Fields{
			"order_id":   order.ID,
			"payment_id": event.StripePaymentID,
			"status":     order.Status,
		}).Info("payment confirmation applied")
		return nil
	}
}
