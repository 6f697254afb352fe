package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

type stubProcessor struct {
	err   error
	calls []domain.PaidOrder
}

func (p *stubProcessor) MarkPaid(_ context.Context, paid domain.PaidOrder) (domain.Order, error) {
	p.calls = append(p.calls, paid)
	if p.err != nil {
		return domain.Order{}, p.err
	}
	return domain.Order{ID: paid.OrderID, Status: domain.OrderStatusPaid, Paid: true}, nil
}

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.ErrorLevel)
	return logger.WithField("component", "test")
}

func paymentMessage(payload string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic: TopicPaymentEvents,
		Value: []byte(payload),
	}
}

func TestPaymentSucceededHandler_AppliesConfirmation(t *testing.T) {
	processor := &stubProcessor{}
	handler := NewPaymentSucceededHandler(processor, testLogger())

	msg := paymentMessage(`{"stripe_payment_id":"pi_1","order_id":"ord-1","receipt_url":"https://pay/r1"}`)
	if err := handler(context.Background(), msg); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if len(processor.calls) != 1 {
		t.Fatalf("expected 1 MarkPaid call, got %d", len(processor.calls))
	}
	got := processor.calls[0]
	if got.OrderID != "ord-1" || got.PaymentID != "pi_1" || got.ReceiptURL != "https://pay/r1" {
		t.Fatalf("unexpected confirmation payload: %+v", got)
	}
}

func TestPaymentSucceededHandler_MalformedPayload(t *testing.T) {
	processor := &stubProcessor{}
	handler := NewPaymentSucceededHandler(processor, testLogger())

	if err := handler(context.Background(), paymentMessage(`not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if len(processor.calls) != 0 {
		t.Fatalf("processor must not be called on malformed payload, got %d calls", len(processor.calls))
	}
}

func TestPaymentSucceededHandler_MissingOrderID(t *testing.T) {
	processor := &stubProcessor{}
	handler := NewPaymentSucceededHandler(processor, testLogger())

	if err := handler(context.Background(), paymentMessage(`{"stripe_payment_id":"pi_1"}`)); err == nil {
		t.Fatal("expected error for missing order_id")
	}
	if len(processor.calls) != 0 {
		t.Fatalf("processor must not be called without order_id, got %d calls", len(processor.calls))
	}
}

func TestPaymentSucceededHandler_UnknownOrderNotRetried(t *testing.T) {
	processor := &stubProcessor{err: domain.ErrOrderNotFound}
	handler := NewPaymentSucceededHandler(processor, testLogger())

	msg := paymentMessage(`{"stripe_payment_id":"pi_1","order_id":"ghost","receipt_url":"https://pay/r1"}`)
	if err := handler(context.Background(), msg); err != nil {
		t.Fatalf("unknown order must not be retried, got error: %v", err)
	}
}

func TestPaymentSucceededHandler_TransientErrorRetried(t *testing.T) {
	processor := &stubProcessor{err: errors.New("storage unavailable")}
	handler := NewPaymentSucceededHandler(processor, testLogger())

	msg := paymentMessage(`{"stripe_payment_id":"pi_1","order_id":"ord-1","receipt_url":"https://pay/r1"}`)
	if err := handler(context.Background(), msg); err == nil {
		t.Fatal("transient processor error must propagate for retry")
	}
}
