package payment

import (
	"context"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// MockService — конфигурируемая заглушка PaymentService для тестов.
type MockService struct {
	Session domain.PaymentSession
	Err     error

	CreateCalls int
	LastRequest domain.SessionRequest
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	return &MockService{
		Session: domain.PaymentSession{
			ID:  "sess_mock",
			URL: "https://pay.example/sess_mock",
		},
	}
}

// CreateSession возвращает заранее настроенный результат и считает вызовы.
func (m *MockService) CreateSession(_ context.Context, req domain.SessionRequest) (domain.PaymentSession, error) {
	m.CreateCalls++
	m.LastRequest = req
	if m.Err != nil {
		return domain.PaymentSession{}, m.Err
	}
	return m.Session, nil
}

var _ domain.PaymentService = (*MockService)(nil)
