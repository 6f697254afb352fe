package catalog

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// MockService — конфигурируемая заглушка CatalogService для тестов.
type MockService struct {
	Products map[string]domain.Product
	Err      error

	ValidateCalls int
	LastIDs       []string
}

// NewMockService возвращает mock с небольшим набором товаров по умолчанию.
func NewMockService() *MockService {
	return &MockService{
		Products: map[string]domain.Product{
			"p1": {ID: "p1", Name: "Widget", PriceMinor: 1000},
			"p2": {ID: "p2", Name: "Gadget", PriceMinor: 250},
		},
	}
}

// ValidateProducts резолвит идентификаторы по настроенной карте товаров,
// воспроизводя контракт «всё или ничего» реального клиента.
func (m *MockService) ValidateProducts(_ context.Context, ids []string) ([]domain.Product, error) {
	m.ValidateCalls++
	m.LastIDs = append([]string(nil), ids...)

	if m.Err != nil {
		return nil, m.Err
	}

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		product, ok := m.Products[id]
		if !ok {
			return nil, fmt.Errorf("unresolved products [%s]: %w", id, domain.ErrProductUnresolved)
		}
		products = append(products, product)
	}
	return products, nil
}

var _ domain.CatalogService = (*MockService)(nil)
