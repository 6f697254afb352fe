package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Create сохраняет новый заказ вместе с позициями, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderExists
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// List возвращает страницу заказов с опциональным фильтром по статусу.
func (r *orderRepositoryInMemory) List(page, limit int, status *domain.OrderStatus) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.filter(status)
	sortOrders(matched)

	skip := (page - 1) * limit
	if skip >= len(matched) {
		return []domain.Order{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	result := make([]domain.Order, 0, len(matched))
	for _, order := range matched {
		result = append(result, cloneOrder(order))
	}
	return result, nil
}

// Count возвращает число заказов, подходящих под фильтр.
func (r *orderRepositoryInMemory) Count(status *domain.OrderStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.filter(status)), nil
}

// UpdateStatus записывает новый статус заказа.
func (r *orderRepositoryInMemory) UpdateStatus(id string, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	r.items[id] = order
	return cloneOrder(order), nil
}

// MarkPaid атомарно проставляет оплату и создаёт чек.
// Для уже оплаченного заказа — no-op: возвращается текущее состояние,
// второй чек не создаётся.
func (r *orderRepositoryInMemory) MarkPaid(id, paymentID, receiptURL string, paidAt time.Time) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if order.Paid {
		return cloneOrder(order), nil
	}

	ts := paidAt
	order.Status = domain.OrderStatusPaid
	order.Paid = true
	order.PaidAt = &ts
	order.PaymentID = paymentID
	order.UpdatedAt = paidAt
	order.Receipt = &domain.Receipt{
		ID:         uuid.NewString(),
		OrderID:    order.ID,
		ReceiptURL: receiptURL,
		CreatedAt:  paidAt,
	}
	r.items[id] = order
	return cloneOrder(order), nil
}

// SetPaymentSession сохраняет ссылку платёжной сессии.
func (r *orderRepositoryInMemory) SetPaymentSession(id, sessionURL string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.PaymentSessionURL = sessionURL
	order.UpdatedAt = updatedAt
	r.items[id] = order
	return nil
}

// ListAwaitingSession возвращает pending-заказы без платёжной сессии старше olderThan.
func (r *orderRepositoryInMemory) ListAwaitingSession(olderThan time.Time, limit int) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Order
	for _, order := range r.items {
		if order.Status != domain.OrderStatusPending || order.PaymentSessionURL != "" {
			continue
		}
		if !order.CreatedAt.Before(olderThan) {
			continue
		}
		matched = append(matched, order)
	}
	sortOrders(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	result := make([]domain.Order, 0, len(matched))
	for _, order := range matched {
		result = append(result, cloneOrder(order))
	}
	return result, nil
}

func (r *orderRepositoryInMemory) filter(status *domain.OrderStatus) []domain.Order {
	matched := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if status != nil && order.Status != *status {
			continue
		}
		matched = append(matched, order)
	}
	return matched
}

func sortOrders(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

func cloneOrder(order domain.Order) domain.Order {
	cp := order
	cp.Lines = append([]domain.OrderLine(nil), order.Lines...)
	if order.PaidAt != nil {
		ts := *order.PaidAt
		cp.PaidAt = &ts
	}
	if order.Receipt != nil {
		receipt := *order.Receipt
		cp.Receipt = &receipt
	}
	return cp
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
