package domain

import "time"

// OrderRepository описывает требования к хранилищу заказов.
// Репозиторий — единственный модификатор строк Order/OrderLine/Receipt;
// конкурентные обновления одного заказа сериализуются на его уровне.
type OrderRepository interface {
	// Create атомарно сохраняет заказ вместе с позициями.
	Create(order Order) error
	// Get возвращает заказ с позициями или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// List возвращает страницу заказов: skip = (page-1)*limit,
	// с опциональным фильтром по статусу. Сортировка — от новых к старым.
	List(page, limit int, status *OrderStatus) ([]Order, error)
	// Count возвращает число заказов, подходящих под фильтр по статусу.
	Count(status *OrderStatus) (int, error)
	// UpdateStatus записывает новый статус и возвращает обновлённый заказ.
	UpdateStatus(id string, status OrderStatus, updatedAt time.Time) (Order, error)
	// MarkPaid одной атомарной операцией переводит заказ в paid, проставляет
	// paid/paid_at/payment_id и создаёт Receipt. Повторный вызов для уже
	// оплаченного заказа — no-op, второй чек не создаётся.
	MarkPaid(id, paymentID, receiptURL string, paidAt time.Time) (Order, error)
	// SetPaymentSession сохраняет ссылку платёжной сессии заказа.
	SetPaymentSession(id, sessionURL string, updatedAt time.Time) error
	// ListAwaitingSession возвращает pending-заказы без платёжной сессии,
	// созданные раньше olderThan. Используется воркером реконсиляции.
	ListAwaitingSession(olderThan time.Time, limit int) ([]Order, error)
}
