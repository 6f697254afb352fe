package domain

import "errors"

var (
	// Ошибка отсутствующего кода валюты.
	ErrCurrencyRequired = errors.New("currency is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("total_amount_minor must be non-negative")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrLineQtyInvalid = errors.New("line quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrLinePriceInvalid = errors.New("line price must be non-negative")
	// Ошибка отсутствующего идентификатора товара в позиции.
	ErrProductIDRequired = errors.New("line product_id is required")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match lines sum")
	// Ошибка несоответствия количества товаров и сумм позиций.
	ErrItemsMismatch = errors.New("order total_items does not match lines sum")
	// Ошибка оплаченного заказа без отметки времени оплаты.
	ErrPaidAtMissing = errors.New("paid order must have paid_at timestamp")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists возвращается при попытке создать заказ с занятым ID.
	ErrOrderExists = errors.New("order already exists")
	// ErrReceiptExists сигнализирует о попытке создать второй чек для заказа.
	ErrReceiptExists = errors.New("receipt already exists for order")
	// ErrInvalidItems — запрос на создание заказа не прошёл проверку формы.
	ErrInvalidItems = errors.New("order items are invalid")
	// ErrInvalidPagination — некорректные параметры страницы или лимита.
	ErrInvalidPagination = errors.New("page and limit must be positive")
	// ErrStatusTransition — переход между статусами запрещён таблицей переходов.
	ErrStatusTransition = errors.New("order status transition is not allowed")

	// ErrProductUnresolved — каталог не подтвердил один или несколько товаров.
	// Создание заказа прерывается целиком, частичные данные каталога не используются.
	ErrProductUnresolved = errors.New("some products could not be resolved")
	// ErrCatalogUnavailable — каталог недоступен или вернул ошибку.
	ErrCatalogUnavailable = errors.New("catalog service unavailable")
	// ErrPaymentUnavailable — платёжный сервис недоступен или вернул ошибку.
	ErrPaymentUnavailable = errors.New("payment service unavailable")
)

// IsNotFound проверяет, является ли ошибка отсутствием заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

// IsUpstreamUnavailable относит ошибку к классу недоступности удалённых сервисов.
func IsUpstreamUnavailable(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable) || errors.Is(err, ErrPaymentUnavailable)
}

// IsValidation относит ошибку к классу некорректного запроса.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidItems) ||
		errors.Is(err, ErrInvalidPagination) ||
		errors.Is(err, ErrStatusTransition) ||
		errors.Is(err, ErrProductUnresolved)
}
