package domain

import "context"

// Product — авторитетные данные каталога по одному товару.
type Product struct {
	ID         string
	Name       string
	PriceMinor int64
}

// CatalogService описывает взаимодействие с удалённым каталогом товаров.
type CatalogService interface {
	// ValidateProducts резолвит пакет идентификаторов в данные каталога.
	// Контракт «всё или ничего»: если хотя бы один идентификатор не найден
	// или каталог недоступен, возвращается ошибка, а не частичный ответ.
	ValidateProducts(ctx context.Context, ids []string) ([]Product, error)
}

// SessionItem — позиция, передаваемая платёжному провайдеру для отображения плательщику.
type SessionItem struct {
	Name       string
	PriceMinor int64
	Quantity   int32
}

// SessionRequest — запрос на создание платёжной сессии для сохранённого заказа.
type SessionRequest struct {
	OrderID  string
	Currency string
	Items    []SessionItem
}

// PaymentSession — внешняя ссылка, по которой плательщик завершает оплату.
type PaymentSession struct {
	ID  string
	URL string
}

// PaymentService описывает взаимодействие с платёжным провайдером.
type PaymentService interface {
	// CreateSession инициирует платёжную сессию для заказа.
	CreateSession(ctx context.Context, req SessionRequest) (PaymentSession, error)
}

// PaidOrder — полезная нагрузка асинхронного сигнала об успешной оплате.
// Доставка at-least-once: обработчик обязан быть идемпотентным.
type PaidOrder struct {
	PaymentID  string
	OrderID    string
	ReceiptURL string
}
