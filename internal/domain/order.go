package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, оплата ещё не подтверждена.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid — оплата подтверждена платёжным провайдером.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusDelivered — заказ доставлен покупателю.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён до завершения цикла.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus валидирует строковое представление статуса.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	status := OrderStatus(raw)
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusDelivered, OrderStatusCancelled:
		return status, true
	default:
		return "", false
	}
}

// OrderLine представляет одну позицию заказа.
// Цена позиции — снимок каталожной цены на момент создания заказа,
// последующие изменения цен в каталоге уже размещённый заказ не затрагивают.
type OrderLine struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — внешний идентификатор товара в каталоге.
	ProductID string
	// Quantity — количество единиц товара.
	Quantity int32
	// PriceMinor — цена за единицу в минимальных денежных единицах (например, центы).
	PriceMinor int64
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Receipt — подтверждение оплаты, связанное с заказом 1:1.
type Receipt struct {
	ID         string
	OrderID    string
	ReceiptURL string
	CreatedAt  time.Time
}

// Order агрегирует состояние заказа, его позиции и чек об оплате.
type Order struct {
	ID               string
	Status           OrderStatus
	Currency         string
	TotalAmountMinor int64
	TotalItems       int32
	Paid             bool
	PaidAt           *time.Time
	// PaymentID — внешний идентификатор платежа, заполняется при подтверждении оплаты.
	PaymentID string
	// PaymentSessionURL — ссылка платёжной сессии; пустая, если сессию создать не удалось.
	PaymentSessionURL string
	Lines             []OrderLine
	Receipt           *Receipt
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.Currency == "" {
		errs = append(errs, ErrCurrencyRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.TotalAmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	// Сверяем производные итоги с позициями: сумма qty*price и сумма количеств.
	var amount int64
	var items int32
	for _, line := range o.Lines {
		if line.ProductID == "" {
			errs = append(errs, ErrProductIDRequired)
		}
		if line.Quantity <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.PriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		amount += int64(line.Quantity) * line.PriceMinor
		items += line.Quantity
	}
	if amount != o.TotalAmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}
	if items != o.TotalItems {
		errs = append(errs, ErrItemsMismatch)
	}
	if o.Paid && o.PaidAt == nil {
		errs = append(errs, ErrPaidAtMissing)
	}

	return errs
}
