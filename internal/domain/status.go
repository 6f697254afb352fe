package domain

// statusTransitions задаёт таблицу допустимых переходов между статусами.
// Таблица данных, а не код: pending может стать paid или cancelled,
// paid — delivered или cancelled, delivered и cancelled — терминальные.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// CanTransition отвечает, допустим ли переход from → to.
// Переход в тот же статус считается допустимым (идемпотентный no-op).
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
