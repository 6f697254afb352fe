package domain

import "fmt"

// ItemRequest — запрошенная клиентом позиция будущего заказа.
// Цена клиентом не передаётся: источником цены служит только каталог.
type ItemRequest struct {
	ProductID string
	Quantity  int32
}

// ComputeTotals считает сумму заказа и количество товаров по запрошенным
// позициям и данным каталога. Чистая функция без I/O.
// Отсутствие товара в catalog после успешной валидации — нарушение инварианта,
// а не штатная ошибка.
func ComputeTotals(items []ItemRequest, catalog map[string]Product) (int64, int32, error) {
	var amount int64
	var count int32
	for _, item := range items {
		product, ok := catalog[item.ProductID]
		if !ok {
			return 0, 0, fmt.Errorf("product %s missing from validated catalog: %w", item.ProductID, ErrProductUnresolved)
		}
		amount += product.PriceMinor * int64(item.Quantity)
		count += item.Quantity
	}
	return amount, count, nil
}

// CatalogByID индексирует ответ каталога по идентификатору товара.
func CatalogByID(products []Product) map[string]Product {
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID
}
