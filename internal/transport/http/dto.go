package httpapi

import (
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/service/orders"
)

// createOrderRequest — тело POST /orders.
type createOrderRequest struct {
	Items []orderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type orderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int32  `json:"quantity" binding:"required,gt=0"`
}

func (r createOrderRequest) toItems() []domain.ItemRequest {
	items := make([]domain.ItemRequest, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.ItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return items
}

// changeStatusRequest — тело PATCH /orders/:id/status.
type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type orderLineResponse struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name,omitempty"`
	Quantity   int32  `json:"quantity"`
	PriceMinor int64  `json:"price_minor"`
}

type receiptResponse struct {
	ID         string    `json:"id"`
	ReceiptURL string    `json:"receipt_url"`
	CreatedAt  time.Time `json:"created_at"`
}

type orderResponse struct {
	ID                string              `json:"id"`
	Status            string              `json:"status"`
	Currency          string              `json:"currency"`
	TotalAmountMinor  int64               `json:"total_amount_minor"`
	TotalItems        int32               `json:"total_items"`
	Paid              bool                `json:"paid"`
	PaidAt            *time.Time          `json:"paid_at,omitempty"`
	PaymentID         string              `json:"payment_id,omitempty"`
	PaymentSessionURL string              `json:"payment_session_url,omitempty"`
	Items             []orderLineResponse `json:"items"`
	Receipt           *receiptResponse    `json:"receipt,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

type paymentSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// createOrderResponse — ответ POST /orders. session_error присутствует, если
// заказ сохранён, но платёжную сессию создать не удалось.
type createOrderResponse struct {
	Order          orderResponse           `json:"order"`
	PaymentSession *paymentSessionResponse `json:"payment_session,omitempty"`
	SessionError   string                  `json:"session_error,omitempty"`
}

type pageMetaResponse struct {
	Page     int `json:"page"`
	Total    int `json:"total"`
	LastPage int `json:"lastPage"`
}

type listOrdersResponse struct {
	Data []orderResponse  `json:"data"`
	Meta pageMetaResponse `json:"meta"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func fromOrder(order domain.Order) orderResponse {
	items := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, orderLineResponse{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			PriceMinor: line.PriceMinor,
		})
	}

	resp := orderResponse{
		ID:                order.ID,
		Status:            string(order.Status),
		Currency:          order.Currency,
		TotalAmountMinor:  order.TotalAmountMinor,
		TotalItems:        order.TotalItems,
		Paid:              order.Paid,
		PaidAt:            order.PaidAt,
		PaymentID:         order.PaymentID,
		PaymentSessionURL: order.PaymentSessionURL,
		Items:             items,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	if order.Receipt != nil {
		resp.Receipt = &receiptResponse{
			ID:         order.Receipt.ID,
			ReceiptURL: order.Receipt.ReceiptURL,
			CreatedAt:  order.Receipt.CreatedAt,
		}
	}
	return resp
}

func fromOrderView(view orders.OrderView) orderResponse {
	resp := fromOrder(view.Order)
	for i, line := range view.Lines {
		if i < len(resp.Items) {
			resp.Items[i].Name = line.Name
		}
	}
	return resp
}

func fromCreateResult(result orders.CreateResult) createOrderResponse {
	resp := createOrderResponse{
		Order:        fromOrderView(result.Order),
		SessionError: result.SessionError,
	}
	if result.PaymentSession != nil {
		resp.PaymentSession = &paymentSessionResponse{
			ID:  result.PaymentSession.ID,
			URL: result.PaymentSession.URL,
		}
	}
	return resp
}

func fromPage(page orders.Page) listOrdersResponse {
	data := make([]orderResponse, 0, len(page.Data))
	for _, order := range page.Data {
		data = append(data, fromOrder(order))
	}
	return listOrdersResponse{
		Data: data,
		Meta: pageMetaResponse{
			Page:     page.Meta.Page,
			Total:    page.Meta.Total,
			LastPage: page.Meta.LastPage,
		},
	}
}
