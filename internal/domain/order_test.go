package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:               "order-1",
		Status:           domain.OrderStatusPending,
		Currency:         "usd",
		TotalAmountMinor: 2000,
		TotalItems:       2,
		Lines: []domain.OrderLine{
			{
				ID:         "line-1",
				ProductID:  "p1",
				Quantity:   2,
				PriceMinor: 1000,
				CreatedAt:  now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no currency",
			mut: func(o *domain.Order) {
				o.Currency = ""
			},
		},
		{
			name: "negative amount",
			mut: func(o *domain.Order) {
				o.TotalAmountMinor = -1
			},
		},
		{
			name: "no lines",
			mut: func(o *domain.Order) {
				o.Lines = nil
			},
		},
		{
			name: "qty invalid",
			mut: func(o *domain.Order) {
				o.Lines[0].Quantity = 0
			},
		},
		{
			name: "negative price",
			mut: func(o *domain.Order) {
				o.Lines[0].PriceMinor = -5
			},
		},
		{
			name: "amount mismatch",
			mut: func(o *domain.Order) {
				o.TotalAmountMinor = 999
			},
		},
		{
			name: "items mismatch",
			mut: func(o *domain.Order) {
				o.TotalItems = 7
			},
		},
		{
			name: "paid without paid_at",
			mut: func(o *domain.Order) {
				o.Paid = true
				o.PaidAt = nil
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)
			if errs := order.ValidateInvariants(); len(errs) == 0 {
				t.Fatalf("expected validation errors, got none")
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"pending", "paid", "delivered", "cancelled"} {
		if _, ok := domain.ParseOrderStatus(raw); !ok {
			t.Fatalf("expected %q to parse", raw)
		}
	}
	if _, ok := domain.ParseOrderStatus("shipped"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}
