package domain_test

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func TestComputeTotals(t *testing.T) {
	catalog := domain.CatalogByID([]domain.Product{
		{ID: "p1", Name: "Widget", PriceMinor: 1000},
		{ID: "p2", Name: "Gadget", PriceMinor: 250},
	})

	amount, items, err := domain.ComputeTotals([]domain.ItemRequest{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 4},
	}, catalog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 3000 {
		t.Fatalf("amount = %d, want 3000", amount)
	}
	if items != 6 {
		t.Fatalf("items = %d, want 6", items)
	}
}

func TestComputeTotals_UnresolvedProduct(t *testing.T) {
	catalog := domain.CatalogByID([]domain.Product{{ID: "p1", PriceMinor: 100}})

	_, _, err := domain.ComputeTotals([]domain.ItemRequest{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	}, catalog)
	if !errors.Is(err, domain.ErrProductUnresolved) {
		t.Fatalf("expected ErrProductUnresolved, got %v", err)
	}
}

func TestComputeTotals_UsesCatalogPriceOnly(t *testing.T) {
	// Каталожная цена — единственный источник: два одинаковых товара
	// в разных позициях считаются по одной и той же цене каталога.
	catalog := domain.CatalogByID([]domain.Product{{ID: "p1", PriceMinor: 10}})

	amount, items, err := domain.ComputeTotals([]domain.ItemRequest{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p1", Quantity: 3},
	}, catalog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 50 || items != 5 {
		t.Fatalf("got amount=%d items=%d, want 50/5", amount, items)
	}
}
