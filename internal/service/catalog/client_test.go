package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func TestValidateProducts_AllResolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/validate" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req validateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.IDs) != 2 {
			t.Fatalf("ids = %v", req.IDs)
		}
		_ = json.NewEncoder(w).Encode([]productPayload{
			{ID: "p1", Name: "Widget", PriceMinor: 1000},
			{ID: "p2", Name: "Gadget", PriceMinor: 250},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	products, err := client.ValidateProducts(context.Background(), []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 || products[0].Name != "Widget" {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestValidateProducts_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Каталог возвращает только найденный товар.
		_ = json.NewEncoder(w).Encode([]productPayload{
			{ID: "p1", Name: "Widget", PriceMinor: 1000},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.ValidateProducts(context.Background(), []string{"p1", "ghost"})
	if !errors.Is(err, domain.ErrProductUnresolved) {
		t.Fatalf("expected ErrProductUnresolved, got %v", err)
	}
}

func TestValidateProducts_Upstream500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.ValidateProducts(context.Background(), []string{"p1"})
	if !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestValidateProducts_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil)
	_, err := client.ValidateProducts(context.Background(), []string{"p1"})
	if !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}
