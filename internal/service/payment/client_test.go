package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func TestCreateSession_Ok(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments/sessions" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req sessionRequestPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.OrderID != "order-1" || req.Currency != "usd" || len(req.Items) != 1 {
			t.Fatalf("unexpected payload: %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(sessionResponsePayload{
			SessionID:  "sess_1",
			SessionURL: "https://pay.example/sess_1",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	session, err := client.CreateSession(context.Background(), domain.SessionRequest{
		OrderID:  "order-1",
		Currency: "usd",
		Items:    []domain.SessionItem{{Name: "Widget", PriceMinor: 1000, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.URL != "https://pay.example/sess_1" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestCreateSession_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.CreateSession(context.Background(), domain.SessionRequest{OrderID: "order-1"})
	if !errors.Is(err, domain.ErrPaymentUnavailable) {
		t.Fatalf("expected ErrPaymentUnavailable, got %v", err)
	}
}

func TestCreateSession_EmptyURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(sessionResponsePayload{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.CreateSession(context.Background(), domain.SessionRequest{OrderID: "order-1"})
	if !errors.Is(err, domain.ErrPaymentUnavailable) {
		t.Fatalf("expected ErrPaymentUnavailable, got %v", err)
	}
}
