package memory

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func seedOrder(t *testing.T, repo domain.OrderRepository, id string, createdAt time.Time) domain.Order {
	t.Helper()

	order := domain.Order{
		ID:               id,
		Status:           domain.OrderStatusPending,
		Currency:         "usd",
		TotalAmountMinor: 2000,
		TotalItems:       2,
		Lines: []domain.OrderLine{
			{ID: id + "-line", ProductID: "p1", Quantity: 2, PriceMinor: 1000, CreatedAt: createdAt},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := repo.Create(order); err != nil {
		t.Fatalf("create order %s: %v", id, err)
	}
	return order
}

func TestCreateAndGet(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()
	seedOrder(t, repo, "order-1", now)

	got, err := repo.Get("order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalAmountMinor != 2000 || len(got.Lines) != 1 {
		t.Fatalf("unexpected order: %+v", got)
	}

	if err := repo.Create(domain.Order{ID: "order-1"}); !errors.Is(err, domain.ErrOrderExists) {
		t.Fatalf("expected ErrOrderExists, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := NewOrderRepository()
	if _, err := repo.Get("ghost"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestList_PaginationAndFilter(t *testing.T) {
	repo := NewOrderRepository()
	base := time.Now().UTC()
	for i := 0; i < 25; i++ {
		order := seedOrder(t, repo, fmt.Sprintf("order-%02d", i), base.Add(time.Duration(i)*time.Second))
		if i%5 == 0 {
			if _, err := repo.UpdateStatus(order.ID, domain.OrderStatusCancelled, base); err != nil {
				t.Fatalf("update status: %v", err)
			}
		}
	}

	pending := domain.OrderStatusPending
	total, err := repo.Count(&pending)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 20 {
		t.Fatalf("pending count = %d, want 20", total)
	}

	page2, err := repo.List(2, 10, &pending)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page2) != 10 {
		t.Fatalf("page2 size = %d, want 10", len(page2))
	}
	// Сортировка от новых к старым: вторая страница строго старше первой.
	page1, _ := repo.List(1, 10, &pending)
	if !page1[9].CreatedAt.After(page2[0].CreatedAt) {
		t.Fatal("expected page1 entries to be newer than page2")
	}

	empty, err := repo.List(100, 10, nil)
	if err != nil {
		t.Fatalf("list beyond range: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}
}

func TestMarkPaid_Idempotent(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()
	seedOrder(t, repo, "order-1", now)

	paidAt := now.Add(time.Minute)
	first, err := repo.MarkPaid("order-1", "pi_1", "https://pay/r1", paidAt)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if !first.Paid || first.Status != domain.OrderStatusPaid {
		t.Fatalf("order not marked paid: %+v", first)
	}
	if first.PaidAt == nil || !first.PaidAt.Equal(paidAt) {
		t.Fatalf("paid_at not set: %+v", first.PaidAt)
	}
	if first.Receipt == nil || first.Receipt.ReceiptURL != "https://pay/r1" {
		t.Fatalf("receipt not created: %+v", first.Receipt)
	}

	second, err := repo.MarkPaid("order-1", "pi_1", "https://pay/r1", paidAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("repeat mark paid: %v", err)
	}
	if second.Receipt.ID != first.Receipt.ID {
		t.Fatal("repeat confirmation must not create a second receipt")
	}
	if !second.PaidAt.Equal(*first.PaidAt) {
		t.Fatal("repeat confirmation must not move paid_at")
	}

	if _, err := repo.MarkPaid("ghost", "pi", "url", paidAt); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestUpdateStatus_TouchesOnlyStatus(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()
	created := seedOrder(t, repo, "order-1", now)

	updatedAt := now.Add(time.Minute)
	got, err := repo.UpdateStatus("order-1", domain.OrderStatusCancelled, updatedAt)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if got.Status != domain.OrderStatusCancelled {
		t.Fatalf("status = %s", got.Status)
	}
	if got.TotalAmountMinor != created.TotalAmountMinor || got.TotalItems != created.TotalItems {
		t.Fatal("totals must stay untouched")
	}
	if !got.UpdatedAt.Equal(updatedAt) {
		t.Fatal("updated_at must be refreshed")
	}
}

func TestListAwaitingSession(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()
	old := seedOrder(t, repo, "order-old", now.Add(-time.Hour))
	seedOrder(t, repo, "order-new", now)
	withSession := seedOrder(t, repo, "order-session", now.Add(-time.Hour))
	if err := repo.SetPaymentSession(withSession.ID, "https://pay/s1", now); err != nil {
		t.Fatalf("set session: %v", err)
	}

	awaiting, err := repo.ListAwaitingSession(now.Add(-time.Minute), 10)
	if err != nil {
		t.Fatalf("list awaiting: %v", err)
	}
	if len(awaiting) != 1 || awaiting[0].ID != old.ID {
		t.Fatalf("awaiting = %+v, want only %s", awaiting, old.ID)
	}
}
