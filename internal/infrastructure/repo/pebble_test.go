package repo

import (
	"fmt"
	"testing"
	"time"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/domain"
)

func newTestPebble(t *testing.T) *Pebble {
	t.Helper()
	store, err := NewPebble(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPebble_RoundTrip(t *testing.T) {
	store := newTestPebble(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	o := &domain.Order{
		OrderID: "ord-1",
		Items: []domain.OrderItem{
			{ProductID: "prod-1", ProductName: "Headphones", Quantity: 1, UnitPrice: domain.FromCents(9999, "usd")},
		},
		Subtotal:    domain.FromCents(9999, "usd"),
		TaxAmount:   domain.FromCents(1000, "usd"),
		FinalAmount: domain.FromCents(11999, "usd"),
		Status:      domain.OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.PutOrder(o); err != nil {
		t.Fatalf("put order: %v", err)
	}

	got, ok := store.GetOrder("ord-1")
	if !ok {
		t.Fatalf("order missing")
	}
	if got.FinalAmount != o.FinalAmount || len(got.Items) != 1 || got.Items[0].UnitPrice.Cents != 9999 {
		t.Fatalf("round trip: %+v", got)
	}

	p := &domain.Payment{
		PaymentID: "pay-1",
		Amount:    domain.FromCents(11999, "usd"),
		Method:    domain.MethodCard,
		IntentID:  "pi_1",
		ChargeID:  "ch_1",
		Status:    domain.PaymentCompleted,
		Card:      &domain.CardSummary{Last4: "4242", Brand: "visa", ExpiryMonth: 12, ExpiryYear: 2030},
		OrderID:   "ord-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutPayment(p); err != nil {
		t.Fatalf("put payment: %v", err)
	}
	gotP, ok := store.GetPayment("pay-1")
	if !ok {
		t.Fatalf("payment missing")
	}
	if gotP.ChargeID != "ch_1" || gotP.Card == nil || gotP.Card.Last4 != "4242" {
		t.Fatalf("round trip: %+v", gotP)
	}

	if _, ok := store.GetPayment("nope"); ok {
		t.Fatalf("unexpected hit")
	}
}

func TestPebble_PutOverwrites(t *testing.T) {
	store := newTestPebble(t)
	p := &domain.Payment{PaymentID: "pay-1", Amount: domain.FromCents(100, "usd"), Status: domain.PaymentPending, CreatedAt: time.Now().UTC()}
	if err := store.PutPayment(p); err != nil {
		t.Fatalf("put: %v", err)
	}
	p.Status = domain.PaymentCompleted
	if err := store.PutPayment(p); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ := store.GetPayment("pay-1")
	if got.Status != domain.PaymentCompleted {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestPebble_ListAndFilter(t *testing.T) {
	store := newTestPebble(t)
	seedPayments(t, store, 25)

	// Orders under their own prefix must not leak into payment scans.
	if err := store.PutOrder(&domain.Order{OrderID: "ord-x", Status: domain.OrderPending, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("put order: %v", err)
	}

	all, total := store.ListPayments("", 1, 50)
	if total != 25 || len(all) != 25 {
		t.Fatalf("total=%d len=%d", total, len(all))
	}
	if all[0].PaymentID != "pay-024" {
		t.Fatalf("first = %s", all[0].PaymentID)
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatalf("ordering broken at %d", i)
		}
	}

	page, total := store.ListPayments(domain.PaymentPending, 1, 5)
	if total != 12 || len(page) != 5 {
		t.Fatalf("pending total=%d len=%d", total, len(page))
	}
}

func TestPebble_PaymentsForOrder(t *testing.T) {
	store := newTestPebble(t)
	now := time.Now().UTC()
	for i, orderID := range []string{"ord-1", "ord-1", "ord-2"} {
		p := &domain.Payment{
			PaymentID: fmt.Sprintf("pay-%d", i),
			Amount:    domain.FromCents(100, "usd"),
			Status:    domain.PaymentPending,
			OrderID:   orderID,
			CreatedAt: now,
		}
		if err := store.PutPayment(p); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	if got := store.PaymentsForOrder("ord-1"); len(got) != 2 {
		t.Fatalf("ord-1 payments = %d", len(got))
	}
	if got := store.PaymentsForOrder("ord-3"); len(got) != 0 {
		t.Fatalf("ord-3 payments = %d", len(got))
	}
}

func TestPebble_PendingPaymentsBefore(t *testing.T) {
	store := newTestPebble(t)
	seedPayments(t, store, 10)

	cutoff := time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC)
	stale := store.PendingPaymentsBefore(cutoff)
	if len(stale) != 2 {
		t.Fatalf("stale = %d", len(stale))
	}
}
