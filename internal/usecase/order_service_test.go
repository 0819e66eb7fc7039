package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/domain"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/infrastructure/repo"
)

func newOrderService() *OrderService {
	return &OrderService{Repo: repo.NewMemory()}
}

func twoItemInput() CreateOrderInput {
	return CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: "prod-1", ProductName: "Headphones", Quantity: 1, UnitPrice: decimal.RequireFromString("99.99")},
			{ProductID: "prod-2", ProductName: "Keyboard", Quantity: 1, UnitPrice: decimal.RequireFromString("49.99")},
		},
		Currency:      "USD",
		CustomerEmail: "jo@example.com",
		CustomerName:  "Jo",
	}
}

func TestCreateOrder_Totals(t *testing.T) {
	s := newOrderService()
	o, err := s.Create(context.Background(), twoItemInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Subtotal.Cents != 14998 {
		t.Fatalf("subtotal = %d", o.Subtotal.Cents)
	}
	if o.TaxAmount.Cents != 1500 {
		t.Fatalf("tax = %d", o.TaxAmount.Cents)
	}
	if o.ShippingAmount.Cents != 1000 {
		t.Fatalf("shipping = %d", o.ShippingAmount.Cents)
	}
	if o.FinalAmount.Cents != 17498 || o.FinalAmount.Currency != "usd" {
		t.Fatalf("final = %+v", o.FinalAmount)
	}
	if o.Status != domain.OrderPending {
		t.Fatalf("status = %s", o.Status)
	}
	if o.OrderID == "" {
		t.Fatalf("missing order id")
	}

	got, err := s.Get(o.OrderID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FinalAmount != o.FinalAmount {
		t.Fatalf("persisted final = %+v", got.FinalAmount)
	}
}

func TestCreateOrder_QuantityMultiplies(t *testing.T) {
	s := newOrderService()
	o, err := s.Create(context.Background(), CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: "prod-1", ProductName: "Sticker", Quantity: 3, UnitPrice: decimal.RequireFromString("2.50")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Subtotal.Cents != 750 {
		t.Fatalf("subtotal = %d", o.Subtotal.Cents)
	}
}

func TestCreateOrder_RejectsEmptyItems(t *testing.T) {
	s := newOrderService()
	_, err := s.Create(context.Background(), CreateOrderInput{})
	if Kind(err) != "bad_request" {
		t.Fatalf("kind = %s, err = %v", Kind(err), err)
	}
}

func TestCreateOrder_RejectsNonPositiveQuantity(t *testing.T) {
	s := newOrderService()
	for _, qty := range []int{0, -1} {
		in := twoItemInput()
		in.Items[0].Quantity = qty
		if _, err := s.Create(context.Background(), in); Kind(err) != "bad_request" {
			t.Fatalf("qty %d: kind = %s", qty, Kind(err))
		}
	}
}

func TestCreateOrder_RejectsNegativePrice(t *testing.T) {
	s := newOrderService()
	in := twoItemInput()
	in.Items[0].UnitPrice = decimal.RequireFromString("-1.00")
	if _, err := s.Create(context.Background(), in); Kind(err) != "bad_request" {
		t.Fatalf("kind = %s", Kind(err))
	}
}

func TestCreateOrder_AllowsFreeItem(t *testing.T) {
	s := newOrderService()
	o, err := s.Create(context.Background(), CreateOrderInput{
		Items: []OrderItemInput{
			{ProductID: "prod-1", ProductName: "Gift", Quantity: 1, UnitPrice: decimal.Zero},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Tax on zero is zero; only the flat shipping remains.
	if o.FinalAmount.Cents != 1000 {
		t.Fatalf("final = %d", o.FinalAmount.Cents)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	s := newOrderService()
	if _, err := s.Get("nope"); Kind(err) != "not_found" {
		t.Fatalf("kind = %s", Kind(err))
	}
}

func TestListOrders_Validation(t *testing.T) {
	s := newOrderService()
	if _, _, err := s.List("", 0, 10); Kind(err) != "bad_request" {
		t.Fatalf("page 0: kind = %s", Kind(err))
	}
	if _, _, err := s.List("", 1, 0); Kind(err) != "bad_request" {
		t.Fatalf("size 0: kind = %s", Kind(err))
	}
	if _, _, err := s.List("bogus", 1, 10); Kind(err) != "bad_request" {
		t.Fatalf("bad status: kind = %s", Kind(err))
	}
}

func TestListOrders_StatusFilter(t *testing.T) {
	s := newOrderService()
	for i := 0; i < 3; i++ {
		if _, err := s.Create(context.Background(), twoItemInput()); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	items, total, err := s.List(string(domain.OrderPending), 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("total=%d len=%d", total, len(items))
	}
	items, total, err = s.List(string(domain.OrderPaid), 1, 10)
	if err != nil {
		t.Fatalf("list paid: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("paid total=%d len=%d", total, len(items))
	}
}
