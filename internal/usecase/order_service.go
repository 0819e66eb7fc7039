package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/domain"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/infrastructure/events"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/metrics"
)

type OrderRepo interface {
	PutOrder(*domain.Order) error
	GetOrder(id string) (*domain.Order, bool)
	ListOrders(status domain.OrderStatus, page, pageSize int) ([]domain.Order, int)
}

type OrderItemInput struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

type CreateOrderInput struct {
	Items           []OrderItemInput
	Currency        string
	ShippingAddress domain.Address
	BillingAddress  domain.Address
	CustomerEmail   string
	CustomerName    string
	CustomerPhone   string
	Notes           string
}

type OrderService struct {
	Repo          OrderRepo
	Events        events.Publisher
	Metrics       *metrics.Registry
	TaxRatePct    int64 // default 10
	ShippingCents int64 // default 1000 (flat rate)
}

func (s *OrderService) taxRate() int64 {
	if s.TaxRatePct == 0 {
		return 10
	}
	return s.TaxRatePct
}

func (s *OrderService) shipping(currency string) domain.Money {
	cents := s.ShippingCents
	if cents == 0 {
		cents = 1000
	}
	return domain.FromCents(cents, currency)
}

// Create computes the order totals once, at creation. They are never
// recomputed afterwards.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrBadRequest("order must contain items")
	}
	currency := in.Currency
	if currency == "" {
		currency = "usd"
	}
	subtotal := domain.FromCents(0, currency)
	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, ErrBadRequest("item quantity must be positive")
		}
		unit, err := itemPrice(it.UnitPrice, currency)
		if err != nil {
			return nil, ErrBadRequest("invalid item price")
		}
		items = append(items, domain.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   unit,
		})
		subtotal, err = subtotal.Add(unit.Mul(int64(it.Quantity)))
		if err != nil {
			return nil, ErrBadRequest("invalid item price")
		}
	}
	tax := subtotal.Percent(s.taxRate())
	shipping := s.shipping(currency)
	final, err := subtotal.Add(tax)
	if err == nil {
		final, err = final.Add(shipping)
	}
	if err != nil {
		return nil, ErrInternal("order total: " + err.Error())
	}

	now := time.Now().UTC()
	o := &domain.Order{
		OrderID:         uuid.NewString(),
		Items:           items,
		Subtotal:        subtotal,
		TaxAmount:       tax,
		ShippingAmount:  shipping,
		FinalAmount:     final,
		Status:          domain.OrderPending,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		CustomerEmail:   in.CustomerEmail,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.PutOrder(o); err != nil {
		return nil, ErrInternal("persist order: " + err.Error())
	}
	if s.Metrics != nil {
		s.Metrics.OrdersCreated.Inc()
	}
	if s.Events != nil {
		_ = s.Events.Publish(ctx, events.Event{
			Type:        events.TypeOrderCreated,
			OrderID:     o.OrderID,
			Status:      string(o.Status),
			AmountCents: o.FinalAmount.Cents,
			Currency:    o.FinalAmount.Currency,
			TS:          now.UnixMilli(),
		})
	}
	return o, nil
}

func (s *OrderService) Get(id string) (*domain.Order, error) {
	o, ok := s.Repo.GetOrder(id)
	if !ok {
		return nil, ErrNotFound("order")
	}
	return o, nil
}

func (s *OrderService) List(status string, page, pageSize int) ([]domain.Order, int, error) {
	if page < 1 || pageSize < 1 {
		return nil, 0, ErrBadRequest("invalid page")
	}
	st := domain.OrderStatus(status)
	if status != "" && !st.Valid() {
		return nil, 0, ErrBadRequest("invalid status filter")
	}
	items, total := s.Repo.ListOrders(st, page, pageSize)
	return items, total, nil
}

// itemPrice allows a zero unit price (free item); negative or over-precise
// values are rejected.
func itemPrice(v decimal.Decimal, currency string) (domain.Money, error) {
	if v.Sign() == 0 {
		return domain.FromCents(0, currency), nil
	}
	return domain.FromDecimal(v, currency)
}
