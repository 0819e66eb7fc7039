package repo

import (
	"sort"
	"sync"
	"time"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/domain"
)

// Memory keeps both collections in process. Used by tests and dev mode.
type Memory struct {
	mu       sync.RWMutex
	orders   map[string]*domain.Order
	payments map[string]*domain.Payment
}

func NewMemory() *Memory {
	return &Memory{
		orders:   make(map[string]*domain.Order),
		payments: make(map[string]*domain.Payment),
	}
}

func (r *Memory) PutOrder(o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.OrderID] = &cp
	return nil
}

func (r *Memory) GetOrder(id string) (*domain.Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, false
	}
	cp := *o
	return &cp, true
}

func (r *Memory) ListOrders(status domain.OrderStatus, page, pageSize int) ([]domain.Order, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if status != "" && o.Status != status {
			continue
		}
		all = append(all, *o)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].OrderID > all[j].OrderID
	})
	return pageSlice(all, page, pageSize), len(all)
}

func (r *Memory) PutPayment(p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payments[p.PaymentID] = &cp
	return nil
}

func (r *Memory) GetPayment(id string) (*domain.Payment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (r *Memory) ListPayments(status domain.PaymentStatus, page, pageSize int) ([]domain.Payment, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]domain.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		if status != "" && p.Status != status {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].PaymentID > all[j].PaymentID
	})
	return pageSlice(all, page, pageSize), len(all)
}

func (r *Memory) PaymentsForOrder(orderID string) []domain.Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Payment
	for _, p := range r.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out
}

func (r *Memory) PendingPaymentsBefore(cutoff time.Time) []domain.Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Payment
	for _, p := range r.payments {
		if p.Status == domain.PaymentPending && p.CreatedAt.Before(cutoff) {
			out = append(out, *p)
		}
	}
	return out
}

func pageSlice[T any](all []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
