package repo

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/domain"
)

const (
	orderPrefix   = "order/"
	paymentPrefix = "payment/"
)

// Pebble is the default durable store: one KV database holding both
// collections under distinct key prefixes, records JSON-encoded.
type Pebble struct {
	db *pebble.DB
}

func NewPebble(dir string) (*Pebble, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Pebble{db: d}, nil
}

func (r *Pebble) Close() error { return r.db.Close() }

func (r *Pebble) PutOrder(o *domain.Order) error {
	return r.put(orderPrefix+o.OrderID, o)
}

func (r *Pebble) GetOrder(id string) (*domain.Order, bool) {
	var o domain.Order
	if !r.get(orderPrefix+id, &o) {
		return nil, false
	}
	return &o, true
}

func (r *Pebble) ListOrders(status domain.OrderStatus, page, pageSize int) ([]domain.Order, int) {
	var all []domain.Order
	r.scan(orderPrefix, func(val []byte) {
		var o domain.Order
		if json.Unmarshal(val, &o) != nil {
			return
		}
		if status != "" && o.Status != status {
			return
		}
		all = append(all, o)
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].OrderID > all[j].OrderID
	})
	return pageSlice(all, page, pageSize), len(all)
}

func (r *Pebble) PutPayment(p *domain.Payment) error {
	return r.put(paymentPrefix+p.PaymentID, p)
}

func (r *Pebble) GetPayment(id string) (*domain.Payment, bool) {
	var p domain.Payment
	if !r.get(paymentPrefix+id, &p) {
		return nil, false
	}
	return &p, true
}

func (r *Pebble) ListPayments(status domain.PaymentStatus, page, pageSize int) ([]domain.Payment, int) {
	var all []domain.Payment
	r.scan(paymentPrefix, func(val []byte) {
		var p domain.Payment
		if json.Unmarshal(val, &p) != nil {
			return
		}
		if status != "" && p.Status != status {
			return
		}
		all = append(all, p)
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].PaymentID > all[j].PaymentID
	})
	return pageSlice(all, page, pageSize), len(all)
}

func (r *Pebble) PaymentsForOrder(orderID string) []domain.Payment {
	var out []domain.Payment
	r.scan(paymentPrefix, func(val []byte) {
		var p domain.Payment
		if json.Unmarshal(val, &p) != nil {
			return
		}
		if p.OrderID == orderID {
			out = append(out, p)
		}
	})
	return out
}

func (r *Pebble) PendingPaymentsBefore(cutoff time.Time) []domain.Payment {
	var out []domain.Payment
	r.scan(paymentPrefix, func(val []byte) {
		var p domain.Payment
		if json.Unmarshal(val, &p) != nil {
			return
		}
		if p.Status == domain.PaymentPending && p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	})
	return out
}

func (r *Pebble) put(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.db.Set([]byte(key), b, pebble.Sync)
}

func (r *Pebble) get(key string, v any) bool {
	val, closer, err := r.db.Get([]byte(key))
	if err != nil {
		return false
	}
	defer closer.Close()
	return json.Unmarshal(val, v) == nil
}

func (r *Pebble) scan(prefix string, fn func(val []byte)) {
	upper := append([]byte(prefix[:len(prefix)-1]), prefix[len(prefix)-1]+1)
	it, err := r.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upper,
	})
	if err != nil {
		return
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		fn(append([]byte(nil), it.Value()...))
	}
}
