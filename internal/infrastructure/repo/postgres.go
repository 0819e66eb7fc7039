package repo

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/domain"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	r := &Postgres{db: db}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Postgres) init() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status, created_at DESC);`)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`CREATE TABLE IF NOT EXISTS payments (
		payment_id TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		status TEXT NOT NULL,
		order_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);`)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`CREATE INDEX IF NOT EXISTS payments_status_idx ON payments (status, created_at DESC);`)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`CREATE INDEX IF NOT EXISTS payments_order_idx ON payments (order_id);`)
	return err
}

func (r *Postgres) PutOrder(o *domain.Order) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO orders (order_id,doc,status,created_at) VALUES ($1,$2,$3,$4)
		ON CONFLICT (order_id) DO UPDATE SET doc=$2,status=$3`,
		o.OrderID, string(doc), string(o.Status), o.CreatedAt)
	return err
}

func (r *Postgres) GetOrder(id string) (*domain.Order, bool) {
	var doc string
	err := r.db.QueryRow(`SELECT doc FROM orders WHERE order_id=$1`, id).Scan(&doc)
	if err != nil {
		return nil, false
	}
	var o domain.Order
	if json.Unmarshal([]byte(doc), &o) != nil {
		return nil, false
	}
	return &o, true
}

func (r *Postgres) ListOrders(status domain.OrderStatus, page, pageSize int) ([]domain.Order, int) {
	query := `SELECT doc FROM orders ORDER BY created_at DESC, order_id DESC LIMIT $1 OFFSET $2`
	countQ := `SELECT COUNT(1) FROM orders`
	args := []any{pageSize, (page - 1) * pageSize}
	countArgs := []any{}
	if status != "" {
		query = `SELECT doc FROM orders WHERE status=$3 ORDER BY created_at DESC, order_id DESC LIMIT $1 OFFSET $2`
		countQ = `SELECT COUNT(1) FROM orders WHERE status=$1`
		args = append(args, string(status))
		countArgs = append(countArgs, string(status))
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0
	}
	defer rows.Close()
	var out []domain.Order
	for rows.Next() {
		var doc string
		if rows.Scan(&doc) != nil {
			continue
		}
		var o domain.Order
		if json.Unmarshal([]byte(doc), &o) == nil {
			out = append(out, o)
		}
	}
	var total int
	_ = r.db.QueryRow(countQ, countArgs...).Scan(&total)
	return out, total
}

func (r *Postgres) PutPayment(p *domain.Payment) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO payments (payment_id,doc,status,order_id,created_at) VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (payment_id) DO UPDATE SET doc=$2,status=$3,order_id=$4`,
		p.PaymentID, string(doc), string(p.Status), p.OrderID, p.CreatedAt)
	return err
}

func (r *Postgres) GetPayment(id string) (*domain.Payment, bool) {
	var doc string
	err := r.db.QueryRow(`SELECT doc FROM payments WHERE payment_id=$1`, id).Scan(&doc)
	if err != nil {
		return nil, false
	}
	var p domain.Payment
	if json.Unmarshal([]byte(doc), &p) != nil {
		return nil, false
	}
	return &p, true
}

func (r *Postgres) ListPayments(status domain.PaymentStatus, page, pageSize int) ([]domain.Payment, int) {
	query := `SELECT doc FROM payments ORDER BY created_at DESC, payment_id DESC LIMIT $1 OFFSET $2`
	countQ := `SELECT COUNT(1) FROM payments`
	args := []any{pageSize, (page - 1) * pageSize}
	countArgs := []any{}
	if status != "" {
		query = `SELECT doc FROM payments WHERE status=$3 ORDER BY created_at DESC, payment_id DESC LIMIT $1 OFFSET $2`
		countQ = `SELECT COUNT(1) FROM payments WHERE status=$1`
		args = append(args, string(status))
		countArgs = append(countArgs, string(status))
	}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0
	}
	defer rows.Close()
	var out []domain.Payment
	for rows.Next() {
		var doc string
		if rows.Scan(&doc) != nil {
			continue
		}
		var p domain.Payment
		if json.Unmarshal([]byte(doc), &p) == nil {
			out = append(out, p)
		}
	}
	var total int
	_ = r.db.QueryRow(countQ, countArgs...).Scan(&total)
	return out, total
}

func (r *Postgres) PaymentsForOrder(orderID string) []domain.Payment {
	rows, err := r.db.Query(`SELECT doc FROM payments WHERE order_id=$1`, orderID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []domain.Payment
	for rows.Next() {
		var doc string
		if rows.Scan(&doc) != nil {
			continue
		}
		var p domain.Payment
		if json.Unmarshal([]byte(doc), &p) == nil {
			out = append(out, p)
		}
	}
	return out
}

func (r *Postgres) PendingPaymentsBefore(cutoff time.Time) []domain.Payment {
	rows, err := r.db.Query(`SELECT doc FROM payments WHERE status='pending' AND created_at < $1`, cutoff)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []domain.Payment
	for rows.Next() {
		var doc string
		if rows.Scan(&doc) != nil {
			continue
		}
		var p domain.Payment
		if json.Unmarshal([]byte(doc), &p) == nil {
			out = append(out, p)
		}
	}
	return out
}
